package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind 错误分类，每个分类对应一个HTTP状态码
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidParam
	KindValidation
	KindTenantRequired
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

// HTTP层错误码
const (
	CodeSuccess       = http.StatusOK
	CodeCreated       = http.StatusCreated
	CodeInvalidParam  = http.StatusBadRequest
	CodeUnauthorized  = http.StatusUnauthorized
	CodeForbidden     = http.StatusForbidden
	CodeNotFound      = http.StatusNotFound
	CodeUnprocessable = http.StatusUnprocessableEntity
	CodeServerError   = http.StatusInternalServerError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParam:
		return "invalid_param"
	case KindValidation:
		return "validation_failed"
	case KindTenantRequired:
		return "tenant_required"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status 错误分类对应的HTTP状态码
func (k Kind) Status() int {
	switch k {
	case KindInvalidParam, KindTenantRequired, KindConflict:
		return CodeInvalidParam
	case KindValidation:
		return CodeUnprocessable
	case KindUnauthenticated:
		return CodeUnauthorized
	case KindForbidden:
		return CodeForbidden
	case KindNotFound:
		return CodeNotFound
	default:
		return CodeServerError
	}
}

// AppError 业务错误
type AppError struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// WithDetails 附加校验明细
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// As 从错误链中取出 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf 未知错误一律视为 KindInternal
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind 判断错误分类
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ========== 常用构造 ==========

func InvalidParam(message string) *AppError    { return New(KindInvalidParam, message) }
func Validation(message string) *AppError      { return New(KindValidation, message) }
func TenantRequired(message string) *AppError  { return New(KindTenantRequired, message) }
func Unauthenticated(message string) *AppError { return New(KindUnauthenticated, message) }
func Forbidden(message string) *AppError       { return New(KindForbidden, message) }
func NotFound(message string) *AppError        { return New(KindNotFound, message) }
func Conflict(message string) *AppError        { return New(KindConflict, message) }

func Internal(message string, err error) *AppError {
	return Wrap(KindInternal, message, err)
}
