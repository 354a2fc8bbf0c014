package tenancy

import (
	"context"
	"net/http"
	"strings"

	"tenantdesk/pkg/jwt"

	"github.com/google/uuid"
)

// 租户标识的请求输入
const (
	QueryParam = "tenantId"
	HeaderName = "x-tenant-id"
)

// Source 租户标识来源
type Source string

const (
	SourceToken  Source = "token"
	SourceQuery  Source = "query"
	SourceHeader Source = "header"
)

// Resolution 解析结果
type Resolution struct {
	TenantID string
	Source   Source
}

// FromRequest 请求中不可由客户端伪造的来源只有令牌
func (r Resolution) FromRequest() bool {
	return r.Source != SourceToken
}

// IsValidID 只接受 36 位标准格式的 UUID
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Resolve 按 令牌 > 查询参数 > 请求头 的顺序解析租户，claims 为已验证的令牌声明，可为 nil
func Resolve(r *http.Request, claims *jwt.Claims) (Resolution, bool) {
	if claims != nil && IsValidID(claims.TenantID) {
		return Resolution{TenantID: claims.TenantID, Source: SourceToken}, true
	}

	if id := strings.TrimSpace(r.URL.Query().Get(QueryParam)); IsValidID(id) {
		return Resolution{TenantID: id, Source: SourceQuery}, true
	}

	if id := strings.TrimSpace(r.Header.Get(HeaderName)); IsValidID(id) {
		return Resolution{TenantID: id, Source: SourceHeader}, true
	}

	return Resolution{}, false
}

type contextKey struct{}

// WithTenant 保存当前请求的租户
func WithTenant(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, contextKey{}, res)
}

// FromContext 取出当前请求的租户
func FromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(contextKey{}).(Resolution)
	return res, ok
}
