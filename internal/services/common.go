package services

import (
	"encoding/json"
	"errors"
	"strings"

	"tenantdesk/internal/models"
	"tenantdesk/pkg/jwt"
	"tenantdesk/pkg/pagination"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor 当前请求的操作者：令牌身份、当前租户、已校验的角色
type Actor struct {
	Identity     jwt.Identity
	ActiveTenant string
	Role         *models.Role
}

// UserID 审计日志使用的操作者ID
func (a Actor) UserID() string {
	return a.Identity.ID
}

// HasGlobalRole 持有全局角色的操作者可以分配全局角色
func (a Actor) HasGlobalRole() bool {
	return a.Role != nil && a.Role.IsGlobal()
}

// 可搜索与可排序的列，列名直接拼入SQL，只能来自这里
var (
	TenantSearchColumns = []string{"name", "domain", "subdomain"}
	UserSearchColumns   = []string{"email", "name", "phone"}
	ClientSearchColumns = []string{"name", "email", "phone", "document_id"}

	TenantSortColumns = []string{"name", "subdomain", "plan", "is_active", "updated_at"}
	UserSortColumns   = []string{"email", "name", "is_active", "last_login_at", "updated_at"}
	ClientSortColumns = []string{"name", "email", "document_id", "birth_date", "is_active", "updated_at"}
)

// applySearch 不区分大小写的子串匹配
func applySearch(query *gorm.DB, columns []string, term string) *gorm.DB {
	if term == "" || len(columns) == 0 {
		return query
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	clauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// findPage 统计总数后按排序与分页取数据
func findPage[T any](query *gorm.DB, params *pagination.ListParams) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]T, 0, params.GetLimit())
	err := query.Order(params.Sort.OrderClause()).
		Offset(params.GetOffset()).
		Limit(params.GetLimit()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// isDuplicateKey 唯一约束冲突
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// snapshot 将模型转换为审计payload
func snapshot(v interface{}) datatypes.JSONMap {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSONMap{}
	}
	out := datatypes.JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return datatypes.JSONMap{}
	}
	return out
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeOptional 空白字符串视为未提供
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
