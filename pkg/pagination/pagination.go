package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListParams 列表查询参数
type ListParams struct {
	Page   int    `json:"page" form:"page"`
	Limit  int    `json:"limit" form:"limit"`
	Search string `json:"search" form:"search"`
	Sort   Sort   `json:"sort"`
}

// Sort 排序字段与方向
type Sort struct {
	Column    string
	Ascending bool
}

// PageInfo 分页信息
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// 分页配置
const (
	DefaultPage       = 1
	DefaultLimit      = 20
	MaxLimit          = 100
	DefaultSortColumn = "created_at"
	// MaxPage 保证 (page-1)*limit 不溢出
	MaxPage = math.MaxInt32 / MaxLimit
)

var ErrInvalidSort = errors.New("invalid sort column")

// DefaultSort created_at 倒序
var DefaultSort = Sort{Column: DefaultSortColumn, Ascending: false}

// ParseListParams 从请求中解析分页、搜索和排序参数，sortable 为允许排序的列
func ParseListParams(c *gin.Context, sortable []string) (*ListParams, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	sort, err := ParseSort(c.Query("sort"), sortable)
	if err != nil {
		return nil, err
	}

	return &ListParams{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   sort,
	}, nil
}

// ParseSort 解析 "column.direction"，如 "created_at.desc"；方向缺省为 desc
func ParseSort(raw string, sortable []string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}

	column, dir, _ := strings.Cut(raw, ".")
	if column == "" {
		column = DefaultSortColumn
	}

	allowed := column == DefaultSortColumn
	for _, s := range sortable {
		if s == column {
			allowed = true
			break
		}
	}
	if !allowed {
		return Sort{}, ErrInvalidSort
	}

	return Sort{Column: column, Ascending: strings.ToLower(dir) == "asc"}, nil
}

// OrderClause 生成 ORDER BY 子句，列名已经过白名单校验
func (s Sort) OrderClause() string {
	if s.Ascending {
		return s.Column + " ASC"
	}
	return s.Column + " DESC"
}

// NewPageInfo 计算分页信息
func NewPageInfo(page, limit int, total int64) *PageInfo {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return &PageInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// GetOffset 计算offset
func (p *ListParams) GetOffset() int {
	return (p.Page - 1) * p.Limit
}

// GetLimit 计算limit
func (p *ListParams) GetLimit() int {
	return p.Limit
}
