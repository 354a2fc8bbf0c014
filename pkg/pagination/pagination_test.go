package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/users?"+query, nil)
	return c
}

func TestParseListParams(t *testing.T) {
	sortable := []string{"email", "name"}

	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
		wantSort  Sort
	}{
		{"defaults", "", 1, 20, Sort{Column: "created_at"}},
		{"explicit", "page=2&limit=5", 2, 5, Sort{Column: "created_at"}},
		{"limit clamped", "limit=500", 1, 100, Sort{Column: "created_at"}},
		{"garbage falls back", "page=abc&limit=-3", 1, 20, Sort{Column: "created_at"}},
		{"page clamped", "page=9223372036854775807&limit=100", MaxPage, 100, Sort{Column: "created_at"}},
		{"page clamped before overflow", "page=4611686018427387904", MaxPage, 20, Sort{Column: "created_at"}},
		{"sort asc", "sort=email.asc", 1, 20, Sort{Column: "email", Ascending: true}},
		{"sort without direction", "sort=name", 1, 20, Sort{Column: "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := ParseListParams(newContext(tt.query), sortable)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
			assert.Equal(t, tt.wantSort, params.Sort)
		})
	}
}

func TestParseSortRejectsUnknownColumn(t *testing.T) {
	_, err := ParseSort("password_hash.asc", []string{"email"})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestOffsetAndPageInfo(t *testing.T) {
	params := &ListParams{Page: 2, Limit: 5}
	assert.Equal(t, 5, params.GetOffset())

	info := NewPageInfo(2, 5, 12)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "created_at DESC", DefaultSort.OrderClause())
	assert.Equal(t, "email ASC", Sort{Column: "email", Ascending: true}.OrderClause())
}

func TestOffsetNeverNegative(t *testing.T) {
	params, err := ParseListParams(newContext("page=99999999999&limit=100"), nil)
	require.NoError(t, err)
	assert.Positive(t, params.GetOffset())
	assert.Equal(t, (MaxPage-1)*MaxLimit, params.GetOffset())
}
