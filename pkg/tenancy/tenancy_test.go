package tenancy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tenantdesk/pkg/jwt"

	"github.com/stretchr/testify/assert"
)

const (
	tokenTenant  = "11111111-1111-4111-8111-111111111111"
	queryTenant  = "22222222-2222-4222-8222-222222222222"
	headerTenant = "33333333-3333-4333-8333-333333333333"
)

func TestResolvePriority(t *testing.T) {
	withTenant := &jwt.Claims{Identity: jwt.Identity{ID: "u", TenantID: tokenTenant}}
	global := &jwt.Claims{Identity: jwt.Identity{ID: "u"}}

	tests := []struct {
		name   string
		claims *jwt.Claims
		query  string
		header string
		want   Resolution
		wantOK bool
	}{
		{"token wins", withTenant, queryTenant, headerTenant, Resolution{tokenTenant, SourceToken}, true},
		{"query over header", nil, queryTenant, headerTenant, Resolution{queryTenant, SourceQuery}, true},
		{"global token falls through", global, "", headerTenant, Resolution{headerTenant, SourceHeader}, true},
		{"malformed query skipped", nil, "abc", headerTenant, Resolution{headerTenant, SourceHeader}, true},
		{"uuid without dashes rejected", nil, "22222222222242228222222222222222", "", Resolution{}, false},
		{"nothing", nil, "", "", Resolution{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/clients"
			if tt.query != "" {
				target += "?" + QueryParam + "=" + tt.query
			}
			r := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				r.Header.Set(HeaderName, tt.header)
			}

			got, ok := Resolve(r, tt.claims)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithTenant(context.Background(), Resolution{TenantID: queryTenant, Source: SourceQuery})
	res, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.True(t, res.FromRequest())
	assert.Equal(t, queryTenant, res.TenantID)
}
