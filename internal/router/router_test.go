package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tenantdesk/internal/models"
	"tenantdesk/internal/testutil"
	"tenantdesk/pkg/authcookie"
	"tenantdesk/pkg/config"
	"tenantdesk/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const password = "secret123"

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	jwt    *jwt.JWTManager
	acme   *models.Tenant
	other  *models.Tenant
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "test-secret", TokenDuration: config.DefaultTokenDuration},
		CORS:    config.CORSConfig{AllowOrigins: []string{"http://localhost:3000"}, AllowCredentials: true},
		Tenancy: config.TenancyConfig{GlobalAdminListScope: config.ListScopeAll},
	}
	manager := jwt.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.TokenDuration)

	s := &testServer{
		t:      t,
		db:     db,
		router: SetupRouter(Deps{Config: cfg, DB: db, JWTManager: manager}),
		jwt:    manager,
		acme:   testutil.CreateTenant(t, db, "acme", true),
		other:  testutil.CreateTenant(t, db, "other", true),
	}

	testutil.CreateUser(t, db, "", testutil.GlobalAdminRole(t, db), "root@platform.test", password)
	s.userWithRole(s.acme, models.RoleAdmin, "admin@acme.test")
	s.userWithRole(s.acme, models.RoleEmployee, "emp@acme.test")
	s.userWithRole(s.acme, models.RoleReceptionist, "desk@acme.test")
	s.userWithRole(s.other, models.RoleAdmin, "admin@other.test")
	return s
}

func (s *testServer) userWithRole(tenant *models.Tenant, code, email string) *models.User {
	return testutil.CreateUser(s.t, s.db, tenant.ID, testutil.TenantRole(s.t, s.db, tenant.ID, code), email, password)
}

func (s *testServer) do(method, target string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email string) *http.Cookie {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": password}, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == authcookie.Name {
			return c
		}
	}
	s.t.Fatal("login did not set the token cookie")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "admin@acme.test", "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authcookie.Name, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, int(config.DefaultTokenDuration.Seconds()), cookies[0].MaxAge)

	body := decode(t, w)
	assert.Equal(t, "Login exitoso", body["message"])
	user := body["user"].(map[string]interface{})
	for _, key := range []string{"id", "email", "tenant_id", "role_id"} {
		assert.Contains(t, user, key)
	}
	assert.Equal(t, s.acme.ID, user["tenant_id"])

	w = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "admin@acme.test", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Credenciales inválidas"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Datos inválidos", decode(t, w)["error"])
}

func TestGateRejectsMissingAndInvalidTokens(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No autorizado: falta el token", decode(t, w)["error"])

	w = s.do(http.MethodGet, "/api/users", nil, &http.Cookie{Name: authcookie.Name, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token inválido o expirado", decode(t, w)["error"])

	// 令牌过期
	expired := jwt.NewJWTManager("test-secret", time.Hour).WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, err := expired.Sign(jwt.Identity{ID: "x", TenantID: s.acme.ID}, time.Hour)
	require.NoError(t, err)
	w = s.do(http.MethodGet, "/api/auth/me", nil, &http.Cookie{Name: authcookie.Name, Value: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 认证入口不需要令牌
	w = s.do(http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("admin@acme.test")

	w := s.do(http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "admin@acme.test", user["email"])

	w = s.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)

	var count int64
	require.NoError(t, s.db.Model(&models.AuditLog{}).Where("action = ?", models.ActionLogout).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInactiveTenantIsUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login("admin@acme.test")

	require.NoError(t, s.db.Model(s.acme).Update("is_active", false).Error)

	w := s.do(http.MethodGet, "/api/users", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantRoutesRequireGlobalAdmin(t *testing.T) {
	s := newTestServer(t)
	tenantAdmin := s.login("admin@acme.test")
	root := s.login("root@platform.test")

	target := "/api/tenants/" + s.other.ID
	for _, req := range []struct{ method, path string }{
		{http.MethodGet, target},
		{http.MethodPut, target},
		{http.MethodDelete, target},
		{http.MethodPost, "/api/tenants"},
	} {
		w := s.do(req.method, req.path, gin.H{"name": "Globex", "subdomain": "globex"}, tenantAdmin)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", req.method, req.path)
	}

	// 租户管理员的列表只包含自己的租户
	w := s.do(http.MethodGet, "/api/tenants", nil, tenantAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])

	w = s.do(http.MethodGet, "/api/tenants", nil, root)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = s.do(http.MethodPost, "/api/tenants", gin.H{"name": "Globex", "subdomain": "globex", "plan": "PRO"}, root)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "PRO", created["plan"])

	w = s.do(http.MethodPost, "/api/tenants", gin.H{"name": "Bad", "subdomain": "Not Valid"}, root)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, target, nil, root)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUsersPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 9; i++ {
		testutil.CreateUser(t, s.db, s.acme.ID, nil, fmt.Sprintf("user%02d@acme.test", i), password)
	}
	cookie := s.login("admin@acme.test")

	w := s.do(http.MethodGet, "/api/users?page=2&limit=5", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	// acme: admin、emp、desk 加 9 个用户
	assert.Len(t, body["data"], 5)
	assert.EqualValues(t, 12, body["total"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 5, body["limit"])
	assert.Equal(t, true, body["has_next"])

	w = s.do(http.MethodGet, "/api/users?sort=password_hash.asc", nil, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	for _, u := range body["data"].([]interface{}) {
		assert.NotContains(t, u.(map[string]interface{}), "password_hash")
	}
}

func TestUserDeleteRules(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@acme.test")
	employee := s.login("emp@acme.test")
	target := testutil.CreateUser(t, s.db, s.acme.ID, nil, "bye@acme.test", password)

	// 非管理员无论目标ID是否有效都返回 403
	for _, id := range []string{target.ID, "not-a-uuid"} {
		w := s.do(http.MethodDelete, "/api/users/"+id, nil, employee)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	w := s.do(http.MethodDelete, "/api/users/"+target.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/users/"+target.ID, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserCreateUsesCallerTenant(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@acme.test")

	w := s.do(http.MethodPost, "/api/users", gin.H{
		"email":     "new@acme.test",
		"password":  password,
		"tenant_id": s.other.ID,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, s.acme.ID, created["tenant_id"])
	assert.NotContains(t, created, "password_hash")

	w = s.do(http.MethodPut, "/api/users/"+created["id"].(string), gin.H{"tenant_id": s.other.ID}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGlobalAdminSelectsTenantByQueryOrHeader(t *testing.T) {
	s := newTestServer(t)
	root := s.login("root@platform.test")

	w := s.do(http.MethodGet, "/api/users", nil, root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "tenantId requerido", decode(t, w)["error"])

	w = s.do(http.MethodGet, "/api/users?tenantId="+s.other.ID, nil, root)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("x-tenant-id", s.acme.ID)
	req.AddCookie(root)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	w = s.do(http.MethodGet, "/api/users?tenantId=00000000-0000-4000-8000-000000000000", nil, root)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenTenantWinsOverQuery(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@acme.test")

	w := s.do(http.MethodGet, "/api/users?tenantId="+s.other.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	for _, u := range decode(t, w)["data"].([]interface{}) {
		assert.Equal(t, s.acme.ID, u.(map[string]interface{})["tenant_id"])
	}
}

func TestClientEmailUniquePerTenant(t *testing.T) {
	s := newTestServer(t)
	acmeAdmin := s.login("admin@acme.test")
	otherAdmin := s.login("admin@other.test")
	client := gin.H{"name": "Ana", "email": "ana@mail.test"}

	w := s.do(http.MethodPost, "/api/clients", client, acmeAdmin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/clients", client, acmeAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/clients", client, otherAdmin)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/clients", gin.H{"name": "Bad", "birth_date": "01/05/1990"}, acmeAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w), "details")
}

func TestClientDeletePolicy(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@acme.test")
	desk := s.login("desk@acme.test")

	w := s.do(http.MethodPost, "/api/clients", gin.H{"name": "Ana"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["data"].(map[string]interface{})["id"].(string)

	// 前台可以删除客户，但不能修改
	w = s.do(http.MethodPut, "/api/clients/"+id, gin.H{"name": "Ana María"}, desk)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 前台不能查看客户详情
	w = s.do(http.MethodGet, "/api/clients/"+id, nil, desk)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/clients/"+id, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/clients/"+id, nil, desk)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/clients/"+id, nil, desk)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"email":     "fresh@acme.test",
		"password":  password,
		"name":      "Fresh",
		"phone":     "+5491122334455",
		"tenant_id": s.acme.ID,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Usuario registrado con éxito", decode(t, w)["message"])

	w = s.do(http.MethodPost, "/api/auth/register", gin.H{"email": "fresh@acme.test", "password": password}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/register", gin.H{"email": "short@acme.test", "password": "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cookie := s.login("fresh@acme.test")
	w = s.do(http.MethodGet, "/api/roles", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 6)

	// client 角色不能管理用户
	w = s.do(http.MethodGet, "/api/users", nil, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTenantAdminCannotManageGlobalRoleUser(t *testing.T) {
	s := newTestServer(t)
	victim := testutil.CreateUser(t, s.db, s.acme.ID, testutil.GlobalAdminRole(t, s.db), "ops@acme.test", password)
	admin := s.login("admin@acme.test")

	w := s.do(http.MethodPut, "/api/users/"+victim.ID, gin.H{"password": "hijacked1"}, admin)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/users/"+victim.ID, nil, admin)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ops@acme.test", "password": "hijacked1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 原密码仍然有效，账户未被修改
	s.login("ops@acme.test")

	root := s.login("root@platform.test")
	w = s.do(http.MethodPut, "/api/users/"+victim.ID+"?tenantId="+s.acme.ID, gin.H{"name": "Ops"}, root)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestDetailRoutesRequireRole(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@acme.test")
	employee := s.login("emp@acme.test")

	w := s.do(http.MethodPost, "/api/clients", gin.H{"name": "Ana", "document_id": "12345678"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	clientID := decode(t, w)["data"].(map[string]interface{})["id"].(string)
	target := testutil.CreateUser(t, s.db, s.acme.ID, nil, "ana@acme.test", password)

	for _, path := range []string{"/api/clients/" + clientID, "/api/users/" + target.ID} {
		w = s.do(http.MethodGet, path, nil, employee)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = s.do(http.MethodGet, path, nil, admin)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
