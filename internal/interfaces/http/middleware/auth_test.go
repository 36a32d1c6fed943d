package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/application/auth"
	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/pkg/utils"
)

type stubEmployeeRepo struct {
	employees map[string]*entity.Employee
}

func (s *stubEmployeeRepo) Create(_ context.Context, e *entity.Employee) error {
	s.employees[e.ID] = e
	return nil
}

func (s *stubEmployeeRepo) GetByID(_ context.Context, employeeID string) (*entity.Employee, error) {
	return s.employees[employeeID], nil
}

func (s *stubEmployeeRepo) Update(_ context.Context, e *entity.Employee) error {
	s.employees[e.ID] = e
	return nil
}

func newAuthTestRouter(t *testing.T, cfg AuthConfig) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	emp := entity.NewEmployee("E001", "テスト社員", "情報システム部")
	require.NoError(t, emp.SetPassword("pass123!"))
	repo := &stubEmployeeRepo{employees: map[string]*entity.Employee{"E001": emp}}

	jwt := utils.NewJWTManager("test-secret", "ops-portal")
	svc := auth.NewService(repo, jwt, time.Hour)
	token, err := jwt.GenerateToken("E001", "テスト社員", "member", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Auth(svc, cfg))
	handler := func(c *gin.Context) {
		if emp := CurrentEmployee(c); emp != nil {
			c.JSON(http.StatusOK, gin.H{"employee_id": emp.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"employee_id": nil})
	}
	r.GET("/api/me", handler)
	r.POST("/auth/login", handler)
	r.GET("/api/data/config.json", handler)
	return r, token
}

func enabledConfig() AuthConfig {
	return AuthConfig{Enabled: true, SkipPaths: DefaultSkipPaths}
}

func TestAuth_MissingToken(t *testing.T) {
	r, _ := newAuthTestRouter(t, enabledConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"detail":"Missing bearer token"}`, w.Body.String())
}

func TestAuth_WrongScheme(t *testing.T) {
	r, _ := newAuthTestRouter(t, enabledConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Missing bearer token"}`, w.Body.String())
}

func TestAuth_InvalidToken(t *testing.T) {
	r, _ := newAuthTestRouter(t, enabledConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer broken.token.value")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, w.Body.String())
}

func TestAuth_ValidToken(t *testing.T) {
	r, token := newAuthTestRouter(t, enabledConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"employee_id":"E001"}`, w.Body.String())
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	r, token := newAuthTestRouter(t, enabledConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_SkipPaths(t *testing.T) {
	r, _ := newAuthTestRouter(t, enabledConfig())

	// 完全一致の公開パス
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// 前方一致の公開パス
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data/config.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Disabled(t *testing.T) {
	r, _ := newAuthTestRouter(t, AuthConfig{Enabled: false})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
