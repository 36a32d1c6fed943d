package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/application/auth"
	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/interfaces/http/dto"
	"ops-portal-api/internal/interfaces/http/middleware"
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

func newAuthTestService(t *testing.T) *auth.Service {
	t.Helper()
	emp := entity.NewEmployee("E001", "山田太郎", "情報システム部")
	require.NoError(t, emp.SetPassword("pass123!"))
	repo := &stubEmployeeRepo{employees: map[string]*entity.Employee{"E001": emp}}
	return auth.NewService(repo, utils.NewJWTManager("test-secret", "ops-portal"), time.Hour)
}

func postLogin(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(newAuthTestService(t))
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := postLogin(r, `{"employee_id":"E001","password":"pass123!"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "E001", res.User.EmployeeID)
	assert.Equal(t, "山田太郎", res.User.Name)
}

func TestLogin_BadCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(newAuthTestService(t))
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := postLogin(r, `{"employee_id":"E001","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, w.Body.String())
}

func TestLogin_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(newAuthTestService(t))
	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := postLogin(r, `{"employee_id":"E001"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(newAuthTestService(t))
	r := gin.New()
	r.GET("/api/me", func(c *gin.Context) {
		c.Set(middleware.EmployeeKey, entity.NewEmployee("E001", "山田太郎", "情報システム部"))
		h.Me(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"employee_id":"E001","name":"山田太郎"}`, w.Body.String())
}

func TestMe_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(newAuthTestService(t))
	r := gin.New()
	r.GET("/api/me", h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
