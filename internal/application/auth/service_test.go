package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/utils"
)

type fakeEmployeeRepo struct {
	employees map[string]*entity.Employee
	updateErr error
	updates   int
}

func newFakeEmployeeRepo(emps ...*entity.Employee) *fakeEmployeeRepo {
	m := make(map[string]*entity.Employee, len(emps))
	for _, e := range emps {
		m[e.ID] = e
	}
	return &fakeEmployeeRepo{employees: m}
}

func (f *fakeEmployeeRepo) Create(_ context.Context, e *entity.Employee) error {
	f.employees[e.ID] = e
	return nil
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, employeeID string) (*entity.Employee, error) {
	return f.employees[employeeID], nil
}

func (f *fakeEmployeeRepo) Update(_ context.Context, e *entity.Employee) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.employees[e.ID] = e
	return nil
}

func testEmployee(t *testing.T, id, password string) *entity.Employee {
	t.Helper()
	emp := entity.NewEmployee(id, "テスト社員", "情報システム部")
	require.NoError(t, emp.SetPassword(password))
	return emp
}

func TestLogin(t *testing.T) {
	repo := newFakeEmployeeRepo(testEmployee(t, "E001", "pass123!"))
	svc := NewService(repo, utils.NewJWTManager("secret", "ops-portal"), time.Hour)

	res, err := svc.Login(context.Background(), "E001", "pass123!")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "E001", res.Employee.ID)

	// 最終ログイン時刻が記録される
	require.NotNil(t, res.Employee.LastLoginAt)
	assert.Equal(t, 1, repo.updates)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeEmployeeRepo(testEmployee(t, "E001", "pass123!"))
	svc := NewService(repo, utils.NewJWTManager("secret", "ops-portal"), time.Hour)

	_, err := svc.Login(context.Background(), "E001", "wrong")
	assert.ErrorIs(t, err, errors.ErrBadCredentials)
}

func TestLogin_UnknownEmployee(t *testing.T) {
	svc := NewService(newFakeEmployeeRepo(), utils.NewJWTManager("secret", "ops-portal"), time.Hour)

	// 社員不在も認証失敗も同じエラーで区別できない
	_, err := svc.Login(context.Background(), "nobody", "pass")
	assert.ErrorIs(t, err, errors.ErrBadCredentials)
}

func TestLogin_EmptyInput(t *testing.T) {
	svc := NewService(newFakeEmployeeRepo(), utils.NewJWTManager("secret", "ops-portal"), time.Hour)

	_, err := svc.Login(context.Background(), "  ", "pass")
	assert.ErrorIs(t, err, errors.ErrBadCredentials)
	_, err = svc.Login(context.Background(), "E001", "")
	assert.ErrorIs(t, err, errors.ErrBadCredentials)
}

func TestLogin_LastLoginUpdateFailureIgnored(t *testing.T) {
	repo := newFakeEmployeeRepo(testEmployee(t, "E001", "pass123!"))
	repo.updateErr = assert.AnError
	svc := NewService(repo, utils.NewJWTManager("secret", "ops-portal"), time.Hour)

	res, err := svc.Login(context.Background(), "E001", "pass123!")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestVerify(t *testing.T) {
	emp := testEmployee(t, "E001", "pass123!")
	repo := newFakeEmployeeRepo(emp)
	jwt := utils.NewJWTManager("secret", "ops-portal")
	svc := NewService(repo, jwt, time.Hour)

	res, err := svc.Login(context.Background(), "E001", "pass123!")
	require.NoError(t, err)

	got, err := svc.Verify(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "E001", got.ID)
	assert.Equal(t, "テスト社員", got.Name)
}

func TestVerify_BadToken(t *testing.T) {
	svc := NewService(newFakeEmployeeRepo(), utils.NewJWTManager("secret", "ops-portal"), time.Hour)

	_, err := svc.Verify(context.Background(), "not-a-jwt")
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeTokenInvalid, appErr.Code)
}

func TestVerify_WrongSecret(t *testing.T) {
	emp := testEmployee(t, "E001", "pass123!")
	other := utils.NewJWTManager("other-secret", "ops-portal")
	token, err := other.GenerateToken(emp.ID, emp.Name, string(emp.Role), time.Hour)
	require.NoError(t, err)

	svc := NewService(newFakeEmployeeRepo(emp), utils.NewJWTManager("secret", "ops-portal"), time.Hour)
	_, err = svc.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestVerify_ExpiredToken(t *testing.T) {
	emp := testEmployee(t, "E001", "pass123!")
	jwt := utils.NewJWTManager("secret", "ops-portal")
	token, err := jwt.GenerateToken(emp.ID, emp.Name, string(emp.Role), -time.Minute)
	require.NoError(t, err)

	svc := NewService(newFakeEmployeeRepo(emp), jwt, time.Hour)
	_, err = svc.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestVerify_DeletedEmployee(t *testing.T) {
	emp := testEmployee(t, "E001", "pass123!")
	repo := newFakeEmployeeRepo(emp)
	jwt := utils.NewJWTManager("secret", "ops-portal")
	svc := NewService(repo, jwt, time.Hour)

	res, err := svc.Login(context.Background(), "E001", "pass123!")
	require.NoError(t, err)

	// トークンは有効でも社員が消えていれば弾く
	delete(repo.employees, "E001")
	_, err = svc.Verify(context.Background(), res.Token)
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeTokenInvalid, appErr.Code)
}
