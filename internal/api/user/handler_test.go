package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"barstock/internal/api/user"
	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	args := m.Called(ctx, registration)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email string, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func TestRegisterUserHandler_HidesPasswordHash(t *testing.T) {
	svc := new(MockUserService)
	reg := domain.UserRegistration{Email: "a@bar.com", Password: "12345678", OrganizationID: 1}
	svc.On("Register", mock.Anything, reg).Return(domain.User{
		ID: "u-1", Email: "a@bar.com", PasswordHash: "$2a$hash", OrganizationID: 1, Role: domain.RoleUser,
	}, nil)
	h := user.NewHandler(svc, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/register",
		strings.NewReader(`{"email":"a@bar.com","password":"12345678","organization_id":1}`))
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$hash")
	assert.Contains(t, rec.Body.String(), `"organization_id":1`)
}

func TestRegisterUserHandler_InvalidJSON(t *testing.T) {
	h := user.NewHandler(new(MockUserService), logger.NewNop())

	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/register", strings.NewReader("não é json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUserHandler(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		err       error
		status    int
		wantToken bool
	}{
		{"sucesso", "jwt.token.aqui", nil, http.StatusOK, true},
		{"credenciais inválidas", "", apperror.NewUnauthorizedError("credenciais inválidas"), http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			svc.On("Login", mock.Anything, "a@bar.com", "12345678").Return(tt.token, tt.err)
			h := user.NewHandler(svc, logger.NewNop())

			rec := httptest.NewRecorder()
			h.LoginUserHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/login",
				strings.NewReader(`{"email":"a@bar.com","password":"12345678"}`)))

			assert.Equal(t, tt.status, rec.Code)
			if tt.wantToken {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.token, body["token"])
			}
		})
	}
}
