package category_test

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

	"barstock/internal/api/category"
	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/middleware"
)

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) Create(ctx context.Context, orgID int64, req domain.CategoryRequest) (domain.Category, error) {
	args := m.Called(ctx, orgID, req)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryService) ListByOrg(ctx context.Context, orgID int64) ([]domain.Category, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCategoryService) GetByID(ctx context.Context, orgID, id int64) (domain.Category, error) {
	args := m.Called(ctx, orgID, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, orgID, id int64) (domain.Category, error) {
	args := m.Called(ctx, orgID, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func serve(svc *MockCategoryService, method, path, body string, withClaims bool) *httptest.ResponseRecorder {
	h := category.NewHandler(svc, logger.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/categories", h.CreateCategoryHandler)
	mux.HandleFunc("GET /v1/categories", h.ListCategoriesHandler)
	mux.HandleFunc("GET /v1/categories/{id}", h.GetCategoryHandler)
	mux.HandleFunc("DELETE /v1/categories/{id}", h.DeleteCategoryHandler)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if withClaims {
		req = req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{OrganizationID: 4}))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateCategoryHandler(t *testing.T) {
	svc := new(MockCategoryService)
	svc.On("Create", mock.Anything, int64(4), mock.MatchedBy(func(req domain.CategoryRequest) bool {
		return req.Name == "Cervejas" && req.DynamicPricing != nil && !*req.DynamicPricing
	})).Return(domain.Category{ID: 1, OrganizationID: 4, Name: "Cervejas"}, nil)

	rec := serve(svc, http.MethodPost, "/v1/categories", `{"name":"Cervejas","dynamic_pricing":false}`, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestCreateCategoryHandler_Duplicate(t *testing.T) {
	svc := new(MockCategoryService)
	svc.On("Create", mock.Anything, int64(4), mock.Anything).
		Return(domain.Category{}, apperror.NewConflictError("categoria 'Cervejas' já existe"))

	rec := serve(svc, http.MethodPost, "/v1/categories", `{"name":"cervejas"}`, true)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "CONFLICT", body.Category)
}

func TestDeleteCategoryHandler_ReturnsDeleted(t *testing.T) {
	svc := new(MockCategoryService)
	svc.On("Delete", mock.Anything, int64(4), int64(8)).Return(domain.Category{ID: 8, Name: "Vinhos"}, nil)

	rec := serve(svc, http.MethodDelete, "/v1/categories/8", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Category
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Vinhos", got.Name)
}

func TestGetCategoryHandler_InvalidID(t *testing.T) {
	svc := new(MockCategoryService)

	rec := serve(svc, http.MethodGet, "/v1/categories/0", "", true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestListCategoriesHandler_WithoutClaims(t *testing.T) {
	svc := new(MockCategoryService)

	rec := serve(svc, http.MethodGet, "/v1/categories", "", false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
