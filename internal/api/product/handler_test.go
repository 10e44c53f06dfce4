package product_test

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

	"barstock/internal/api/product"
	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/middleware"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, orgID int64, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, orgID, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) GetProductByID(ctx context.Context, orgID, id int64) (domain.Product, error) {
	args := m.Called(ctx, orgID, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context, orgID int64) ([]domain.Product, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, orgID, id int64) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func serve(h *product.Handler, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/products", h.CreateProductHandler)
	mux.HandleFunc("GET /v1/products", h.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProductByIDHandler)
	mux.HandleFunc("DELETE /v1/products/{id}", h.DeleteProductHandler)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{OrganizationID: 3, Role: domain.RoleUser}))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateProductHandler(t *testing.T) {
	svc := new(MockProductService)
	svc.On("CreateProduct", mock.Anything, int64(3), mock.MatchedBy(func(p domain.Product) bool {
		return p.Name == "Chopp Pilsen"
	})).Return(domain.Product{ID: 10, OrganizationID: 3, Name: "Chopp Pilsen"}, nil)

	rec := serve(product.NewHandler(svc, logger.NewNop()), http.MethodPost, "/v1/products", `{"name":"Chopp Pilsen"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(10), got.ID)
	svc.AssertExpectations(t)
}

func TestCreateProductHandler_InvalidJSON(t *testing.T) {
	svc := new(MockProductService)

	rec := serve(product.NewHandler(svc, logger.NewNop()), http.MethodPost, "/v1/products", `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProductByIDHandler_NotFound(t *testing.T) {
	svc := new(MockProductService)
	svc.On("GetProductByID", mock.Anything, int64(3), int64(99)).
		Return(domain.Product{}, apperror.NewNotFoundError("produto 99"))

	rec := serve(product.NewHandler(svc, logger.NewNop()), http.MethodGet, "/v1/products/99", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProductsHandler(t *testing.T) {
	svc := new(MockProductService)
	svc.On("ListProducts", mock.Anything, int64(3)).Return([]domain.Product{{ID: 1}, {ID: 2}}, nil)

	rec := serve(product.NewHandler(svc, logger.NewNop()), http.MethodGet, "/v1/products", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestDeleteProductHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"removido", nil, http.StatusNoContent},
		{"com inventário", apperror.NewConflictError("produto possui inventário"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			svc.On("DeleteProduct", mock.Anything, int64(3), int64(5)).Return(tt.err)

			rec := serve(product.NewHandler(svc, logger.NewNop()), http.MethodDelete, "/v1/products/5", "")

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
