package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barstock/internal/api/category"
	"barstock/internal/api/inventory"
	"barstock/internal/api/product"
	"barstock/internal/api/router"
	"barstock/internal/api/user"
	"barstock/internal/domain"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/token"
	"barstock/internal/repository/memstore"
	"barstock/internal/service/inventoryservice"
	"barstock/internal/service/reconcileservice"
)

func newServer(t *testing.T) (http.Handler, *token.Service) {
	t.Helper()
	log := logger.NewNop()
	store := memstore.New()
	tokens := token.NewService("segredo-de-teste", time.Hour)

	h := router.Handlers{
		Inventory: inventory.NewHandler(
			inventoryservice.NewService(store, nil, nil, inventoryservice.Config{}, log),
			reconcileservice.NewService(store, log),
			log,
		),
		Category: category.NewHandler(nil, log),
		Product:  product.NewHandler(nil, log),
		User:     user.NewHandler(nil, log),
	}
	return router.NewRouter(h, tokens, router.RateLimit{}, log), tokens
}

func bearer(t *testing.T, tokens *token.Service, role domain.UserRole) string {
	t.Helper()
	tok, err := tokens.GenerateToken("6f1c2e0a-4b5d-4a8e-9c3f-2d7b8e1a0c55", string(role), 1)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestPing(t *testing.T) {
	srv, _ := newServer(t)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	srv, _ := newServer(t)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/inventory", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdjustment_ThroughRouter(t *testing.T) {
	srv, tokens := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/inventory/adjustments",
		strings.NewReader(`{"product_id":1,"transaction_type":"RECEIPT","quantity_change":"24"}`))
	req.Header.Set("Authorization", bearer(t, tokens, domain.RoleUser))
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestReconciliation_AdminOnly(t *testing.T) {
	srv, tokens := newServer(t)

	tests := []struct {
		role   domain.UserRole
		status int
	}{
		{domain.RoleUser, http.StatusForbidden},
		{domain.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/inventory/reconciliation", nil)
			req.Header.Set("Authorization", bearer(t, tokens, tt.role))
			rec := httptest.NewRecorder()

			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/inventory/adjustments", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
