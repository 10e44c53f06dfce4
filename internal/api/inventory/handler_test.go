package inventory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barstock/internal/api/inventory"
	"barstock/internal/domain"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/middleware"
	"barstock/internal/repository/memstore"
	"barstock/internal/service/inventoryservice"
	"barstock/internal/service/reconcileservice"
)

const actorID = "6f1c2e0a-4b5d-4a8e-9c3f-2d7b8e1a0c55"

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	store := memstore.New()
	log := logger.NewNop()
	svc := inventoryservice.NewService(store, nil, nil, inventoryservice.Config{MaxRetries: 2}, log)
	h := inventory.NewHandler(svc, reconcileservice.NewService(store, log), log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/inventory/adjustments", h.AdjustInventoryHandler)
	mux.HandleFunc("GET /v1/inventory", h.ListInventoryHandler)
	mux.HandleFunc("GET /v1/inventory/reconciliation", h.ReconciliationHandler)
	mux.HandleFunc("GET /v1/inventory/{productId}", h.GetInventoryHandler)
	mux.HandleFunc("GET /v1/inventory/{productId}/transactions", h.ListTransactionsHandler)
	return mux
}

func do(mux http.Handler, method, path, body string, orgID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if orgID > 0 {
		req = req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{
			UserID:         actorID,
			Role:           domain.RoleUser,
			OrganizationID: orgID,
		}))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAdjust_CreatedThenReplayed(t *testing.T) {
	mux := newMux(t)
	body := `{"product_id":7,"transaction_type":"RECEIPT","quantity_change":"12.5","reference_id":"nf-001"}`

	first := do(mux, http.MethodPost, "/v1/inventory/adjustments", body, 1)
	require.Equal(t, http.StatusCreated, first.Code)

	var created domain.InventoryTransaction
	require.NoError(t, json.NewDecoder(first.Body).Decode(&created))
	assert.Equal(t, "12.5000", created.QuantityAfter.String())
	assert.Equal(t, "0.0000", created.QuantityBefore.String())
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, actorID, created.CreatedBy.String())

	second := do(mux, http.MethodPost, "/v1/inventory/adjustments", body, 1)
	require.Equal(t, http.StatusOK, second.Code)

	var replayed domain.InventoryTransaction
	require.NoError(t, json.NewDecoder(second.Body).Decode(&replayed))
	assert.Equal(t, created.ID, replayed.ID)
}

func TestAdjust_InsufficientStock(t *testing.T) {
	mux := newMux(t)

	rec := do(mux, http.MethodPost, "/v1/inventory/adjustments",
		`{"product_id":7,"transaction_type":"SALE","quantity_change":"-1"}`, 1)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errBody domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Category)
}

func TestAdjust_BadPayloads(t *testing.T) {
	mux := newMux(t)

	tests := []struct {
		name string
		body string
	}{
		{"JSON malformado", `{"product_id":`},
		{"quantidade não numérica", `{"product_id":7,"transaction_type":"SALE","quantity_change":"abc"}`},
		{"tipo desconhecido", `{"product_id":7,"transaction_type":"THEFT","quantity_change":"1"}`},
		{"delta zero", `{"product_id":7,"transaction_type":"ADJUSTMENT","quantity_change":"0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(mux, http.MethodPost, "/v1/inventory/adjustments", tt.body, 1)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAdjust_WithoutClaims(t *testing.T) {
	mux := newMux(t)

	rec := do(mux, http.MethodPost, "/v1/inventory/adjustments",
		`{"product_id":7,"transaction_type":"RECEIPT","quantity_change":"1"}`, 0)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReadEndpoints_AreScopedByOrganization(t *testing.T) {
	mux := newMux(t)
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/v1/inventory/adjustments",
		`{"product_id":7,"transaction_type":"RECEIPT","quantity_change":"100"}`, 1).Code)
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/v1/inventory/adjustments",
		`{"product_id":7,"transaction_type":"SALE","quantity_change":"-30"}`, 1).Code)

	rec := do(mux, http.MethodGet, "/v1/inventory/7", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	var inv domain.Inventory
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&inv))
	assert.Equal(t, "70.0000", inv.Quantity.String())

	rec = do(mux, http.MethodGet, "/v1/inventory/7/transactions", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.InventoryTransaction
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "-30.0000", entries[0].QuantityChange.String())

	rec = do(mux, http.MethodGet, "/v1/inventory", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []domain.Inventory
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 1)

	// Outra organização não enxerga o saldo.
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/v1/inventory/7", "", 2).Code)
}

func TestGetInventory_InvalidID(t *testing.T) {
	mux := newMux(t)

	rec := do(mux, http.MethodGet, "/v1/inventory/abc", "", 1)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconciliation_EmptyWhenConsistent(t *testing.T) {
	mux := newMux(t)
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/v1/inventory/adjustments",
		`{"product_id":7,"transaction_type":"RECEIPT","quantity_change":"5"}`, 1).Code)

	rec := do(mux, http.MethodGet, "/v1/inventory/reconciliation", "", 1)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

type failingReconciler struct{}

func (failingReconciler) ForOrganization(context.Context, int64) ([]domain.LedgerDiscrepancy, error) {
	return nil, assert.AnError
}

func TestReconciliation_UnknownErrorIs500(t *testing.T) {
	h := inventory.NewHandler(nil, failingReconciler{}, logger.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/inventory/reconciliation", nil)
	req = req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{OrganizationID: 1, Role: domain.RoleAdmin}))
	rec := httptest.NewRecorder()

	h.ReconciliationHandler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
