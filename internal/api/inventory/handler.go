package inventory

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"barstock/internal/api/response"
	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

// InventoryService define o contrato que o Handler espera da camada de Serviço.
type InventoryService interface {
	Adjust(ctx context.Context, orgID int64, req domain.AdjustmentRequest) (domain.AdjustmentOutcome, error)
	GetInventory(ctx context.Context, orgID, productID int64) (domain.Inventory, error)
	ListInventory(ctx context.Context, orgID int64) ([]domain.Inventory, error)
	ListTransactions(ctx context.Context, orgID, productID int64) ([]domain.InventoryTransaction, error)
}

// ReconciliationService expõe as divergências entre saldo e ledger de uma organização.
type ReconciliationService interface {
	ForOrganization(ctx context.Context, orgID int64) ([]domain.LedgerDiscrepancy, error)
}

// Handler agrupa os handlers de inventário.
type Handler struct {
	Service    InventoryService
	Reconciler ReconciliationService
	Logger     logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Services e o Logger.
func NewHandler(svc InventoryService, reconciler ReconciliationService, log logger.Logger) *Handler {
	return &Handler{
		Service:    svc,
		Reconciler: reconciler,
		Logger:     log,
	}
}

// AdjustInventoryHandler lida com a requisição POST /v1/inventory/adjustments.
// @Summary Ajusta o saldo de um produto
// @Description Aplica uma movimentação (positiva ou negativa) ao saldo e grava a entrada no ledger.
// @Description Repetir um reference_id devolve a entrada original com status 200.
// @Tags inventory
// @Accept json
// @Produce json
// @Param adjustment body domain.AdjustmentRequest true "Movimentação de estoque"
// @Success 201 {object} domain.InventoryTransaction "Movimentação registrada"
// @Success 200 {object} domain.InventoryTransaction "reference_id já processado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Conflito de concorrência persistente"
// @Failure 422 {object} domain.ErrorResponse "Estoque insuficiente"
// @Failure 504 {object} domain.ErrorResponse "Tempo esgotado"
// @Security ApiKeyAuth
// @Router /inventory/adjustments [post]
func (h *Handler) AdjustInventoryHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var req domain.AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Write(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	// O ator vem do token; ids fora do formato UUID ficam sem ator.
	if actor, parseErr := uuid.Parse(claims.UserID); parseErr == nil {
		req.ActorID = &actor
	}

	outcome, err := h.Service.Adjust(r.Context(), claims.OrganizationID, req)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	status := http.StatusCreated
	if outcome.Replayed {
		status = http.StatusOK
	}
	response.Write(w, r, h.Logger, outcome.Transaction, nil, status)
}

// ListInventoryHandler lida com a requisição GET /v1/inventory.
// @Summary Lista os saldos da organização
// @Tags inventory
// @Produce json
// @Success 200 {array} domain.Inventory "Saldos"
// @Failure 401 {object} domain.ErrorResponse "Não autorizado"
// @Security ApiKeyAuth
// @Router /inventory [get]
func (h *Handler) ListInventoryHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	items, err := h.Service.ListInventory(r.Context(), claims.OrganizationID)
	response.Write(w, r, h.Logger, items, err, http.StatusOK)
}

// GetInventoryHandler lida com a requisição GET /v1/inventory/{productId}.
// @Summary Obtém o saldo de um produto
// @Tags inventory
// @Produce json
// @Param productId path int true "ID do Produto"
// @Success 200 {object} domain.Inventory "Saldo"
// @Failure 400 {object} domain.ErrorResponse "ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Sem saldo para o produto"
// @Security ApiKeyAuth
// @Router /inventory/{productId} [get]
func (h *Handler) GetInventoryHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}
	productID, err := response.PathID(r, "productId")
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	inv, err := h.Service.GetInventory(r.Context(), claims.OrganizationID, productID)
	response.Write(w, r, h.Logger, inv, err, http.StatusOK)
}

// ListTransactionsHandler lida com a requisição GET /v1/inventory/{productId}/transactions.
// @Summary Lista o ledger de um produto
// @Description Entradas ordenadas da mais recente para a mais antiga.
// @Tags inventory
// @Produce json
// @Param productId path int true "ID do Produto"
// @Success 200 {array} domain.InventoryTransaction "Movimentações"
// @Failure 400 {object} domain.ErrorResponse "ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Sem saldo para o produto"
// @Security ApiKeyAuth
// @Router /inventory/{productId}/transactions [get]
func (h *Handler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}
	productID, err := response.PathID(r, "productId")
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	entries, err := h.Service.ListTransactions(r.Context(), claims.OrganizationID, productID)
	response.Write(w, r, h.Logger, entries, err, http.StatusOK)
}

// ReconciliationHandler lida com a requisição GET /v1/inventory/reconciliation.
// @Summary Lista divergências entre saldo e ledger
// @Description Restrito a administradores.
// @Tags inventory
// @Produce json
// @Success 200 {array} domain.LedgerDiscrepancy "Divergências (vazio quando consistente)"
// @Failure 403 {object} domain.ErrorResponse "Acesso negado"
// @Security ApiKeyAuth
// @Router /inventory/reconciliation [get]
func (h *Handler) ReconciliationHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	discrepancies, err := h.Reconciler.ForOrganization(r.Context(), claims.OrganizationID)
	if discrepancies == nil && err == nil {
		discrepancies = []domain.LedgerDiscrepancy{}
	}
	response.Write(w, r, h.Logger, discrepancies, err, http.StatusOK)
}
