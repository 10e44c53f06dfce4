package category

import (
	"context"
	"encoding/json"
	"net/http"

	"barstock/internal/api/response"
	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

// CategoryService define o contrato que o Handler espera da camada de Serviço.
type CategoryService interface {
	Create(ctx context.Context, orgID int64, req domain.CategoryRequest) (domain.Category, error)
	ListByOrg(ctx context.Context, orgID int64) ([]domain.Category, error)
	GetByID(ctx context.Context, orgID, id int64) (domain.Category, error)
	Delete(ctx context.Context, orgID, id int64) (domain.Category, error)
}

// Handler agrupa os handlers de categorias.
type Handler struct {
	Service CategoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CategoryService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateCategoryHandler lida com a requisição POST /v1/categories.
// @Summary Cria uma categoria
// @Description dynamic_pricing ausente equivale a true. Nomes são únicos por organização (sem diferenciar maiúsculas).
// @Tags categories
// @Accept json
// @Produce json
// @Param category body domain.CategoryRequest true "Dados da categoria"
// @Success 201 {object} domain.Category "Categoria criada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado"
// @Security ApiKeyAuth
// @Router /categories [post]
func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var req domain.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Write(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	created, err := h.Service.Create(r.Context(), claims.OrganizationID, req)
	response.Write(w, r, h.Logger, created, err, http.StatusCreated)
}

// ListCategoriesHandler lida com a requisição GET /v1/categories.
// @Summary Lista as categorias da organização
// @Tags categories
// @Produce json
// @Success 200 {array} domain.Category "Categorias"
// @Security ApiKeyAuth
// @Router /categories [get]
func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	categories, err := h.Service.ListByOrg(r.Context(), claims.OrganizationID)
	response.Write(w, r, h.Logger, categories, err, http.StatusOK)
}

// GetCategoryHandler lida com a requisição GET /v1/categories/{id}.
// @Summary Obtém uma categoria por ID
// @Tags categories
// @Produce json
// @Param id path int true "ID da Categoria"
// @Success 200 {object} domain.Category "Categoria"
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Security ApiKeyAuth
// @Router /categories/{id} [get]
func (h *Handler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}
	id, err := response.PathID(r, "id")
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	c, err := h.Service.GetByID(r.Context(), claims.OrganizationID, id)
	response.Write(w, r, h.Logger, c, err, http.StatusOK)
}

// DeleteCategoryHandler lida com a requisição DELETE /v1/categories/{id}.
// @Summary Remove uma categoria
// @Description Produtos da categoria ficam sem categoria. Devolve a categoria removida.
// @Tags categories
// @Produce json
// @Param id path int true "ID da Categoria"
// @Success 200 {object} domain.Category "Categoria removida"
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Security ApiKeyAuth
// @Router /categories/{id} [delete]
func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}
	id, err := response.PathID(r, "id")
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	deleted, err := h.Service.Delete(r.Context(), claims.OrganizationID, id)
	response.Write(w, r, h.Logger, deleted, err, http.StatusOK)
}
