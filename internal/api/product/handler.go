package product

import (
	"context"
	"encoding/json"
	"net/http"

	"barstock/internal/api/response"
	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, orgID int64, p domain.Product) (domain.Product, error)
	GetProductByID(ctx context.Context, orgID, id int64) (domain.Product, error)
	ListProducts(ctx context.Context, orgID int64) ([]domain.Product, error)
	DeleteProduct(ctx context.Context, orgID, id int64) error
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um novo produto
// @Description Cadastra um produto na organização do token. category_id é opcional.
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.Product true "Dados do produto"
// @Success 201 {object} domain.Product "Produto criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		response.Write(w, r, h.Logger, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), claims.OrganizationID, p)
	response.Write(w, r, h.Logger, created, err, http.StatusCreated)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista os produtos da organização
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product "Produtos"
// @Security ApiKeyAuth
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := response.Claims(r)
	if err != nil {
		response.Write(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	products, err := h.Service.ListProducts(r.Context(), claims.OrganizationID)
	response.Write(w, r, h.Logger, products, err, http.StatusOK)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto por ID
// @Tags products
// @Produce json
// @Param id path int true "ID do Produto"
// @Success 200 {object} domain.Product "Produto encontrado"
// @Failure 400 {object} domain.ErrorResponse "ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Security ApiKeyAuth
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
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

	p, err := h.Service.GetProductByID(r.Context(), claims.OrganizationID, id)
	response.Write(w, r, h.Logger, p, err, http.StatusOK)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// @Summary Remove um produto
// @Description Produtos com saldo de inventário não podem ser removidos.
// @Tags products
// @Param id path int true "ID do Produto"
// @Success 204 "Nenhum conteúdo"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Produto possui inventário"
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
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

	err = h.Service.DeleteProduct(r.Context(), claims.OrganizationID, id)
	response.Write(w, r, h.Logger, nil, err, http.StatusNoContent)
}
