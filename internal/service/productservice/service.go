package productservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

// CategoryLookup confirma que a categoria informada pertence à organização.
type CategoryLookup interface {
	FindByID(ctx context.Context, orgID, id int64) (domain.Category, error)
}

// StockChecker informa se o produto já possui saldo de inventário.
type StockChecker interface {
	ExistsByProductID(ctx context.Context, orgID, productID int64) (bool, error)
}

// Service é a estrutura que implementa as regras de catálogo de produtos.
type Service struct {
	repo       domain.ProductRepository
	categories CategoryLookup
	stock      StockChecker
	validate   *validator.Validate
	logger     logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo domain.ProductRepository, categories CategoryLookup, stock StockChecker, log logger.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		stock:      stock,
		validate:   validator.New(),
		logger:     log,
	}
}

// CreateProduct cadastra um produto na organização.
func (s *Service) CreateProduct(ctx context.Context, orgID int64, product domain.Product) (domain.Product, error) {
	// 1. Validação de Regras de Negócio
	if orgID <= 0 {
		return domain.Product{}, apperror.NewValidationError("Contexto de organização ausente.")
	}
	product.Name = strings.TrimSpace(product.Name)
	if err := s.validate.Struct(product); err != nil {
		return domain.Product{}, apperror.NewValidationError("O nome do produto é obrigatório e deve ter até 200 caracteres.")
	}
	product.OrganizationID = orgID

	// 2. Categoria, quando informada, precisa existir na mesma organização
	if product.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, orgID, *product.CategoryID); err != nil {
			var notFound *apperror.NotFoundError
			if errors.As(err, &notFound) {
				return domain.Product{}, apperror.NewValidationError(fmt.Sprintf("Categoria %d não existe na organização.", *product.CategoryID))
			}
			return domain.Product{}, err
		}
	}

	// 3. Persistência
	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado.", map[string]interface{}{"organization_id": orgID, "product_id": created.ID})
	return created, nil
}

// GetProductByID busca um produto da organização.
func (s *Service) GetProductByID(ctx context.Context, orgID, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um inteiro positivo.")
	}
	return s.repo.FindByID(ctx, orgID, id)
}

// ListProducts lista o catálogo da organização.
func (s *Service) ListProducts(ctx context.Context, orgID int64) ([]domain.Product, error) {
	return s.repo.FindAllByOrg(ctx, orgID)
}

// DeleteProduct remove um produto. Produtos com saldo de inventário não podem ser removidos:
// o ledger do produto deixaria de ter dono.
func (s *Service) DeleteProduct(ctx context.Context, orgID, id int64) error {
	if _, err := s.GetProductByID(ctx, orgID, id); err != nil {
		return err
	}

	hasStock, err := s.stock.ExistsByProductID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if hasStock {
		return apperror.NewConflictError(fmt.Sprintf("Produto %d possui inventário registrado e não pode ser removido.", id))
	}

	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}

	s.logger.Info("Produto removido.", map[string]interface{}{"organization_id": orgID, "product_id": id})
	return nil
}

// Exists informa se o produto existe na organização. NotFound vira false; demais erros propagam.
func (s *Service) Exists(ctx context.Context, orgID, productID int64) (bool, error) {
	_, err := s.repo.FindByID(ctx, orgID, productID)
	if err == nil {
		return true, nil
	}
	var notFound *apperror.NotFoundError
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}
