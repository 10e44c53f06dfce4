package categoryservice

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

const maxNameLength = 100

// Service implementa as regras de categorias do cardápio.
type Service struct {
	repo   domain.CategoryRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Categorias.
func NewService(repo domain.CategoryRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create cria uma categoria. O nome é normalizado (trim) e deve ser único na organização,
// sem diferenciar maiúsculas/minúsculas. DynamicPricing ausente vale true.
func (s *Service) Create(ctx context.Context, orgID int64, req domain.CategoryRequest) (domain.Category, error) {
	s.logger.Debug("Iniciando criação de categoria no serviço.", map[string]interface{}{"organization_id": orgID, "name": req.Name})

	if orgID <= 0 {
		return domain.Category{}, apperror.NewValidationError("Contexto de organização ausente.")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, apperror.NewValidationError("O nome da categoria não pode ser vazio.")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return domain.Category{}, apperror.NewValidationError(fmt.Sprintf("O nome da categoria deve ter no máximo %d caracteres.", maxNameLength))
	}

	dynamicPricing := true
	if req.DynamicPricing != nil {
		dynamicPricing = *req.DynamicPricing
	}

	exists, err := s.repo.ExistsByName(ctx, orgID, name)
	if err != nil {
		return domain.Category{}, err
	}
	if exists {
		s.logger.Warn("Categoria duplicada.", map[string]interface{}{"organization_id": orgID, "name": name})
		return domain.Category{}, apperror.NewConflictError(fmt.Sprintf("Categoria '%s' já existe.", name))
	}

	created, err := s.repo.Save(ctx, domain.Category{
		OrganizationID: orgID,
		Name:           name,
		DynamicPricing: dynamicPricing,
	})
	if err != nil {
		return domain.Category{}, err
	}

	s.logger.Info("Categoria criada com sucesso.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// ListByOrg lista as categorias da organização.
func (s *Service) ListByOrg(ctx context.Context, orgID int64) ([]domain.Category, error) {
	return s.repo.FindAllByOrg(ctx, orgID)
}

// GetByID busca uma categoria da organização.
func (s *Service) GetByID(ctx context.Context, orgID, id int64) (domain.Category, error) {
	return s.repo.FindByID(ctx, orgID, id)
}

// Delete remove a categoria e devolve o estado que ela tinha antes da remoção.
func (s *Service) Delete(ctx context.Context, orgID, id int64) (domain.Category, error) {
	category, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return domain.Category{}, err
	}

	s.logger.Info("Categoria removida.", map[string]interface{}{"id": id, "organization_id": orgID})
	return category, nil
}
