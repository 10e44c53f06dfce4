package categoryrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

const selectCategory = `
        SELECT id, organization_id, name, dynamic_pricing, created_at, updated_at
        FROM categories`

// CategoryRepository implementa domain.CategoryRepository sobre PostgreSQL.
type CategoryRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCategoryRepository cria uma nova instância do Repositório de Categorias.
func NewCategoryRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere uma categoria. O índice único em (organization_id, lower(name))
// transforma uma criação concorrente com o mesmo nome em ConflictError.
func (r *CategoryRepository) Save(ctx context.Context, category domain.Category) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO categories (organization_id, name, dynamic_pricing)
        VALUES ($1, $2, $3)
        RETURNING id, organization_id, name, dynamic_pricing, created_at, updated_at`

	var saved domain.Category
	err := r.DB.GetContext(ctxTimeout, &saved, query, category.OrganizationID, category.Name, category.DynamicPricing)
	if apperror.IsUniqueViolation(err) {
		return domain.Category{}, apperror.NewConflictErrorWithCause(fmt.Sprintf("Categoria '%s' já existe.", category.Name), err)
	}
	if err != nil {
		r.logger.Error("Falha ao inserir categoria no DB.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao inserir categoria", err)
	}

	r.logger.Debug("Categoria inserida.", map[string]interface{}{"id": saved.ID, "organization_id": saved.OrganizationID})
	return saved, nil
}

// FindByID busca uma categoria da organização.
func (r *CategoryRepository) FindByID(ctx context.Context, orgID, id int64) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var category domain.Category
	err := r.DB.GetContext(ctxTimeout, &category, selectCategory+` WHERE organization_id = $1 AND id = $2`, orgID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria %d não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar categoria no DB.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao buscar categoria", err)
	}
	return category, nil
}

// FindAllByOrg lista as categorias da organização em ordem de criação.
func (r *CategoryRepository) FindAllByOrg(ctx context.Context, orgID int64) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	categories := []domain.Category{}
	if err := r.DB.SelectContext(ctxTimeout, &categories, selectCategory+` WHERE organization_id = $1 ORDER BY id`, orgID); err != nil {
		r.logger.Error("Falha ao listar categorias.", err)
		return nil, apperror.NewDBError("Falha ao listar categorias", err)
	}
	return categories, nil
}

// ExistsByName compara nomes sem diferenciar maiúsculas/minúsculas.
func (r *CategoryRepository) ExistsByName(ctx context.Context, orgID int64, name string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.GetContext(ctxTimeout, &exists,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE organization_id = $1 AND lower(name) = lower($2))`, orgID, name)
	if err != nil {
		r.logger.Error("Falha ao verificar nome de categoria.", err)
		return false, apperror.NewDBError("Falha ao verificar nome de categoria", err)
	}
	return exists, nil
}

// Delete remove a categoria. Produtos associados ficam sem categoria (ON DELETE SET NULL).
func (r *CategoryRepository) Delete(ctx context.Context, orgID, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM categories WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		r.logger.Error("Falha ao remover categoria.", err)
		return apperror.NewDBError("Falha ao remover categoria", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar remoção da categoria", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Categoria %d não encontrada.", id))
	}
	return nil
}
