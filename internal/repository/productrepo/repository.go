package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/cache"
	"barstock/internal/pkg/logger"
)

// Define a chave de cache para produtos (organização, id).
const productCacheKey = "product:%d:%d"

const selectProduct = `
        SELECT id, organization_id, category_id, name, created_at, updated_at
        FROM products`

// ProductRepository implementa a interface domain.ProductRepository.
// Cache é opcional: nil desliga o cache-aside.
type ProductRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Save persiste um novo produto. ID e timestamps vêm do banco.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO products (organization_id, category_id, name)
        VALUES ($1, $2, $3)
        RETURNING id, organization_id, category_id, name, created_at, updated_at`

	var saved domain.Product
	err := r.DB.GetContext(ctxTimeout, &saved, query, product.OrganizationID, product.CategoryID, product.Name)
	if apperror.IsForeignKeyViolation(err) {
		return domain.Product{}, apperror.NewValidationError("Organização ou categoria do produto não existe.")
	}
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao inserir produto", err)
	}
	return saved, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, orgID, id int64) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, orgID, id)
	var product domain.Product

	// --- 1. Cache-Aside (READ) ---
	if r.Cache != nil {
		cachedData, err := r.Cache.Get(ctxTimeout, key)
		if err == nil {
			if json.Unmarshal([]byte(cachedData), &product) == nil {
				return product, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			// Erro real de cache: segue para o banco.
			r.logger.Warn("Falha ao ler produto do cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	// --- 2. Banco de Dados ---
	err := r.DB.GetContext(ctxTimeout, &product, selectProduct+` WHERE organization_id = $1 AND id = $2`, orgID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na organização %d.", id, orgID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- 3. Cache-Aside (WRITE) ---
	if r.Cache != nil {
		if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
			if err := r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL); err != nil {
				r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": err.Error()})
			}
		}
	}

	return product, nil
}

// FindAllByOrg lista os produtos da organização, por nome.
func (r *ProductRepository) FindAllByOrg(ctx context.Context, orgID int64) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	products := []domain.Product{}
	if err := r.DB.SelectContext(ctxTimeout, &products, selectProduct+` WHERE organization_id = $1 ORDER BY name, id`, orgID); err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos", err)
	}
	return products, nil
}

// Delete remove o produto e invalida o cache.
func (r *ProductRepository) Delete(ctx context.Context, orgID, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		r.logger.Error("Falha ao remover produto.", err)
		return apperror.NewDBError("Falha ao remover produto", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar remoção do produto", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na organização %d.", id, orgID))
	}

	if r.Cache != nil {
		if err := r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, orgID, id)); err != nil {
			r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"product_id": id, "error": err.Error()})
		}
	}
	return nil
}
