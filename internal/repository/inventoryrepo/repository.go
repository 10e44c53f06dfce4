package inventoryrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/database"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/quantity"
)

// selectInventory junta products para trazer o nome do produto junto com o saldo.
const selectInventory = `
        SELECT i.id, i.organization_id, i.product_id, p.name AS product_name,
               i.quantity, i.version, i.created_at, i.updated_at
        FROM inventory i
        JOIN products p ON p.id = i.product_id`

// InventoryRepository implementa domain.InventoryRepository sobre PostgreSQL.
// DB pode ser o pool ou uma transação aberta (ver Store.RunInTx).
type InventoryRepository struct {
	DB        database.DBTX
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInventoryRepository cria e retorna uma nova instância do Repositório de Inventário.
func NewInventoryRepository(db database.DBTX, dbTimeout time.Duration, logger logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByOrgAndProduct busca o saldo de um produto em uma organização.
func (r *InventoryRepository) FindByOrgAndProduct(ctx context.Context, orgID, productID int64) (domain.Inventory, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var inv domain.Inventory
	err := r.DB.GetContext(ctxTimeout, &inv, selectInventory+` WHERE i.organization_id = $1 AND i.product_id = $2`, orgID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Inventory{}, apperror.NewNotFoundError(fmt.Sprintf("Inventário do produto %d na organização %d não encontrado.", productID, orgID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar inventário no DB.", err)
		return domain.Inventory{}, apperror.NewDBError(fmt.Sprintf("Falha ao buscar inventário (org %d, produto %d)", orgID, productID), err)
	}
	return inv, nil
}

// FindAllByOrg lista todos os saldos de uma organização.
func (r *InventoryRepository) FindAllByOrg(ctx context.Context, orgID int64) ([]domain.Inventory, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	inventories := []domain.Inventory{}
	if err := r.DB.SelectContext(ctxTimeout, &inventories, selectInventory+` WHERE i.organization_id = $1 ORDER BY i.product_id`, orgID); err != nil {
		r.logger.Error("Falha ao listar inventário da organização.", err)
		return nil, apperror.NewDBError(fmt.Sprintf("Falha ao listar inventário (org %d)", orgID), err)
	}

	r.logger.Debug("Inventário da organização listado.", map[string]interface{}{"organization_id": orgID, "total": len(inventories)})
	return inventories, nil
}

// CreateIfAbsent cria o registro com a quantidade inicial se ele ainda não existir.
// Um registro existente nunca é sobrescrito.
func (r *InventoryRepository) CreateIfAbsent(ctx context.Context, orgID, productID int64, initial quantity.Quantity) (domain.Inventory, error) {
	if initial.IsNegative() || !initial.InRange() {
		return domain.Inventory{}, apperror.NewValidationError(fmt.Sprintf("Quantidade inicial inválida: %s", initial))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// ON CONFLICT DO NOTHING: se outra transação criou o par em paralelo, esperamos seu commit e lemos o registro dela.
	query := `
        INSERT INTO inventory (organization_id, product_id, quantity, version, created_at, updated_at)
        VALUES ($1, $2, $3, 0, NOW(), NOW())
        ON CONFLICT (organization_id, product_id) DO NOTHING`

	result, err := r.DB.ExecContext(ctxTimeout, query, orgID, productID, initial)
	if err != nil {
		r.logger.Error("Falha ao criar registro de inventário.", err)
		return domain.Inventory{}, apperror.NewDBError(fmt.Sprintf("Falha ao criar inventário (org %d, produto %d)", orgID, productID), err)
	}

	if created, _ := result.RowsAffected(); created > 0 {
		r.logger.Info("Registro de inventário criado.", map[string]interface{}{"organization_id": orgID, "product_id": productID, "quantity": initial.String()})
	}

	return r.FindByOrgAndProduct(ctx, orgID, productID)
}

// LockByID lê o registro com SELECT ... FOR UPDATE. O lock dura até o fim da transação de r.DB.
func (r *InventoryRepository) LockByID(ctx context.Context, inventoryID int64) (domain.Inventory, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var inv domain.Inventory
	err := r.DB.GetContext(ctxTimeout, &inv, selectInventory+` WHERE i.id = $1 FOR UPDATE OF i`, inventoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Inventory{}, apperror.NewNotFoundError(fmt.Sprintf("Inventário %d não encontrado.", inventoryID))
	}
	if err != nil {
		return domain.Inventory{}, apperror.NewDBError(fmt.Sprintf("Falha ao bloquear inventário %d", inventoryID), err)
	}
	return inv, nil
}

// ApplyAdjustment aplica delta ao saldo, utilizando lock de linha e controle de concorrência otimista (OCC).
func (r *InventoryRepository) ApplyAdjustment(ctx context.Context, inventoryID int64, delta quantity.Quantity) (domain.Inventory, error) {
	r.logger.Debug("Iniciando ajuste de saldo no repositório.", map[string]interface{}{"inventory_id": inventoryID, "delta": delta.String()})

	// 1. Ler o saldo atual bloqueando a linha (e capturando a versão)
	current, err := r.LockByID(ctx, inventoryID)
	if err != nil {
		return domain.Inventory{}, err
	}

	// 2. Verificar se o ajuste resultaria em saldo negativo ou fora de DECIMAL(19,4) (nenhuma mutação nesses casos)
	newQuantity := current.Quantity.Add(delta)
	if newQuantity.IsNegative() {
		r.logger.Warn("Ajuste resultaria em saldo negativo.", map[string]interface{}{
			"inventory_id": inventoryID,
			"current":      current.Quantity.String(),
			"delta":        delta.String(),
		})
		return domain.Inventory{}, &apperror.NegativeQuantityError{InventoryID: inventoryID, Current: current.Quantity.String(), Delta: delta.String()}
	}
	if !newQuantity.InRange() {
		return domain.Inventory{}, apperror.NewValidationError(fmt.Sprintf(
			"Saldo do inventário %d excederia o limite: %s + %s", inventoryID, current.Quantity, delta))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 3. Atualizar com checagem de versão
	queryUpdate := `
        UPDATE inventory
        SET quantity = $1, version = version + 1, updated_at = NOW()
        WHERE id = $2 AND version = $3
        RETURNING id, organization_id, product_id, quantity, version, created_at, updated_at`

	var updated domain.Inventory
	err = r.DB.GetContext(ctxTimeout, &updated, queryUpdate, newQuantity, inventoryID, current.Version)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC). Versão do registro desatualizada.", map[string]interface{}{
			"inventory_id":     inventoryID,
			"expected_version": current.Version,
		})
		return domain.Inventory{}, apperror.NewConcurrencyError(fmt.Sprintf("inventário %d modificado por outra operação (versão %d)", inventoryID, current.Version), nil)
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar saldo de inventário.", err)
		return domain.Inventory{}, apperror.NewDBError(fmt.Sprintf("Falha ao atualizar inventário %d (delta %s)", inventoryID, delta), err)
	}
	updated.ProductName = current.ProductName

	r.logger.Debug("Saldo de inventário atualizado.", map[string]interface{}{
		"inventory_id": inventoryID,
		"new_quantity": updated.Quantity.String(),
		"new_version":  updated.Version,
	})
	return updated, nil
}

// ExistsByProductID informa se há saldo registrado para o produto (usado para impedir a exclusão do produto).
func (r *InventoryRepository) ExistsByProductID(ctx context.Context, orgID, productID int64) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.GetContext(ctxTimeout, &exists,
		`SELECT EXISTS (SELECT 1 FROM inventory WHERE organization_id = $1 AND product_id = $2)`, orgID, productID)
	if err != nil {
		return false, apperror.NewDBError(fmt.Sprintf("Falha ao verificar inventário do produto %d", productID), err)
	}
	return exists, nil
}
