package ledgerrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/database"
	"barstock/internal/pkg/logger"
)

// As entradas são sempre lidas junto com o registro dono para expor organização e produto.
const selectTransactions = `
        SELECT t.id, t.inventory_id, i.organization_id, i.product_id, t.transaction_type,
               t.quantity_change, t.quantity_before, t.quantity_after,
               COALESCE(t.reference_id, '') AS reference_id, COALESCE(t.notes, '') AS notes,
               t.created_by, t.created_at
        FROM inventory_transactions t
        JOIN inventory i ON i.id = t.inventory_id`

// TransactionRepository implementa domain.InventoryTransactionRepository (ledger append-only).
type TransactionRepository struct {
	DB        database.DBTX
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTransactionRepository cria e retorna uma nova instância do Repositório do Ledger.
func NewTransactionRepository(db database.DBTX, dbTimeout time.Duration, logger logger.Logger) *TransactionRepository {
	return &TransactionRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Append insere uma nova entrada. Nunca atualiza entradas existentes.
func (r *TransactionRepository) Append(ctx context.Context, entry domain.InventoryTransaction) (domain.InventoryTransaction, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	createdAt := sql.NullTime{Time: entry.CreatedAt, Valid: !entry.CreatedAt.IsZero()}

	query := `
        INSERT INTO inventory_transactions
            (inventory_id, transaction_type, quantity_change, quantity_before, quantity_after,
             reference_id, notes, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, COALESCE($9, NOW()))
        RETURNING id, created_at`

	err := r.DB.QueryRowxContext(ctxTimeout, query,
		entry.InventoryID,
		string(entry.TransactionType),
		entry.QuantityChange,
		entry.QuantityBefore,
		entry.QuantityAfter,
		entry.ReferenceID,
		entry.Notes,
		entry.CreatedBy,
		createdAt,
	).Scan(&entry.ID, &entry.CreatedAt)

	if apperror.IsUniqueViolation(err) {
		// Única restrição UNIQUE da tabela: índice parcial em reference_id.
		r.logger.Info("reference_id já registrado no ledger.", map[string]interface{}{"reference_id": entry.ReferenceID})
		return domain.InventoryTransaction{}, domain.ErrDuplicateReference
	}
	if err != nil {
		r.logger.Error("Falha ao inserir entrada no ledger.", err)
		return domain.InventoryTransaction{}, apperror.NewDBError(
			fmt.Sprintf("Falha ao registrar movimentação (inventário %d, delta %s)", entry.InventoryID, entry.QuantityChange), err)
	}

	r.logger.Debug("Entrada registrada no ledger.", map[string]interface{}{"id": entry.ID, "inventory_id": entry.InventoryID})
	return entry, nil
}

// ListByInventory retorna o histórico do registro, mais recente primeiro.
func (r *TransactionRepository) ListByInventory(ctx context.Context, inventoryID int64) ([]domain.InventoryTransaction, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	entries := []domain.InventoryTransaction{}
	err := r.DB.SelectContext(ctxTimeout, &entries,
		selectTransactions+` WHERE t.inventory_id = $1 ORDER BY t.created_at DESC, t.id DESC`, inventoryID)
	if err != nil {
		r.logger.Error("Falha ao listar ledger do inventário.", err)
		return nil, apperror.NewDBError(fmt.Sprintf("Falha ao listar movimentações do inventário %d", inventoryID), err)
	}
	return entries, nil
}

// ListByReferenceID retorna as entradas com o referenceId informado, em ordem de criação.
func (r *TransactionRepository) ListByReferenceID(ctx context.Context, referenceID string) ([]domain.InventoryTransaction, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	entries := []domain.InventoryTransaction{}
	err := r.DB.SelectContext(ctxTimeout, &entries,
		selectTransactions+` WHERE t.reference_id = $1 ORDER BY t.id`, referenceID)
	if err != nil {
		return nil, apperror.NewDBError(fmt.Sprintf("Falha ao buscar movimentações por reference_id %q", referenceID), err)
	}
	return entries, nil
}
