package inventoryrepo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/database"
	"barstock/internal/pkg/logger"
	"barstock/internal/repository/ledgerrepo"
)

// Store implementa domain.InventoryStore: saldos e ledger sobre o mesmo banco,
// com transações que cobrem as duas tabelas.
type Store struct {
	db          *sqlx.DB
	dbTimeout   time.Duration
	lockTimeout time.Duration
	logger      logger.Logger

	inventory    *InventoryRepository
	transactions *ledgerrepo.TransactionRepository
}

// NewStore cria o Store. lockTimeout limita a espera por locks de linha dentro de RunInTx.
func NewStore(db *sqlx.DB, dbTimeout, lockTimeout time.Duration, logger logger.Logger) *Store {
	return &Store{
		db:           db,
		dbTimeout:    dbTimeout,
		lockTimeout:  lockTimeout,
		logger:       logger,
		inventory:    NewInventoryRepository(db, dbTimeout, logger),
		transactions: ledgerrepo.NewTransactionRepository(db, dbTimeout, logger),
	}
}

func (s *Store) Inventory() domain.InventoryRepository               { return s.inventory }
func (s *Store) Transactions() domain.InventoryTransactionRepository { return s.transactions }

// txUnit liga os dois repositórios a uma mesma *sqlx.Tx.
type txUnit struct {
	inventory    *InventoryRepository
	transactions *ledgerrepo.TransactionRepository
}

func (u txUnit) Inventory() domain.InventoryRepository               { return u.inventory }
func (u txUnit) Transactions() domain.InventoryTransactionRepository { return u.transactions }

// RunInTx abre uma transação, aplica o lock_timeout e executa fn.
// Rollback em qualquer erro (inclusive cancelamento do contexto antes do commit).
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, uow domain.InventoryUnitOfWork) error) error {
	return database.RunInTx(ctx, s.db, s.lockTimeout, func(tx *sqlx.Tx) error {
		unit := txUnit{
			inventory:    NewInventoryRepository(tx, s.dbTimeout, s.logger),
			transactions: ledgerrepo.NewTransactionRepository(tx, s.dbTimeout, s.logger),
		}
		return fn(ctx, unit)
	})
}

// FindDiscrepancies compara cada saldo com a soma dos deltas do seu ledger.
// Como todo registro nasce com zero e só muda via ajuste registrado, as duas somas devem coincidir.
func (s *Store) FindDiscrepancies(ctx context.Context) ([]domain.LedgerDiscrepancy, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	query := `
        SELECT i.id AS inventory_id, i.organization_id, i.product_id, i.quantity,
               COALESCE(SUM(t.quantity_change), 0) AS ledger_sum
        FROM inventory i
        LEFT JOIN inventory_transactions t ON t.inventory_id = i.id
        GROUP BY i.id, i.organization_id, i.product_id, i.quantity
        HAVING i.quantity <> COALESCE(SUM(t.quantity_change), 0)
        ORDER BY i.id`

	discrepancies := []domain.LedgerDiscrepancy{}
	if err := s.db.SelectContext(ctxTimeout, &discrepancies, query); err != nil {
		s.logger.Error("Falha ao executar reconciliação do ledger.", err)
		return nil, apperror.NewDBError("Falha ao reconciliar ledger", err)
	}
	return discrepancies, nil
}
