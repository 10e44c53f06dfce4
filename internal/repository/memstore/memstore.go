// Package memstore implementa domain.InventoryStore em memória com as mesmas garantias
// transacionais do store PostgreSQL. Cada registro tem um lock exclusivo mantido até o fim
// da transação, e as escritas (inclusive a criação de registros) só aparecem no commit.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/quantity"
)

type inventoryKey struct {
	orgID     int64
	productID int64
}

// Store é um store de inventário em memória seguro para uso concorrente.
type Store struct {
	mu          sync.RWMutex
	inventories map[int64]domain.Inventory
	byKey       map[inventoryKey]int64
	reserved    map[inventoryKey]int64 // criações ainda não confirmadas, como a linha nova de um INSERT
	ledger      []domain.InventoryTransaction
	byRef       map[string]int64
	rowLocks    map[int64]chan struct{}

	nextInventoryID int64
	nextEntryID     atomic.Int64

	lockTimeout time.Duration
	now         func() time.Time
}

// Option configura um Store.
type Option func(*Store)

// WithLockTimeout limita a espera pelo lock de um registro.
// Estourar o limite gera um ConcurrencyError transitório, como o lock_timeout do PostgreSQL.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithClock troca a fonte de tempo dos timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New retorna um store vazio.
func New(opts ...Option) *Store {
	s := &Store{
		inventories: map[int64]domain.Inventory{},
		byKey:       map[inventoryKey]int64{},
		reserved:    map[inventoryKey]int64{},
		byRef:       map[string]int64{},
		rowLocks:    map[int64]chan struct{}{},
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Inventory retorna os saldos em modo auto-commit.
func (s *Store) Inventory() domain.InventoryRepository { return inventoryRepo{s: s} }

// Transactions retorna o ledger em modo auto-commit.
func (s *Store) Transactions() domain.InventoryTransactionRepository { return ledgerRepo{s: s} }

// RunInTx executa fn dentro de uma transação. As escritas feitas pela unidade de trabalho
// só ficam visíveis se fn retornar nil e o commit for bem-sucedido.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, uow domain.InventoryUnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return apperror.NewTimeoutError("transação não iniciada", err)
	}

	t := &tx{
		s:       s,
		held:    map[int64]struct{}{},
		staged:  map[int64]domain.Inventory{},
		created: map[int64]domain.Inventory{},
	}
	defer t.releaseAll()

	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperror.NewTimeoutError("transação cancelada antes do commit", err)
	}
	return t.commit()
}

// FindDiscrepancies lista os registros cujo saldo difere da soma das movimentações do ledger.
func (s *Store) FindDiscrepancies(_ context.Context) ([]domain.LedgerDiscrepancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := map[int64]quantity.Quantity{}
	for _, e := range s.ledger {
		sums[e.InventoryID] = sums[e.InventoryID].Add(e.QuantityChange)
	}

	out := []domain.LedgerDiscrepancy{}
	for id, inv := range s.inventories {
		if !inv.Quantity.Equal(sums[id]) {
			out = append(out, domain.LedgerDiscrepancy{
				InventoryID:    id,
				OrganizationID: inv.OrganizationID,
				ProductID:      inv.ProductID,
				Quantity:       inv.Quantity,
				LedgerSum:      sums[id],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InventoryID < out[j].InventoryID })
	return out, nil
}

// acquire toma o lock exclusivo do registro, respeitando ctx e o lock timeout.
func (s *Store) acquire(ctx context.Context, id int64) error {
	s.mu.Lock()
	ch, ok := s.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[id] = ch
	}
	s.mu.Unlock()

	var expired <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperror.NewTimeoutError(fmt.Sprintf("espera pelo lock do inventário %d", id), ctx.Err())
	case <-expired:
		return apperror.NewConcurrencyError(fmt.Sprintf("lock_timeout no inventário %d", id), nil)
	}
}

func (s *Store) release(id int64) {
	s.mu.RLock()
	ch := s.rowLocks[id]
	s.mu.RUnlock()
	<-ch
}

func (s *Store) committed(id int64) (domain.Inventory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.inventories[id]
	return inv, ok
}

// tx guarda os locks e as escritas pendentes de uma transação. Pertence a uma única goroutine.
type tx struct {
	s        *Store
	held     map[int64]struct{}
	staged   map[int64]domain.Inventory
	created  map[int64]domain.Inventory // registros criados nesta transação, com a chave reservada
	appended []domain.InventoryTransaction
	done     bool
}

func (t *tx) Inventory() domain.InventoryRepository { return inventoryRepo{s: t.s, tx: t} }

func (t *tx) Transactions() domain.InventoryTransactionRepository { return ledgerRepo{s: t.s, tx: t} }

func (t *tx) lock(ctx context.Context, id int64) error {
	if _, ok := t.held[id]; ok {
		return nil
	}
	if err := t.s.acquire(ctx, id); err != nil {
		return err
	}
	t.held[id] = struct{}{}
	return nil
}

// releaseAll desfaz as reservas de chave não confirmadas e só então solta os locks.
func (t *tx) releaseAll() {
	if !t.done && len(t.created) > 0 {
		t.s.mu.Lock()
		for id, inv := range t.created {
			key := inventoryKey{inv.OrganizationID, inv.ProductID}
			if t.s.reserved[key] == id {
				delete(t.s.reserved, key)
			}
		}
		t.s.mu.Unlock()
	}
	for id := range t.held {
		t.s.release(id)
	}
	t.held = nil
}

func (t *tx) read(id int64) (domain.Inventory, bool) {
	if inv, ok := t.staged[id]; ok {
		return inv, true
	}
	if inv, ok := t.created[id]; ok {
		return inv, true
	}
	return t.s.committed(id)
}

func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	// Tudo é validado antes de alterar o estado compartilhado.
	seen := map[string]struct{}{}
	for _, e := range t.appended {
		if e.ReferenceID == "" {
			continue
		}
		if _, dup := s.byRef[e.ReferenceID]; dup {
			return domain.ErrDuplicateReference
		}
		if _, dup := seen[e.ReferenceID]; dup {
			return domain.ErrDuplicateReference
		}
		seen[e.ReferenceID] = struct{}{}
	}
	for id, inv := range t.staged {
		base, ok := t.created[id]
		if !ok {
			base = s.inventories[id]
		}
		if base.Version != inv.Version-1 {
			return apperror.NewConcurrencyError(fmt.Sprintf("inventário %d modificado por outra operação", id), nil)
		}
	}

	for id, inv := range t.created {
		key := inventoryKey{inv.OrganizationID, inv.ProductID}
		s.inventories[id] = inv
		s.byKey[key] = id
		delete(s.reserved, key)
	}
	for id, inv := range t.staged {
		s.inventories[id] = inv
	}
	for _, e := range t.appended {
		s.ledger = append(s.ledger, e)
		if e.ReferenceID != "" {
			s.byRef[e.ReferenceID] = e.ID
		}
	}
	t.done = true
	return nil
}

func applyDelta(current domain.Inventory, delta quantity.Quantity, now time.Time) (domain.Inventory, error) {
	next := current.Quantity.Add(delta)
	if next.IsNegative() {
		return domain.Inventory{}, &apperror.NegativeQuantityError{
			InventoryID: current.ID,
			Current:     current.Quantity.String(),
			Delta:       delta.String(),
		}
	}
	if !next.InRange() {
		return domain.Inventory{}, apperror.NewValidationError(fmt.Sprintf(
			"Saldo do inventário %d excederia o limite: %s + %s", current.ID, current.Quantity, delta))
	}
	current.Quantity = next
	current.Version++
	current.UpdatedAt = now
	return current, nil
}

func notFound(id int64) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Inventário %d não encontrado.", id))
}
