package memstore

import (
	"context"
	"fmt"
	"sort"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/quantity"
)

// inventoryRepo opera em auto-commit quando tx é nil.
type inventoryRepo struct {
	s  *Store
	tx *tx
}

func (r inventoryRepo) read(id int64) (domain.Inventory, bool) {
	if r.tx != nil {
		return r.tx.read(id)
	}
	return r.s.committed(id)
}

// lookup resolve a chave para um id visível a este repositório: confirmado ou criado pela própria transação.
func (r inventoryRepo) lookup(key inventoryKey) (int64, bool) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if id, ok := r.s.byKey[key]; ok {
		return id, true
	}
	if r.tx != nil {
		if id, ok := r.s.reserved[key]; ok {
			if _, mine := r.tx.created[id]; mine {
				return id, true
			}
		}
	}
	return 0, false
}

func (r inventoryRepo) FindByOrgAndProduct(_ context.Context, orgID, productID int64) (domain.Inventory, error) {
	id, ok := r.lookup(inventoryKey{orgID, productID})
	if !ok {
		return domain.Inventory{}, apperror.NewNotFoundError(fmt.Sprintf("Inventário do produto %d na organização %d não encontrado.", productID, orgID))
	}
	inv, _ := r.read(id)
	return inv, nil
}

func (r inventoryRepo) FindAllByOrg(_ context.Context, orgID int64) ([]domain.Inventory, error) {
	r.s.mu.RLock()
	ids := make([]int64, 0)
	for key, id := range r.s.byKey {
		if key.orgID == orgID {
			ids = append(ids, id)
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, inv := range r.tx.created {
			if inv.OrganizationID == orgID {
				ids = append(ids, id)
			}
		}
	}

	out := make([]domain.Inventory, 0, len(ids))
	for _, id := range ids {
		if inv, ok := r.read(id); ok {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// CreateIfAbsent cria o registro se a chave (organização, produto) ainda não existir.
// Dentro de uma transação o registro nasce com o lock tomado e só é publicado no commit;
// quem tentar criar a mesma chave nesse intervalo espera pelo desfecho, como no INSERT concorrente do PostgreSQL.
func (r inventoryRepo) CreateIfAbsent(ctx context.Context, orgID, productID int64, initial quantity.Quantity) (domain.Inventory, error) {
	if initial.IsNegative() || !initial.InRange() {
		return domain.Inventory{}, apperror.NewValidationError(fmt.Sprintf("Quantidade inicial inválida: %s", initial))
	}

	key := inventoryKey{orgID, productID}
	for {
		r.s.mu.Lock()
		if id, ok := r.s.byKey[key]; ok {
			r.s.mu.Unlock()
			inv, _ := r.read(id)
			return inv, nil
		}
		if id, ok := r.s.reserved[key]; ok {
			r.s.mu.Unlock()
			if r.tx != nil {
				if _, mine := r.tx.created[id]; mine {
					inv, _ := r.tx.read(id)
					return inv, nil
				}
			}
			// Espera a transação dona da reserva terminar e tenta de novo.
			if err := r.s.acquire(ctx, id); err != nil {
				return domain.Inventory{}, err
			}
			r.s.release(id)
			continue
		}

		r.s.nextInventoryID++
		now := r.s.now()
		inv := domain.Inventory{
			ID:             r.s.nextInventoryID,
			OrganizationID: orgID,
			ProductID:      productID,
			Quantity:       initial,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if r.tx == nil {
			r.s.inventories[inv.ID] = inv
			r.s.byKey[key] = inv.ID
			r.s.mu.Unlock()
			return inv, nil
		}

		lock := make(chan struct{}, 1)
		lock <- struct{}{}
		r.s.rowLocks[inv.ID] = lock
		r.s.reserved[key] = inv.ID
		r.s.mu.Unlock()

		r.tx.held[inv.ID] = struct{}{}
		r.tx.created[inv.ID] = inv
		return inv, nil
	}
}

func (r inventoryRepo) LockByID(ctx context.Context, inventoryID int64) (domain.Inventory, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, inventoryID); err != nil {
			return domain.Inventory{}, err
		}
	}
	inv, ok := r.read(inventoryID)
	if !ok {
		return domain.Inventory{}, notFound(inventoryID)
	}
	return inv, nil
}

func (r inventoryRepo) ApplyAdjustment(ctx context.Context, inventoryID int64, delta quantity.Quantity) (domain.Inventory, error) {
	if r.tx == nil {
		if err := r.s.acquire(ctx, inventoryID); err != nil {
			return domain.Inventory{}, err
		}
		defer r.s.release(inventoryID)

		current, ok := r.s.committed(inventoryID)
		if !ok {
			return domain.Inventory{}, notFound(inventoryID)
		}
		updated, err := applyDelta(current, delta, r.s.now())
		if err != nil {
			return domain.Inventory{}, err
		}
		r.s.mu.Lock()
		r.s.inventories[inventoryID] = updated
		r.s.mu.Unlock()
		return updated, nil
	}

	if err := r.tx.lock(ctx, inventoryID); err != nil {
		return domain.Inventory{}, err
	}
	current, ok := r.tx.read(inventoryID)
	if !ok {
		return domain.Inventory{}, notFound(inventoryID)
	}
	updated, err := applyDelta(current, delta, r.s.now())
	if err != nil {
		return domain.Inventory{}, err
	}
	r.tx.staged[inventoryID] = updated
	return updated, nil
}

func (r inventoryRepo) ExistsByProductID(_ context.Context, orgID, productID int64) (bool, error) {
	_, ok := r.lookup(inventoryKey{orgID, productID})
	return ok, nil
}

// ledgerRepo só acrescenta: não há caminho de update nem de delete.
type ledgerRepo struct {
	s  *Store
	tx *tx
}

func (r ledgerRepo) Append(_ context.Context, entry domain.InventoryTransaction) (domain.InventoryTransaction, error) {
	var (
		owner domain.Inventory
		ok    bool
	)
	if r.tx != nil {
		owner, ok = r.tx.read(entry.InventoryID)
	} else {
		owner, ok = r.s.committed(entry.InventoryID)
	}
	if !ok {
		return domain.InventoryTransaction{}, notFound(entry.InventoryID)
	}

	entry.OrganizationID = owner.OrganizationID
	entry.ProductID = owner.ProductID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.s.now()
	}

	if r.tx != nil {
		if entry.ReferenceID != "" {
			for _, staged := range r.tx.appended {
				if staged.ReferenceID == entry.ReferenceID {
					return domain.InventoryTransaction{}, domain.ErrDuplicateReference
				}
			}
			r.s.mu.RLock()
			_, dup := r.s.byRef[entry.ReferenceID]
			r.s.mu.RUnlock()
			if dup {
				return domain.InventoryTransaction{}, domain.ErrDuplicateReference
			}
		}
		entry.ID = r.s.nextEntryID.Add(1)
		r.tx.appended = append(r.tx.appended, entry)
		return entry, nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ReferenceID != "" {
		if _, dup := r.s.byRef[entry.ReferenceID]; dup {
			return domain.InventoryTransaction{}, domain.ErrDuplicateReference
		}
		defer func() { r.s.byRef[entry.ReferenceID] = entry.ID }()
	}
	entry.ID = r.s.nextEntryID.Add(1)
	r.s.ledger = append(r.s.ledger, entry)
	return entry, nil
}

func (r ledgerRepo) collect(match func(domain.InventoryTransaction) bool) []domain.InventoryTransaction {
	out := []domain.InventoryTransaction{}
	r.s.mu.RLock()
	for _, e := range r.s.ledger {
		if match(e) {
			out = append(out, e)
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, e := range r.tx.appended {
			if match(e) {
				out = append(out, e)
			}
		}
	}
	return out
}

func (r ledgerRepo) ListByInventory(_ context.Context, inventoryID int64) ([]domain.InventoryTransaction, error) {
	out := r.collect(func(e domain.InventoryTransaction) bool { return e.InventoryID == inventoryID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r ledgerRepo) ListByReferenceID(_ context.Context, referenceID string) ([]domain.InventoryTransaction, error) {
	out := r.collect(func(e domain.InventoryTransaction) bool { return e.ReferenceID == referenceID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
