package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/quantity"
	"barstock/internal/repository/memstore"
)

const (
	orgID     int64 = 1
	productID int64 = 42
)

func TestCreateIfAbsent_DoesNotOverwrite(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	first, err := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.FromInt(5))
	require.NoError(t, err)

	second, err := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "5.0000", second.Quantity.String())

	_, err = store.Inventory().CreateIfAbsent(ctx, orgID, 99, quantity.FromInt(-1))
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestFindByOrgAndProduct_NotFound(t *testing.T) {
	store := memstore.New()

	_, err := store.Inventory().FindByOrgAndProduct(context.Background(), orgID, productID)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestApplyAdjustment_NegativeLeavesRecordUntouched(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	inv, _ := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.FromInt(3))

	_, err := store.Inventory().ApplyAdjustment(ctx, inv.ID, quantity.FromInt(-4))

	var negErr *apperror.NegativeQuantityError
	require.True(t, errors.As(err, &negErr))
	assert.Equal(t, "3.0000", negErr.Current)

	after, _ := store.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
	assert.Equal(t, "3.0000", after.Quantity.String())
	assert.Equal(t, inv.Version, after.Version)
}

func TestRunInTx_RollbackDiscardsWrites(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	boom := errors.New("boom")
	existing, err := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)
	require.NoError(t, err)

	err = store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		_, err := uow.Inventory().ApplyAdjustment(ctx, existing.ID, quantity.FromInt(10))
		require.NoError(t, err)
		_, err = uow.Transactions().Append(ctx, domain.InventoryTransaction{InventoryID: existing.ID, QuantityChange: quantity.FromInt(10)})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	inv, err := store.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
	require.NoError(t, err)
	assert.True(t, inv.Quantity.IsZero())
	assert.Equal(t, existing.Version, inv.Version)

	entries, _ := store.Transactions().ListByInventory(ctx, inv.ID)
	assert.Empty(t, entries)
}

func TestRunInTx_RollbackDiscardsCreatedRecord(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	boom := errors.New("boom")
	var createdID int64

	err := store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		inv, err := uow.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)
		require.NoError(t, err)
		createdID = inv.ID

		// A própria transação enxerga o registro que criou.
		found, err := uow.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)
		exists, _ := uow.Inventory().ExistsByProductID(ctx, orgID, productID)
		assert.True(t, exists)

		// Fora dela, ainda não existe.
		exists, _ = store.Inventory().ExistsByProductID(ctx, orgID, productID)
		assert.False(t, exists)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	exists, _ := store.Inventory().ExistsByProductID(ctx, orgID, productID)
	assert.False(t, exists)
	all, _ := store.Inventory().FindAllByOrg(ctx, orgID)
	assert.Empty(t, all)

	// A chave fica livre para uma nova criação.
	again, err := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, createdID, again.ID)
}

func TestCreateIfAbsent_WaitsForUncommittedCreation(t *testing.T) {
	store := memstore.New(memstore.WithLockTimeout(time.Second))
	ctx := context.Background()
	created := make(chan int64)
	proceed := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
			inv, err := uow.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)
			if err != nil {
				return err
			}
			if _, err := uow.Inventory().ApplyAdjustment(ctx, inv.ID, quantity.FromInt(4)); err != nil {
				return err
			}
			created <- inv.ID
			<-proceed
			return nil
		})
	}()

	firstID := <-created
	result := make(chan domain.Inventory, 1)
	go func() {
		var got domain.Inventory
		_ = store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
			inv, err := uow.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)
			got = inv
			return err
		})
		result <- got
	}()

	select {
	case <-result:
		t.Fatal("a segunda criação não deveria terminar antes do commit da primeira")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	require.NoError(t, <-done)

	select {
	case got := <-result:
		assert.Equal(t, firstID, got.ID)
		assert.Equal(t, "4.0000", got.Quantity.String())
	case <-time.After(time.Second):
		t.Fatal("a segunda criação ficou bloqueada")
	}
}

func TestRunInTx_CommitAppliesBalanceAndLedgerTogether(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	err := store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		inv, _ := uow.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)
		updated, err := uow.Inventory().ApplyAdjustment(ctx, inv.ID, quantity.MustParse("2.5"))
		if err != nil {
			return err
		}
		_, err = uow.Transactions().Append(ctx, domain.InventoryTransaction{
			InventoryID:    inv.ID,
			QuantityChange: quantity.MustParse("2.5"),
			QuantityBefore: inv.Quantity,
			QuantityAfter:  updated.Quantity,
			ReferenceID:    "nf-1",
		})
		return err
	})
	require.NoError(t, err)

	inv, _ := store.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
	assert.Equal(t, "2.5000", inv.Quantity.String())
	assert.Equal(t, int64(1), inv.Version)

	byRef, _ := store.Transactions().ListByReferenceID(ctx, "nf-1")
	require.Len(t, byRef, 1)
	assert.Equal(t, orgID, byRef[0].OrganizationID)
	assert.Equal(t, productID, byRef[0].ProductID)

	discrepancies, err := store.FindDiscrepancies(ctx)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestApplyAdjustment_BalanceOutOfRange(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	inv, _ := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.MustParse("999999999999999"))

	_, err := store.Inventory().ApplyAdjustment(ctx, inv.ID, quantity.FromInt(1))
	assert.IsType(t, &apperror.ValidationError{}, err)

	after, _ := store.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
	assert.Equal(t, "999999999999999.0000", after.Quantity.String())
}

func TestAppend_DuplicateReference(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	inv, _ := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)

	_, err := store.Transactions().Append(ctx, domain.InventoryTransaction{InventoryID: inv.ID, ReferenceID: "order-42"})
	require.NoError(t, err)

	_, err = store.Transactions().Append(ctx, domain.InventoryTransaction{InventoryID: inv.ID, ReferenceID: "order-42"})
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)

	// Dentro de uma transação a checagem também vale para entradas já confirmadas.
	err = store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		_, err := uow.Transactions().Append(ctx, domain.InventoryTransaction{InventoryID: inv.ID, ReferenceID: "order-42"})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestListByInventory_MostRecentFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := memstore.New()
	ctx := context.Background()
	inv, _ := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)

	for i := 0; i < 3; i++ {
		_, err := store.Transactions().Append(ctx, domain.InventoryTransaction{
			InventoryID: inv.ID,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	// Mesmo timestamp: o desempate é pelo ID decrescente.
	_, err := store.Transactions().Append(ctx, domain.InventoryTransaction{InventoryID: inv.ID, CreatedAt: base.Add(2 * time.Minute)})
	require.NoError(t, err)

	entries, err := store.Transactions().ListByInventory(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, int64(4), entries[0].ID)
	assert.Equal(t, int64(3), entries[1].ID)
	assert.Equal(t, int64(1), entries[3].ID)
}

func TestRowLock_TimeoutIsTransient(t *testing.T) {
	store := memstore.New(memstore.WithLockTimeout(20 * time.Millisecond))
	ctx := context.Background()
	inv, _ := store.Inventory().CreateIfAbsent(ctx, orgID, productID, quantity.Zero)

	locked := make(chan struct{})
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
			_, err := uow.Inventory().LockByID(ctx, inv.ID)
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	err := store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		_, err := uow.Inventory().ApplyAdjustment(ctx, inv.ID, quantity.FromInt(1))
		return err
	})
	assert.True(t, apperror.IsTransient(err))

	close(done)
	wg.Wait()
}

func TestRowLock_ContextDeadlineIsTimeout(t *testing.T) {
	store := memstore.New()
	inv, _ := store.Inventory().CreateIfAbsent(context.Background(), orgID, productID, quantity.Zero)

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.RunInTx(context.Background(), func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
			_, err := uow.Inventory().LockByID(ctx, inv.ID)
			close(locked)
			<-done
			return err
		})
	}()
	<-locked
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		_, err := uow.Inventory().LockByID(ctx, inv.ID)
		return err
	})
	assert.IsType(t, &apperror.TimeoutError{}, err)
}

func TestDifferentRecordsDoNotContend(t *testing.T) {
	store := memstore.New(memstore.WithLockTimeout(50 * time.Millisecond))
	ctx := context.Background()
	a, _ := store.Inventory().CreateIfAbsent(ctx, orgID, 1, quantity.Zero)
	b, _ := store.Inventory().CreateIfAbsent(ctx, orgID, 2, quantity.Zero)

	err := store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		if _, err := uow.Inventory().LockByID(ctx, a.ID); err != nil {
			return err
		}
		// Outra transação ajusta b enquanto a está bloqueado.
		return store.RunInTx(ctx, func(ctx context.Context, other domain.InventoryUnitOfWork) error {
			_, err := other.Inventory().ApplyAdjustment(ctx, b.ID, quantity.FromInt(1))
			return err
		})
	})
	require.NoError(t, err)

	all, _ := store.Inventory().FindAllByOrg(ctx, orgID)
	require.Len(t, all, 2)
	assert.Equal(t, "1.0000", all[1].Quantity.String())
}
