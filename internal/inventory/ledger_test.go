package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/testdb"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		current enums.VariantStatus
		stock   int
		want    enums.VariantStatus
	}{
		{enums.VariantStatusActive, 3, enums.VariantStatusActive},
		{enums.VariantStatusActive, 0, enums.VariantStatusOutOfStock},
		{enums.VariantStatusOutOfStock, 1, enums.VariantStatusActive},
		{enums.VariantStatusOutOfStock, 0, enums.VariantStatusOutOfStock},
		{enums.VariantStatusInactive, 0, enums.VariantStatusInactive},
		{enums.VariantStatusInactive, 10, enums.VariantStatusInactive},
	}
	for _, tt := range tests {
		if got := DeriveStatus(tt.current, tt.stock); got != tt.want {
			t.Fatalf("DeriveStatus(%s, %d) = %s, want %s", tt.current, tt.stock, got, tt.want)
		}
	}
}

func TestReserveDecrementsAndFlipsOutOfStock(t *testing.T) {
	db := testdb.New(t, "ledger")
	ledger := NewLedger(db)
	ctx := context.Background()
	_, variant := testdb.SeedVariant(t, db, 1000, 0, 5)

	require.NoError(t, ledger.Reserve(ctx, variant.ID, 2))
	got := testdb.ReloadVariant(t, db, variant.ID)
	require.Equal(t, 3, got.StockQuantity)
	require.Equal(t, enums.VariantStatusActive, got.Status)

	require.NoError(t, ledger.Reserve(ctx, variant.ID, 3))
	got = testdb.ReloadVariant(t, db, variant.ID)
	require.Equal(t, 0, got.StockQuantity)
	require.Equal(t, enums.VariantStatusOutOfStock, got.Status)
}

func TestReserveInsufficientStock(t *testing.T) {
	db := testdb.New(t, "ledger")
	ledger := NewLedger(db)
	_, variant := testdb.SeedVariant(t, db, 1000, 0, 1)

	err := ledger.Reserve(context.Background(), variant.ID, 2)
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
	require.Contains(t, err.Error(), "insufficient stock for variant "+variant.SKU)

	got := testdb.ReloadVariant(t, db, variant.ID)
	require.Equal(t, 1, got.StockQuantity)
}

func TestReserveUnknownVariant(t *testing.T) {
	db := testdb.New(t, "ledger")
	err := NewLedger(db).Reserve(context.Background(), uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	db := testdb.New(t, "ledger")
	_, variant := testdb.SeedVariant(t, db, 1000, 0, 1)
	err := NewLedger(db).Reserve(context.Background(), variant.ID, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecrementClampsAtZero(t *testing.T) {
	db := testdb.New(t, "ledger")
	ledger := NewLedger(db)
	_, variant := testdb.SeedVariant(t, db, 1000, 0, 2)

	require.NoError(t, ledger.Decrement(context.Background(), variant.ID, 5))
	got := testdb.ReloadVariant(t, db, variant.ID)
	require.Equal(t, 0, got.StockQuantity)
	require.Equal(t, enums.VariantStatusOutOfStock, got.Status)

	err := ledger.Decrement(context.Background(), uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRestoreRevivesOutOfStock(t *testing.T) {
	db := testdb.New(t, "ledger")
	ledger := NewLedger(db)
	_, variant := testdb.SeedVariant(t, db, 1000, 0, 0)
	require.Equal(t, enums.VariantStatusOutOfStock, variant.Status)

	require.NoError(t, ledger.Restore(context.Background(), variant.ID, 4))
	got := testdb.ReloadVariant(t, db, variant.ID)
	require.Equal(t, 4, got.StockQuantity)
	require.Equal(t, enums.VariantStatusActive, got.Status)

	available, err := ledger.Available(context.Background(), variant.ID)
	require.NoError(t, err)
	require.Equal(t, 4, available)
}

func TestRestoreKeepsInactive(t *testing.T) {
	db := testdb.New(t, "ledger")
	ledger := NewLedger(db)
	_, variant := testdb.SeedVariant(t, db, 1000, 0, 0)
	require.NoError(t, db.Model(&models.ProductVariant{}).Where("id = ?", variant.ID).
		Update("status", enums.VariantStatusInactive).Error)

	require.NoError(t, ledger.Restore(context.Background(), variant.ID, 2))
	got := testdb.ReloadVariant(t, db, variant.ID)
	require.Equal(t, 2, got.StockQuantity)
	require.Equal(t, enums.VariantStatusInactive, got.Status)
}

func TestConcurrentReserveNeverOversells(t *testing.T) {
	db := testdb.New(t, "ledger")
	ledger := NewLedger(db)
	const stock = 7
	_, variant := testdb.SeedVariant(t, db, 1000, 0, stock)

	var (
		wg       sync.WaitGroup
		reserved atomic.Int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				return ledger.WithTx(tx).Reserve(context.Background(), variant.ID, qty)
			})
			if err == nil {
				reserved.Add(int64(qty))
			}
		}(1 + i%2)
	}
	wg.Wait()

	got := testdb.ReloadVariant(t, db, variant.ID)
	require.GreaterOrEqual(t, got.StockQuantity, 0)
	require.LessOrEqual(t, reserved.Load(), int64(stock))
	require.Equal(t, int64(stock)-int64(got.StockQuantity), reserved.Load())
}

func TestReserveRollsBackWithTransaction(t *testing.T) {
	db := testdb.New(t, "ledger")
	ledger := NewLedger(db)
	_, first := testdb.SeedVariant(t, db, 1000, 0, 3)
	_, second := testdb.SeedVariant(t, db, 1000, 0, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ledger.WithTx(tx).Reserve(context.Background(), first.ID, 2); err != nil {
			return err
		}
		return ledger.WithTx(tx).Reserve(context.Background(), second.ID, 2)
	})
	require.Error(t, err)
	require.Equal(t, 3, testdb.ReloadVariant(t, db, first.ID).StockQuantity)
	require.Equal(t, 1, testdb.ReloadVariant(t, db, second.ID).StockQuantity)
}
