package inventory_test

import (
	"errors"
	"testing"

	"canteen-pos/internal/inventory"
	"canteen-pos/internal/models"
	"canteen-pos/internal/shared"
	"canteen-pos/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          "Samosa",
		Category:      "Snacks",
		Price:         decimal.RequireFromString("15.00"),
		CostPrice:     decimal.RequireFromString("8.00"),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func adjust(db *gorm.DB, l *inventory.Ledger, p inventory.AdjustParams) (*inventory.Adjustment, error) {
	var adj *inventory.Adjustment
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		adj, txErr = l.Adjust(tx, p)
		return txErr
	})
	return adj, err
}

func TestAdjustChainsAuditEntries(t *testing.T) {
	db := testutil.OpenDB(t)
	ledger := inventory.NewLedger(false)
	product := seedProduct(t, db, 10)

	moves := []inventory.AdjustParams{
		{ProductID: product.ID, Delta: 5, ChangeType: models.ChangeAdd, ActorID: 1, Note: "restock"},
		{ProductID: product.ID, Delta: -3, ChangeType: models.ChangeSale, ActorID: 2, Note: "Bill #BILL1"},
		{ProductID: product.ID, Delta: -4, ChangeType: models.ChangeAdjustment, ActorID: 1, Note: "spoilage"},
	}
	for _, m := range moves {
		_, err := adjust(db, ledger, m)
		require.NoError(t, err)
	}

	var current models.Product
	require.NoError(t, db.First(&current, product.ID).Error)
	require.Equal(t, 8, current.StockQuantity)

	var entries []models.InventoryLog
	require.NoError(t, db.Where("product_id = ?", product.ID).Order("id").Find(&entries).Error)
	require.Len(t, entries, 3)

	// Strict chronological chain: after of entry N == before of entry N+1.
	require.Equal(t, 10, entries[0].QuantityBefore)
	for i, e := range entries {
		require.Equal(t, e.QuantityBefore+e.QuantityChange, e.QuantityAfter)
		if i > 0 {
			require.Equal(t, entries[i-1].QuantityAfter, e.QuantityBefore)
		}
	}
	require.Equal(t, 8, entries[2].QuantityAfter)
}

func TestSaleCannotOversell(t *testing.T) {
	db := testutil.OpenDB(t)
	ledger := inventory.NewLedger(false)
	product := seedProduct(t, db, 1)

	_, err := adjust(db, ledger, inventory.AdjustParams{
		ProductID: product.ID, Delta: -2, ChangeType: models.ChangeSale, ActorID: 1,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// Rejected movement leaves neither stock change nor audit entry.
	var current models.Product
	require.NoError(t, db.First(&current, product.ID).Error)
	require.Equal(t, 1, current.StockQuantity)

	var count int64
	require.NoError(t, db.Model(&models.InventoryLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestNegativeStockPolicy(t *testing.T) {
	db := testutil.OpenDB(t)
	product := seedProduct(t, db, 2)

	strict := inventory.NewLedger(false)
	_, err := adjust(db, strict, inventory.AdjustParams{
		ProductID: product.ID, Delta: -5, ChangeType: models.ChangeAdjustment, ActorID: 1,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	relaxed := inventory.NewLedger(true)
	adj, err := adjust(db, relaxed, inventory.AdjustParams{
		ProductID: product.ID, Delta: -5, ChangeType: models.ChangeAdjustment, ActorID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 2, adj.QuantityBefore)
	require.Equal(t, -3, adj.QuantityAfter)

	// Even relaxed mode never lets a sale oversell.
	_, err = adjust(db, relaxed, inventory.AdjustParams{
		ProductID: product.ID, Delta: -1, ChangeType: models.ChangeSale, ActorID: 1,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestAdjustValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	ledger := inventory.NewLedger(false)
	product := seedProduct(t, db, 5)

	_, err := adjust(db, ledger, inventory.AdjustParams{
		ProductID: product.ID, Delta: 1, ChangeType: "theft",
	})
	require.True(t, shared.IsValidation(err))

	_, err = adjust(db, ledger, inventory.AdjustParams{
		ProductID: product.ID, Delta: 0, ChangeType: models.ChangeAdd,
	})
	require.True(t, shared.IsValidation(err))

	_, err = adjust(db, ledger, inventory.AdjustParams{
		ProductID: 9999, Delta: 1, ChangeType: models.ChangeAdd,
	})
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestEveryCallAppendsOneEntry(t *testing.T) {
	db := testutil.OpenDB(t)
	ledger := inventory.NewLedger(false)
	product := seedProduct(t, db, 100)

	// Identical repeated movements are not deduplicated.
	for i := 0; i < 3; i++ {
		_, err := adjust(db, ledger, inventory.AdjustParams{
			ProductID: product.ID, Delta: 10, ChangeType: models.ChangeAdd, ActorID: 1, Note: "restock",
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.InventoryLog{}).Where("product_id = ?", product.ID).Count(&count).Error)
	require.EqualValues(t, 3, count)
}
