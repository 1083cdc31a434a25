package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"canteen-pos/internal/billing"
	"canteen-pos/internal/inventory"
	"canteen-pos/internal/models"
	"canteen-pos/internal/shared"
	"canteen-pos/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEngine(t *testing.T) (*billing.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	ledger := inventory.NewLedger(false)
	engine := billing.NewEngine(db, ledger, decimal.RequireFromString("0.05"))
	return engine, db
}

func seed(t *testing.T, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		Category:      "Food",
		Price:         decimal.RequireFromString(price),
		CostPrice:     decimal.RequireFromString(price).Div(decimal.NewFromInt(2)).Round(2),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// Worked scenario: cart of 2x50.00 + 1x100.00 with 10.00 discount at 5% tax
// comes out at 200.00 / 10.00 / 200.00 exactly.
func TestCreateBillScenario(t *testing.T) {
	engine, db := newEngine(t)
	a := seed(t, db, "Thali", "50.00", 10)
	b := seed(t, db, "Biryani", "100.00", 5)

	result, err := engine.CreateBill(context.Background(), billing.CreateBillInput{
		Items: []billing.CartLine{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1},
		},
		Discount:  decimal.RequireFromString("10.00"),
		CashierID: 7,
	})
	require.NoError(t, err)
	require.NotZero(t, result.BillID)
	require.Regexp(t, `^BILL\d+-[0-9A-F]{6}$`, result.BillNumber)
	require.Equal(t, "200.00", result.TotalAmount.StringFixed(2))

	var bill models.Bill
	require.NoError(t, db.Preload("Items").First(&bill, result.BillID).Error)
	require.Equal(t, "200.00", bill.Subtotal.StringFixed(2))
	require.Equal(t, "10.00", bill.TaxAmount.StringFixed(2))
	require.Equal(t, "10.00", bill.Discount.StringFixed(2))
	require.Equal(t, "200.00", bill.TotalAmount.StringFixed(2))
	require.Equal(t, "pending", bill.PaymentStatus)
	require.EqualValues(t, 7, bill.CashierID)

	// total = subtotal + tax - discount, and line items sum to the subtotal.
	require.True(t, bill.TotalAmount.Equal(bill.Subtotal.Add(bill.TaxAmount).Sub(bill.Discount)))
	itemSum := decimal.Zero
	for _, item := range bill.Items {
		require.True(t, item.Subtotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
		itemSum = itemSum.Add(item.Subtotal)
	}
	require.True(t, itemSum.Equal(bill.Subtotal))

	// Stock dropped and the ledger recorded both sales against the bill.
	var stockA, stockB models.Product
	require.NoError(t, db.First(&stockA, a.ID).Error)
	require.NoError(t, db.First(&stockB, b.ID).Error)
	require.Equal(t, 8, stockA.StockQuantity)
	require.Equal(t, 4, stockB.StockQuantity)

	var logs []models.InventoryLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	for _, entry := range logs {
		require.Equal(t, models.ChangeSale, entry.ChangeType)
		require.Equal(t, "Bill #"+result.BillNumber, entry.Notes)
		require.EqualValues(t, 7, entry.UserID)
	}
}

func TestCreateBillValidation(t *testing.T) {
	engine, db := newEngine(t)
	p := seed(t, db, "Tea", "10.00", 100)
	ctx := context.Background()

	_, err := engine.CreateBill(ctx, billing.CreateBillInput{CashierID: 1})
	require.True(t, shared.IsValidation(err))

	_, err = engine.CreateBill(ctx, billing.CreateBillInput{
		Items:     []billing.CartLine{{ProductID: p.ID, Quantity: 0}},
		CashierID: 1,
	})
	require.True(t, shared.IsValidation(err))

	_, err = engine.CreateBill(ctx, billing.CreateBillInput{
		Items:     []billing.CartLine{{ProductID: p.ID, Quantity: 1}},
		Discount:  decimal.RequireFromString("-1.00"),
		CashierID: 1,
	})
	require.True(t, shared.IsValidation(err))

	// discount above subtotal+tax would produce a negative total: rejected.
	_, err = engine.CreateBill(ctx, billing.CreateBillInput{
		Items:     []billing.CartLine{{ProductID: p.ID, Quantity: 1}},
		Discount:  decimal.RequireFromString("10.51"),
		CashierID: 1,
	})
	require.True(t, shared.IsValidation(err))

	// discount exactly at subtotal+tax is a free bill, allowed.
	result, err := engine.CreateBill(ctx, billing.CreateBillInput{
		Items:     []billing.CartLine{{ProductID: p.ID, Quantity: 1}},
		Discount:  decimal.RequireFromString("10.50"),
		CashierID: 1,
	})
	require.NoError(t, err)
	require.True(t, result.TotalAmount.IsZero())
}

func TestCreateBillIgnoresClientPrice(t *testing.T) {
	engine, db := newEngine(t)
	p := seed(t, db, "Coffee", "25.00", 10)

	result, err := engine.CreateBill(context.Background(), billing.CreateBillInput{
		Items: []billing.CartLine{
			{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
		},
		CashierID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "26.25", result.TotalAmount.StringFixed(2)) // 25.00 + 5% tax

	var item models.BillItem
	require.NoError(t, db.First(&item).Error)
	require.Equal(t, "25.00", item.UnitPrice.StringFixed(2))
}

func TestCreateBillRollsBackMidCart(t *testing.T) {
	engine, db := newEngine(t)
	var products []models.Product
	for i := 0; i < 5; i++ {
		products = append(products, seed(t, db, "Item", "20.00", 10))
	}

	// Line 3 asks for more than is in stock; lines 1-2 must not stick.
	cart := []billing.CartLine{
		{ProductID: products[0].ID, Quantity: 1},
		{ProductID: products[1].ID, Quantity: 1},
		{ProductID: products[2].ID, Quantity: 11},
		{ProductID: products[3].ID, Quantity: 1},
		{ProductID: products[4].ID, Quantity: 1},
	}
	_, err := engine.CreateBill(context.Background(), billing.CreateBillInput{
		Items: cart, CashierID: 1,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	var bills, items, logs int64
	require.NoError(t, db.Model(&models.Bill{}).Count(&bills).Error)
	require.NoError(t, db.Model(&models.BillItem{}).Count(&items).Error)
	require.NoError(t, db.Model(&models.InventoryLog{}).Count(&logs).Error)
	require.Zero(t, bills)
	require.Zero(t, items)
	require.Zero(t, logs)

	for _, p := range products {
		var current models.Product
		require.NoError(t, db.First(&current, p.ID).Error)
		require.Equal(t, 10, current.StockQuantity)
	}
}

func TestCreateBillUnknownAndInactiveProducts(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()

	_, err := engine.CreateBill(ctx, billing.CreateBillInput{
		Items:     []billing.CartLine{{ProductID: 404, Quantity: 1}},
		CashierID: 1,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)

	retired := seed(t, db, "Old Special", "30.00", 10)
	require.NoError(t, db.Model(&retired).Update("is_active", false).Error)

	_, err = engine.CreateBill(ctx, billing.CreateBillInput{
		Items:     []billing.CartLine{{ProductID: retired.ID, Quantity: 1}},
		CashierID: 1,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

// Carts naming the same products in different orders must take their row
// locks in one canonical order, or two terminals can deadlock each other.
// The ledger writes one entry per locked line, so the entry order shows the
// order the rows were taken in.
func TestCreateBillLocksProductsInCanonicalOrder(t *testing.T) {
	engine, db := newEngine(t)
	a := seed(t, db, "Samosa", "15.00", 10)
	b := seed(t, db, "Lassi", "35.00", 10)
	c := seed(t, db, "Paratha", "25.00", 10)

	result, err := engine.CreateBill(context.Background(), billing.CreateBillInput{
		Items: []billing.CartLine{
			{ProductID: c.ID, Quantity: 1},
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1},
		},
		CashierID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "94.50", result.TotalAmount.StringFixed(2)) // 90.00 + 5% tax

	var logs []models.InventoryLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 3)
	require.Equal(t, []uint{a.ID, b.ID, c.ID},
		[]uint{logs[0].ProductID, logs[1].ProductID, logs[2].ProductID})

	var stockA models.Product
	require.NoError(t, db.First(&stockA, a.ID).Error)
	require.Equal(t, 8, stockA.StockQuantity)
}

func TestBillNumbersAreUnique(t *testing.T) {
	engine, db := newEngine(t)
	p := seed(t, db, "Juice", "30.00", 1000)

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		result, err := engine.CreateBill(context.Background(), billing.CreateBillInput{
			Items:     []billing.CartLine{{ProductID: p.ID, Quantity: 1}},
			CashierID: 1,
		})
		require.NoError(t, err)
		require.False(t, seen[result.BillNumber], "duplicate bill number %s", result.BillNumber)
		seen[result.BillNumber] = true
	}
}

// K concurrent single-unit sales against stock S commit exactly min(K, S)
// bills; the rest are rejected and stock never goes negative.
func TestConcurrentSalesNeverOversell(t *testing.T) {
	engine, db := newEngine(t)
	const stock = 5
	const callers = 9
	p := seed(t, db, "Last Slice", "40.00", stock)

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := engine.CreateBill(context.Background(), billing.CreateBillInput{
				Items:     []billing.CartLine{{ProductID: p.ID, Quantity: 1}},
				CashierID: uint(n + 1),
			})
			results[n] = err
		}(i)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, shared.ErrInsufficientStock):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, stock, successes)
	require.Equal(t, callers-stock, rejections)

	var current models.Product
	require.NoError(t, db.First(&current, p.ID).Error)
	require.Equal(t, 0, current.StockQuantity)

	var bills int64
	require.NoError(t, db.Model(&models.Bill{}).Count(&bills).Error)
	require.EqualValues(t, stock, bills)
}

func TestGetAndListBills(t *testing.T) {
	engine, db := newEngine(t)
	p := seed(t, db, "Dosa", "45.00", 50)
	ctx := context.Background()

	var lastID uint
	for i := 0; i < 3; i++ {
		result, err := engine.CreateBill(ctx, billing.CreateBillInput{
			Items:     []billing.CartLine{{ProductID: p.ID, Quantity: 2}},
			CashierID: 1,
		})
		require.NoError(t, err)
		lastID = result.BillID
	}

	bill, err := engine.GetBill(ctx, lastID)
	require.NoError(t, err)
	require.Len(t, bill.Items, 1)
	require.NotNil(t, bill.Items[0].Product)
	require.Equal(t, "Dosa", bill.Items[0].Product.Name)

	_, err = engine.GetBill(ctx, 9999)
	require.ErrorIs(t, err, shared.ErrNotFound)

	bills, err := engine.ListBills(ctx, 1, 2, "")
	require.NoError(t, err)
	require.Len(t, bills, 2)

	pending, err := engine.ListBills(ctx, 1, 50, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 3)

	paid, err := engine.ListBills(ctx, 1, 50, "paid")
	require.NoError(t, err)
	require.Empty(t, paid)

	// Line items sum to the header subtotal on every committed bill.
	for _, b := range pending {
		full, err := engine.GetBill(ctx, b.ID)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, item := range full.Items {
			sum = sum.Add(item.Subtotal)
		}
		require.True(t, sum.Equal(full.Subtotal))
	}
}
