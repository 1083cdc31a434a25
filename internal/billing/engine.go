package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"canteen-pos/internal/database"
	"canteen-pos/internal/inventory"
	"canteen-pos/internal/models"
	"canteen-pos/internal/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Engine turns a cart into a committed bill: header, line items and stock
// decrements land in one transaction or not at all.
type Engine struct {
	db      *gorm.DB
	ledger  *inventory.Ledger
	taxRate decimal.Decimal
}

func NewEngine(db *gorm.DB, ledger *inventory.Ledger, taxRate decimal.Decimal) *Engine {
	return &Engine{db: db, ledger: ledger, taxRate: taxRate}
}

// CartLine is one requested item. UnitPrice is what the client displayed;
// the engine prices the line from the catalog and ignores it.
type CartLine struct {
	ProductID uint            `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateBillInput is the full cart submission.
type CreateBillInput struct {
	Items     []CartLine      `json:"items" binding:"required"`
	Discount  decimal.Decimal `json:"discount"`
	CashierID uint            `json:"-"`
}

// CreateBillResult is what the terminal needs to print and collect.
type CreateBillResult struct {
	BillID      uint            `json:"bill_id"`
	BillNumber  string          `json:"bill_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CreateBill validates the cart, computes totals at the configured tax rate
// and commits bill + items + stock decrements as one unit of work. On any
// failure the store is left exactly as it was.
func (e *Engine) CreateBill(ctx context.Context, in CreateBillInput) (*CreateBillResult, error) {
	if len(in.Items) == 0 {
		return nil, shared.Validationf("cart is empty")
	}
	for i, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, shared.Validationf("item %d: quantity must be positive", i+1)
		}
	}
	if in.Discount.IsNegative() {
		return nil, shared.Validationf("discount cannot be negative")
	}

	// Lock rows in product-id order so two carts naming the same products
	// cannot deadlock each other.
	lines := make([]CartLine, len(in.Items))
	copy(lines, in.Items)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	result := &CreateBillResult{BillNumber: newBillNumber()}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		items := make([]models.BillItem, 0, len(lines))

		for _, line := range lines {
			// Authoritative price comes from the locked row, never from
			// the client.
			var product models.Product
			if err := database.LockForUpdate(tx).First(&product, line.ProductID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("product %d: %w", line.ProductID, shared.ErrNotFound)
				}
				return shared.Storage(err)
			}
			if !product.IsActive {
				return fmt.Errorf("product %q is discontinued: %w", product.Name, shared.ErrNotFound)
			}

			lineSubtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineSubtotal)

			items = append(items, models.BillItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Subtotal:  lineSubtotal,
			})
		}

		tax := subtotal.Mul(e.taxRate).Round(2)
		if in.Discount.GreaterThan(subtotal.Add(tax)) {
			return shared.Validationf("discount %s exceeds bill amount %s",
				in.Discount.StringFixed(2), subtotal.Add(tax).StringFixed(2))
		}
		total := subtotal.Add(tax).Sub(in.Discount)

		bill := models.Bill{
			BillNumber:    result.BillNumber,
			CashierID:     in.CashierID,
			Subtotal:      subtotal,
			TaxAmount:     tax,
			Discount:      in.Discount,
			TotalAmount:   total,
			PaymentStatus: "pending",
			Items:         items,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return shared.Storage(err)
		}

		for _, item := range bill.Items {
			_, err := e.ledger.Adjust(tx, inventory.AdjustParams{
				ProductID:  item.ProductID,
				Delta:      -item.Quantity,
				ChangeType: models.ChangeSale,
				ActorID:    in.CashierID,
				Note:       "Bill #" + bill.BillNumber,
			})
			if err != nil {
				return err
			}
		}

		result.BillID = bill.ID
		result.TotalAmount = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetBill loads a bill with its line items and their product snapshots.
func (e *Engine) GetBill(ctx context.Context, id uint) (*models.Bill, error) {
	var bill models.Bill
	err := e.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&bill, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("bill %d: %w", id, shared.ErrNotFound)
		}
		return nil, shared.Storage(err)
	}
	return &bill, nil
}

// ListBills pages through bill headers, newest first, optionally filtered
// by payment status.
func (e *Engine) ListBills(ctx context.Context, page, limit int, status string) ([]models.Bill, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := e.db.WithContext(ctx).Model(&models.Bill{})
	if status != "" {
		q = q.Where("payment_status = ?", status)
	}

	var bills []models.Bill
	err := q.Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&bills).Error
	if err != nil {
		return nil, shared.Storage(err)
	}
	return bills, nil
}

// newBillNumber keeps the sortable millisecond prefix but adds a random
// suffix so two terminals hitting the same millisecond cannot collide.
func newBillNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("BILL%d-%s", time.Now().UnixMilli(), suffix)
}
