package inventory

import (
	"fmt"

	"canteen-pos/internal/database"
	"canteen-pos/internal/models"
	"canteen-pos/internal/shared"

	"gorm.io/gorm"
)

// Ledger owns every stock movement: the authoritative quantity on the
// product row plus one append-only InventoryLog entry per change. Both are
// written inside the caller's transaction, so a failed log insert rolls the
// stock change back with it.
type Ledger struct {
	// AllowNegative permits add/adjustment movements to take stock below
	// zero. Sales can never oversell regardless.
	AllowNegative bool
}

func NewLedger(allowNegative bool) *Ledger {
	return &Ledger{AllowNegative: allowNegative}
}

// AdjustParams describes one stock movement.
type AdjustParams struct {
	ProductID  uint
	Delta      int
	ChangeType string // models.ChangeSale / ChangeAdd / ChangeAdjustment
	ActorID    uint
	Note       string
}

// Adjustment reports the quantity transition that was committed.
type Adjustment struct {
	QuantityBefore int `json:"quantity_before"`
	QuantityAfter  int `json:"quantity_after"`
}

// Adjust applies one stock movement inside tx: locked read, bounds check,
// guarded write, audit row. The guarded UPDATE keys on the quantity we read,
// so even without the row lock an interleaved writer surfaces as ErrConflict
// instead of a lost update.
func (l *Ledger) Adjust(tx *gorm.DB, p AdjustParams) (*Adjustment, error) {
	switch p.ChangeType {
	case models.ChangeSale, models.ChangeAdd, models.ChangeAdjustment:
	default:
		return nil, shared.Validationf("unknown change type %q", p.ChangeType)
	}
	if p.Delta == 0 {
		return nil, shared.Validationf("quantity change must be non-zero")
	}

	var product models.Product
	if err := database.LockForUpdate(tx).First(&product, p.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product %d: %w", p.ProductID, shared.ErrNotFound)
		}
		return nil, shared.Storage(err)
	}

	before := product.StockQuantity
	after := before + p.Delta

	if after < 0 {
		if p.ChangeType == models.ChangeSale || !l.AllowNegative {
			return nil, fmt.Errorf("product %q has %d in stock: %w",
				product.Name, before, shared.ErrInsufficientStock)
		}
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity = ?", p.ProductID, before).
		Update("stock_quantity", after)
	if res.Error != nil {
		return nil, shared.Storage(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("stock of product %d moved underneath us: %w",
			p.ProductID, shared.ErrConflict)
	}

	entry := models.InventoryLog{
		ProductID:      p.ProductID,
		UserID:         p.ActorID,
		ChangeType:     p.ChangeType,
		QuantityBefore: before,
		QuantityChange: p.Delta,
		QuantityAfter:  after,
		Notes:          p.Note,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, shared.Storage(err)
	}

	return &Adjustment{QuantityBefore: before, QuantityAfter: after}, nil
}
