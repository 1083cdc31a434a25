package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - cashiers and admins operating the terminal
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string     `json:"-"` // Never return this in JSON
	FullName     string     `gorm:"size:100" json:"full_name"`
	Role         string     `gorm:"size:20;default:cashier" json:"role"` // 'admin', 'cashier'
	Email        string     `gorm:"size:100" json:"email"`
	Phone        string     `gorm:"size:20" json:"phone"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Session - server-side record behind every bearer token.
// Deleting the row revokes the token no matter how long the JWT is valid.
type Session struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index" json:"user_id"`
	SessionToken string    `gorm:"uniqueIndex;size:36" json:"-"`
	IPAddress    string    `gorm:"size:45" json:"ip_address"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product - the catalog. Never deleted, only deactivated: historical
// bill items keep pointing at it.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:100" json:"name"`
	Category      string          `gorm:"size:50;index" json:"category"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2)" json:"cost_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `gorm:"default:10" json:"min_stock_level"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Bill - the transaction header. Only payment_status changes after creation.
type Bill struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	BillNumber    string          `gorm:"uniqueIndex;size:40" json:"bill_number"`
	CashierID     uint            `gorm:"index" json:"cashier_id"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"tax_amount"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	PaymentStatus string          `gorm:"size:20;default:pending;index" json:"payment_status"` // 'pending', 'paid'
	CreatedAt     time.Time       `json:"created_at"`
	Items         []BillItem      `gorm:"foreignKey:BillID" json:"items,omitempty"`
}

// BillItem - one cart line. UnitPrice is a snapshot of the catalog price
// at the time of sale, immutable afterwards.
type BillItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BillID    uint            `gorm:"index" json:"bill_id"`
	ProductID uint            `gorm:"index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
}

// Inventory log change types.
const (
	ChangeSale       = "sale"
	ChangeAdd        = "add"
	ChangeAdjustment = "adjustment"
)

// InventoryLog - append-only audit trail of every stock movement.
// Rows are never updated or deleted; quantity_after of entry N must equal
// quantity_before of entry N+1 for the same product.
type InventoryLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProductID      uint      `gorm:"index" json:"product_id"`
	UserID         uint      `json:"user_id"`
	ChangeType     string    `gorm:"size:20" json:"change_type"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityChange int       `json:"quantity_change"`
	QuantityAfter  int       `json:"quantity_after"`
	Notes          string    `gorm:"size:255" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// Payment statuses.
const (
	PaymentInitiated = "initiated"
	PaymentSuccess   = "success"
)

// Payment - one QR issue for a bill. A bill may accumulate several
// initiated attempts (reissued QR codes) but at most one success.
type Payment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	BillID        uint       `gorm:"index" json:"bill_id"`
	PaymentMethod string     `gorm:"size:20" json:"payment_method"`
	QRCodeData    string     `gorm:"size:512" json:"qr_code_data"` // encoded UPI request string
	Status        string     `gorm:"size:20;default:initiated" json:"status"`
	TransactionID string     `gorm:"size:100" json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `json:"created_at"`
}
