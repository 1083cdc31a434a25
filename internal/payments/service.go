package payments

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"canteen-pos/internal/database"
	"canteen-pos/internal/models"
	"canteen-pos/internal/shared"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// Service tracks a bill's payment lifecycle. Confirmation is manual: the
// cashier watches the customer's UPI app and confirms by hand, so the state
// machine is just initiated -> success.
type Service struct {
	db           *gorm.DB
	upiID        string
	merchantName string
}

func NewService(db *gorm.DB, upiID, merchantName string) *Service {
	return &Service{db: db, upiID: upiID, merchantName: merchantName}
}

// InitiateResult carries everything the terminal shows on the QR screen.
type InitiateResult struct {
	PaymentID  uint            `json:"payment_id"`
	QRCode     string          `json:"qr_code"` // base64 PNG data URL
	UPIString  string          `json:"upi_string"`
	Amount     decimal.Decimal `json:"amount"`
	BillNumber string          `json:"bill_number"`
}

// InitiateQR builds the UPI payment request for a bill, renders it as a QR
// image and records a new payment attempt. Reissuing for the same bill is
// allowed; each issue is its own attempt.
func (s *Service) InitiateQR(ctx context.Context, billID uint) (*InitiateResult, error) {
	var bill models.Bill
	if err := s.db.WithContext(ctx).First(&bill, billID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("bill %d: %w", billID, shared.ErrNotFound)
		}
		return nil, shared.Storage(err)
	}

	upiString := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&tn=Bill_%s&cu=INR",
		s.upiID,
		url.QueryEscape(s.merchantName),
		bill.TotalAmount.StringFixed(2),
		bill.BillNumber,
	)

	png, err := qrcode.Encode(upiString, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	payment := models.Payment{
		BillID:        bill.ID,
		PaymentMethod: "UPI",
		QRCodeData:    upiString,
		Status:        models.PaymentInitiated,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, shared.Storage(err)
	}

	return &InitiateResult{
		PaymentID:  payment.ID,
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		UPIString:  upiString,
		Amount:     bill.TotalAmount,
		BillNumber: bill.BillNumber,
	}, nil
}

// Confirm marks a payment successful and flips the owning bill to paid, as
// one transaction. Confirming an already-successful payment is a no-op;
// confirming when a sibling attempt already succeeded is a conflict.
func (s *Service) Confirm(ctx context.Context, paymentID uint, externalTxnID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := database.LockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("payment %d: %w", paymentID, shared.ErrNotFound)
			}
			return shared.Storage(err)
		}

		if payment.Status == models.PaymentSuccess {
			// Idempotent: the bill is already paid, nothing to reapply.
			return nil
		}

		// Sibling attempts lock different payments rows, so concurrent
		// confirms of one bill serialize through the bill row instead.
		var bill models.Bill
		if err := database.LockForUpdate(tx).First(&bill, payment.BillID).Error; err != nil {
			return shared.Storage(err)
		}

		var succeeded int64
		err := tx.Model(&models.Payment{}).
			Where("bill_id = ? AND status = ? AND id <> ?",
				payment.BillID, models.PaymentSuccess, payment.ID).
			Count(&succeeded).Error
		if err != nil {
			return shared.Storage(err)
		}
		if succeeded > 0 {
			return fmt.Errorf("bill %d already settled by another attempt: %w",
				payment.BillID, shared.ErrConflict)
		}

		now := time.Now()
		err = tx.Model(&payment).Updates(map[string]interface{}{
			"status":         models.PaymentSuccess,
			"transaction_id": externalTxnID,
			"paid_at":        &now,
		}).Error
		if err != nil {
			return shared.Storage(err)
		}

		// Guarded flip: a confirm that somehow raced past the count finds
		// the bill no longer pending and rolls back instead of
		// double-settling.
		res := tx.Model(&models.Bill{}).
			Where("id = ? AND payment_status = ?", payment.BillID, "pending").
			Update("payment_status", "paid")
		if res.Error != nil {
			return shared.Storage(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("bill %d already settled by another attempt: %w",
				payment.BillID, shared.ErrConflict)
		}

		return nil
	})
}

// PaymentView joins an attempt with its bill for status and history reads.
type PaymentView struct {
	models.Payment
	BillNumber  string          `json:"bill_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Status loads one payment attempt with its bill reference.
func (s *Service) Status(ctx context.Context, paymentID uint) (*PaymentView, error) {
	var view PaymentView
	err := s.db.WithContext(ctx).Table("payments").
		Select("payments.*, bills.bill_number, bills.total_amount").
		Joins("JOIN bills ON payments.bill_id = bills.id").
		Where("payments.id = ?", paymentID).
		Scan(&view).Error
	if err != nil {
		return nil, shared.Storage(err)
	}
	if view.ID == 0 {
		return nil, fmt.Errorf("payment %d: %w", paymentID, shared.ErrNotFound)
	}
	return &view, nil
}

// History lists recent payment attempts, newest first, optionally filtered
// by status.
func (s *Service) History(ctx context.Context, limit int, status string) ([]PaymentView, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := s.db.WithContext(ctx).Table("payments").
		Select("payments.*, bills.bill_number, bills.total_amount").
		Joins("JOIN bills ON payments.bill_id = bills.id")
	if status != "" {
		q = q.Where("payments.status = ?", status)
	}

	var views []PaymentView
	err := q.Order("payments.created_at desc").Limit(limit).Scan(&views).Error
	if err != nil {
		return nil, shared.Storage(err)
	}
	return views, nil
}
