package database

import (
	"time"

	"canteen-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RangeSummary is the roll-up over a date range.
type RangeSummary struct {
	TotalRevenue decimal.Decimal
	TotalCount   int64
}

// GetRangeSummary totals billed revenue between start and end.
func GetRangeSummary(db *gorm.DB, start, end time.Time) (*RangeSummary, error) {
	var result RangeSummary

	// COALESCE ensures we get 0 instead of NULL if no bills exist
	err := db.Model(&models.Bill{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(total_amount), 0) as total_revenue, COUNT(*) as total_count").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DailySalesRow is one calendar day of the sales report.
type DailySalesRow struct {
	Date       string          `json:"date"`
	TotalBills int64           `json:"total_bills"`
	TotalSales decimal.Decimal `json:"total_sales"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
}

// GetSalesByDay groups bills per calendar day within [start, end].
func GetSalesByDay(db *gorm.DB, start, end string) ([]DailySalesRow, error) {
	var rows []DailySalesRow
	err := db.Model(&models.Bill{}).
		Select(`DATE(created_at) as date,
			COUNT(*) as total_bills,
			COALESCE(SUM(total_amount), 0) as total_sales,
			COALESCE(SUM(subtotal), 0) as subtotal,
			COALESCE(SUM(tax_amount), 0) as tax,
			COALESCE(SUM(discount), 0) as discount`).
		Where("DATE(created_at) BETWEEN ? AND ?", start, end).
		Group("DATE(created_at)").
		Order("date desc").
		Scan(&rows).Error
	return rows, err
}

// TopProductRow is one entry of the best-sellers report.
type TopProductRow struct {
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	TimesSold     int64           `json:"times_sold"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// GetTopProducts ranks products by revenue across paid bills.
func GetTopProducts(db *gorm.DB, limit int) ([]TopProductRow, error) {
	var rows []TopProductRow
	err := db.Table("bill_items").
		Select(`products.id as product_id, products.name, products.category,
			COUNT(bill_items.id) as times_sold,
			SUM(bill_items.quantity) as total_quantity,
			SUM(bill_items.subtotal) as total_revenue`).
		Joins("JOIN products ON bill_items.product_id = products.id").
		Joins("JOIN bills ON bill_items.bill_id = bills.id").
		Where("bills.payment_status = ?", "paid").
		Group("products.id, products.name, products.category").
		Order("total_revenue desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// DayTotals summarizes one day's billing for the dashboard and the daily
// sales endpoint.
type DayTotals struct {
	TotalBills    int64           `json:"total_bills"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

// GetDayTotals aggregates bills for one calendar date (YYYY-MM-DD).
func GetDayTotals(db *gorm.DB, date string) (*DayTotals, error) {
	var result DayTotals
	err := db.Model(&models.Bill{}).
		Select(`COUNT(*) as total_bills,
			COALESCE(SUM(total_amount), 0) as total_sales,
			COALESCE(SUM(CASE WHEN payment_status = 'paid' THEN total_amount ELSE 0 END), 0) as paid_amount,
			COALESCE(SUM(CASE WHEN payment_status = 'pending' THEN total_amount ELSE 0 END), 0) as pending_amount`).
		Where("DATE(created_at) = ?", date).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DashboardStats is the admin landing page payload.
type DashboardStats struct {
	TodaySales    *DayTotals    `json:"today_sales"`
	LowStock      int64         `json:"low_stock"`
	TotalProducts int64         `json:"total_products"`
	RecentBills   []models.Bill `json:"recent_bills"`
}

// GetDashboardStats collects today's totals, stock warnings and the latest
// bills in one payload.
func GetDashboardStats(db *gorm.DB) (*DashboardStats, error) {
	stats := &DashboardStats{}

	today, err := GetDayTotals(db, time.Now().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	stats.TodaySales = today

	err = db.Model(&models.Product{}).
		Where("stock_quantity <= min_stock_level AND is_active = ?", true).
		Count(&stats.LowStock).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&stats.TotalProducts).Error
	if err != nil {
		return nil, err
	}

	err = db.Order("created_at desc").Limit(10).Find(&stats.RecentBills).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
