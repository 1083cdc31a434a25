package handlers

import (
	"net/http"
	"strconv"

	"canteen-pos/internal/database"
	"canteen-pos/internal/models"
	"canteen-pos/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportHandler serves the read-only admin analytics.
type ReportHandler struct {
	DB *gorm.DB
}

// Dashboard - today's totals, stock warnings, recent bills.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	stats, err := database.GetDashboardStats(h.DB)
	if err != nil {
		respondError(c, shared.Storage(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Sales - per-day breakdown over a date range.
func (h *ReportHandler) Sales(c *gin.Context) {
	start := c.DefaultQuery("start_date", "2020-01-01")
	end := c.DefaultQuery("end_date", "2030-12-31")

	rows, err := database.GetSalesByDay(h.DB, start, end)
	if err != nil {
		respondError(c, shared.Storage(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": rows})
}

// TopProducts - best sellers by revenue across paid bills.
func (h *ReportHandler) TopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	rows, err := database.GetTopProducts(h.DB, limit)
	if err != nil {
		respondError(c, shared.Storage(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": rows})
}

// ValuationItem represents a single product row in the valuation report.
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is one category's table in the valuation report.
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// ValuationResponse is the final payload.
type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// StockValuation prices the physical inventory at cost, grouped by category.
func (h *ReportHandler) StockValuation(c *gin.Context) {
	var products []models.Product
	err := h.DB.Where("is_active = ?", true).Order("category, name").Find(&products).Error
	if err != nil {
		respondError(c, shared.Storage(err))
		return
	}

	grandTotal := decimal.Zero
	groupedMap := make(map[string]*CategoryGroup)
	var order []string

	for _, p := range products {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}

		group, exists := groupedMap[catName]
		if !exists {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}}
			groupedMap[catName] = group
			order = append(order, catName)
		}

		itemTotal := p.CostPrice.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
		group.Items = append(group.Items, ValuationItem{
			Name:      p.Name,
			Quantity:  p.StockQuantity,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		})
		group.Subtotal = group.Subtotal.Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	response := ValuationResponse{GrandTotal: grandTotal}
	for _, catName := range order {
		response.Categories = append(response.Categories, *groupedMap[catName])
	}

	c.JSON(http.StatusOK, response)
}
