package handlers

import (
	"net/http"
	"strconv"

	"canteen-pos/internal/inventory"
	"canteen-pos/internal/models"
	"canteen-pos/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductHandler serves the catalog and the stock-adjustment endpoint.
// Every stock mutation goes through the ledger so the audit trail stays
// complete.
type ProductHandler struct {
	DB     *gorm.DB
	Ledger *inventory.Ledger
}

// List returns the active catalog, ordered for the till screen.
func (h *ProductHandler) List(c *gin.Context) {
	var products []models.Product
	err := h.DB.Where("is_active = ?", true).
		Order("category, name").
		Find(&products).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

type ProductRequest struct {
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var input ProductRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Price.IsNegative() || input.CostPrice.IsNegative() || input.StockQuantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price and stock must not be negative"})
		return
	}

	product := models.Product{
		Name:          input.Name,
		Category:      input.Category,
		Price:         input.Price,
		CostPrice:     input.CostPrice,
		StockQuantity: input.StockQuantity,
		MinStockLevel: input.MinStockLevel,
		IsActive:      true,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product added successfully", "product": product})
}

// Update edits catalog fields only. Stock moves through UpdateStock so it
// always leaves an audit entry.
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// Partial update: only the fields that were sent change.
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	for _, locked := range []string{"id", "stock_quantity", "is_active", "created_at"} {
		delete(updateData, locked)
	}

	if err := h.DB.Model(&product).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// Delete deactivates a product. The row stays so historical bills keep
// resolving their line items.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	res := h.DB.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type StockUpdateRequest struct {
	Quantity   int    `json:"quantity" binding:"required"`
	ChangeType string `json:"change_type" binding:"required"` // 'add' or 'adjustment'
	Notes      string `json:"notes"`
}

// UpdateStock applies a manual stock movement through the ledger in its own
// transaction.
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var input StockUpdateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity and change_type required"})
		return
	}
	if input.ChangeType == models.ChangeSale {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sales are recorded through billing, not here"})
		return
	}

	actorID := c.MustGet("userID").(uint)

	var adjustment *inventory.Adjustment
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		adjustment, txErr = h.Ledger.Adjust(tx, inventory.AdjustParams{
			ProductID:  uint(id),
			Delta:      input.Quantity,
			ChangeType: input.ChangeType,
			ActorID:    actorID,
			Note:       input.Notes,
		})
		return txErr
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Stock updated successfully",
		"quantity_before": adjustment.QuantityBefore,
		"quantity_after":  adjustment.QuantityAfter,
	})
}

// Logs lists a product's audit trail, newest first.
func (h *ProductHandler) Logs(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var entries []models.InventoryLog
	err = h.DB.Where("product_id = ?", id).
		Order("id desc").
		Limit(100).
		Find(&entries).Error
	if err != nil {
		respondError(c, shared.Storage(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": entries})
}
