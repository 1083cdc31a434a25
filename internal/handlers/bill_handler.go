package handlers

import (
	"net/http"
	"strconv"
	"time"

	"canteen-pos/internal/billing"
	"canteen-pos/internal/database"
	"canteen-pos/internal/shared"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BillHandler exposes the bill transaction engine over HTTP.
type BillHandler struct {
	DB     *gorm.DB
	Engine *billing.Engine
}

func (h *BillHandler) Create(c *gin.Context) {
	var input billing.CreateBillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	input.CashierID = c.MustGet("userID").(uint)

	result, err := h.Engine.CreateBill(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Bill created successfully",
		"bill_id":      result.BillID,
		"bill_number":  result.BillNumber,
		"total_amount": result.TotalAmount,
	})
}

func (h *BillHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Bill ID"})
		return
	}

	bill, err := h.Engine.GetBill(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

func (h *BillHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	status := c.Query("status")

	bills, err := h.Engine.ListBills(c.Request.Context(), page, limit, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills})
}

// DailySales summarizes one calendar day of billing; defaults to today.
func (h *BillHandler) DailySales(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	report, err := database.GetDayTotals(h.DB, date)
	if err != nil {
		respondError(c, shared.Storage(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "date": date})
}
