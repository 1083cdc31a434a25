package handlers

import (
	"net/http"
	"strconv"

	"canteen-pos/internal/payments"

	"github.com/gin-gonic/gin"
)

// PaymentHandler serves QR issuing and manual payment confirmation.
type PaymentHandler struct {
	Service *payments.Service
}

type QRRequest struct {
	BillID uint `json:"bill_id" binding:"required"`
}

func (h *PaymentHandler) GenerateQR(c *gin.Context) {
	var input QRRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bill_id is required"})
		return
	}

	result, err := h.Service.InitiateQR(c.Request.Context(), input.BillID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "QR Code generated successfully",
		"payment_id":  result.PaymentID,
		"qr_code":     result.QRCode,
		"upi_string":  result.UPIString,
		"amount":      result.Amount,
		"bill_number": result.BillNumber,
	})
}

func (h *PaymentHandler) Status(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Payment ID"})
		return
	}

	view, err := h.Service.Status(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": view})
}

type ConfirmRequest struct {
	PaymentID     uint   `json:"payment_id" binding:"required"`
	TransactionID string `json:"transaction_id"`
}

// Confirm is the cashier's manual confirmation after seeing the customer's
// UPI success screen. Safe to repeat.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var input ConfirmRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_id is required"})
		return
	}

	if err := h.Service.Confirm(c.Request.Context(), input.PaymentID, input.TransactionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment confirmed successfully"})
}

func (h *PaymentHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	status := c.Query("status")

	views, err := h.Service.History(c.Request.Context(), limit, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": views})
}
