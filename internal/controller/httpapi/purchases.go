package httpapi

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type recordPurchaseRequest struct {
	UserID           string            `json:"user_id" binding:"required,email"`
	PackageType      string            `json:"package_type" binding:"required"`
	SessionType      model.SessionType `json:"session_type"`
	SessionsIncluded int               `json:"sessions_included"`
	AmountPaid       model.Money       `json:"amount_paid"`
	PaymentMethod    string            `json:"payment_method" binding:"required"`
	PaymentStatus    string            `json:"payment_status"`
	Notes            string            `json:"notes"`
	PurchaseDate     *time.Time        `json:"purchase_date"`
}

type updatePurchaseRequest struct {
	PackageType      *string            `json:"package_type"`
	SessionType      *model.SessionType `json:"session_type"`
	SessionsIncluded *int               `json:"sessions_included"`
	AmountPaid       *model.Money       `json:"amount_paid"`
	PaymentMethod    *string            `json:"payment_method"`
	PaymentStatus    *string            `json:"payment_status"`
	Notes            *string            `json:"notes"`
}

func (h *Handler) ListPurchases(c *gin.Context) {
	email, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	purchases, err := h.purchases.ListByClient(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, purchases)
}

// RecordPurchase stores a purchase and credits its sessions
func (h *Handler) RecordPurchase(c *gin.Context) {
	var req recordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	in := service.RecordPurchaseInput{
		UserID:           req.UserID,
		PackageType:      req.PackageType,
		SessionType:      req.SessionType,
		SessionsIncluded: req.SessionsIncluded,
		AmountPaid:       req.AmountPaid,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    req.PaymentStatus,
		Notes:            req.Notes,
	}
	if req.PurchaseDate != nil {
		in.PurchaseDate = *req.PurchaseDate
	}

	purchase, err := h.purchases.Record(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, purchase)
}

func (h *Handler) AdminUpdatePurchase(c *gin.Context) {
	id, err := purchaseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req updatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	purchase, err := h.purchases.Update(c.Request.Context(), id, service.UpdatePurchaseInput{
		PackageType:      req.PackageType,
		SessionType:      req.SessionType,
		SessionsIncluded: req.SessionsIncluded,
		AmountPaid:       req.AmountPaid,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    req.PaymentStatus,
		Notes:            req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, purchase)
}

// AdminDeletePurchase removes a purchase and reports how many sessions were taken back
func (h *Handler) AdminDeletePurchase(c *gin.Context) {
	id, err := purchaseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	removed, err := h.purchases.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions_removed": removed})
}

func purchaseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, model.NewValidationError("id", "must be a uuid")
	}
	return id, nil
}
