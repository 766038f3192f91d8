package httpapi

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/gin-gonic/gin"
)

type startCheckoutRequest struct {
	UserID      string `json:"user_id" binding:"required,email"`
	PackageCode string `json:"package_code" binding:"required"`
}

type checkoutSuccessRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// StartCheckout opens a payment page and returns its url
func (h *Handler) StartCheckout(c *gin.Context) {
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	session, err := h.checkout.Start(c.Request.Context(), req.UserID, req.PackageCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"session_id": session.ID, "url": session.URL})
}

// CheckoutSuccess is called by the success page. Until the gateway confirms the
// payment the client gets 402 with state "processing" and may poll again.
func (h *Handler) CheckoutSuccess(c *gin.Context) {
	var req checkoutSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	purchase, err := h.checkout.ProcessSuccess(c.Request.Context(), req.SessionID)
	if errors.Is(err, model.ErrPaymentNotConfirmed) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"success": false,
			"state":   "processing",
			"error":   model.ErrorMessage(err),
		})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, purchase)
}
