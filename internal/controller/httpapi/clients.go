package httpapi

import (
	"strconv"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/gin-gonic/gin"
)

type registerClientRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RegisterClient creates the client or refreshes name and phone
func (h *Handler) RegisterClient(c *gin.Context) {
	var req registerClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	client, err := h.clients.Register(c.Request.Context(), req.Email, req.Name, req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, client)
}

func (h *Handler) AdminListClients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, clients)
}

func (h *Handler) AdminGetClient(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, client)
}

type setSessionsRequest struct {
	WeightliftingClassesRemaining     *int   `json:"weightlifting_classes_remaining" binding:"required"`
	PersonalTrainingSessionsRemaining *int   `json:"personal_training_sessions_remaining" binding:"required"`
	Version                           *int64 `json:"version"`
}

// AdminSetSessions overwrites both session counters
func (h *Handler) AdminSetSessions(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req setSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}
	if *req.WeightliftingClassesRemaining < 0 {
		h.fail(c, model.NewValidationError("weightlifting_classes_remaining", "must not be negative"))
		return
	}
	if *req.PersonalTrainingSessionsRemaining < 0 {
		h.fail(c, model.NewValidationError("personal_training_sessions_remaining", "must not be negative"))
		return
	}

	client, err := h.ledger.SetCounts(c.Request.Context(), id,
		*req.WeightliftingClassesRemaining, *req.PersonalTrainingSessionsRemaining, req.Version)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, client)
}

func paramID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}
