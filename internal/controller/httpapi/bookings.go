package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/gin-gonic/gin"
)

type createBookingRequest struct {
	UserID     string `json:"user_id" binding:"required,email"`
	ClassType  string `json:"class_type" binding:"required"`
	ClassTitle string `json:"class_title"`
	Instructor string `json:"instructor"`
	Location   string `json:"location"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
}

func userID(c *gin.Context) (string, error) {
	email := c.Query("user_id")
	if email == "" {
		return "", model.NewValidationError("user_id", "is required")
	}
	return email, nil
}

func (h *Handler) ListBookings(c *gin.Context) {
	email, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	bookings, err := h.bookings.ListByClient(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, bookings)
}

// CreateBooking reserves a slot and spends one session
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	booking, err := h.bookings.Book(c.Request.Context(), service.BookInput{
		UserID:     req.UserID,
		ClassType:  req.ClassType,
		ClassTitle: req.ClassTitle,
		Instructor: req.Instructor,
		Location:   req.Location,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": booking})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	booking, credited, err := h.bookings.Cancel(c.Request.Context(), id, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"data":             booking,
		"session_returned": credited,
	})
}

// AccountOverview returns the classified bookings and counters for the dashboard
func (h *Handler) AccountOverview(c *gin.Context) {
	email, err := userID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	overview, err := h.bookings.Overview(c.Request.Context(), email, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, overview)
}
