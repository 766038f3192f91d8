// Package httpapi exposes the portal services over HTTP with gin.
package httpapi

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Clients    *service.ClientService
	Bookings   *service.BookingService
	Purchases  *service.PurchaseService
	Checkout   *service.CheckoutService
	Ledger     *service.SessionLedger
	Logger     *zap.Logger
	AdminToken string
	// AllowOrigins defaults to any origin
	AllowOrigins []string
	// Now is the clock used for booking decisions, time.Now when nil
	Now func() time.Time
	// Metrics mounts /metrics
	Metrics bool
}

type Handler struct {
	clients   *service.ClientService
	bookings  *service.BookingService
	purchases *service.PurchaseService
	checkout  *service.CheckoutService
	ledger    *service.SessionLedger
	logger    *zap.Logger
	now       func() time.Time
}

var registerTagNames sync.Once

// NewRouter builds the gin engine with every route of the portal API
func NewRouter(deps Deps) *gin.Engine {
	registerTagNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			})
		}
	})

	h := &Handler{
		clients:   deps.Clients,
		bookings:  deps.Bookings,
		purchases: deps.Purchases,
		checkout:  deps.Checkout,
		ledger:    deps.Ledger,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	origins := deps.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(deps.Logger))
	router.Use(requestMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: len(deps.AllowOrigins) > 0,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if deps.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.POST("/clients", h.RegisterClient)

	router.GET("/bookings", h.ListBookings)
	router.POST("/bookings", h.CreateBooking)
	router.POST("/bookings/:id/cancel", h.CancelBooking)
	router.GET("/account/overview", h.AccountOverview)

	requireAdmin := adminAuth(deps.AdminToken)

	router.GET("/purchases", h.ListPurchases)
	// manual entry by the coach; clients are credited only through checkout
	router.POST("/purchases", requireAdmin, h.RecordPurchase)

	router.POST("/checkout", h.StartCheckout)
	router.POST("/checkout/success", h.CheckoutSuccess)

	admin := router.Group("/admin", requireAdmin)
	{
		admin.GET("/clients", h.AdminListClients)
		admin.GET("/clients/:id", h.AdminGetClient)
		admin.PUT("/clients/:id/sessions", h.AdminSetSessions)
		admin.PUT("/purchases/:id", h.AdminUpdatePurchase)
		admin.DELETE("/purchases/:id", h.AdminDeletePurchase)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Route not found"})
	})

	return router
}
