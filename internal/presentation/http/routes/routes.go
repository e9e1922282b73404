package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/kitchen-pos/internal/config"
	domainRepo "github.com/sangkips/kitchen-pos/internal/domain/repository"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/handler"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/middleware"
	"github.com/sangkips/kitchen-pos/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Device   *handler.DeviceHandler
	Printer  *handler.PrinterHandler
	Order    *handler.OrderHandler
	Settings *handler.SettingsHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Logger          *zap.Logger
	Metrics         middleware.HTTPObserver
	// Gatherer backs GET /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger, deps.Metrics))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		// Opened by the POS browser in a new window, without the bearer
		// token. Page IDs are random UUIDs that expire.
		v1.GET("/printer/fallback/:id", h.Printer.FallbackPage)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigFor(
			deps.Cfg.RateLimit.Requests,
			deps.Cfg.RateLimit.Duration,
		))
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	registerDeviceRoutes(protected, h)
	registerPrinterRoutes(protected, h)
	registerOrderRoutes(protected, h, deps)
	registerSettingsRoutes(protected, h)
}

func registerDeviceRoutes(protected *gin.RouterGroup, h *Handlers) {
	printers := protected.Group("/printers")
	{
		printers.GET("", h.Device.List)
		printers.POST("/test", h.Device.Test)
		printers.POST("/usb/request", h.Device.RequestUSB)
		printers.POST("/serial/request", h.Device.RequestSerial)
		printers.POST("/serial/diagnose", h.Device.DiagnoseSerial)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printerGroup := protected.Group("/printer")
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
		printerGroup.POST("/receipt", h.Printer.PrintReceipt)
		printerGroup.POST("/preview", h.Printer.Preview)
		printerGroup.GET("/audits", h.Printer.ListAudits)
	}
}

func registerOrderRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	orders := protected.Group("/orders")
	{
		// Checkout prints, so a resent request must not print twice.
		orders.POST("", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Logger: deps.Logger,
		}), h.Order.Checkout)
		orders.GET("/:id", h.Order.Get)
		orders.GET("/number/:number", h.Order.GetByNumber)
		orders.PUT("/:id/status", h.Order.UpdateStatus)
	}
}

func registerSettingsRoutes(protected *gin.RouterGroup, h *Handlers) {
	settings := protected.Group("/settings")
	{
		settings.GET("/receipt", h.Settings.GetReceiptSettings)
		settings.PUT("/receipt", middleware.RequireRole("admin", "manager"), h.Settings.UpdateReceiptSettings)
	}
}
