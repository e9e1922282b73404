package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sangkips/kitchen-pos/internal/application/service"
	"github.com/sangkips/kitchen-pos/internal/config"
	"github.com/sangkips/kitchen-pos/internal/infrastructure/database"
	"github.com/sangkips/kitchen-pos/internal/infrastructure/messaging"
	"github.com/sangkips/kitchen-pos/internal/infrastructure/metrics"
	"github.com/sangkips/kitchen-pos/internal/infrastructure/repository"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/handler"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/routes"
	"github.com/sangkips/kitchen-pos/pkg/printer"
	"github.com/sangkips/kitchen-pos/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	bootLog, _ := zap.NewDevelopment()
	cfg := config.Load(bootLog)

	log := bootLog
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		if prodLog, err := zap.NewProduction(); err == nil {
			log = prodLog
		}
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	orderRepo := repository.NewOrderRepository(db)
	settingsRepo := repository.NewReceiptSettingsRepository(db)
	auditRepo := repository.NewPrintAuditRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	if err := database.SeedDefaultData(ctx, settingsRepo, log); err != nil {
		log.Warn("failed to seed default data", zap.Error(err))
	}
	go database.PurgeIdempotencyKeys(ctx, idempotencyRepo, time.Hour, log)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Printers
	grants := printer.NewGrants()
	for _, s := range cfg.Printer.USBGrants {
		id, err := printer.ParseUSBID(s)
		if err != nil {
			log.Warn("ignoring USB grant", zap.String("grant", s), zap.Error(err))
			continue
		}
		grants.GrantUSB(id)
	}
	for _, name := range cfg.Printer.SerialGrants {
		grants.GrantSerial(name)
	}
	vendors := vendorIDs(cfg.Printer.VendorIDs, log)

	var usbHost printer.USBHost
	if h, err := printer.NewGousbHost(grants, vendors, log); err != nil {
		log.Warn("USB printing unavailable", zap.Error(err))
	} else {
		usbHost = h
		defer func() { _ = h.Close() }()
	}
	serialHost := printer.NewBugstHost(grants, log)

	var chooser printer.Chooser
	if cfg.Printer.AutoAuthorize {
		chooser = printer.ChooseFirst()
	}

	inventory := printer.NewInventory(usbHost, serialHost, printer.InventoryConfig{
		VendorIDs: vendors,
		BaudRate:  cfg.Printer.BaudRate,
		Timeout:   cfg.Printer.DeviceTimeout,
		Logger:    log,
	})
	usbPrinter := printer.NewUSBPrinter(usbHost, printer.USBOptions{
		VendorIDs: vendors,
		Chooser:   chooser,
		Timeout:   cfg.Printer.DeviceTimeout,
		Logger:    log,
	})
	serialPrinter := printer.NewSerialPrinter(serialHost, printer.SerialOptions{
		BaudRate: cfg.Printer.BaudRate,
		Chooser:  chooser,
		Timeout:  cfg.Printer.DeviceTimeout,
		Logger:   log,
	})
	var networkPrinter printer.Printer
	if cfg.Printer.NetworkAddress != "" {
		networkPrinter = printer.NewNetworkPrinter(cfg.Printer.NetworkAddress, cfg.Printer.DeviceTimeout, log)
	}

	var surface printer.Surface
	var pages *printer.BrowserSurface
	switch cfg.Fallback.Surface {
	case "chrome":
		surface = printer.NewChromeSurface(cfg.Fallback.ChromePath, cfg.Fallback.SpoolDir, 30*time.Second, log)
	default:
		pages = printer.NewBrowserSurface(cfg.Fallback.BaseURL, cfg.Fallback.TTL)
		surface = pages
	}

	// Services
	loc, err := service.LoadReceiptLocation(cfg.Printer.Timezone)
	if err != nil {
		log.Fatal("invalid receipt time zone", zap.Error(err))
	}
	strategy, err := service.ParseStrategy(cfg.Printer.Strategy)
	if err != nil {
		log.Fatal("invalid print strategy", zap.Error(err))
	}

	formatter := service.NewReceiptFormatter(loc)
	settingsService := service.NewSettingsService(settingsRepo)
	auditService := service.NewPrintAuditService(auditRepo, log)
	printerService := service.NewPrinterService(service.PrinterDeps{
		Inventory: inventory,
		USB:       usbPrinter,
		Serial:    serialPrinter,
		Network:   networkPrinter,
		Formatter: formatter,
		Fallback:  service.NewFallbackRenderer(formatter),
		Surface:   surface,
		Orders:    orderRepo,
		Settings:  settingsService,
		Audit:     auditService,
		Metrics:   m,
		Logger:    log,
	}, service.PrinterServiceConfig{
		Strategy:          strategy,
		ByCategory:        cfg.Printer.ByCategory,
		FallbackOnFailure: cfg.Printer.FallbackOnFailure,
		JobDelay:          cfg.Printer.JobDelay,
		FallbackDelay:     cfg.Printer.FallbackDelay,
	})
	orderService := service.NewOrderService(orderRepo, printerService, m, loc, log)

	// Kitchen print queue
	if cfg.Queue.URL != "" {
		mq, err := messaging.NewRabbitMQ(cfg.Queue)
		if err != nil {
			log.Fatal("rabbitmq initialization failed", zap.Error(err))
		}
		defer func() { _ = mq.Close() }()
		if err := mq.SetupQueues(); err != nil {
			log.Fatal("failed to set up print queues", zap.Error(err))
		}
		consumer := messaging.NewPrintConsumer(printerService, m, 0, log)
		go func() {
			if err := consumer.Run(ctx, mq.Channel, cfg.Queue.Queue); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("print consumer stopped", zap.Error(err))
			}
		}()
	}

	// HTTP
	handlers := &routes.Handlers{
		Device:   handler.NewDeviceHandler(inventory),
		Printer:  handler.NewPrinterHandler(printerService, auditService, pages),
		Order:    handler.NewOrderHandler(orderService),
		Settings: handler.NewSettingsHandler(settingsService),
	}
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      utils.NewJWTManager(cfg.JWT.Secret),
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Logger:          log,
		Metrics:         m,
		Gatherer:        reg,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("name", cfg.App.Name), zap.String("port", port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}

// vendorIDs extends the built-in thermal vendor allow-list with hex IDs
// from configuration.
func vendorIDs(extra []string, log *zap.Logger) []uint16 {
	out := append([]uint16(nil), printer.ThermalVendorIDs...)
	for _, s := range extra {
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			log.Warn("ignoring vendor ID", zap.String("vendor_id", s), zap.Error(err))
			continue
		}
		out = append(out, uint16(v))
	}
	return out
}
