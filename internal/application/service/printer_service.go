package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"github.com/sangkips/kitchen-pos/pkg/apperror"
	"github.com/sangkips/kitchen-pos/pkg/printer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Strategy selects how receipts reach paper.
type Strategy string

const (
	StrategyAuto    Strategy = "auto"
	StrategyUSB     Strategy = "usb"
	StrategySerial  Strategy = "serial"
	StrategyNetwork Strategy = "network"
	StrategyBrowser Strategy = "browser"
)

// ParseStrategy validates a strategy name. Empty means auto.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyAuto, nil
	case StrategyAuto, StrategyUSB, StrategySerial, StrategyNetwork, StrategyBrowser:
		return st, nil
	}
	return "", fmt.Errorf("unknown print strategy %q", s)
}

// PrintState is a step of one print request.
// Idle -> Detecting -> Printing -> Succeeded | PartiallySucceeded | Failed.
type PrintState string

const (
	StateIdle               PrintState = "idle"
	StateDetecting          PrintState = "detecting"
	StatePrinting           PrintState = "printing"
	StateSucceeded          PrintState = "succeeded"
	StatePartiallySucceeded PrintState = "partially_succeeded"
	StateFailed             PrintState = "failed"
)

// What a successful job guarantees: bytes accepted by the device, or only a
// print dialog shown.
const (
	GuaranteeDevice = "device"
	GuaranteeDialog = "dialog"
)

// SingleJobKey keys the result of a print that was not split by category.
const SingleJobKey = "order"

// PrintJobResult is the outcome of one print job.
type PrintJobResult struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	ErrorKind printer.ErrorKind `json:"error_kind,omitempty"`
	Transport string            `json:"transport,omitempty"`
	PrinterID string            `json:"printer_id,omitempty"`
	Guarantee string            `json:"guarantee,omitempty"`
	// Fallback is set when the job went to the print dialog surface.
	Fallback *printer.Presentation `json:"fallback,omitempty"`
	// DeviceError is the device failure that sent the job to the fallback.
	DeviceError     string            `json:"device_error,omitempty"`
	DeviceErrorKind printer.ErrorKind `json:"device_error_kind,omitempty"`
}

// PrintResult aggregates the jobs of one print request. Success is true only
// when every job succeeded; State tells a partial success from a failure.
type PrintResult struct {
	OrderID     uuid.UUID                 `json:"order_id"`
	OrderNumber string                    `json:"order_number"`
	Strategy    Strategy                  `json:"strategy"`
	ByCategory  bool                      `json:"by_category"`
	Success     bool                      `json:"success"`
	State       PrintState                `json:"state"`
	Jobs        []string                  `json:"jobs"`
	Results     map[string]PrintJobResult `json:"results"`
	Errors      map[string]string         `json:"errors,omitempty"`
}

// FailedJobs lists the jobs to retry, in print order.
func (r *PrintResult) FailedJobs() []string {
	var failed []string
	for _, key := range r.Jobs {
		if !r.Results[key].Success {
			failed = append(failed, key)
		}
	}
	return failed
}

// PrintOptions overrides the configured policy for one request.
type PrintOptions struct {
	Strategy    Strategy
	ByCategory  *bool
	Config      *entity.ReceiptConfig
	RequestedBy *uuid.UUID
	Source      string
	// OnState observes state transitions; job is empty for request-level states.
	OnState func(state PrintState, job string)
}

// DeviceInventory finds printers and builds drivers for them.
type DeviceInventory interface {
	DetectAll(ctx context.Context) []printer.Descriptor
	PrinterFor(d printer.Descriptor) (printer.Printer, error)
	USBSupported() bool
	SerialSupported() bool
}

// ReceiptConfigSource supplies the stored receipt configuration.
type ReceiptConfigSource interface {
	ReceiptConfig(ctx context.Context) (entity.ReceiptConfig, error)
}

// PrintAuditor records job outcomes.
type PrintAuditor interface {
	Record(ctx context.Context, audit *entity.PrintAudit)
}

// PrintObserver receives print metrics.
type PrintObserver interface {
	ObservePrintJob(transport string, success bool, kind string, d time.Duration)
	ObserveDetection(usb, serial int)
}

// PrinterServiceConfig is the default print policy.
type PrinterServiceConfig struct {
	Strategy          Strategy
	ByCategory        bool
	FallbackOnFailure bool
	JobDelay          time.Duration
	FallbackDelay     time.Duration
}

// PrinterDeps are the collaborators of PrinterService. USB, Serial and
// Network are the drivers used by the explicit strategies; any may be nil.
type PrinterDeps struct {
	Inventory DeviceInventory
	USB       printer.Printer
	Serial    printer.Printer
	Network   printer.Printer
	Formatter *ReceiptFormatter
	Fallback  *FallbackRenderer
	Surface   printer.Surface
	Orders    repository.OrderRepository
	Settings  ReceiptConfigSource
	Audit     PrintAuditor
	Metrics   PrintObserver
	Logger    *zap.Logger
}

// PrinterService runs print requests: it picks single or per-category jobs,
// drives the chosen transport for each job in turn and aggregates results.
// It never retries.
type PrinterService struct {
	PrinterDeps
	cfg   PrinterServiceConfig
	log   *zap.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPrinterService creates a new printer service.
func NewPrinterService(deps PrinterDeps, cfg PrinterServiceConfig) *PrinterService {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyAuto
	}
	if deps.Formatter == nil {
		deps.Formatter = NewReceiptFormatter(nil)
	}
	if deps.Fallback == nil {
		deps.Fallback = NewFallbackRenderer(deps.Formatter)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &PrinterService{
		PrinterDeps: deps,
		cfg:         cfg,
		log:         log.Named("printer"),
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type printJob struct {
	key      string
	category string
	order    *entity.Order
}

// PrintOrderByID loads an order and prints it.
func (s *PrinterService) PrintOrderByID(ctx context.Context, id uuid.UUID, opts PrintOptions) (*PrintResult, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.PrintOrder(ctx, order, opts)
}

// PrintOrder prints order under the configured policy, overridden by opts.
// Job failures are reported in the result; the error is only set when the
// request itself is invalid.
func (s *PrinterService) PrintOrder(ctx context.Context, order *entity.Order, opts PrintOptions) (*PrintResult, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, apperror.NewBadRequestError("order has no items to print")
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = s.cfg.Strategy
	}
	byCategory := s.cfg.ByCategory
	if opts.ByCategory != nil {
		byCategory = *opts.ByCategory
	}
	cfg, err := s.receiptConfig(ctx, opts.Config)
	if err != nil {
		return nil, err
	}
	notify := opts.OnState
	if notify == nil {
		notify = func(PrintState, string) {}
	}

	notify(StateIdle, "")
	jobs := s.plan(order, byCategory)
	result := &PrintResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Strategy:    strategy,
		ByCategory:  len(jobs) > 1,
		Results:     make(map[string]PrintJobResult, len(jobs)),
	}
	for _, job := range jobs {
		result.Jobs = append(result.Jobs, job.key)
	}

	lastWasDialog := false
	for i, job := range jobs {
		if i > 0 {
			delay := s.cfg.JobDelay
			if lastWasDialog {
				delay = s.cfg.FallbackDelay
			}
			if err := s.sleep(ctx, delay); err != nil {
				for _, rest := range jobs[i:] {
					res := PrintJobResult{Error: "print cancelled: " + err.Error(), ErrorKind: printer.KindOf(err)}
					result.Results[rest.key] = res
					s.record(ctx, order, rest, strategy, res, opts)
				}
				break
			}
		}

		res := s.runJob(ctx, job, strategy, &cfg, notify)
		result.Results[job.key] = res
		lastWasDialog = res.Guarantee == GuaranteeDialog
		s.record(ctx, order, job, strategy, res, opts)
	}

	finish(result)
	notify(result.State, "")
	s.log.Info("print request finished",
		zap.String("order_number", order.OrderNumber),
		zap.String("strategy", string(strategy)),
		zap.String("state", string(result.State)),
		zap.Strings("failed", result.FailedJobs()))
	return result, nil
}

func finish(result *PrintResult) {
	succeeded := 0
	for _, key := range result.Jobs {
		r := result.Results[key]
		if r.Success {
			succeeded++
			continue
		}
		if result.Errors == nil {
			result.Errors = make(map[string]string)
		}
		result.Errors[key] = r.Error
	}
	switch {
	case succeeded == len(result.Jobs):
		result.Success = true
		result.State = StateSucceeded
	case succeeded > 0:
		result.State = StatePartiallySucceeded
	default:
		result.State = StateFailed
	}
}

// plan fans out per category only when asked to and when there is more
// than one category.
func (s *PrinterService) plan(order *entity.Order, byCategory bool) []printJob {
	if !byCategory || DistinctCategories(order) < 2 {
		return []printJob{{key: SingleJobKey, order: order}}
	}
	split := SplitByCategory(order)
	jobs := make([]printJob, 0, len(split))
	for _, category := range CategoryOrder(split) {
		sub := split[category].Order
		jobs = append(jobs, printJob{key: category, category: category, order: &sub})
	}
	return jobs
}

func (s *PrinterService) runJob(ctx context.Context, job printJob, strategy Strategy, cfg *entity.ReceiptConfig, notify func(PrintState, string)) PrintJobResult {
	start := time.Now()
	var res PrintJobResult
	switch strategy {
	case StrategyBrowser:
		notify(StatePrinting, job.key)
		res = s.presentFallback(ctx, job.order, cfg)
	case StrategyUSB:
		res = s.printWith(ctx, s.USB, job, cfg, notify)
	case StrategySerial:
		res = s.printWith(ctx, s.Serial, job, cfg, notify)
	case StrategyNetwork:
		res = s.printWith(ctx, s.Network, job, cfg, notify)
	default:
		res = s.printAuto(ctx, job, cfg, notify)
	}

	if s.Metrics != nil {
		s.Metrics.ObservePrintJob(res.Transport, res.Success, string(res.ErrorKind), time.Since(start))
	}
	if !res.Success {
		s.log.Warn("print job failed",
			zap.String("order_number", job.order.OrderNumber),
			zap.String("job", job.key),
			zap.String("kind", string(res.ErrorKind)),
			zap.String("error", res.Error))
	}
	return res
}

func (s *PrinterService) printWith(ctx context.Context, p printer.Printer, job printJob, cfg *entity.ReceiptConfig, notify func(PrintState, string)) PrintJobResult {
	notify(StatePrinting, job.key)
	if p == nil {
		return jobFailure(&printer.Error{Kind: printer.KindNoDeviceAuthorized, Op: "no printer configured for this strategy"}, printer.Descriptor{})
	}
	d := p.Descriptor()
	if err := p.Print(ctx, s.Formatter.Render(job.order, cfg)); err != nil {
		return jobFailure(err, d)
	}
	return jobSuccess(d)
}

// printAuto tries every detected USB printer, then every serial printer,
// and reports the last error when all of them fail.
func (s *PrinterService) printAuto(ctx context.Context, job printJob, cfg *entity.ReceiptConfig, notify func(PrintState, string)) PrintJobResult {
	notify(StateDetecting, job.key)
	var usb, serial []printer.Descriptor
	if s.Inventory != nil {
		for _, d := range s.Inventory.DetectAll(ctx) {
			switch d.Kind {
			case printer.TransportUSB:
				usb = append(usb, d)
			case printer.TransportSerial:
				serial = append(serial, d)
			}
		}
	}
	if s.Metrics != nil {
		s.Metrics.ObserveDetection(len(usb), len(serial))
	}
	candidates := append(usb, serial...)

	var lastErr error
	var lastDesc printer.Descriptor
	if len(candidates) == 0 {
		lastErr = printer.ErrNoDeviceAuthorized
		if s.Inventory == nil || (!s.Inventory.USBSupported() && !s.Inventory.SerialSupported()) {
			lastErr = printer.ErrCapabilityUnsupported
		}
	} else {
		notify(StatePrinting, job.key)
		data := s.Formatter.Render(job.order, cfg)
		for _, d := range candidates {
			p, err := s.Inventory.PrinterFor(d)
			if err == nil {
				err = p.Print(ctx, data)
			}
			if err == nil {
				return jobSuccess(d)
			}
			s.log.Info("printer attempt failed", zap.String("printer", d.ID), zap.Error(err))
			lastErr, lastDesc = err, d
			if ctx.Err() != nil {
				break
			}
		}
	}

	res := jobFailure(lastErr, lastDesc)
	if !s.cfg.FallbackOnFailure || s.Surface == nil || ctx.Err() != nil {
		return res
	}
	notify(StatePrinting, job.key)
	fb := s.presentFallback(ctx, job.order, cfg)
	if !fb.Success {
		res.Error = res.Error + "; fallback: " + fb.Error
		return res
	}
	fb.DeviceError = res.Error
	fb.DeviceErrorKind = res.ErrorKind
	return fb
}

func (s *PrinterService) presentFallback(ctx context.Context, order *entity.Order, cfg *entity.ReceiptConfig) PrintJobResult {
	if s.Surface == nil {
		return PrintJobResult{Error: "no print dialog surface configured", ErrorKind: printer.KindUnknown}
	}
	transport := "fallback:" + s.Surface.Name()
	doc, err := s.Fallback.Render(order, cfg)
	if err != nil {
		return PrintJobResult{Error: err.Error(), ErrorKind: printer.KindUnknown, Transport: transport}
	}
	pres, err := s.Surface.Present(ctx, doc.Page)
	if err != nil {
		return PrintJobResult{Error: err.Error(), ErrorKind: printer.KindOf(err), Transport: transport}
	}
	return PrintJobResult{
		Success:   true,
		Transport: transport,
		Guarantee: GuaranteeDialog,
		Fallback:  &pres,
	}
}

func jobSuccess(d printer.Descriptor) PrintJobResult {
	return PrintJobResult{
		Success:   true,
		Transport: string(d.Kind),
		PrinterID: d.ID,
		Guarantee: GuaranteeDevice,
	}
}

func jobFailure(err error, d printer.Descriptor) PrintJobResult {
	return PrintJobResult{
		Error:     err.Error(),
		ErrorKind: printer.KindOf(err),
		Transport: string(d.Kind),
		PrinterID: d.ID,
	}
}

func (s *PrinterService) record(ctx context.Context, order *entity.Order, job printJob, strategy Strategy, res PrintJobResult, opts PrintOptions) {
	if s.Audit == nil {
		return
	}
	source := opts.Source
	if source == "" {
		source = "api"
	}
	errText := res.Error
	kind := res.ErrorKind
	if res.Success && res.DeviceError != "" {
		errText, kind = res.DeviceError, res.DeviceErrorKind
	}
	s.Audit.Record(context.WithoutCancel(ctx), &entity.PrintAudit{
		OrderID:     order.ID,
		OrderNumber: job.order.OrderNumber,
		Category:    job.category,
		Strategy:    string(strategy),
		Transport:   res.Transport,
		PrinterID:   res.PrinterID,
		Success:     res.Success,
		Guarantee:   res.Guarantee,
		ErrorKind:   string(kind),
		Error:       errText,
		Source:      source,
		RequestedBy: opts.RequestedBy,
	})
}

func (s *PrinterService) receiptConfig(ctx context.Context, explicit *entity.ReceiptConfig) (entity.ReceiptConfig, error) {
	cfg := entity.DefaultReceiptConfig()
	switch {
	case explicit != nil:
		cfg = *explicit
	case s.Settings != nil:
		stored, err := s.Settings.ReceiptConfig(ctx)
		if err != nil {
			return cfg, fmt.Errorf("load receipt settings: %w", err)
		}
		cfg = stored
	}
	if !cfg.PrintWidth.Valid() {
		return cfg, apperror.NewBadRequestError(fmt.Sprintf("unknown print width %q", cfg.PrintWidth))
	}
	return cfg, nil
}

func (s *PrinterService) loadOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	if s.Orders == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	order, err := s.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// PrinterStatus describes the print setup of this host.
type PrinterStatus struct {
	Strategy          Strategy             `json:"strategy"`
	ByCategory        bool                 `json:"by_category"`
	FallbackOnFailure bool                 `json:"fallback_on_failure"`
	USBSupported      bool                 `json:"usb_supported"`
	SerialSupported   bool                 `json:"serial_supported"`
	NetworkConfigured bool                 `json:"network_configured"`
	FallbackSurface   string               `json:"fallback_surface,omitempty"`
	Printers          []printer.Descriptor `json:"printers"`
}

// GetStatus reports the configured policy and the printers detected now.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	st := &PrinterStatus{
		Strategy:          s.cfg.Strategy,
		ByCategory:        s.cfg.ByCategory,
		FallbackOnFailure: s.cfg.FallbackOnFailure,
		NetworkConfigured: s.Network != nil,
		Printers:          []printer.Descriptor{},
	}
	if s.Surface != nil {
		st.FallbackSurface = s.Surface.Name()
	}
	if s.Inventory != nil {
		st.USBSupported = s.Inventory.USBSupported()
		st.SerialSupported = s.Inventory.SerialSupported()
		st.Printers = s.Inventory.DetectAll(ctx)
	}
	return st
}

// TestPrint prints a sample receipt through the given strategy.
func (s *PrinterService) TestPrint(ctx context.Context, opts PrintOptions) (*PrintResult, error) {
	phone := "+91 00000 00000"
	order := &entity.Order{
		ID:          uuid.Nil,
		OrderNumber: "TEST-0001",
		PhoneNumber: &phone,
		Status:      enum.OrderStatusCompleted,
		CreatedAt:   time.Now(),
		Items: []entity.OrderLineItem{
			{Name: "Test Item 1", Price: decimal.NewFromInt(10), Quantity: 1, Category: "Test"},
			{Name: "Test Item 2", Price: decimal.NewFromInt(5), Quantity: 2, Category: "Test"},
		},
	}
	order.Total = order.ItemsTotal()
	no := false
	opts.ByCategory = &no
	if opts.Source == "" {
		opts.Source = "test"
	}
	return s.PrintOrder(ctx, order, opts)
}

// Preview is a receipt rendered for display.
type Preview struct {
	Receipt *entity.Receipt `json:"receipt"`
	HTML    string          `json:"html"`
}

// PreviewOrder renders the order without printing it.
func (s *PrinterService) PreviewOrder(ctx context.Context, order *entity.Order, explicit *entity.ReceiptConfig) (*Preview, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, apperror.NewBadRequestError("order has no items to preview")
	}
	cfg, err := s.receiptConfig(ctx, explicit)
	if err != nil {
		return nil, err
	}
	doc, err := s.Fallback.Render(order, &cfg)
	if err != nil {
		return nil, err
	}
	return &Preview{Receipt: doc.Receipt, HTML: doc.Page.StaticHTML}, nil
}

// PreviewOrderByID loads an order and renders it without printing.
func (s *PrinterService) PreviewOrderByID(ctx context.Context, id uuid.UUID, explicit *entity.ReceiptConfig) (*Preview, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.PreviewOrder(ctx, order, explicit)
}

// IsRequestError reports whether err stems from invalid input rather than
// from printing.
func IsRequestError(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code < 500
}
