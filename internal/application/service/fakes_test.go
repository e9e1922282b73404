package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"github.com/sangkips/kitchen-pos/pkg/printer"
	"github.com/shopspring/decimal"
)

type fakePrinter struct {
	desc   printer.Descriptor
	err    error
	prints [][]byte
}

func (p *fakePrinter) Print(ctx context.Context, data []byte) error {
	p.prints = append(p.prints, append([]byte(nil), data...))
	return p.err
}

func (p *fakePrinter) IsConnected(ctx context.Context) bool { return p.err == nil }

func (p *fakePrinter) Descriptor() printer.Descriptor { return p.desc }

type fakeInventory struct {
	usb, serial bool
	printers    map[string]*fakePrinter
	order       []printer.Descriptor
	detections  int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{usb: true, serial: true, printers: map[string]*fakePrinter{}}
}

func (inv *fakeInventory) add(kind printer.TransportKind, id string, err error) *fakePrinter {
	d := printer.Descriptor{ID: id, Kind: kind, Name: id, Connected: true}
	p := &fakePrinter{desc: d, err: err}
	inv.printers[id] = p
	inv.order = append(inv.order, d)
	return p
}

func (inv *fakeInventory) DetectAll(ctx context.Context) []printer.Descriptor {
	inv.detections++
	return append([]printer.Descriptor(nil), inv.order...)
}

func (inv *fakeInventory) PrinterFor(d printer.Descriptor) (printer.Printer, error) {
	p, ok := inv.printers[d.ID]
	if !ok {
		return nil, printer.ErrNoDeviceAuthorized
	}
	return p, nil
}

func (inv *fakeInventory) USBSupported() bool    { return inv.usb }
func (inv *fakeInventory) SerialSupported() bool { return inv.serial }

type fakeSurface struct {
	err   error
	pages []printer.Page
}

func (s *fakeSurface) Name() string { return "fake" }

func (s *fakeSurface) Present(ctx context.Context, page printer.Page) (printer.Presentation, error) {
	if s.err != nil {
		return printer.Presentation{}, s.err
	}
	s.pages = append(s.pages, page)
	return printer.Presentation{Surface: "fake", URL: "http://pos.local/print/" + page.ID}, nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	audits []*entity.PrintAudit
}

func (a *recordingAuditor) Record(ctx context.Context, audit *entity.PrintAudit) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audits = append(a.audits, audit)
}

type recordedSleeps struct {
	delays []time.Duration
	err    error
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return r.err
}

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*entity.Order
	count     int64
	countDay  time.Time
	createErr error
	countErr  error
	taken     map[string]bool
	attempts  []string
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*entity.Order{}}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *entity.Order) error {
	r.attempts = append(r.attempts, order.OrderNumber)
	if r.createErr != nil {
		return r.createErr
	}
	if r.taken[order.OrderNumber] {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateOrderNumber, order.OrderNumber)
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = order
	r.count++
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.orders[id], nil
}

func (r *fakeOrderRepo) GetByOrderNumber(ctx context.Context, number string) (*entity.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return errors.New("no such order")
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	r.countDay = day
	return r.count, r.countErr
}

type fakeSettingsRepo struct {
	settings *entity.ReceiptSettings
	creates  int
	updates  int
	err      error
}

func (r *fakeSettingsRepo) Get(ctx context.Context) (*entity.ReceiptSettings, error) {
	return r.settings, r.err
}

func (r *fakeSettingsRepo) Create(ctx context.Context, s *entity.ReceiptSettings) error {
	r.creates++
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.settings = s
	return nil
}

func (r *fakeSettingsRepo) Update(ctx context.Context, s *entity.ReceiptSettings) error {
	r.updates++
	r.settings = s
	return nil
}

func testLocation() *time.Location {
	loc, _ := LoadReceiptLocation("")
	return loc
}

func item(name, category string, price int64, qty int) entity.OrderLineItem {
	return entity.OrderLineItem{Name: name, Price: decimal.NewFromInt(price), Quantity: qty, Category: category}
}

// mixedOrder spans Food (200) and Drinks (50).
func mixedOrder() *entity.Order {
	o := &entity.Order{
		ID:          uuid.New(),
		OrderNumber: "20261018-0007",
		CreatedAt:   time.Date(2026, 10, 18, 14, 15, 0, 0, time.UTC),
		Items: []entity.OrderLineItem{
			item("Thali", "Food", 100, 2),
			item("Chai", "Drinks", 25, 2),
		},
	}
	o.Total = o.ItemsTotal()
	return o
}
