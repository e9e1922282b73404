package printer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// InventoryConfig configures detection and the drivers built from it.
type InventoryConfig struct {
	VendorIDs []uint16
	BaudRate  int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Inventory detects printers reachable through the USB and serial hosts.
// A nil host means the platform lacks that capability.
type Inventory struct {
	usb    USBHost
	serial SerialHost
	cfg    InventoryConfig
	log    *zap.Logger
}

// NewInventory creates an inventory over the given hosts. Either host may be nil.
func NewInventory(usb USBHost, serial SerialHost, cfg InventoryConfig) *Inventory {
	if len(cfg.VendorIDs) == 0 {
		cfg.VendorIDs = ThermalVendorIDs
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Inventory{usb: usb, serial: serial, cfg: cfg, log: cfg.Logger.Named("inventory")}
}

func (inv *Inventory) USBSupported() bool    { return inv.usb != nil }
func (inv *Inventory) SerialSupported() bool { return inv.serial != nil }

// DetectAll lists authorized USB printers followed by authorized serial
// ports. It never fails: enumeration errors and missing capabilities yield
// fewer (possibly zero) descriptors.
func (inv *Inventory) DetectAll(ctx context.Context) []Descriptor {
	found := make([]Descriptor, 0)
	found = append(found, inv.DetectUSB(ctx)...)
	found = append(found, inv.DetectSerial(ctx)...)
	return found
}

// DetectUSB lists authorized USB devices from the vendor allow-list.
func (inv *Inventory) DetectUSB(ctx context.Context) []Descriptor {
	if inv.usb == nil {
		return nil
	}
	devs, err := inv.usb.Devices(ctx)
	if err != nil {
		inv.log.Warn("USB enumeration failed", zap.Error(err))
		return nil
	}
	var out []Descriptor
	for _, d := range devs {
		info := d.Info()
		if !vendorAllowed(inv.cfg.VendorIDs, info.VendorID) {
			continue
		}
		out = append(out, info.Descriptor())
	}
	sortDescriptors(out)
	return out
}

// DetectSerial lists authorized serial ports.
func (inv *Inventory) DetectSerial(ctx context.Context) []Descriptor {
	if inv.serial == nil {
		return nil
	}
	ports, err := inv.serial.Ports(ctx)
	if err != nil {
		inv.log.Warn("serial enumeration failed", zap.Error(err))
		return nil
	}
	out := make([]Descriptor, 0, len(ports))
	for _, p := range ports {
		out = append(out, p.Info().Descriptor())
	}
	sortDescriptors(out)
	return out
}

// Find looks up a detected printer by descriptor ID.
func (inv *Inventory) Find(ctx context.Context, id string) (Descriptor, bool) {
	for _, d := range inv.DetectAll(ctx) {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// PrinterFor builds a driver pinned to the device d describes.
func (inv *Inventory) PrinterFor(d Descriptor) (Printer, error) {
	switch d.Kind {
	case TransportUSB:
		return NewUSBPrinter(inv.usb, USBOptions{
			VendorIDs: inv.cfg.VendorIDs,
			DeviceID:  d.ID,
			Timeout:   inv.cfg.Timeout,
			Logger:    inv.cfg.Logger,
		}), nil
	case TransportSerial:
		return NewSerialPrinter(inv.serial, SerialOptions{
			PortName: strings.TrimPrefix(d.ID, "serial:"),
			BaudRate: inv.cfg.BaudRate,
			Timeout:  inv.cfg.Timeout,
			Logger:   inv.cfg.Logger,
		}), nil
	default:
		return nil, fmt.Errorf("printer: unsupported transport %q for %s", d.Kind, d.ID)
	}
}

// TestConnection opens d, writes the initialize command and closes it again.
// Any failure, including a panic in the host layer, is reported as false.
func (inv *Inventory) TestConnection(ctx context.Context, d Descriptor) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			inv.log.Error("connection test panicked", zap.String("printer", d.ID), zap.Any("panic", r))
			ok = false
		}
	}()

	p, err := inv.PrinterFor(d)
	if err != nil {
		inv.log.Info("connection test failed", zap.String("printer", d.ID), zap.Error(err))
		return false
	}
	if err := p.Print(ctx, InitCommand); err != nil {
		inv.log.Info("connection test failed", zap.String("printer", d.ID), zap.Error(err))
		return false
	}
	return true
}

// RequestUSBPrinter asks chooser to pick a new USB printer from the vendor
// allow-list and grants it.
func (inv *Inventory) RequestUSBPrinter(ctx context.Context, chooser Chooser) (Descriptor, error) {
	if inv.usb == nil {
		return Descriptor{}, newError(KindCapabilityUnsupported, "request usb printer", nil)
	}
	filters := make([]USBFilter, 0, len(inv.cfg.VendorIDs))
	for _, vid := range inv.cfg.VendorIDs {
		filters = append(filters, USBFilter{VendorID: vid})
	}
	dev, err := inv.usb.RequestDevice(ctx, filters, chooser)
	if err != nil {
		return Descriptor{}, classify(ctx, KindNoDeviceAuthorized, "request usb printer", err)
	}
	return dev.Info().Descriptor(), nil
}

// RequestSerialPrinter asks chooser to pick a new serial port and grants it.
func (inv *Inventory) RequestSerialPrinter(ctx context.Context, chooser Chooser) (Descriptor, error) {
	if inv.serial == nil {
		return Descriptor{}, newError(KindCapabilityUnsupported, "request serial printer", nil)
	}
	port, err := inv.serial.RequestPort(ctx, chooser)
	if err != nil {
		return Descriptor{}, classify(ctx, KindNoDeviceAuthorized, "request serial printer", err)
	}
	return port.Info().Descriptor(), nil
}

// BaudProbe is the outcome of printing a test line at one baud rate.
type BaudProbe struct {
	BaudRate int       `json:"baud_rate"`
	OK       bool      `json:"ok"`
	Kind     ErrorKind `json:"kind,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// DiagnoseSerial prints a short test line on d at each baud rate in turn.
// Only the rate matching the printer's DIP switches prints legibly, so the
// operator reads the answer off the paper. Empty bauds probes
// SupportedBaudRates.
func (inv *Inventory) DiagnoseSerial(ctx context.Context, d Descriptor, bauds []int) ([]BaudProbe, error) {
	if d.Kind != TransportSerial {
		return nil, fmt.Errorf("printer: %s is not a serial printer", d.ID)
	}
	if inv.serial == nil {
		return nil, newError(KindCapabilityUnsupported, "diagnose serial", nil)
	}
	if len(bauds) == 0 {
		bauds = SupportedBaudRates
	}

	probes := make([]BaudProbe, 0, len(bauds))
	for _, baud := range bauds {
		probe := BaudProbe{BaudRate: baud}
		if !ValidBaudRate(baud) {
			probe.Error = fmt.Sprintf("unsupported baud rate %d", baud)
			probes = append(probes, probe)
			continue
		}
		if err := ctx.Err(); err != nil {
			return probes, err
		}

		p := NewSerialPrinter(inv.serial, SerialOptions{
			PortName: strings.TrimPrefix(d.ID, "serial:"),
			BaudRate: baud,
			Timeout:  inv.cfg.Timeout,
			Logger:   inv.cfg.Logger,
		})
		err := p.Print(ctx, diagnosticPage(baud))
		if err == nil {
			probe.OK = true
		} else {
			probe.Kind = KindOf(err)
			probe.Error = err.Error()
			if errors.Is(err, ErrCapabilityUnsupported) {
				probes = append(probes, probe)
				return probes, nil
			}
		}
		probes = append(probes, probe)
	}
	return probes, nil
}

func diagnosticPage(baud int) []byte {
	return NewDocument(32).
		TextF("Baud test %d", baud).
		FeedLines(2).
		Bytes()
}
