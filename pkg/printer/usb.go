package printer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TransferStatus is the outcome of a bulk transfer as reported by the host.
type TransferStatus string

// TransferOK is the only successful transfer status.
const TransferOK TransferStatus = "ok"

// USBDeviceInfo is what enumeration reports about a USB device.
type USBDeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	SerialNumber string
	Bus          int
	Address      int
}

// ID returns the vendor/product pair.
func (i USBDeviceInfo) ID() USBID {
	return USBID{VendorID: i.VendorID, ProductID: i.ProductID}
}

// Descriptor converts the device info into a printer descriptor.
func (i USBDeviceInfo) Descriptor() Descriptor {
	id := "usb:" + i.ID().String()
	if i.SerialNumber != "" {
		id += ":" + i.SerialNumber
	}
	name := i.Product
	if i.Manufacturer != "" && name != "" {
		name = i.Manufacturer + " " + name
	}
	if name == "" {
		name = fmt.Sprintf("USB printer %s", i.ID())
	}
	return Descriptor{
		ID:        id,
		Kind:      TransportUSB,
		Name:      name,
		VendorID:  i.VendorID,
		ProductID: i.ProductID,
		Connected: true,
	}
}

// USBDevice is a single USB device handle as exposed by the host.
type USBDevice interface {
	Info() USBDeviceInfo
	Open(ctx context.Context) error
	Opened() bool
	Configured() bool
	SelectConfiguration(value int) error
	ClaimInterface(number int) error
	// OutEndpoint returns the first OUT endpoint of the claimed interface's
	// first alternate setting.
	OutEndpoint() (int, bool)
	TransferOut(ctx context.Context, endpoint int, data []byte) (TransferStatus, error)
	Close() error
}

// USBFilter restricts device requests. A zero ProductID matches any product.
type USBFilter struct {
	VendorID  uint16
	ProductID uint16
}

// Matches reports whether the filter accepts id.
func (f USBFilter) Matches(id USBID) bool {
	if f.VendorID != id.VendorID {
		return false
	}
	return f.ProductID == 0 || f.ProductID == id.ProductID
}

// USBHost is the platform USB capability.
type USBHost interface {
	// Devices lists attached devices the application is already authorized to use.
	Devices(ctx context.Context) ([]USBDevice, error)
	// RequestDevice asks for access to a new device. It may block until the
	// chooser returns.
	RequestDevice(ctx context.Context, filters []USBFilter, chooser Chooser) (USBDevice, error)
}

// USBOptions configures a USBPrinter.
type USBOptions struct {
	// VendorIDs is the allow-list used to pick among authorized devices.
	// Defaults to ThermalVendorIDs.
	VendorIDs []uint16
	// DeviceID pins the printer to one descriptor ID.
	DeviceID string
	// Chooser is asked when no authorized device matches. Nil disables requests.
	Chooser Chooser
	// Timeout bounds open and transfer. Zero means no bound.
	Timeout time.Duration
	Logger  *zap.Logger
}

// USBPrinter drives a thermal printer with one bulk OUT transfer per job.
type USBPrinter struct {
	host USBHost
	opts USBOptions
	log  *zap.Logger
}

// NewUSBPrinter creates a USB driver on top of host. A nil host means the
// platform has no USB capability.
func NewUSBPrinter(host USBHost, opts USBOptions) *USBPrinter {
	if len(opts.VendorIDs) == 0 {
		opts.VendorIDs = ThermalVendorIDs
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &USBPrinter{host: host, opts: opts, log: log.Named("usb")}
}

// Print locates, opens, configures and writes to the device, then always
// closes it. Close failures are logged and never replace the print outcome.
func (p *USBPrinter) Print(ctx context.Context, data []byte) error {
	if p.host == nil {
		return newError(KindCapabilityUnsupported, "usb", nil)
	}

	dev, err := p.locate(ctx)
	if err != nil {
		return err
	}
	info := dev.Info()
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			p.log.Warn("failed to close USB device",
				zap.String("device", info.ID().String()),
				zap.Error(cerr))
		}
	}()

	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if !dev.Opened() {
		if err := dev.Open(ctx); err != nil {
			return classify(ctx, KindDeviceBusy, "open", err)
		}
	}
	if !dev.Configured() {
		if err := dev.SelectConfiguration(1); err != nil {
			return classify(ctx, KindDeviceBusy, "select configuration", err)
		}
	}
	if err := dev.ClaimInterface(0); err != nil {
		return classify(ctx, KindDeviceBusy, "claim interface", err)
	}

	endpoint, ok := dev.OutEndpoint()
	if !ok {
		return newError(KindNoOutputChannel, "find endpoint", errors.New("no output endpoint"))
	}

	status, err := dev.TransferOut(ctx, endpoint, data)
	if err != nil {
		return classify(ctx, KindTransferFailed, "transfer", err)
	}
	if status != TransferOK {
		return newError(KindTransferFailed, "transfer", fmt.Errorf("transfer status %q", status))
	}

	p.log.Debug("receipt sent",
		zap.String("device", info.ID().String()),
		zap.Int("bytes", len(data)))
	return nil
}

// IsConnected reports whether a matching authorized device is attached.
func (p *USBPrinter) IsConnected(ctx context.Context) bool {
	if p.host == nil {
		return false
	}
	devs, err := p.host.Devices(ctx)
	if err != nil {
		return false
	}
	for _, d := range devs {
		if p.matches(d.Info()) {
			return true
		}
	}
	return false
}

// Descriptor describes the targeted device.
func (p *USBPrinter) Descriptor() Descriptor {
	return Descriptor{ID: p.opts.DeviceID, Kind: TransportUSB, Name: "USB printer"}
}

func (p *USBPrinter) locate(ctx context.Context) (USBDevice, error) {
	devs, err := p.host.Devices(ctx)
	if err != nil {
		return nil, classify(ctx, KindNoDeviceAuthorized, "enumerate", err)
	}
	for _, d := range devs {
		if p.matches(d.Info()) {
			return d, nil
		}
	}

	if p.opts.Chooser == nil || p.opts.DeviceID != "" {
		return nil, newError(KindNoDeviceAuthorized, "locate", nil)
	}

	filters := make([]USBFilter, 0, len(p.opts.VendorIDs))
	for _, vid := range p.opts.VendorIDs {
		filters = append(filters, USBFilter{VendorID: vid})
	}
	dev, err := p.host.RequestDevice(ctx, filters, p.opts.Chooser)
	if err != nil {
		return nil, classify(ctx, KindNoDeviceAuthorized, "request device", err)
	}
	return dev, nil
}

func (p *USBPrinter) matches(info USBDeviceInfo) bool {
	if p.opts.DeviceID != "" {
		return info.Descriptor().ID == p.opts.DeviceID
	}
	return vendorAllowed(p.opts.VendorIDs, info.VendorID)
}
