package printer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaudRate is the factory setting of nearly every serial thermal printer.
const DefaultBaudRate = 9600

// SupportedBaudRates are the rates probed by serial diagnostics.
var SupportedBaudRates = []int{9600, 19200, 38400, 57600, 115200}

// ValidBaudRate reports whether rate is one of SupportedBaudRates.
func ValidBaudRate(rate int) bool {
	for _, r := range SupportedBaudRates {
		if r == rate {
			return true
		}
	}
	return false
}

// Parity of a serial line.
type Parity string

const ParityNone Parity = "none"

// FlowControl of a serial line.
type FlowControl string

const FlowControlNone FlowControl = "none"

// SerialMode holds the line parameters used to open a port.
type SerialMode struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
}

// DefaultSerialMode is 8N1 without flow control at the given baud rate.
func DefaultSerialMode(baud int) SerialMode {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return SerialMode{
		BaudRate:    baud,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
	}
}

// SerialPortInfo is what enumeration reports about a serial port.
type SerialPortInfo struct {
	Name      string
	Product   string
	IsUSB     bool
	VendorID  uint16
	ProductID uint16
}

// Descriptor converts the port info into a printer descriptor.
func (i SerialPortInfo) Descriptor() Descriptor {
	name := i.Product
	if name == "" {
		name = "Serial printer " + i.Name
	}
	return Descriptor{
		ID:        "serial:" + i.Name,
		Kind:      TransportSerial,
		Name:      name,
		VendorID:  i.VendorID,
		ProductID: i.ProductID,
		Connected: true,
	}
}

// PortWriter is an exclusive writer on a port's output stream. ReleaseLock
// must be called once the writer is no longer needed, even after a failed
// Write.
type PortWriter interface {
	Write(ctx context.Context, data []byte) error
	ReleaseLock()
}

// SerialPort is one serial port as exposed by the host.
type SerialPort interface {
	Info() SerialPortInfo
	Open(ctx context.Context, mode SerialMode) error
	IsOpen() bool
	// Writer locks the output stream. It fails while another writer holds it.
	Writer() (PortWriter, error)
	Close() error
}

// SerialHost is the platform serial capability.
type SerialHost interface {
	// Ports lists attached ports the application is already authorized to use.
	Ports(ctx context.Context) ([]SerialPort, error)
	// RequestPort asks for access to a new port. It may block until the
	// chooser returns.
	RequestPort(ctx context.Context, chooser Chooser) (SerialPort, error)
}

// SerialOptions configures a SerialPrinter.
type SerialOptions struct {
	BaudRate int
	// PortName pins the printer to one port, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string
	// Chooser is asked when no authorized port exists. Nil disables requests.
	Chooser Chooser
	// Timeout bounds open and write. Zero means no bound.
	Timeout time.Duration
	Logger  *zap.Logger
}

// SerialPrinter drives a thermal printer over a serial line.
type SerialPrinter struct {
	host SerialHost
	opts SerialOptions
	log  *zap.Logger
}

// NewSerialPrinter creates a serial driver on top of host. A nil host means
// the platform has no serial capability.
func NewSerialPrinter(host SerialHost, opts SerialOptions) *SerialPrinter {
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &SerialPrinter{host: host, opts: opts, log: log.Named("serial")}
}

// Print opens the port with 8N1 framing, writes data through an exclusive
// writer and closes the port. The writer lock is released before closing,
// also when the write fails.
func (p *SerialPrinter) Print(ctx context.Context, data []byte) error {
	if p.host == nil {
		return newError(KindCapabilityUnsupported, "serial", nil)
	}

	port, err := p.locate(ctx)
	if err != nil {
		return err
	}
	name := port.Info().Name
	defer func() {
		if !port.IsOpen() {
			return
		}
		if cerr := port.Close(); cerr != nil {
			p.log.Warn("failed to close serial port", zap.String("port", name), zap.Error(cerr))
		}
	}()

	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := port.Open(ctx, DefaultSerialMode(p.opts.BaudRate)); err != nil {
		return classify(ctx, KindDeviceBusy, "open "+name, err)
	}

	w, err := port.Writer()
	if err != nil {
		return classify(ctx, KindNoOutputChannel, "acquire writer", err)
	}
	err = func() error {
		defer w.ReleaseLock()
		return w.Write(ctx, data)
	}()
	if err != nil {
		return classify(ctx, KindTransferFailed, "write "+name, err)
	}

	p.log.Debug("receipt sent",
		zap.String("port", name),
		zap.Int("baud", p.opts.BaudRate),
		zap.Int("bytes", len(data)))
	return nil
}

// IsConnected reports whether a matching authorized port is attached.
func (p *SerialPrinter) IsConnected(ctx context.Context) bool {
	if p.host == nil {
		return false
	}
	ports, err := p.host.Ports(ctx)
	if err != nil {
		return false
	}
	for _, port := range ports {
		if p.matches(port.Info()) {
			return true
		}
	}
	return false
}

// Descriptor describes the targeted port.
func (p *SerialPrinter) Descriptor() Descriptor {
	d := Descriptor{Kind: TransportSerial, Name: "Serial printer"}
	if p.opts.PortName != "" {
		d.ID = "serial:" + p.opts.PortName
		d.Name = "Serial printer " + p.opts.PortName
	}
	return d
}

func (p *SerialPrinter) locate(ctx context.Context) (SerialPort, error) {
	ports, err := p.host.Ports(ctx)
	if err != nil {
		return nil, classify(ctx, KindNoDeviceAuthorized, "enumerate", err)
	}
	for _, port := range ports {
		if p.matches(port.Info()) {
			return port, nil
		}
	}

	if p.opts.PortName != "" {
		return nil, newError(KindNoDeviceAuthorized, "locate",
			fmt.Errorf("port %s is not attached or not authorized", p.opts.PortName))
	}
	if p.opts.Chooser == nil {
		return nil, newError(KindNoDeviceAuthorized, "locate", nil)
	}
	port, err := p.host.RequestPort(ctx, p.opts.Chooser)
	if err != nil {
		return nil, classify(ctx, KindNoDeviceAuthorized, "request port", err)
	}
	return port, nil
}

func (p *SerialPrinter) matches(info SerialPortInfo) bool {
	if p.opts.PortName == "" {
		return true
	}
	return strings.EqualFold(info.Name, p.opts.PortName)
}
