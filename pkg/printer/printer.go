package printer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TransportKind identifies how bytes reach a printer.
type TransportKind string

const (
	TransportUSB     TransportKind = "usb"
	TransportSerial  TransportKind = "serial"
	TransportNetwork TransportKind = "network"
)

// Printer is the interface for sending raw ESC/POS data to a thermal printer.
// Every Print call opens the device, writes and closes it again; no handle
// outlives a single call.
type Printer interface {
	// Print sends raw ESC/POS bytes to the printer.
	Print(ctx context.Context, data []byte) error
	// IsConnected returns true if the printer is currently reachable.
	IsConnected(ctx context.Context) bool
	// Descriptor describes the device this printer targets.
	Descriptor() Descriptor
}

// Descriptor describes a detected printer. It is rebuilt on every detection
// pass and never persisted.
type Descriptor struct {
	ID        string        `json:"id"`
	Kind      TransportKind `json:"kind"`
	Name      string        `json:"name"`
	VendorID  uint16        `json:"vendor_id,omitempty"`
	ProductID uint16        `json:"product_id,omitempty"`
	Connected bool          `json:"connected"`
}

// ThermalVendorIDs is the USB vendor allow-list of common receipt printer makers.
var ThermalVendorIDs = []uint16{
	0x04b8, // Seiko Epson
	0x0519, // Star Micronics
	0x0416, // Winbond (generic POS-58/80 boards)
	0x0483, // STMicroelectronics (generic POS boards)
	0x0fe6, // ICS Advent (generic POS boards)
	0x1504, // Bixolon
	0x154f, // SNBC
	0x0dd4, // Custom Engineering
	0x1fc9, // NXP (Xprinter boards)
	0x28e9, // GigaDevice (Xprinter boards)
}

func vendorAllowed(allow []uint16, vid uint16) bool {
	for _, v := range allow {
		if v == vid {
			return true
		}
	}
	return false
}

// USBID identifies a USB product.
type USBID struct {
	VendorID  uint16
	ProductID uint16
}

func (id USBID) String() string {
	return fmt.Sprintf("%04x:%04x", id.VendorID, id.ProductID)
}

// ParseUSBID parses "vvvv:pppp" (hex).
func ParseUSBID(s string) (USBID, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return USBID{}, fmt.Errorf("printer: invalid USB id %q (want vvvv:pppp)", s)
	}
	vid, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return USBID{}, fmt.Errorf("printer: invalid vendor id in %q: %w", s, err)
	}
	pid, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return USBID{}, fmt.Errorf("printer: invalid product id in %q: %w", s, err)
	}
	return USBID{VendorID: uint16(vid), ProductID: uint16(pid)}, nil
}

// Grants is the set of devices the application has been given access to.
// A device is "authorized" when it is attached and granted.
type Grants struct {
	mu     sync.RWMutex
	usb    map[USBID]struct{}
	serial map[string]struct{}
}

// NewGrants creates an empty grant set.
func NewGrants() *Grants {
	return &Grants{
		usb:    make(map[USBID]struct{}),
		serial: make(map[string]struct{}),
	}
}

// GrantUSB authorizes a USB product.
func (g *Grants) GrantUSB(id USBID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.usb[id] = struct{}{}
}

// HasUSB reports whether a USB product is authorized.
func (g *Grants) HasUSB(id USBID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.usb[id]
	return ok
}

// GrantSerial authorizes a serial port by name.
func (g *Grants) GrantSerial(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.serial[name] = struct{}{}
}

// HasSerial reports whether a serial port is authorized.
func (g *Grants) HasSerial(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.serial[name]
	return ok
}

// Chooser stands in for the interactive device picker. It returns the chosen
// candidate, or an error wrapping ErrSelectionCancelled when the selection
// was dismissed.
type Chooser interface {
	Choose(ctx context.Context, candidates []Descriptor) (Descriptor, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(ctx context.Context, candidates []Descriptor) (Descriptor, error)

// Choose calls f(ctx, candidates).
func (f ChooserFunc) Choose(ctx context.Context, candidates []Descriptor) (Descriptor, error) {
	return f(ctx, candidates)
}

// ChooseFirst picks the first candidate. Used by unattended agents.
func ChooseFirst() Chooser {
	return ChooserFunc(func(ctx context.Context, candidates []Descriptor) (Descriptor, error) {
		if err := ctx.Err(); err != nil {
			return Descriptor{}, newError(KindSelectionCancelled, "choose", err)
		}
		if len(candidates) == 0 {
			return Descriptor{}, newError(KindSelectionCancelled, "choose", nil)
		}
		return candidates[0], nil
	})
}

// ChooseMatching picks the candidate whose ID, or USB vendor/product pair,
// matches the requested one. No match is treated as a dismissed picker.
func ChooseMatching(id string, usb *USBID) Chooser {
	return ChooserFunc(func(ctx context.Context, candidates []Descriptor) (Descriptor, error) {
		if err := ctx.Err(); err != nil {
			return Descriptor{}, newError(KindSelectionCancelled, "choose", err)
		}
		for _, c := range candidates {
			if id != "" && c.ID == id {
				return c, nil
			}
			if usb != nil && c.VendorID == usb.VendorID && c.ProductID == usb.ProductID {
				return c, nil
			}
		}
		return Descriptor{}, newError(KindSelectionCancelled, "choose", nil)
	})
}

// DenyChooser never selects anything; devices must be granted up front.
func DenyChooser() Chooser {
	return ChooserFunc(func(ctx context.Context, candidates []Descriptor) (Descriptor, error) {
		return Descriptor{}, newError(KindSelectionCancelled, "choose", nil)
	})
}

func sortDescriptors(ds []Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// runContext runs a blocking call and gives up when ctx is done first.
// The call keeps running in the background; callers must make sure a later
// Close unblocks it.
func runContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classify wraps err with kind unless it already carries a printer kind.
// Expired device deadlines become KindDeviceTimeout.
func classify(ctx context.Context, kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		return newError(KindDeviceTimeout, op, err)
	}
	return newError(kind, op, err)
}
