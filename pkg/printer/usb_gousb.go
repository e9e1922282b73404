package printer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// GousbHost implements USBHost on top of libusb.
type GousbHost struct {
	ctx     *gousb.Context
	grants  *Grants
	vendors []uint16
	log     *zap.Logger
}

// NewGousbHost initializes libusb. When libusb is not available on the host
// the error is ErrCapabilityUnsupported.
func NewGousbHost(grants *Grants, vendors []uint16, log *zap.Logger) (host *GousbHost, err error) {
	defer func() {
		if r := recover(); r != nil {
			host = nil
			err = newError(KindCapabilityUnsupported, "usb init", fmt.Errorf("%v", r))
		}
	}()
	if len(vendors) == 0 {
		vendors = ThermalVendorIDs
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GousbHost{
		ctx:     gousb.NewContext(),
		grants:  grants,
		vendors: vendors,
		log:     log.Named("gousb"),
	}, nil
}

// Close releases the libusb context.
func (h *GousbHost) Close() error {
	return h.ctx.Close()
}

// Devices lists attached, granted devices from the vendor allow-list.
func (h *GousbHost) Devices(ctx context.Context) ([]USBDevice, error) {
	infos, err := h.scan(ctx, func(id USBID) bool {
		return h.allowed(id) && h.grants.HasUSB(id)
	})
	if err != nil {
		return nil, err
	}
	devs := make([]USBDevice, 0, len(infos))
	for _, info := range infos {
		devs = append(devs, h.device(info))
	}
	return devs, nil
}

// RequestDevice offers every attached device accepted by filters to chooser
// and grants the chosen one.
func (h *GousbHost) RequestDevice(ctx context.Context, filters []USBFilter, chooser Chooser) (USBDevice, error) {
	infos, err := h.scan(ctx, func(id USBID) bool {
		for _, f := range filters {
			if f.Matches(id) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, newError(KindNoDeviceAuthorized, "request device", errors.New("no matching USB device attached"))
	}

	candidates := make([]Descriptor, len(infos))
	for i, info := range infos {
		candidates[i] = info.Descriptor()
	}
	chosen, err := chooser.Choose(ctx, candidates)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Descriptor().ID == chosen.ID {
			h.grants.GrantUSB(info.ID())
			h.log.Info("USB printer granted", zap.String("id", chosen.ID), zap.String("name", chosen.Name))
			return h.device(info), nil
		}
	}
	return nil, newError(KindSelectionCancelled, "request device", fmt.Errorf("unknown device %q", chosen.ID))
}

func (h *GousbHost) allowed(id USBID) bool {
	return vendorAllowed(h.vendors, id.VendorID)
}

func (h *GousbHost) device(info USBDeviceInfo) *gousbDevice {
	return &gousbDevice{usb: h.ctx, info: info}
}

// scan enumerates attached devices accepted by match. Matching devices are
// opened briefly to read their string descriptors.
func (h *GousbHost) scan(ctx context.Context, match func(USBID) bool) ([]USBDeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []USBDeviceInfo
	devs, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		id := USBID{VendorID: uint16(desc.Vendor), ProductID: uint16(desc.Product)}
		if !match(id) {
			return false
		}
		infos = append(infos, USBDeviceInfo{
			VendorID:  id.VendorID,
			ProductID: id.ProductID,
			Bus:       desc.Bus,
			Address:   desc.Address,
		})
		return true
	})
	if err != nil {
		// Devices we could not open are still listed; opening them later
		// reports the permission problem against the print job.
		h.log.Debug("some USB devices could not be opened during scan", zap.Error(err))
	}

	for _, dev := range devs {
		for i := range infos {
			if infos[i].Bus != dev.Desc.Bus || infos[i].Address != dev.Desc.Address {
				continue
			}
			infos[i].Manufacturer, _ = dev.Manufacturer()
			infos[i].Product, _ = dev.Product()
			infos[i].SerialNumber, _ = dev.SerialNumber()
		}
		if cerr := dev.Close(); cerr != nil {
			h.log.Warn("failed to close USB device after scan", zap.Error(cerr))
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Bus != infos[j].Bus {
			return infos[i].Bus < infos[j].Bus
		}
		return infos[i].Address < infos[j].Address
	})
	return infos, nil
}

// gousbDevice is a lazily opened libusb device handle.
type gousbDevice struct {
	usb  *gousb.Context
	info USBDeviceInfo
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
}

func (d *gousbDevice) Info() USBDeviceInfo {
	return d.info
}

func (d *gousbDevice) Open(ctx context.Context) error {
	type result struct {
		dev *gousb.Device
		err error
	}
	done := make(chan result, 1)
	go func() {
		devs, err := d.usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
			return desc.Bus == d.info.Bus && desc.Address == d.info.Address
		})
		var opened *gousb.Device
		for _, dev := range devs {
			if opened == nil {
				opened = dev
				continue
			}
			dev.Close()
		}
		if opened == nil && err == nil {
			err = errors.New("device disconnected")
		}
		if opened != nil {
			err = nil
		}
		done <- result{dev: opened, err: err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		// Close the handle once libusb gives it back.
		go func() {
			if late := <-done; late.dev != nil {
				late.dev.Close()
			}
		}()
		return ctx.Err()
	}
	if r.err != nil {
		return r.err
	}

	// Kernel printer drivers (usblp) hold interface 0 otherwise.
	if err := r.dev.SetAutoDetach(true); err != nil {
		r.dev.Close()
		return fmt.Errorf("enable kernel driver auto-detach: %w", err)
	}
	d.dev = r.dev
	return nil
}

func (d *gousbDevice) Opened() bool {
	return d.dev != nil
}

func (d *gousbDevice) Configured() bool {
	if d.dev == nil {
		return false
	}
	n, err := d.dev.ActiveConfigNum()
	return err == nil && n > 0
}

func (d *gousbDevice) SelectConfiguration(value int) error {
	if d.dev == nil {
		return errors.New("device not open")
	}
	cfg, err := d.dev.Config(value)
	if err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

func (d *gousbDevice) ClaimInterface(number int) error {
	if d.dev == nil {
		return errors.New("device not open")
	}
	if d.cfg == nil {
		active, err := d.dev.ActiveConfigNum()
		if err != nil {
			return err
		}
		if err := d.SelectConfiguration(active); err != nil {
			return err
		}
	}
	intf, err := d.cfg.Interface(number, 0)
	if err != nil {
		return err
	}
	d.intf = intf
	return nil
}

func (d *gousbDevice) OutEndpoint() (int, bool) {
	if d.intf == nil {
		return 0, false
	}
	var outs []int
	for _, ep := range d.intf.Setting.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut {
			outs = append(outs, ep.Number)
		}
	}
	if len(outs) == 0 {
		return 0, false
	}
	sort.Ints(outs)
	return outs[0], true
}

func (d *gousbDevice) TransferOut(ctx context.Context, endpoint int, data []byte) (TransferStatus, error) {
	if d.intf == nil {
		return "", errors.New("interface not claimed")
	}
	ep, err := d.intf.OutEndpoint(endpoint)
	if err != nil {
		return "", err
	}
	n, err := ep.WriteContext(ctx, data)
	if err != nil {
		var status gousb.TransferStatus
		if errors.As(err, &status) {
			return TransferStatus(strings.ToLower(status.String())), nil
		}
		return "", err
	}
	if n < len(data) {
		return TransferStatus(fmt.Sprintf("short write (%d of %d bytes)", n, len(data))), nil
	}
	return TransferOK, nil
}

// Close releases the interface, the configuration and the device, in that order.
func (d *gousbDevice) Close() error {
	var errs []error
	if d.intf != nil {
		d.intf.Close()
		d.intf = nil
	}
	if d.cfg != nil {
		if err := d.cfg.Close(); err != nil {
			errs = append(errs, err)
		}
		d.cfg = nil
	}
	if d.dev != nil {
		if err := d.dev.Close(); err != nil {
			errs = append(errs, err)
		}
		d.dev = nil
	}
	return errors.Join(errs...)
}
