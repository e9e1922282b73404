package printer

import (
	"context"
	"errors"
	"sync"
)

type fakeUSBDevice struct {
	info USBDeviceInfo

	opened     bool
	configured bool
	noEndpoint bool
	blockOpen  bool

	openErr     error
	configErr   error
	claimErr    error
	transferErr error
	status      TransferStatus
	closeErr    error

	opens, configs, claims, transfers, closes int
	written                                   []byte
}

func newFakeUSBDevice(vid, pid uint16) *fakeUSBDevice {
	return &fakeUSBDevice{
		info:   USBDeviceInfo{VendorID: vid, ProductID: pid, Manufacturer: "EPSON", Product: "TM-T20"},
		status: TransferOK,
	}
}

func (d *fakeUSBDevice) Info() USBDeviceInfo { return d.info }

func (d *fakeUSBDevice) Open(ctx context.Context) error {
	d.opens++
	if d.blockOpen {
		<-ctx.Done()
		return ctx.Err()
	}
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = true
	return nil
}

func (d *fakeUSBDevice) Opened() bool     { return d.opened }
func (d *fakeUSBDevice) Configured() bool { return d.configured }

func (d *fakeUSBDevice) SelectConfiguration(value int) error {
	d.configs++
	if d.configErr != nil {
		return d.configErr
	}
	d.configured = value == 1
	return nil
}

func (d *fakeUSBDevice) ClaimInterface(number int) error {
	d.claims++
	return d.claimErr
}

func (d *fakeUSBDevice) OutEndpoint() (int, bool) {
	if d.noEndpoint {
		return 0, false
	}
	return 1, true
}

func (d *fakeUSBDevice) TransferOut(ctx context.Context, endpoint int, data []byte) (TransferStatus, error) {
	d.transfers++
	if d.transferErr != nil {
		return "", d.transferErr
	}
	d.written = append([]byte(nil), data...)
	return d.status, nil
}

func (d *fakeUSBDevice) Close() error {
	d.closes++
	d.opened = false
	return d.closeErr
}

type fakeUSBHost struct {
	granted     []*fakeUSBDevice
	requestable []*fakeUSBDevice
	enumErr     error
	requests    int
}

func (h *fakeUSBHost) Devices(ctx context.Context) ([]USBDevice, error) {
	if h.enumErr != nil {
		return nil, h.enumErr
	}
	out := make([]USBDevice, 0, len(h.granted))
	for _, d := range h.granted {
		out = append(out, d)
	}
	return out, nil
}

func (h *fakeUSBHost) RequestDevice(ctx context.Context, filters []USBFilter, chooser Chooser) (USBDevice, error) {
	h.requests++
	var candidates []Descriptor
	var matched []*fakeUSBDevice
	for _, d := range h.requestable {
		for _, f := range filters {
			if f.Matches(d.info.ID()) {
				candidates = append(candidates, d.info.Descriptor())
				matched = append(matched, d)
				break
			}
		}
	}
	chosen, err := chooser.Choose(ctx, candidates)
	if err != nil {
		return nil, err
	}
	for _, d := range matched {
		if d.info.Descriptor().ID == chosen.ID {
			h.granted = append(h.granted, d)
			return d, nil
		}
	}
	return nil, errors.New("chosen device vanished")
}

type fakeSerialPort struct {
	info SerialPortInfo

	openErr   error
	writerErr error
	writeErr  error
	closeErr  error

	mu                               sync.Mutex
	open                             bool
	locked                           bool
	mode                             SerialMode
	opens, closes, writes, releases  int
	written                          []byte
	lockedAtClose                    bool
}

func newFakeSerialPort(name string) *fakeSerialPort {
	return &fakeSerialPort{info: SerialPortInfo{Name: name}}
}

func (p *fakeSerialPort) Info() SerialPortInfo { return p.info }

func (p *fakeSerialPort) Open(ctx context.Context, mode SerialMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opens++
	p.mode = mode
	if p.openErr != nil {
		return p.openErr
	}
	p.open = true
	return nil
}

func (p *fakeSerialPort) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *fakeSerialPort) Writer() (PortWriter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writerErr != nil {
		return nil, p.writerErr
	}
	if p.locked {
		return nil, errors.New("locked")
	}
	p.locked = true
	return &fakePortWriter{p: p}, nil
}

func (p *fakeSerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	p.lockedAtClose = p.locked
	p.open = false
	return p.closeErr
}

type fakePortWriter struct {
	p *fakeSerialPort
}

func (w *fakePortWriter) Write(ctx context.Context, data []byte) error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.writes++
	if w.p.writeErr != nil {
		return w.p.writeErr
	}
	w.p.written = append(w.p.written, data...)
	return nil
}

func (w *fakePortWriter) ReleaseLock() {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.releases++
	w.p.locked = false
}

type fakeSerialHost struct {
	granted     []*fakeSerialPort
	requestable []*fakeSerialPort
	enumErr     error
	requests    int
}

func (h *fakeSerialHost) Ports(ctx context.Context) ([]SerialPort, error) {
	if h.enumErr != nil {
		return nil, h.enumErr
	}
	out := make([]SerialPort, 0, len(h.granted))
	for _, p := range h.granted {
		out = append(out, p)
	}
	return out, nil
}

func (h *fakeSerialHost) RequestPort(ctx context.Context, chooser Chooser) (SerialPort, error) {
	h.requests++
	candidates := make([]Descriptor, 0, len(h.requestable))
	for _, p := range h.requestable {
		candidates = append(candidates, p.info.Descriptor())
	}
	chosen, err := chooser.Choose(ctx, candidates)
	if err != nil {
		return nil, err
	}
	for _, p := range h.requestable {
		if p.info.Descriptor().ID == chosen.ID {
			h.granted = append(h.granted, p)
			return p, nil
		}
	}
	return nil, errors.New("chosen port vanished")
}
