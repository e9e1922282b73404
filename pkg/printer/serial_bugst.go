package printer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// BugstHost implements SerialHost with go.bug.st/serial.
type BugstHost struct {
	grants *Grants
	log    *zap.Logger
}

// NewBugstHost creates a serial host that authorizes ports through grants.
func NewBugstHost(grants *Grants, log *zap.Logger) *BugstHost {
	if log == nil {
		log = zap.NewNop()
	}
	return &BugstHost{grants: grants, log: log.Named("serial")}
}

// Ports lists attached, granted ports.
func (h *BugstHost) Ports(ctx context.Context) ([]SerialPort, error) {
	infos, err := h.list(ctx)
	if err != nil {
		return nil, err
	}
	var ports []SerialPort
	for _, info := range infos {
		if h.grants.HasSerial(info.Name) {
			ports = append(ports, &bugstPort{info: info})
		}
	}
	return ports, nil
}

// RequestPort offers every attached port to chooser and grants the chosen one.
func (h *BugstHost) RequestPort(ctx context.Context, chooser Chooser) (SerialPort, error) {
	infos, err := h.list(ctx)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, newError(KindNoDeviceAuthorized, "request port", errors.New("no serial ports attached"))
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
			h.grants.GrantSerial(info.Name)
			h.log.Info("serial printer granted", zap.String("port", info.Name))
			return &bugstPort{info: info}, nil
		}
	}
	return nil, newError(KindSelectionCancelled, "request port", fmt.Errorf("unknown port %q", chosen.ID))
}

func (h *BugstHost) list(ctx context.Context) ([]SerialPortInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []SerialPortInfo
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		for _, d := range details {
			info := SerialPortInfo{Name: d.Name, Product: d.Product, IsUSB: d.IsUSB}
			if d.IsUSB {
				info.VendorID = parseHexID(d.VID)
				info.ProductID = parseHexID(d.PID)
			}
			infos = append(infos, info)
		}
	} else {
		h.log.Debug("detailed port enumeration failed, using plain list", zap.Error(err))
		names, lerr := serial.GetPortsList()
		if lerr != nil {
			return nil, newError(KindCapabilityUnsupported, "list serial ports", lerr)
		}
		for _, name := range names {
			infos = append(infos, SerialPortInfo{Name: name})
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func parseHexID(s string) uint16 {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

// bugstPort guards one go.bug.st port handle and its writer lock.
type bugstPort struct {
	info SerialPortInfo

	mu     sync.Mutex
	port   serial.Port
	locked bool
}

func (p *bugstPort) Info() SerialPortInfo {
	return p.info
}

func (p *bugstPort) Open(ctx context.Context, mode SerialMode) error {
	if mode.Parity != ParityNone || mode.FlowControl != FlowControlNone {
		return fmt.Errorf("unsupported line settings: parity %s, flow control %s", mode.Parity, mode.FlowControl)
	}
	stopBits := serial.OneStopBit
	if mode.StopBits == 2 {
		stopBits = serial.TwoStopBits
	}

	type result struct {
		port serial.Port
		err  error
	}
	done := make(chan result, 1)
	go func() {
		sp, err := serial.Open(p.info.Name, &serial.Mode{
			BaudRate: mode.BaudRate,
			DataBits: mode.DataBits,
			Parity:   serial.NoParity,
			StopBits: stopBits,
		})
		done <- result{port: sp, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return r.err
		}
		p.mu.Lock()
		p.port = r.port
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		go func() {
			if late := <-done; late.port != nil {
				late.port.Close()
			}
		}()
		return ctx.Err()
	}
}

func (p *bugstPort) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port != nil
}

func (p *bugstPort) Writer() (PortWriter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil, errors.New("port is not open")
	}
	if p.locked {
		return nil, errors.New("output stream is locked by another writer")
	}
	p.locked = true
	return &bugstWriter{p: p, port: p.port}, nil
}

func (p *bugstPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

type bugstWriter struct {
	p    *bugstPort
	port serial.Port
	once sync.Once
}

func (w *bugstWriter) Write(ctx context.Context, data []byte) error {
	return runContext(ctx, func() error {
		for len(data) > 0 {
			n, err := w.port.Write(data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
		return w.port.Drain()
	})
}

func (w *bugstWriter) ReleaseLock() {
	w.once.Do(func() {
		w.p.mu.Lock()
		w.p.locked = false
		w.p.mu.Unlock()
	})
}
