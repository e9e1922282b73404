package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// NetworkPrinter sends jobs over raw TCP, e.g. "192.168.1.100:9100".
// The connection is dialled per job and closed afterwards.
type NetworkPrinter struct {
	address string
	timeout time.Duration
	dialer  net.Dialer
	log     *zap.Logger
}

// NewNetworkPrinter creates a printer that connects via TCP.
// Address should include port, e.g. "192.168.1.100:9100".
func NewNetworkPrinter(address string, timeout time.Duration, log *zap.Logger) *NetworkPrinter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NetworkPrinter{address: address, timeout: timeout, log: log.Named("network")}
}

func (p *NetworkPrinter) Print(ctx context.Context, data []byte) error {
	if p.address == "" {
		return newError(KindNoDeviceAuthorized, "network", errors.New("no printer address configured"))
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return classify(ctx, KindDeviceBusy, "connect "+p.address, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.log.Warn("failed to close printer connection", zap.String("address", p.address), zap.Error(cerr))
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	n, err := conn.Write(data)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return newError(KindDeviceTimeout, "write "+p.address, err)
		}
		return classify(ctx, KindTransferFailed, "write "+p.address, err)
	}
	if n < len(data) {
		return newError(KindTransferFailed, "write "+p.address, fmt.Errorf("short write (%d of %d bytes)", n, len(data)))
	}
	return nil
}

func (p *NetworkPrinter) IsConnected(ctx context.Context) bool {
	if p.address == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p *NetworkPrinter) Descriptor() Descriptor {
	return Descriptor{
		ID:   "network:" + p.address,
		Kind: TransportNetwork,
		Name: "Network printer " + p.address,
	}
}
