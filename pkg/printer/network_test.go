package printer

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkPrinter_Print(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	p := NewNetworkPrinter(ln.Addr().String(), time.Second, nil)
	require.NoError(t, p.Print(context.Background(), []byte("kitchen ticket")))

	select {
	case data := <-received:
		assert.Equal(t, []byte("kitchen ticket"), data)
	case <-time.After(2 * time.Second):
		t.Fatal("printer never received the job")
	}
	assert.Equal(t, TransportNetwork, p.Descriptor().Kind)
}

func TestNetworkPrinter_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	p := NewNetworkPrinter(addr, time.Second, nil)
	assert.ErrorIs(t, p.Print(context.Background(), []byte("x")), ErrDeviceBusy)
	assert.False(t, p.IsConnected(context.Background()))

	assert.ErrorIs(t, NewNetworkPrinter("", 0, nil).Print(context.Background(), nil), ErrNoDeviceAuthorized)
}
