package printer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialPrinter_PrintSuccess(t *testing.T) {
	port := newFakeSerialPort("/dev/ttyUSB0")
	p := NewSerialPrinter(&fakeSerialHost{granted: []*fakeSerialPort{port}}, SerialOptions{})

	require.NoError(t, p.Print(context.Background(), []byte("receipt")))

	assert.Equal(t, SerialMode{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: ParityNone, FlowControl: FlowControlNone}, port.mode)
	assert.Equal(t, []byte("receipt"), port.written)
	assert.Equal(t, 1, port.releases)
	assert.Equal(t, 1, port.closes)
	assert.False(t, port.lockedAtClose, "writer lock released before close")
}

func TestSerialPrinter_WriteErrorReleasesLockAndCloses(t *testing.T) {
	port := newFakeSerialPort("COM3")
	port.writeErr = errors.New("framing error")
	p := NewSerialPrinter(&fakeSerialHost{granted: []*fakeSerialPort{port}}, SerialOptions{BaudRate: 19200})

	err := p.Print(context.Background(), []byte("receipt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, 19200, port.mode.BaudRate)
	assert.Equal(t, 1, port.releases)
	assert.Equal(t, 1, port.closes)
	assert.False(t, port.lockedAtClose)
}

func TestSerialPrinter_OpenFailureDoesNotClose(t *testing.T) {
	port := newFakeSerialPort("/dev/ttyS0")
	port.openErr = errors.New("resource busy")
	p := NewSerialPrinter(&fakeSerialHost{granted: []*fakeSerialPort{port}}, SerialOptions{})

	err := p.Print(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrDeviceBusy)
	assert.Zero(t, port.closes, "a port that never opened has nothing to close")
}

func TestSerialPrinter_NoWriter(t *testing.T) {
	port := newFakeSerialPort("/dev/ttyS0")
	port.writerErr = errors.New("stream not writable")
	p := NewSerialPrinter(&fakeSerialHost{granted: []*fakeSerialPort{port}}, SerialOptions{})

	err := p.Print(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNoOutputChannel)
	assert.Equal(t, 1, port.closes)
}

func TestSerialPrinter_Locate(t *testing.T) {
	t.Run("no host", func(t *testing.T) {
		p := NewSerialPrinter(nil, SerialOptions{})
		assert.ErrorIs(t, p.Print(context.Background(), nil), ErrCapabilityUnsupported)
	})

	t.Run("nothing granted and no chooser", func(t *testing.T) {
		p := NewSerialPrinter(&fakeSerialHost{}, SerialOptions{})
		assert.ErrorIs(t, p.Print(context.Background(), nil), ErrNoDeviceAuthorized)
	})

	t.Run("requests a port", func(t *testing.T) {
		port := newFakeSerialPort("/dev/ttyACM0")
		host := &fakeSerialHost{requestable: []*fakeSerialPort{port}}
		p := NewSerialPrinter(host, SerialOptions{Chooser: ChooseFirst()})

		require.NoError(t, p.Print(context.Background(), []byte("x")))
		assert.Equal(t, 1, host.requests)
		assert.Equal(t, 1, port.opens)
	})

	t.Run("dismissed picker", func(t *testing.T) {
		host := &fakeSerialHost{requestable: []*fakeSerialPort{newFakeSerialPort("/dev/ttyACM0")}}
		p := NewSerialPrinter(host, SerialOptions{Chooser: DenyChooser()})
		assert.ErrorIs(t, p.Print(context.Background(), nil), ErrSelectionCancelled)
	})

	t.Run("explicit port is not requested", func(t *testing.T) {
		host := &fakeSerialHost{
			granted:     []*fakeSerialPort{newFakeSerialPort("/dev/ttyUSB0")},
			requestable: []*fakeSerialPort{newFakeSerialPort("/dev/ttyUSB1")},
		}
		p := NewSerialPrinter(host, SerialOptions{PortName: "/dev/ttyUSB1", Chooser: ChooseFirst()})
		assert.ErrorIs(t, p.Print(context.Background(), nil), ErrNoDeviceAuthorized)
		assert.Zero(t, host.requests)
	})

	t.Run("explicit port picked among granted", func(t *testing.T) {
		a, b := newFakeSerialPort("COM1"), newFakeSerialPort("COM4")
		p := NewSerialPrinter(&fakeSerialHost{granted: []*fakeSerialPort{a, b}}, SerialOptions{PortName: "com4"})
		require.NoError(t, p.Print(context.Background(), []byte("x")))
		assert.Zero(t, a.opens)
		assert.Equal(t, 1, b.opens)
	})
}

func TestValidBaudRate(t *testing.T) {
	for _, b := range []int{9600, 19200, 38400, 57600, 115200} {
		assert.True(t, ValidBaudRate(b), b)
	}
	assert.False(t, ValidBaudRate(4800))
	assert.Equal(t, DefaultBaudRate, DefaultSerialMode(0).BaudRate)
}
