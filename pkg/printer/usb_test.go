package printer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSBPrinter_PrintSuccess(t *testing.T) {
	dev := newFakeUSBDevice(0x04b8, 0x0202)
	host := &fakeUSBHost{granted: []*fakeUSBDevice{dev}}
	p := NewUSBPrinter(host, USBOptions{})

	err := p.Print(context.Background(), []byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, 1, dev.opens)
	assert.Equal(t, 1, dev.configs, "unconfigured device gets configuration 1")
	assert.Equal(t, 1, dev.claims)
	assert.Equal(t, []byte("hello"), dev.written)
	assert.Equal(t, 1, dev.closes)
}

func TestUSBPrinter_SkipsOpenAndConfigureWhenReady(t *testing.T) {
	dev := newFakeUSBDevice(0x04b8, 0x0202)
	dev.opened = true
	dev.configured = true
	p := NewUSBPrinter(&fakeUSBHost{granted: []*fakeUSBDevice{dev}}, USBOptions{})

	require.NoError(t, p.Print(context.Background(), []byte{0x1b, '@'}))
	assert.Zero(t, dev.opens)
	assert.Zero(t, dev.configs)
	assert.Equal(t, 1, dev.closes)
}

func TestUSBPrinter_TransferErrorStillClosesOnce(t *testing.T) {
	dev := newFakeUSBDevice(0x04b8, 0x0202)
	dev.transferErr = errors.New("pipe broke mid-transfer")
	dev.closeErr = errors.New("close failed too")
	p := NewUSBPrinter(&fakeUSBHost{granted: []*fakeUSBDevice{dev}}, USBOptions{})

	err := p.Print(context.Background(), []byte("receipt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Contains(t, err.Error(), "pipe broke")
	assert.NotContains(t, err.Error(), "close failed", "close errors never replace the outcome")
	assert.Equal(t, 1, dev.closes)
}

func TestUSBPrinter_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *fakeUSBDevice)
		want  error
	}{
		{"open fails", func(d *fakeUSBDevice) { d.openErr = errors.New("access denied") }, ErrDeviceBusy},
		{"configure fails", func(d *fakeUSBDevice) { d.configErr = errors.New("busy") }, ErrDeviceBusy},
		{"claim fails", func(d *fakeUSBDevice) { d.claimErr = errors.New("claimed by usblp") }, ErrDeviceBusy},
		{"no out endpoint", func(d *fakeUSBDevice) { d.noEndpoint = true }, ErrNoOutputChannel},
		{"stall status", func(d *fakeUSBDevice) { d.status = "stall" }, ErrTransferFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeUSBDevice(0x0519, 0x0003)
			tt.setup(dev)
			p := NewUSBPrinter(&fakeUSBHost{granted: []*fakeUSBDevice{dev}}, USBOptions{})

			err := p.Print(context.Background(), []byte("x"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, dev.closes)
		})
	}
}

func TestUSBPrinter_StatusCarriedInError(t *testing.T) {
	dev := newFakeUSBDevice(0x0519, 0x0003)
	dev.status = "babble"
	p := NewUSBPrinter(&fakeUSBHost{granted: []*fakeUSBDevice{dev}}, USBOptions{})

	err := p.Print(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"babble"`)
}

func TestUSBPrinter_NoHostIsUnsupported(t *testing.T) {
	p := NewUSBPrinter(nil, USBOptions{})
	err := p.Print(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrCapabilityUnsupported)
	assert.False(t, p.IsConnected(context.Background()))
}

func TestUSBPrinter_IgnoresForeignVendors(t *testing.T) {
	mouse := newFakeUSBDevice(0x046d, 0xc077)
	p := NewUSBPrinter(&fakeUSBHost{granted: []*fakeUSBDevice{mouse}}, USBOptions{})

	err := p.Print(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNoDeviceAuthorized)
	assert.Zero(t, mouse.opens)
}

func TestUSBPrinter_RequestsAuthorization(t *testing.T) {
	dev := newFakeUSBDevice(0x04b8, 0x0e15)
	host := &fakeUSBHost{requestable: []*fakeUSBDevice{dev}}
	p := NewUSBPrinter(host, USBOptions{Chooser: ChooseFirst()})

	require.NoError(t, p.Print(context.Background(), []byte("x")))
	assert.Equal(t, 1, host.requests)
	assert.Len(t, host.granted, 1)
	assert.True(t, p.IsConnected(context.Background()))
}

func TestUSBPrinter_CancelledSelection(t *testing.T) {
	dev := newFakeUSBDevice(0x04b8, 0x0e15)
	host := &fakeUSBHost{requestable: []*fakeUSBDevice{dev}}
	p := NewUSBPrinter(host, USBOptions{Chooser: DenyChooser()})

	err := p.Print(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelectionCancelled)
	assert.NotErrorIs(t, err, ErrNoDeviceAuthorized)
	assert.Equal(t, "no device selected", UserMessage(KindOf(err)))
	assert.Zero(t, dev.opens)
}

func TestUSBPrinter_PinnedDeviceNeverPrompts(t *testing.T) {
	first := newFakeUSBDevice(0x04b8, 0x0202)
	second := newFakeUSBDevice(0x0519, 0x0003)
	host := &fakeUSBHost{granted: []*fakeUSBDevice{first, second}}
	p := NewUSBPrinter(host, USBOptions{DeviceID: "usb:0519:0003", Chooser: ChooseFirst()})

	require.NoError(t, p.Print(context.Background(), []byte("x")))
	assert.Zero(t, first.opens)
	assert.Equal(t, 1, second.transfers)

	p = NewUSBPrinter(host, USBOptions{DeviceID: "usb:0416:5011", Chooser: ChooseFirst()})
	assert.ErrorIs(t, p.Print(context.Background(), []byte("x")), ErrNoDeviceAuthorized)
	assert.Zero(t, host.requests)
}

func TestUSBPrinter_OpenTimeout(t *testing.T) {
	dev := newFakeUSBDevice(0x04b8, 0x0202)
	dev.blockOpen = true
	p := NewUSBPrinter(&fakeUSBHost{granted: []*fakeUSBDevice{dev}}, USBOptions{Timeout: 20 * time.Millisecond})

	err := p.Print(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceTimeout)
	assert.Equal(t, 1, dev.closes)
}

func TestUSBDeviceInfo_Descriptor(t *testing.T) {
	info := USBDeviceInfo{VendorID: 0x04b8, ProductID: 0x0202, Manufacturer: "EPSON", Product: "TM-T88V", SerialNumber: "X1"}
	d := info.Descriptor()
	assert.Equal(t, "usb:04b8:0202:X1", d.ID)
	assert.Equal(t, "EPSON TM-T88V", d.Name)
	assert.Equal(t, TransportUSB, d.Kind)
	assert.True(t, d.Connected)

	bare := USBDeviceInfo{VendorID: 0x0416, ProductID: 0x5011}.Descriptor()
	assert.Equal(t, "usb:0416:5011", bare.ID)
	assert.Equal(t, "USB printer 0416:5011", bare.Name)
}

func TestParseUSBID(t *testing.T) {
	id, err := ParseUSBID(" 04B8:0202 ")
	require.NoError(t, err)
	assert.Equal(t, USBID{VendorID: 0x04b8, ProductID: 0x0202}, id)

	for _, bad := range []string{"", "04b8", "zz:0202", "04b8:10000"} {
		_, err := ParseUSBID(bad)
		assert.Error(t, err, bad)
	}
}
