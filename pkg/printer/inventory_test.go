package printer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory_DetectAllWithoutCapabilities(t *testing.T) {
	inv := NewInventory(nil, nil, InventoryConfig{})

	found := inv.DetectAll(context.Background())
	assert.NotNil(t, found)
	assert.Empty(t, found)
	assert.False(t, inv.USBSupported())
	assert.False(t, inv.SerialSupported())
}

func TestInventory_DetectAllOrdersUSBFirst(t *testing.T) {
	usb := &fakeUSBHost{granted: []*fakeUSBDevice{
		newFakeUSBDevice(0x0519, 0x0003),
		newFakeUSBDevice(0x046d, 0xc077), // mouse, filtered
		newFakeUSBDevice(0x04b8, 0x0202),
	}}
	serial := &fakeSerialHost{granted: []*fakeSerialPort{newFakeSerialPort("/dev/ttyUSB1"), newFakeSerialPort("/dev/ttyUSB0")}}
	inv := NewInventory(usb, serial, InventoryConfig{})

	found := inv.DetectAll(context.Background())
	ids := make([]string, len(found))
	for i, d := range found {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"usb:04b8:0202", "usb:0519:0003", "serial:/dev/ttyUSB0", "serial:/dev/ttyUSB1"}, ids)
}

func TestInventory_DetectUSBHonoursConfiguredVendors(t *testing.T) {
	usb := &fakeUSBHost{granted: []*fakeUSBDevice{
		newFakeUSBDevice(0x04b8, 0x0202),
		newFakeUSBDevice(0x1a86, 0x7584), // granted, vendor not listed
	}}
	inv := NewInventory(usb, nil, InventoryConfig{VendorIDs: []uint16{0x04b8}})

	found := inv.DetectAll(context.Background())
	require.Len(t, found, 1)
	assert.Equal(t, "usb:04b8:0202", found[0].ID)

	inv = NewInventory(usb, nil, InventoryConfig{VendorIDs: append([]uint16{0x1a86}, ThermalVendorIDs...)})
	assert.Len(t, inv.DetectAll(context.Background()), 2)
}

func TestInventory_EnumerationErrorsYieldEmpty(t *testing.T) {
	inv := NewInventory(
		&fakeUSBHost{enumErr: errors.New("libusb: io")},
		&fakeSerialHost{enumErr: errors.New("permission denied")},
		InventoryConfig{},
	)
	assert.Empty(t, inv.DetectAll(context.Background()))
}

func TestInventory_TestConnection(t *testing.T) {
	good := newFakeUSBDevice(0x04b8, 0x0202)
	bad := newFakeUSBDevice(0x0519, 0x0003)
	bad.claimErr = errors.New("busy")
	port := newFakeSerialPort("COM3")
	inv := NewInventory(
		&fakeUSBHost{granted: []*fakeUSBDevice{good, bad}},
		&fakeSerialHost{granted: []*fakeSerialPort{port}},
		InventoryConfig{},
	)
	ctx := context.Background()

	assert.True(t, inv.TestConnection(ctx, good.info.Descriptor()))
	assert.Equal(t, InitCommand, good.written)
	assert.False(t, inv.TestConnection(ctx, bad.info.Descriptor()))
	assert.True(t, inv.TestConnection(ctx, port.info.Descriptor()))
	assert.False(t, inv.TestConnection(ctx, Descriptor{ID: "x", Kind: "bluetooth"}))
}

type panickingHost struct{}

func (panickingHost) Devices(ctx context.Context) ([]USBDevice, error) { panic("driver crashed") }
func (panickingHost) RequestDevice(ctx context.Context, filters []USBFilter, chooser Chooser) (USBDevice, error) {
	panic("driver crashed")
}

func TestInventory_TestConnectionRecoversPanics(t *testing.T) {
	inv := NewInventory(panickingHost{}, nil, InventoryConfig{})
	assert.False(t, inv.TestConnection(context.Background(), Descriptor{ID: "usb:04b8:0202", Kind: TransportUSB}))
}

func TestInventory_RequestPrinters(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported", func(t *testing.T) {
		inv := NewInventory(nil, nil, InventoryConfig{})
		_, err := inv.RequestUSBPrinter(ctx, ChooseFirst())
		assert.ErrorIs(t, err, ErrCapabilityUnsupported)
		_, err = inv.RequestSerialPrinter(ctx, ChooseFirst())
		assert.ErrorIs(t, err, ErrCapabilityUnsupported)
	})

	t.Run("usb granted then detected", func(t *testing.T) {
		usb := &fakeUSBHost{requestable: []*fakeUSBDevice{newFakeUSBDevice(0x1504, 0x0006)}}
		inv := NewInventory(usb, nil, InventoryConfig{})
		require.Empty(t, inv.DetectAll(ctx))

		d, err := inv.RequestUSBPrinter(ctx, ChooseMatching("", &USBID{VendorID: 0x1504, ProductID: 0x0006}))
		require.NoError(t, err)
		assert.Equal(t, "usb:1504:0006", d.ID)
		assert.Len(t, inv.DetectAll(ctx), 1)
	})

	t.Run("vendor filter hides other devices", func(t *testing.T) {
		usb := &fakeUSBHost{requestable: []*fakeUSBDevice{newFakeUSBDevice(0x046d, 0xc077)}}
		inv := NewInventory(usb, nil, InventoryConfig{})
		_, err := inv.RequestUSBPrinter(ctx, ChooseFirst())
		assert.ErrorIs(t, err, ErrSelectionCancelled)
	})

	t.Run("serial cancelled", func(t *testing.T) {
		serial := &fakeSerialHost{requestable: []*fakeSerialPort{newFakeSerialPort("COM1")}}
		inv := NewInventory(nil, serial, InventoryConfig{})
		_, err := inv.RequestSerialPrinter(ctx, DenyChooser())
		assert.ErrorIs(t, err, ErrSelectionCancelled)
	})
}

func TestInventory_DiagnoseSerial(t *testing.T) {
	port := newFakeSerialPort("/dev/ttyUSB0")
	inv := NewInventory(nil, &fakeSerialHost{granted: []*fakeSerialPort{port}}, InventoryConfig{})

	probes, err := inv.DiagnoseSerial(context.Background(), port.info.Descriptor(), []int{9600, 4800, 115200})
	require.NoError(t, err)
	require.Len(t, probes, 3)
	assert.True(t, probes[0].OK)
	assert.False(t, probes[1].OK)
	assert.Contains(t, probes[1].Error, "unsupported baud rate")
	assert.True(t, probes[2].OK)
	assert.Equal(t, 115200, port.mode.BaudRate)
	assert.Contains(t, string(port.written), "Baud test 9600")
	assert.Contains(t, string(port.written), "Baud test 115200")

	_, err = inv.DiagnoseSerial(context.Background(), Descriptor{ID: "usb:04b8:0202", Kind: TransportUSB}, nil)
	assert.Error(t, err)
}

func TestInventory_DiagnoseSerialDefaultsToAllRates(t *testing.T) {
	port := newFakeSerialPort("COM2")
	inv := NewInventory(nil, &fakeSerialHost{granted: []*fakeSerialPort{port}}, InventoryConfig{})

	probes, err := inv.DiagnoseSerial(context.Background(), port.info.Descriptor(), nil)
	require.NoError(t, err)
	assert.Len(t, probes, len(SupportedBaudRates))
	assert.Equal(t, len(SupportedBaudRates), port.opens)
}
