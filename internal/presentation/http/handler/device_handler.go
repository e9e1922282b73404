package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kitchen-pos/pkg/printer"
)

// DeviceInventory is what the device endpoints need from printer.Inventory.
type DeviceInventory interface {
	DetectAll(ctx context.Context) []printer.Descriptor
	Find(ctx context.Context, id string) (printer.Descriptor, bool)
	TestConnection(ctx context.Context, d printer.Descriptor) bool
	RequestUSBPrinter(ctx context.Context, chooser printer.Chooser) (printer.Descriptor, error)
	RequestSerialPrinter(ctx context.Context, chooser printer.Chooser) (printer.Descriptor, error)
	DiagnoseSerial(ctx context.Context, d printer.Descriptor, bauds []int) ([]printer.BaudProbe, error)
}

// DeviceHandler lists, authorizes and tests attached printers.
type DeviceHandler struct {
	inventory DeviceInventory
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(inventory DeviceInventory) *DeviceHandler {
	return &DeviceHandler{inventory: inventory}
}

// List returns the authorized printers attached now.
func (h *DeviceHandler) List(c *gin.Context) {
	response.OK(c, "Printers retrieved", h.inventory.DetectAll(c.Request.Context()))
}

// Test sends the init command to one printer.
func (h *DeviceHandler) Test(c *gin.Context) {
	var req request.TestConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	d, ok := h.inventory.Find(c.Request.Context(), req.PrinterID)
	if !ok {
		response.NotFound(c, "Printer not found")
		return
	}
	connected := h.inventory.TestConnection(c.Request.Context(), d)
	response.OK(c, "Printer connection tested", gin.H{"printer": d, "connected": connected})
}

// RequestUSB authorizes a USB printer.
func (h *DeviceHandler) RequestUSB(c *gin.Context) {
	h.request(c, h.inventory.RequestUSBPrinter)
}

// RequestSerial authorizes a serial printer.
func (h *DeviceHandler) RequestSerial(c *gin.Context) {
	h.request(c, h.inventory.RequestSerialPrinter)
}

func (h *DeviceHandler) request(c *gin.Context, fn func(context.Context, printer.Chooser) (printer.Descriptor, error)) {
	var req request.RequestDeviceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}

	d, err := fn(c.Request.Context(), chooserFor(req.Device))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, "Printer authorized", d)
}

// chooserFor stands in for the picker dialog: a "vvvv:pppp" pair or a
// printer ID selects that device, empty selects the first candidate.
func chooserFor(device string) printer.Chooser {
	if device == "" {
		return printer.ChooseFirst()
	}
	if id, err := printer.ParseUSBID(device); err == nil {
		return printer.ChooseMatching("", &id)
	}
	return printer.ChooseMatching(device, nil)
}

// DiagnoseSerial prints a test line at each baud rate.
func (h *DeviceHandler) DiagnoseSerial(c *gin.Context) {
	var req request.DiagnoseSerialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	d, ok := h.inventory.Find(c.Request.Context(), req.PrinterID)
	if !ok {
		response.NotFound(c, "Printer not found")
		return
	}
	if d.Kind != printer.TransportSerial {
		response.BadRequest(c, "Printer is not a serial printer")
		return
	}

	probes, err := h.inventory.DiagnoseSerial(c.Request.Context(), d, req.BaudRates)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, "Serial diagnostics completed", gin.H{"printer": d, "probes": probes})
}
