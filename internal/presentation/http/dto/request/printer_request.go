package request

// ReceiptConfigRequest overrides the stored receipt settings for one call.
type ReceiptConfigRequest struct {
	HeaderText string  `json:"header_text" binding:"max=64"`
	FooterText string  `json:"footer_text" binding:"max=128"`
	ShowQRCode bool    `json:"show_qr_code"`
	QRCodeData *string `json:"qr_code_data" binding:"omitempty,max=512"`
	PrintWidth string  `json:"print_width" binding:"required,oneof=58mm 80mm"`
}

// PrintReceiptRequest asks for an existing order to be printed.
type PrintReceiptRequest struct {
	OrderID    string                `json:"order_id" binding:"required,uuid"`
	Strategy   string                `json:"strategy" binding:"omitempty,oneof=auto usb serial network browser"`
	ByCategory *bool                 `json:"by_category"`
	Config     *ReceiptConfigRequest `json:"config"`
}

// PreviewRequest renders an existing order without printing it.
type PreviewRequest struct {
	OrderID string                `json:"order_id" binding:"required,uuid"`
	Config  *ReceiptConfigRequest `json:"config"`
}

// TestPrintRequest prints a sample receipt.
type TestPrintRequest struct {
	Strategy string `json:"strategy" binding:"omitempty,oneof=auto usb serial network browser"`
}

// TestConnectionRequest sends the init command to one detected printer.
type TestConnectionRequest struct {
	PrinterID string `json:"printer_id" binding:"required"`
}

// RequestDeviceRequest authorizes a printer. Device is a printer ID or a
// "vvvv:pppp" USB pair; empty picks the first candidate.
type RequestDeviceRequest struct {
	Device string `json:"device"`
}

// DiagnoseSerialRequest probes baud rates on a serial printer.
type DiagnoseSerialRequest struct {
	PrinterID string `json:"printer_id" binding:"required"`
	BaudRates []int  `json:"baud_rates"`
}

// AuditFilterRequest filters the print audit log.
type AuditFilterRequest struct {
	OrderID string `form:"order_id" binding:"omitempty,uuid"`
	Success *bool  `form:"success"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
