package request

// UpdateReceiptSettingsRequest replaces the stored receipt settings.
type UpdateReceiptSettingsRequest struct {
	HeaderText string  `json:"header_text" binding:"max=64"`
	FooterText string  `json:"footer_text" binding:"max=128"`
	ShowQRCode bool    `json:"show_qr_code"`
	QRCodeData *string `json:"qr_code_data" binding:"omitempty,max=512"`
	PrintWidth string  `json:"print_width" binding:"required,oneof=58mm 80mm"`
}
