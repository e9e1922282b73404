package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kitchen-pos/internal/application/service"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/response"
)

// SettingsHandler handles receipt settings requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetReceiptSettings returns the receipt settings
func (h *SettingsHandler) GetReceiptSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt settings retrieved successfully", settings)
}

// UpdateReceiptSettings replaces the receipt settings
func (h *SettingsHandler) UpdateReceiptSettings(c *gin.Context) {
	var req request.UpdateReceiptSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := &service.UpdateSettingsInput{
		HeaderText: req.HeaderText,
		FooterText: req.FooterText,
		ShowQRCode: req.ShowQRCode,
		QRCodeData: req.QRCodeData,
		PrintWidth: req.PrintWidth,
	}
	if userID := GetUserID(c); userID != nil {
		input.UserID = *userID
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt settings updated successfully", settings)
}
