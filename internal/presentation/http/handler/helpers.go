package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kitchen-pos/pkg/apperror"
	"github.com/sangkips/kitchen-pos/pkg/printer"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// respondError writes err, mapping device errors to their HTTP status and
// user guidance.
func respondError(c *gin.Context, err error) {
	var perr *printer.Error
	if errors.As(err, &perr) && !apperror.IsAppError(err) {
		response.Error(c, apperror.NewPrinterError(err))
		return
	}
	response.Error(c, err)
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

func toReceiptConfig(req *request.ReceiptConfigRequest) *entity.ReceiptConfig {
	if req == nil {
		return nil
	}
	return &entity.ReceiptConfig{
		HeaderText: req.HeaderText,
		FooterText: req.FooterText,
		ShowQRCode: req.ShowQRCode,
		QRCodeData: req.QRCodeData,
		PrintWidth: enum.PrintWidth(req.PrintWidth),
	}
}
