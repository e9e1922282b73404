package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"github.com/sangkips/kitchen-pos/pkg/apperror"
)

// SettingsService handles the deployment's receipt settings
type SettingsService struct {
	settingsRepo repository.ReceiptSettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo repository.ReceiptSettingsRepository) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
	}
}

// GetSettings retrieves the receipt settings, creating defaults if none exist
func (s *SettingsService) GetSettings(ctx context.Context) (*entity.ReceiptSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if settings == nil {
		settings = &entity.ReceiptSettings{ReceiptConfig: entity.DefaultReceiptConfig()}
		if err := s.settingsRepo.Create(ctx, settings); err != nil {
			return nil, err
		}
	}

	return settings, nil
}

// ReceiptConfig returns the current configuration by value.
func (s *SettingsService) ReceiptConfig(ctx context.Context) (entity.ReceiptConfig, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return entity.ReceiptConfig{}, err
	}
	return settings.ReceiptConfig, nil
}

// UpdateSettingsInput represents the input for updating receipt settings
type UpdateSettingsInput struct {
	UserID     uuid.UUID
	HeaderText string
	FooterText string
	ShowQRCode bool
	QRCodeData *string
	PrintWidth string
}

// UpdateSettings replaces the receipt settings
func (s *SettingsService) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*entity.ReceiptSettings, error) {
	cfg := entity.ReceiptConfig{
		HeaderText: input.HeaderText,
		FooterText: input.FooterText,
		ShowQRCode: input.ShowQRCode,
		QRCodeData: input.QRCodeData,
	}
	cfg.PrintWidth = entity.DefaultReceiptConfig().PrintWidth
	if input.PrintWidth != "" {
		cfg.PrintWidth = enum.PrintWidth(input.PrintWidth)
	}
	if !cfg.PrintWidth.Valid() {
		return nil, apperror.NewBadRequestError("print_width must be 58mm or 80mm")
	}
	if cfg.ShowQRCode && (cfg.QRCodeData == nil || *cfg.QRCodeData == "") {
		return nil, apperror.NewBadRequestError("qr_code_data is required when show_qr_code is set")
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if settings == nil {
		settings = &entity.ReceiptSettings{}
	}
	settings.ReceiptConfig = cfg
	if input.UserID != uuid.Nil {
		userID := input.UserID
		settings.UpdatedBy = &userID
	}

	if settings.ID == uuid.Nil {
		if err := s.settingsRepo.Create(ctx, settings); err != nil {
			return nil, err
		}
	} else {
		if err := s.settingsRepo.Update(ctx, settings); err != nil {
			return nil, err
		}
	}

	return settings, nil
}
