package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_GetCreatesDefaults(t *testing.T) {
	repo := &fakeSettingsRepo{}
	s := NewSettingsService(repo)

	cfg, err := s.ReceiptConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.DefaultReceiptConfig(), cfg)
	assert.Equal(t, 1, repo.creates)

	_, err = s.ReceiptConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.creates)
}

func TestSettingsService_Update(t *testing.T) {
	repo := &fakeSettingsRepo{}
	s := NewSettingsService(repo)
	userID := uuid.New()
	qr := "upi://pay?pa=kitchen@upi"

	saved, err := s.UpdateSettings(context.Background(), &UpdateSettingsInput{
		UserID:     userID,
		HeaderText: "Annapurna Kitchen",
		ShowQRCode: true,
		QRCodeData: &qr,
		PrintWidth: "80mm",
	})
	require.NoError(t, err)

	assert.Equal(t, enum.PrintWidth80mm, saved.PrintWidth)
	require.NotNil(t, saved.UpdatedBy)
	assert.Equal(t, userID, *saved.UpdatedBy)
	assert.Equal(t, 1, repo.creates)

	_, err = s.UpdateSettings(context.Background(), &UpdateSettingsInput{HeaderText: "Kitchen"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, enum.PrintWidth58mm, repo.settings.PrintWidth)
}

func TestSettingsService_UpdateRejectsInvalidConfig(t *testing.T) {
	s := NewSettingsService(&fakeSettingsRepo{})

	_, err := s.UpdateSettings(context.Background(), &UpdateSettingsInput{PrintWidth: "110mm"})
	assert.True(t, IsRequestError(err))

	_, err = s.UpdateSettings(context.Background(), &UpdateSettingsInput{ShowQRCode: true})
	assert.True(t, IsRequestError(err))
}
