package printer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserSurface_PresentAndExpire(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := NewBrowserSurface("/api/v1/printer/fallback/", 5*time.Minute)
	s.now = func() time.Time { return now }

	pres, err := s.Present(context.Background(), Page{ID: "abc", HTML: "<html></html>"})
	require.NoError(t, err)
	assert.Equal(t, "browser", pres.Surface)
	assert.Equal(t, "/api/v1/printer/fallback/abc", pres.URL)
	assert.Equal(t, now.Add(5*time.Minute), pres.ExpiresAt)

	page, err := s.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", page.HTML)

	now = now.Add(5 * time.Minute)
	_, err = s.Get("abc")
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.Zero(t, s.Len())
}

func TestBrowserSurface_RejectsMissingID(t *testing.T) {
	s := NewBrowserSurface("/fallback", 0)
	_, err := s.Present(context.Background(), Page{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Present(ctx, Page{ID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
