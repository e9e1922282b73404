package printer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Page is a printable HTML document for the print dialog path.
type Page struct {
	ID    string
	Title string
	// HTML opens the print dialog on load and closes its window afterwards.
	HTML string
	// StaticHTML is the same document without the print script.
	StaticHTML string
	WidthPx    int
	WidthMM    int
}

// Presentation tells the caller where a page was presented.
type Presentation struct {
	Surface   string    `json:"surface"`
	URL       string    `json:"url,omitempty"`
	Path      string    `json:"path,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Surface presents a page through the host's print dialog. A successful
// Present only means the page was handed over; nothing reports whether
// paper came out.
type Surface interface {
	Name() string
	Present(ctx context.Context, page Page) (Presentation, error)
}

// ErrPageNotFound is returned for unknown or expired fallback pages.
var ErrPageNotFound = errors.New("printer: fallback page not found or expired")

type storedPage struct {
	page    Page
	expires time.Time
}

// BrowserSurface keeps pages in memory for the POS browser to open. The
// browser loads the page from BaseURL + ID and the page prints itself.
type BrowserSurface struct {
	baseURL string
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	pages map[string]storedPage
}

// NewBrowserSurface creates a surface serving pages under baseURL for ttl.
func NewBrowserSurface(baseURL string, ttl time.Duration) *BrowserSurface {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BrowserSurface{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		ttl:     ttl,
		now:     time.Now,
		pages:   make(map[string]storedPage),
	}
}

func (s *BrowserSurface) Name() string { return "browser" }

func (s *BrowserSurface) Present(ctx context.Context, page Page) (Presentation, error) {
	if err := ctx.Err(); err != nil {
		return Presentation{}, err
	}
	if page.ID == "" {
		return Presentation{}, errors.New("printer: fallback page has no id")
	}

	now := s.now()
	expires := now.Add(s.ttl)

	s.mu.Lock()
	s.purge(now)
	s.pages[page.ID] = storedPage{page: page, expires: expires}
	s.mu.Unlock()

	return Presentation{
		Surface:   s.Name(),
		URL:       s.baseURL + page.ID,
		ExpiresAt: expires,
	}, nil
}

// Get returns a stored page until it expires.
func (s *BrowserSurface) Get(id string) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(s.now())
	sp, ok := s.pages[id]
	if !ok {
		return Page{}, ErrPageNotFound
	}
	return sp.page, nil
}

// Len returns the number of live pages.
func (s *BrowserSurface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(s.now())
	return len(s.pages)
}

func (s *BrowserSurface) purge(now time.Time) {
	for id, sp := range s.pages {
		if !now.Before(sp.expires) {
			delete(s.pages, id)
		}
	}
}
