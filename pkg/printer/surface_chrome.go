package printer

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeSurface prints pages with headless Chrome into a spool directory,
// from where the OS print queue (or a hot folder driver) picks them up.
type ChromeSurface struct {
	execPath string
	spoolDir string
	timeout  time.Duration
	log      *zap.Logger
}

// NewChromeSurface creates a Chrome surface. An empty execPath lets chromedp
// find the browser.
func NewChromeSurface(execPath, spoolDir string, timeout time.Duration, log *zap.Logger) *ChromeSurface {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChromeSurface{execPath: execPath, spoolDir: spoolDir, timeout: timeout, log: log.Named("chrome")}
}

func (s *ChromeSurface) Name() string { return "chrome" }

func (s *ChromeSurface) Present(ctx context.Context, p Page) (Presentation, error) {
	if err := os.MkdirAll(s.spoolDir, 0o755); err != nil {
		return Presentation{}, fmt.Errorf("create spool dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var heightPx float64
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(p.WidthPx), 800),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, p.StaticHTML).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`document.documentElement.scrollHeight`, &heightPx),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// 96 CSS px per inch
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(float64(p.WidthMM) / 25.4).
				WithPaperHeight(math.Max(heightPx/96, 1)).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return Presentation{}, fmt.Errorf("render fallback page: %w", err)
	}

	path := filepath.Join(s.spoolDir, p.ID+".pdf")
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return Presentation{}, fmt.Errorf("write spool file: %w", err)
	}
	s.log.Info("fallback page spooled", zap.String("path", path), zap.Int("bytes", len(pdf)))
	return Presentation{Surface: s.Name(), Path: path}, nil
}
