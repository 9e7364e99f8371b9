// Package printing renders the student CV page to PDF with headless Chrome.
package printing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 30 * time.Second
	defaultCookieName    = "token"

	// A4 in inches
	a4Width  = 8.27
	a4Height = 11.69
	margin   = 0.4
)

// ErrRenderTimeout is returned when the page did not finish in time
var ErrRenderTimeout = errors.New("cv rendering timed out")

// ChromedpConfig configures the CV renderer
type ChromedpConfig struct {
	// Timeout bounds one navigation plus print
	Timeout time.Duration
	// ExecPath overrides the Chrome binary; empty uses the default lookup
	ExecPath string
	// RemoteURL attaches to a running browser instead of launching one
	RemoteURL string
	// NoSandbox is required when running as root in containers
	NoSandbox bool
	// CookieName carries the session token to the CV page
	CookieName string
	// ReadySelector is waited for before printing
	ReadySelector string
}

// ChromedpRenderer prints web pages to PDF through the Chrome DevTools protocol
type ChromedpRenderer struct {
	cfg         ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer prepares the browser allocator. Chrome itself starts
// lazily on the first render.
func NewChromedpRenderer(cfg ChromedpConfig, logger *zap.Logger) *ChromedpRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.ReadySelector == "" {
		cfg.ReadySelector = "body"
	}

	r := &ChromedpRenderer{cfg: cfg, logger: logger}
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// RenderPDF opens pageURL, sending authToken as the session cookie when set,
// and prints it as an A4 PDF with backgrounds
func (r *ChromedpRenderer) RenderPDF(ctx context.Context, pageURL, authToken string) ([]byte, error) {
	if err := validatePageURL(pageURL); err != nil {
		return nil, err
	}
	start := time.Now()

	browserCtx, cancelBrowser := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}))
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancelRun()
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	var pdf []byte
	err := chromedp.Run(runCtx, r.actions(pageURL, authToken, &pdf)...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrRenderTimeout, r.cfg.Timeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Error("CV rendering failed", zap.String("url", pageURL), zap.Error(err))
		return nil, fmt.Errorf("chromedp: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("generated PDF is empty")
	}

	r.logger.Info("CV rendered",
		zap.String("url", pageURL),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	return pdf, nil
}

func (r *ChromedpRenderer) actions(pageURL, authToken string, out *[]byte) []chromedp.Action {
	var actions []chromedp.Action
	if authToken != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookie(r.cfg.CookieName, authToken).
				WithURL(pageURL).
				WithPath("/").
				WithHTTPOnly(true).
				Do(ctx)
		}))
	}
	return append(actions,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(r.cfg.ReadySelector),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := printParams().Do(ctx)
			if err != nil {
				return err
			}
			*out = data
			return nil
		}),
	)
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func printParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(a4Width).
		WithPaperHeight(a4Height).
		WithMarginTop(margin).
		WithMarginBottom(margin).
		WithMarginLeft(margin).
		WithMarginRight(margin).
		WithPreferCSSPageSize(true)
}

func validatePageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid cv url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid cv url %q: must be an absolute http(s) url", raw)
	}
	return nil
}
