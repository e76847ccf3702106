package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"thesisgen/internal/config"
	"thesisgen/internal/infra/logging"
)

// Renderer converts HTML pages to PDF. With pdf.chrome_pool_size 0 every call
// starts its own browser; otherwise tabs come from a lazily created Pool.
type Renderer struct {
	cfg      config.Config
	printPDF printFunc

	poolMu sync.Mutex
	pool   *Pool
}

type printFunc func(ctx context.Context, html string, paper config.PaperSize, margin float64) ([]byte, error)

// NewRenderer does not start Chrome.
func NewRenderer(cfg config.Config) *Renderer {
	return &Renderer{cfg: cfg, printPDF: printHTML}
}

func (r *Renderer) getPool() (*Pool, error) {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()

	if r.cfg.PDF.ChromePoolSize <= 0 {
		return nil, nil
	}
	if r.pool != nil {
		return r.pool, nil
	}
	pool, err := NewPool(r.cfg)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return r.pool, nil
}

// ConvertHTML prints html on the configured paper size and margins.
func (r *Renderer) ConvertHTML(ctx context.Context, html []byte) ([]byte, error) {
	pool, err := r.getPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return r.renderOneShot(ctx, string(html))
	}

	out, gen, lost, err := r.renderInPool(ctx, pool, string(html))
	if !lost {
		return out, err
	}
	logging.Warn("Chrome session interrupted; restarting pool and retrying once", "generation", gen, "error", err)
	if _, rerr := pool.RestartIfCurrent(gen); rerr != nil {
		logging.Error("Chrome pool restart failed; not retrying", "error", rerr)
		return nil, err
	}
	out, _, _, err = r.renderInPool(ctx, pool, string(html))
	return out, err
}

// renderInPool prints html in a leased tab. lost reports a failure that
// points at the browser session rather than at the caller or at the
// render timeout; gen is the generation of the tab that failed.
func (r *Renderer) renderInPool(ctx context.Context, pool *Pool, html string) (out []byte, gen uint64, lost bool, err error) {
	acquireCtx, acquireCancel := context.WithTimeout(ctx, 5*time.Second)
	defer acquireCancel()

	tab, err := pool.Acquire(acquireCtx)
	if err != nil {
		return nil, 0, false, err
	}
	gen = tab.Generation()

	tabCtx, cancel := context.WithTimeout(tab.Ctx, time.Duration(r.cfg.PDF.TimeoutSecs)*time.Second)
	stop := context.AfterFunc(ctx, cancel)
	out, err = r.printPDF(tabCtx, html, r.cfg.Paper(), r.cfg.PDF.Margin)
	timedOut := errors.Is(tabCtx.Err(), context.DeadlineExceeded) && tab.Ctx.Err() == nil
	stop()
	cancel()

	pool.Release(tab, err)
	lost = err != nil && ctx.Err() == nil && !timedOut && IsSessionInterrupted(err)
	return out, gen, lost, err
}

// Stats reports the pool state; a disabled pool is reported as such.
func (r *Renderer) Stats() (Stats, error) {
	pool, err := r.getPool()
	if err != nil {
		return Stats{}, err
	}
	if pool == nil {
		return Stats{PoolSizeConf: r.cfg.PDF.ChromePoolSize, TimeoutSecs: r.cfg.PDF.TimeoutSecs}, nil
	}
	return pool.Stats(r.cfg.PDF.TimeoutSecs), nil
}

// Close releases the pool, if one was started.
func (r *Renderer) Close() {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

func (r *Renderer) renderOneShot(ctx context.Context, html string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp(r.cfg.PDF.UserDataDir, "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(r.cfg, tmpDir)...)
	defer allocCancel()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	chromeCtx, cancelTimeout := context.WithTimeout(chromeCtx, time.Duration(r.cfg.PDF.TimeoutSecs)*time.Second)
	defer cancelTimeout()

	return r.printPDF(chromeCtx, html, r.cfg.Paper(), r.cfg.PDF.Margin)
}

// printHTML loads html into the tab behind ctx and prints it.
func printHTML(ctx context.Context, html string, paper config.PaperSize, margin float64) ([]byte, error) {
	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(false).
				WithPaperWidth(paper.Width).
				WithPaperHeight(paper.Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
