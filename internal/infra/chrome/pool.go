// Package chrome prints HTML to PDF through headless Chrome, either with a
// fresh browser per document or through a pool of reusable tabs.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"thesisgen/internal/config"
	"thesisgen/internal/infra/logging"
)

// Tab is a browser tab leased from a Pool.
type Tab struct {
	Ctx     context.Context
	cancel  context.CancelFunc
	browser *browser
}

// Generation identifies the browser the tab was opened on. It changes with
// every Restart.
func (t *Tab) Generation() uint64 {
	if t == nil || t.browser == nil {
		return 0
	}
	return t.browser.gen
}

// Stats is a snapshot of the pool state.
type Stats struct {
	Enabled      bool      `json:"enabled"`
	Capacity     int       `json:"capacity"`
	Idle         int       `json:"idle"`
	InUse        int       `json:"in_use"`
	PoolSizeConf int       `json:"pool_size_conf"`
	ProfileDir   string    `json:"profile_dir"`
	TimeoutSecs  int       `json:"timeout_secs"`
	Restarts     int       `json:"restarts"`
	LastRestart  time.Time `json:"last_restart"`
}

// browser is one Chrome process with its profile. A retired browser is
// stopped when its last leased tab is released.
type browser struct {
	gen         uint64
	ctx         context.Context
	allocCancel context.CancelFunc
	cancel      context.CancelFunc
	profileDir  string
	leased      int
	retired     bool
}

func (b *browser) stop() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	if b.profileDir != "" {
		if err := os.RemoveAll(b.profileDir); err != nil {
			logging.Warn("Chrome profile cleanup failed", "dir", b.profileDir, "error", err)
		}
		b.profileDir = ""
	}
}

// retire stops b now or, if tabs are still leased, on the last Release.
func (b *browser) retire() {
	b.retired = true
	if b.leased == 0 {
		b.stop()
	}
}

// Pool limits concurrent tabs on one shared browser. Chrome itself is started
// lazily by the first tab that runs an action.
type Pool struct {
	mu          sync.Mutex
	cfg         config.Config
	sem         chan struct{}
	cur         *browser
	closed      bool
	restarts    int
	lastRestart time.Time
}

// NewPool prepares a pool of cfg.PDF.ChromePoolSize tabs.
func NewPool(cfg config.Config) (*Pool, error) {
	size := cfg.PDF.ChromePoolSize
	if size <= 0 {
		return nil, errors.New("chrome pool disabled: pdf.chrome_pool_size must be positive")
	}
	b, err := startBrowser(cfg, 0)
	if err != nil {
		return nil, err
	}
	p := &Pool{cfg: cfg, sem: make(chan struct{}, size), cur: b}
	for i := 0; i < size; i++ {
		p.sem <- struct{}{}
	}
	logging.Info("Chrome pool ready", "size", size, "profile_dir", b.profileDir)
	return p, nil
}

func startBrowser(cfg config.Config, gen uint64) (*browser, error) {
	dir, err := createProfileDir(cfg)
	if err != nil {
		return nil, err
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg, dir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return &browser{
		gen:         gen,
		ctx:         browserCtx,
		allocCancel: allocCancel,
		cancel:      browserCancel,
		profileDir:  dir,
	}, nil
}

// Acquire blocks until a tab is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Tab, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, errors.New("chrome pool closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.sem:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.putSlot()
		return nil, errors.New("chrome pool closed")
	}
	b := p.cur
	b.leased++
	p.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(b.ctx)
	return &Tab{Ctx: tabCtx, cancel: cancel, browser: b}, nil
}

// Release closes the tab and frees its slot. renderErr is the outcome of the
// work done in the tab.
func (p *Pool) Release(tab *Tab, renderErr error) {
	if tab != nil && tab.cancel != nil {
		tab.cancel()
	}
	if tab != nil && tab.browser != nil {
		p.mu.Lock()
		b := tab.browser
		tab.browser = nil
		b.leased--
		if b.retired && b.leased == 0 {
			b.stop()
		}
		p.mu.Unlock()
	}
	if renderErr != nil && IsSessionInterrupted(renderErr) {
		logging.Warn("Chrome tab released after interruption", "error", renderErr)
	}
	p.putSlot()
}

func (p *Pool) putSlot() {
	select {
	case p.sem <- struct{}{}:
	default:
	}
}

// Stats reports capacity and usage.
func (p *Pool) Stats(timeoutSecs int) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.sem == nil {
		return Stats{PoolSizeConf: p.cfg.PDF.ChromePoolSize, TimeoutSecs: timeoutSecs, Restarts: p.restarts, LastRestart: p.lastRestart}
	}
	idle := len(p.sem)
	return Stats{
		Enabled:      true,
		Capacity:     cap(p.sem),
		Idle:         idle,
		InUse:        cap(p.sem) - idle,
		PoolSizeConf: p.cfg.PDF.ChromePoolSize,
		ProfileDir:   p.cur.profileDir,
		TimeoutSecs:  timeoutSecs,
		Restarts:     p.restarts,
		LastRestart:  p.lastRestart,
	}
}

// Restart starts a new browser with a fresh profile for the tabs acquired
// from now on. Tabs still leased keep running against the old browser,
// which is stopped when the last of them is released.
func (p *Pool) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.restartLocked()
}

// RestartIfCurrent restarts the pool only if gen is still the current
// generation, so that several tabs failing on the same browser cause a
// single restart. It reports whether a restart happened.
func (p *Pool) RestartIfCurrent(gen uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed && p.cur.gen != gen {
		return false, nil
	}
	if err := p.restartLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Pool) restartLocked() error {
	if p.closed {
		return errors.New("chrome pool closed")
	}
	next, err := startBrowser(p.cfg, p.cur.gen+1)
	if err != nil {
		return fmt.Errorf("restart chrome: %w", err)
	}
	old := p.cur
	p.cur = next
	old.retire()
	p.restarts++
	p.lastRestart = time.Now()
	logging.Warn("Chrome pool restarted", "restarts", p.restarts, "generation", next.gen, "profile_dir", next.profileDir)
	return nil
}

// Close shuts the current browser down; browsers of leased tabs stop when
// the tabs are released. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.cur.retire()
}

func createProfileDir(cfg config.Config) (string, error) {
	base := cfg.PDF.UserDataDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", fmt.Errorf("chrome profile base %s: %w", base, err)
	}
	dir, err := os.MkdirTemp(base, "thesisgen-chrome-*")
	if err != nil {
		return "", fmt.Errorf("chrome profile dir: %w", err)
	}
	return dir, nil
}

func allocatorOptions(cfg config.Config, profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		// software rendering only; containers rarely have a usable GPU
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.PDF.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.PDF.ChromePath))
	}
	if cfg.PDF.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// IsSessionInterrupted reports errors after which the browser session
// should be considered lost.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"target closed", "session closed", "websocket: close", "invalid context"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
