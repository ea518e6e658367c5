package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// ErrShutdown is returned when a page is requested after Shutdown.
var ErrShutdown = errors.New("browser session manager is shut down")

var _ discovery.PageProvider = (*SessionManager)(nil)

var browserLog *logging.Logger

func init() {
	var err error
	browserLog, err = logging.NewLogger("browser")
	if err != nil {
		browserLog.Warnf("Failed to initialize browser logger, using stderr fallback: %v", err)
	}
}

// SessionManager lazily provisions one browser connection and hands out
// isolated pages from it.
type SessionManager struct {
	mu          sync.Mutex
	opts        SessionOptions
	playwright  *playwright.Playwright
	browser     playwright.Browser
	initialized bool
	shutdown    bool
	slots       chan struct{}
	active      int
}

// NewSessionManager creates a new session manager. Nothing is started until
// the first page is requested.
func NewSessionManager(opts SessionOptions) *SessionManager {
	opts = opts.withDefaults()
	return &SessionManager{
		opts:  opts,
		slots: make(chan struct{}, opts.MaxPages),
	}
}

// Initialize starts the Playwright driver. Browsers are only installed when a
// local launch is needed. Safe to call more than once.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initializeLocked()
}

func (m *SessionManager) initializeLocked() error {
	if m.shutdown {
		return ErrShutdown
	}
	if m.initialized {
		return nil
	}

	// Keep driver output off the terminal
	opts := &playwright.RunOptions{
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
		SkipInstallBrowsers: m.opts.Endpoint != "",
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// connectLocked returns the shared browser, connecting or launching it on
// first use and reconnecting if the previous connection dropped.
func (m *SessionManager) connectLocked() (playwright.Browser, error) {
	if err := m.initializeLocked(); err != nil {
		return nil, err
	}
	if m.browser != nil && m.browser.IsConnected() {
		return m.browser, nil
	}

	var (
		browser playwright.Browser
		err     error
	)
	if m.opts.Endpoint != "" {
		browserLog.Infof("Connecting to remote browser at %s", m.opts.Endpoint)
		browser, err = m.playwright.Chromium.ConnectOverCDP(m.opts.Endpoint, playwright.BrowserTypeConnectOverCDPOptions{
			Timeout: playwright.Float(milliseconds(m.opts.ConnectTimeout)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to remote browser: %w", err)
		}
	} else {
		browserLog.Infof("Launching local chromium (headless=%t)", m.opts.Headless)
		browser, err = m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(m.opts.Headless),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
	}

	m.browser = browser
	return browser, nil
}

// NewPage implements discovery.PageProvider.
func (m *SessionManager) NewPage(ctx context.Context) (discovery.Page, error) {
	page, err := m.OpenPage(ctx)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// OpenPage returns a new isolated page. It blocks while MaxPages pages are
// open. The caller must Close the page.
func (m *SessionManager) OpenPage(ctx context.Context) (*Page, error) {
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for a free browser page: %w", ctx.Err())
	}

	page, err := m.openPage()
	if err != nil {
		<-m.slots
		return nil, err
	}
	return page, nil
}

func (m *SessionManager) openPage() (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	browser, err := m.connectLocked()
	if err != nil {
		return nil, err
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.opts.Viewport.Width,
			Height: m.opts.Viewport.Height,
		},
	}
	if m.opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(m.opts.UserAgent)
	}

	browserContext, err := browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		browserContext.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(milliseconds(m.opts.Timeout))

	m.active++
	return newPage(page, browserContext, m.release), nil
}

// release frees the slot held by a closed page.
func (m *SessionManager) release() {
	m.mu.Lock()
	m.active--
	m.mu.Unlock()
	<-m.slots
}

// ActivePages returns the number of open pages.
func (m *SessionManager) ActivePages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Shutdown closes the browser connection and stops Playwright. Pages still
// open become unusable.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdown = true

	var errs []error
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		m.browser = nil
	}

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		m.initialized = false
	}

	return errors.Join(errs...)
}
