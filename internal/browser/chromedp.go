// internal/browser/chromedp.go
package browser

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeClient implements Page using chromedp
type ChromeClient struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	config      *Config

	mu        sync.RWMutex
	stats     Stats
	navigated bool
}

// NewChromeClient starts a Chrome process and opens one tab in it
func NewChromeClient(config *Config) (*ChromeClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(config)...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	client := &ChromeClient{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		config:      config,
	}

	// The first Run launches the browser.
	if err := client.initialize(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start chrome browser: %w", err)
	}

	return client, nil
}

func allocatorOptions(config *Config) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-application-cache", true),
		chromedp.Flag("disk-cache-size", "0"),
		chromedp.Flag("log-level", "3"),
	}

	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	if config.ViewportWidth > 0 && config.ViewportHeight > 0 {
		opts = append(opts, chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight))
	}
	return opts
}

func (c *ChromeClient) initialize() error {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout())
	defer cancel()

	var tasks []chromedp.Action
	if c.config.ViewportWidth > 0 && c.config.ViewportHeight > 0 {
		tasks = append(tasks, chromedp.EmulateViewport(int64(c.config.ViewportWidth), int64(c.config.ViewportHeight)))
	}
	return chromedp.Run(ctx, tasks...)
}

func (c *ChromeClient) timeout() time.Duration {
	if c.config.Timeout > 0 {
		return c.config.Timeout
	}
	return 30 * time.Second
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (c *ChromeClient) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = c.timeout()
	}
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *ChromeClient) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Errors++
	if stderrors.Is(err, context.DeadlineExceeded) {
		c.stats.TimeoutsOccurred++
	}
}

// Navigate navigates to a URL and waits for page load
func (c *ChromeClient) Navigate(ctx context.Context, url string) error {
	start := time.Now()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if c.config.WaitDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(c.config.WaitDelay))
	}

	err := c.run(ctx, c.timeout()+c.config.WaitDelay, tasks...)
	loadTime := time.Since(start)

	if err != nil {
		c.recordError(err)
		c.mu.Lock()
		c.navigated = false
		c.mu.Unlock()
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigated = true
	c.stats.PagesLoaded++
	if c.stats.PagesLoaded == 1 {
		c.stats.AverageLoadTime = loadTime
	} else {
		c.stats.AverageLoadTime = (c.stats.AverageLoadTime + loadTime) / 2
	}
	return nil
}

// HTML returns the current page HTML
func (c *ChromeClient) HTML(ctx context.Context) (string, error) {
	c.mu.RLock()
	navigated := c.navigated
	c.mu.RUnlock()

	if !navigated {
		return "", fmt.Errorf("cannot extract HTML: navigation has not completed successfully")
	}

	var html string
	if err := c.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		c.recordError(err)
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// WaitReady waits for sel to be present in the DOM
func (c *ChromeClient) WaitReady(ctx context.Context, sel string, timeout time.Duration) error {
	if err := c.run(ctx, timeout, chromedp.WaitReady(sel, chromedp.BySearch)); err != nil {
		c.recordError(err)
		return fmt.Errorf("element %q not ready: %w", sel, err)
	}
	return nil
}

// WaitVisible waits for sel to become visible
func (c *ChromeClient) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	if err := c.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.BySearch)); err != nil {
		c.recordError(err)
		return fmt.Errorf("element %q not visible: %w", sel, err)
	}
	return nil
}

// Click scrolls sel into view and clicks it
func (c *ChromeClient) Click(ctx context.Context, sel string) error {
	err := c.run(ctx, 0,
		chromedp.ScrollIntoView(sel, chromedp.BySearch),
		chromedp.Click(sel, chromedp.BySearch),
	)
	if err != nil {
		c.recordError(err)
		return fmt.Errorf("click %q failed: %w", sel, err)
	}
	return nil
}

// Text returns the visible text of sel
func (c *ChromeClient) Text(ctx context.Context, sel string) (string, error) {
	var text string
	if err := c.run(ctx, 0, chromedp.Text(sel, &text, chromedp.BySearch)); err != nil {
		c.recordError(err)
		return "", fmt.Errorf("read text of %q failed: %w", sel, err)
	}
	return text, nil
}

const selectScript = `(function(sel, value) {
	const el = document.querySelector(sel);
	if (!el) { throw new Error("select not found: " + sel); }
	if (el.value === value) { return false; }
	el.value = value;
	if (el.value !== value) { throw new Error("option not available: " + value); }
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return true;
})(%s, %s)`

// SelectValue sets a <select> element to value through JavaScript
func (c *ChromeClient) SelectValue(ctx context.Context, sel, value string) (bool, error) {
	selJS, _ := json.Marshal(sel)
	valueJS, _ := json.Marshal(value)
	script := fmt.Sprintf(selectScript, selJS, valueJS)

	var changed bool
	err := c.run(ctx, 0,
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.Evaluate(script, &changed),
	)
	if err != nil {
		c.recordError(err)
		return false, fmt.Errorf("select %q=%q failed: %w", sel, value, err)
	}
	return changed, nil
}

// Stats returns a snapshot of browser statistics
func (c *ChromeClient) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Close closes the tab and shuts the browser down
func (c *ChromeClient) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}
