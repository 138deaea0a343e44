// internal/browser/types.go
package browser

import (
	"context"
	"time"
)

// Config defines browser automation configuration
type Config struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	WaitDelay      time.Duration `yaml:"wait_delay,omitempty" json:"wait_delay,omitempty"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	DisableImages  bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultConfig returns default browser configuration
func DefaultConfig() *Config {
	return &Config{
		Headless:       true,
		Timeout:        30 * time.Second,
		WaitDelay:      1 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		DisableImages:  true,
	}
}

// Page is a single browser tab driven by the scraper. Selectors may be CSS or
// XPath expressions.
type Page interface {
	// Navigate loads url and waits until the body is ready
	Navigate(ctx context.Context, url string) error

	// HTML returns the outer HTML of the current document
	HTML(ctx context.Context) (string, error)

	// WaitReady waits until an element matching sel is in the DOM
	WaitReady(ctx context.Context, sel string, timeout time.Duration) error

	// WaitVisible waits until an element matching sel is visible
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error

	// Click scrolls the first element matching sel into view and clicks it
	Click(ctx context.Context, sel string) error

	// Text returns the visible text of the first element matching sel
	Text(ctx context.Context, sel string) (string, error)

	// SelectValue sets a <select> to value and fires change. It reports
	// whether the value actually changed.
	SelectValue(ctx context.Context, sel, value string) (bool, error)

	// Close releases the tab and its browser process
	Close() error
}

// Stats contains browser automation statistics
type Stats struct {
	PagesLoaded      int           `json:"pages_loaded"`
	AverageLoadTime  time.Duration `json:"average_load_time"`
	Errors           int           `json:"errors"`
	TimeoutsOccurred int           `json:"timeouts_occurred"`
}
