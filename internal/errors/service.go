// internal/errors/service.go - Retry and CLI error reporting service
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Service wraps operations with a bounded retry and turns failures into
// user-facing messages and exit codes.
type Service struct {
	retryConfig    RetryConfig
	messageHandler *MessageHandler
	sleep          func(ctx context.Context, d time.Duration) error
}

// RetryConfig defines retry behavior. The delay between attempts is fixed.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Delay       time.Duration `yaml:"delay" json:"delay"`
}

// DefaultRetryConfig matches the per-reaction fetch policy: three attempts,
// five seconds apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
	}
}

// MessageHandler converts technical errors to user-friendly messages
type MessageHandler struct {
	showTechnical bool
}

// ErrRetriesExhausted is wrapped by ExecuteWithRetry when every attempt failed.
var ErrRetriesExhausted = stderrors.New("max retries exceeded")

// NewService creates a service with the default retry policy.
func NewService() *Service {
	return NewServiceWithRetry(DefaultRetryConfig())
}

// NewServiceWithRetry creates a service with an explicit retry policy.
func NewServiceWithRetry(cfg RetryConfig) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Service{
		retryConfig:    cfg,
		messageHandler: &MessageHandler{showTechnical: false},
		sleep:          sleepContext,
	}
}

// WithVerbose enables technical error details
func (s *Service) WithVerbose(verbose bool) *Service {
	s.messageHandler.showTechnical = verbose
	return s
}

// RetryConfig returns the active retry policy.
func (s *Service) RetryConfig() RetryConfig {
	return s.retryConfig
}

// ExecuteWithRetry calls operation until it succeeds, the attempts run out,
// or ctx is done. operation receives the 1-based attempt number. It returns
// the number of attempts made.
func (s *Service) ExecuteWithRetry(ctx context.Context, operationName string, operation func(attempt int) error) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= s.retryConfig.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		err := operation(attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if attempt == s.retryConfig.MaxAttempts {
			break
		}
		if !s.shouldRetry(ctx, err) {
			return attempt, err
		}

		if err := s.sleep(ctx, s.retryConfig.Delay); err != nil {
			return attempt, err
		}
	}

	return s.retryConfig.MaxAttempts, fmt.Errorf("%s: %w after %d attempts: %w",
		operationName, ErrRetriesExhausted, s.retryConfig.MaxAttempts, lastErr)
}

// shouldRetry retries everything except cancellation.
func (s *Service) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !stderrors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetUserFriendlyError converts technical errors to user-friendly messages
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "no datasets") {
		return "No Datasets Found",
			"The dataset listing returned nothing to scrape.",
			[]string{
				"Check the dataset start/end indices in the configuration",
				"Open the browse page in a browser to confirm datasets are listed",
				"Increase element_timeout if the table loads slowly",
			}
	}

	if strings.Contains(errStr, "yaml") || strings.Contains(errStr, "configuration") {
		return "Configuration Error",
			"The configuration file could not be loaded.",
			[]string{
				"Check YAML indentation (use spaces, not tabs)",
				"Run 'ordscraper validate <config.yaml>' for details",
				"Generate a fresh file with 'ordscraper template'",
			}
	}

	if strings.Contains(errStr, "executable file not found") || strings.Contains(errStr, "browser") || strings.Contains(errStr, "chrome") {
		return "Browser Unavailable",
			"Chrome could not be started or stopped responding.",
			[]string{
				"Install Chrome or Chromium and make sure it is on PATH",
				"Run headless when no display is available",
				"Reduce max_workers to lower memory pressure",
			}
	}

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Page Timeout",
			"A page or element did not load in time.",
			[]string{
				"Check your internet connection",
				"Increase browser.timeout or element_timeout",
				"The site might be slow or experiencing issues",
			}
	}

	if strings.Contains(errStr, "output") || strings.Contains(errStr, "write") {
		return "Output Error",
			"The scraped results could not be saved.",
			[]string{
				"Check that the output directory exists and is writable",
				"Verify database connection settings",
			}
	}

	return "Unexpected Error",
		"An unexpected error occurred during the operation.",
		[]string{
			"Try running the command again",
			"Run with -v for technical details",
		}
}

// GetExitCode returns appropriate exit code for error
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "validation"):
		return 6
	case strings.Contains(errStr, "config") || strings.Contains(errStr, "yaml"):
		return 2
	case strings.Contains(errStr, "no datasets"):
		return 7
	case strings.Contains(errStr, "output") || strings.Contains(errStr, "write"):
		return 5
	case strings.Contains(errStr, "browser") || strings.Contains(errStr, "chrome") ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "navigation") ||
		strings.Contains(errStr, "connection"):
		return 3
	case strings.Contains(errStr, "parse") || strings.Contains(errStr, "json"):
		return 4
	default:
		return 1
	}
}

// FormatErrorForCLI formats error for command-line display
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	output := fmt.Sprintf("✗ %s\n%s\n", title, message)

	if s.messageHandler.showTechnical {
		output += fmt.Sprintf("\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		output += "\nSuggestions:\n"
		for _, suggestion := range suggestions {
			output += fmt.Sprintf("  • %s\n", suggestion)
		}
	}

	return output
}
