// internal/scraper/fetch.go
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/ORDScrapexter/internal/browser"
	"github.com/valpere/ORDScrapexter/internal/utils"
)

// closeTimeout bounds the best-effort click on the modal close button.
const closeTimeout = 2 * time.Second

// FetchReaction loads one reaction page and reads its full record JSON,
// retrying with a fixed delay. It never returns an error: failures are
// reported in the envelope.
func (e *Engine) FetchReaction(ctx context.Context, page browser.Page, reactionID string) Envelope {
	var data map[string]interface{}

	attempts, err := e.retry.ExecuteWithRetry(ctx, "fetch "+reactionID, func(attempt int) error {
		e.observer.FetchAttempt()
		e.logger.Debugf("Loading %s...", reactionID)

		d, err := e.fetchRecord(ctx, page, reactionID)
		if err != nil {
			e.logger.Warnf("Error scraping %s (attempt %d): %s", reactionID, attempt, utils.Truncate(err.Error(), 100))
			return err
		}
		data = d
		return nil
	})

	env := Envelope{ReactionID: reactionID, Attempts: attempts}
	if err != nil {
		env.Err = err
		env.Error = err.Error()
		return env
	}

	env.Data = data
	env.Success = true
	e.logger.Debugf("Scraped raw data: %s", reactionID)
	return env
}

func (e *Engine) fetchRecord(ctx context.Context, page browser.Page, reactionID string) (map[string]interface{}, error) {
	if err := page.Navigate(ctx, e.sites.ReactionURL(reactionID)); err != nil {
		return nil, err
	}

	if err := page.WaitVisible(ctx, e.sites.RecordButton, e.opts.ElementTimeout); err != nil {
		return nil, fmt.Errorf("timeout waiting for record button: %w", err)
	}
	if err := page.Click(ctx, e.sites.RecordButton); err != nil {
		return nil, err
	}

	if err := page.WaitVisible(ctx, e.sites.RecordJSON, e.opts.ElementTimeout); err != nil {
		return nil, fmt.Errorf("timeout waiting for record JSON: %w", err)
	}
	text, err := page.Text(ctx, e.sites.RecordJSON)
	if err != nil {
		return nil, err
	}

	// The modal renders its <pre> before the JSON is filled in.
	if !looksLikeJSON(text) {
		if err := e.sleep(ctx, e.opts.RecheckDelay); err != nil {
			return nil, err
		}
		if text, err = page.Text(ctx, e.sites.RecordJSON); err != nil {
			return nil, err
		}
		if !looksLikeJSON(text) {
			return nil, ErrNotJSON
		}
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &data); err != nil {
		return nil, fmt.Errorf("failed to parse record json: %w", err)
	}

	closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()
	_ = page.Click(closeCtx, e.sites.ModalClose)

	return data, nil
}

func looksLikeJSON(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "{")
}
