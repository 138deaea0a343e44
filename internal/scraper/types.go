// internal/scraper/types.go
package scraper

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/ORDScrapexter/internal/errors"
	"github.com/valpere/ORDScrapexter/internal/ord"
	"github.com/valpere/ORDScrapexter/internal/ranges"
)

var (
	// ErrNoDatasets is returned by Engine.Run when discovery yields nothing to scrape.
	ErrNoDatasets = stderrors.New("no datasets to scrape")

	// ErrNotJSON is returned when the record modal does not hold a JSON document.
	ErrNotJSON = stderrors.New("data element found but does not contain JSON")

	// ErrMaxRetries is wrapped by failed fetch envelopes.
	ErrMaxRetries = errors.ErrRetriesExhausted
)

// Sites describes the URL layout and selectors of the reaction database.
type Sites struct {
	BaseURL      string `yaml:"base_url" json:"base_url"`
	BrowsePath   string `yaml:"browse_path" json:"browse_path"`
	DatasetPath  string `yaml:"dataset_path" json:"dataset_path"`
	ReactionPath string `yaml:"reaction_path" json:"reaction_path"`

	PageSizeSelect string `yaml:"page_size_select" json:"page_size_select"`
	PaginationText string `yaml:"pagination_text" json:"pagination_text"`
	NextButton     string `yaml:"next_button" json:"next_button"`
	NextDisabled   string `yaml:"next_disabled_class" json:"next_disabled_class"`

	DatasetLinks   string `yaml:"dataset_links" json:"dataset_links"`
	DatasetPrefix  string `yaml:"dataset_prefix" json:"dataset_prefix"`
	ReactionLinks  string `yaml:"reaction_links" json:"reaction_links"`
	ReactionPrefix string `yaml:"reaction_prefix" json:"reaction_prefix"`

	RecordButton string `yaml:"record_button" json:"record_button"`
	RecordJSON   string `yaml:"record_json" json:"record_json"`
	ModalClose   string `yaml:"modal_close" json:"modal_close"`
}

// DefaultBaseURL is the public Open Reaction Database.
const DefaultBaseURL = "https://open-reaction-database.org"

// DefaultSites returns the layout of open-reaction-database.org.
func DefaultSites() Sites {
	return Sites{
		BaseURL:      DefaultBaseURL,
		BrowsePath:   "/browse",
		DatasetPath:  "/dataset/",
		ReactionPath: "/id/",

		PageSizeSelect: "select#pagination",
		PaginationText: "div.pagination div.select",
		NextButton:     "div.next.paginav",
		NextDisabled:   "no-click",

		DatasetLinks:   "a[href*='/dataset/ord_dataset-']",
		DatasetPrefix:  "ord_dataset-",
		ReactionLinks:  "a[href*='/id/ord-']",
		ReactionPrefix: "ord-",

		RecordButton: "//div[contains(text(), 'View Full Record')]",
		RecordJSON:   "//div[contains(@class, 'data')]//pre | //pre",
		ModalClose:   ".close",
	}
}

func (s Sites) url(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + path
}

// BrowseURL returns the dataset listing URL
func (s Sites) BrowseURL() string { return s.url(s.BrowsePath) }

// DatasetURL returns the reaction listing URL of a dataset
func (s Sites) DatasetURL(datasetID string) string { return s.url(s.DatasetPath + datasetID) }

// ReactionURL returns the page URL of a single reaction
func (s Sites) ReactionURL(reactionID string) string { return s.url(s.ReactionPath + reactionID) }

// Options controls concurrency and timing of a scrape.
type Options struct {
	MaxWorkers     int                `yaml:"max_workers" json:"max_workers"`
	MaxPages       int                `yaml:"max_pages" json:"max_pages"`
	RateLimit      float64            `yaml:"rate_limit" json:"rate_limit"`
	SettleDelay    time.Duration      `yaml:"settle_delay" json:"settle_delay"`
	ElementTimeout time.Duration      `yaml:"element_timeout" json:"element_timeout"`
	RecheckDelay   time.Duration      `yaml:"recheck_delay" json:"recheck_delay"`
	Retry          errors.RetryConfig `yaml:"retry" json:"retry"`
}

// DefaultOptions mirrors the pacing the site tolerates.
func DefaultOptions() Options {
	return Options{
		MaxWorkers:     3,
		RateLimit:      1.0,
		SettleDelay:    5 * time.Second,
		ElementTimeout: 45 * time.Second,
		RecheckDelay:   2 * time.Second,
		Retry:          errors.DefaultRetryConfig(),
	}
}

// Mode selects which datasets and reactions a job covers.
type Mode string

const (
	ModeAll      Mode = "all"
	ModeSpecific Mode = "specific"
	ModeUniform  Mode = "uniform"
	ModeCustom   Mode = "custom"
	ModeSingle   Mode = "single"
)

// Modes lists every supported mode in menu order.
var Modes = []Mode{ModeAll, ModeSpecific, ModeUniform, ModeCustom, ModeSingle}

// DatasetRange pairs a dataset id with its own reaction window.
type DatasetRange struct {
	ID        string        `yaml:"id" json:"id"`
	Reactions ranges.Window `yaml:",inline" json:"reactions"`
}

// Job describes what to scrape.
type Job struct {
	Mode          Mode
	Datasets      ranges.Window
	Reactions     ranges.Window
	DatasetIDs    []string
	DatasetRanges []DatasetRange

	// Target coordinates for ModeSingle, both 1-based.
	TargetDataset  int
	TargetReaction int
}

// Validate checks that the job carries what its mode needs.
func (j Job) Validate() error {
	switch j.Mode {
	case ModeAll, ModeUniform:
	case ModeSpecific:
		if len(j.DatasetIDs) == 0 {
			return fmt.Errorf("job validation failed: mode %s requires dataset ids", j.Mode)
		}
	case ModeCustom:
		if len(j.DatasetRanges) == 0 {
			return fmt.Errorf("job validation failed: mode %s requires dataset ranges", j.Mode)
		}
	case ModeSingle:
		if j.TargetDataset < 1 || j.TargetReaction < 1 {
			return fmt.Errorf("job validation failed: mode %s requires 1-based dataset and reaction targets", j.Mode)
		}
	default:
		return fmt.Errorf("job validation failed: unknown mode %q", j.Mode)
	}
	return nil
}

// windows returns the dataset and reaction windows of discovery based modes.
func (j Job) windows() (datasets, reactions ranges.Window) {
	switch j.Mode {
	case ModeSingle:
		return ranges.Between(j.TargetDataset, j.TargetDataset), ranges.Between(j.TargetReaction, j.TargetReaction)
	case ModeUniform:
		return j.Datasets, j.Reactions
	default:
		return j.Datasets, ranges.Window{}
	}
}

// Envelope is the raw outcome of fetching one reaction record.
type Envelope struct {
	ReactionID string                 `json:"reaction_id"`
	Data       map[string]interface{} `json:"data"`
	Success    bool                   `json:"success"`
	Attempts   int                    `json:"attempts"`
	Error      string                 `json:"error,omitempty"`
	Err        error                  `json:"-"`
}

// Raw returns the envelope in the shape ord.Normalize expects.
func (e Envelope) Raw() map[string]interface{} {
	raw := map[string]interface{}{
		"reaction_id": e.ReactionID,
		"success":     e.Success,
	}
	if e.Data != nil {
		raw["data"] = e.Data
	}
	return raw
}

// DatasetResult is the outcome of scraping one dataset.
type DatasetResult struct {
	DatasetID         string          `json:"dataset_id"`
	TotalReactions    int             `json:"total_reactions"`
	SuccessfulScrapes int             `json:"successful_scrapes"`
	Reactions         []*ord.Reaction `json:"reactions"`
	Error             string          `json:"error,omitempty"`
	Duration          time.Duration   `json:"-"`
}

// Reaction outcome labels reported to an Observer.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

// Dataset outcome labels reported to an Observer.
const (
	DatasetCompleted = "completed"
	DatasetFailed    = "failed"
)

// Listing kinds reported to an Observer.
const (
	KindDatasets  = "datasets"
	KindReactions = "reactions"
)

// Observer is notified of scrape progress. Implementations must be safe for
// concurrent use.
type Observer interface {
	PageScraped(kind string)
	FetchAttempt()
	ReactionFinished(status string, elapsed time.Duration)
	DatasetFinished(status string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) PageScraped(string) {}
func (NopObserver) FetchAttempt() {}
func (NopObserver) ReactionFinished(string, time.Duration) {}
func (NopObserver) DatasetFinished(string) {}
