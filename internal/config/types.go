// internal/config/types.go

// Package config provides the YAML job configuration of ORDScrapexter.
// A configuration names the scrape mode, the dataset and reaction windows,
// pacing, browser settings and the output sink.
package config

import (
	"strings"
	"time"

	"github.com/valpere/ORDScrapexter/internal/browser"
	"github.com/valpere/ORDScrapexter/internal/errors"
	"github.com/valpere/ORDScrapexter/internal/output"
	"github.com/valpere/ORDScrapexter/internal/ranges"
	"github.com/valpere/ORDScrapexter/internal/scraper"
)

// ScraperConfig is the top level job configuration
type ScraperConfig struct {
	// Name identifies this configuration
	Name    string `yaml:"name" json:"name"`
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Mode is one of all, specific, uniform, custom or single
	Mode string `yaml:"mode" json:"mode"`

	// Datasets bounds the dataset listing in all and uniform modes
	Datasets ranges.Window `yaml:"datasets,omitempty" json:"datasets,omitempty"`

	// Reactions bounds each dataset's reactions in uniform mode
	Reactions ranges.Window `yaml:"reactions,omitempty" json:"reactions,omitempty"`

	DatasetIDs    []string               `yaml:"dataset_ids,omitempty" json:"dataset_ids,omitempty"`
	DatasetRanges []scraper.DatasetRange `yaml:"dataset_ranges,omitempty" json:"dataset_ranges,omitempty"`
	Target        TargetConfig           `yaml:"target,omitempty" json:"target,omitempty"`

	// Engine settings
	MaxWorkers     int                `yaml:"max_workers" json:"max_workers"`
	MaxPages       int                `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`
	Retry          errors.RetryConfig `yaml:"retry" json:"retry"`
	RateLimit      float64            `yaml:"rate_limit" json:"rate_limit"`
	SettleDelay    time.Duration      `yaml:"settle_delay" json:"settle_delay"`
	ElementTimeout time.Duration      `yaml:"element_timeout" json:"element_timeout"`

	Browser browser.Config `yaml:"browser" json:"browser"`
	Output  output.Config  `yaml:"output" json:"output"`

	LogLevel string        `yaml:"log_level" json:"log_level"`
	Metrics  MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// TargetConfig addresses one reaction in single mode. Both values are 1-based
// positions in the listings.
type TargetConfig struct {
	Dataset  int `yaml:"dataset,omitempty" json:"dataset,omitempty"`
	Reaction int `yaml:"reaction,omitempty" json:"reaction,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint served during a run
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	ListenAddress string `yaml:"listen_address,omitempty" json:"listen_address,omitempty"`
}

// DefaultMetricsAddress is where metrics are served when enabled without an address.
const DefaultMetricsAddress = ":9090"

// modeAliases accepts the long mode names of the interactive menu.
var modeAliases = map[string]scraper.Mode{
	"all_datasets":      scraper.ModeAll,
	"specific_datasets": scraper.ModeSpecific,
	"uniform_range":     scraper.ModeUniform,
	"custom_ranges":     scraper.ModeCustom,
	"single_target":     scraper.ModeSingle,
}

// ParseMode resolves a mode name or alias.
func ParseMode(s string) (scraper.Mode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if m, ok := modeAliases[s]; ok {
		return m, true
	}
	for _, m := range scraper.Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// DefaultConfig returns a configuration with every default applied. Loading
// starts from it so absent keys keep their defaults.
func DefaultConfig() *ScraperConfig {
	opts := scraper.DefaultOptions()
	return &ScraperConfig{
		BaseURL:        scraper.DefaultBaseURL,
		Mode:           string(scraper.ModeAll),
		MaxWorkers:     opts.MaxWorkers,
		Retry:          opts.Retry,
		RateLimit:      opts.RateLimit,
		SettleDelay:    opts.SettleDelay,
		ElementTimeout: opts.ElementTimeout,
		Browser:        *browser.DefaultConfig(),
		Output:         output.DefaultConfig(),
		LogLevel:       "info",
	}
}

// Job translates the configuration into an engine job.
func (sc *ScraperConfig) Job() scraper.Job {
	mode, _ := ParseMode(sc.Mode)
	job := scraper.Job{Mode: mode}
	switch mode {
	case scraper.ModeAll:
		job.Datasets = sc.Datasets
	case scraper.ModeUniform:
		job.Datasets = sc.Datasets
		job.Reactions = sc.Reactions
	case scraper.ModeSpecific:
		job.DatasetIDs = append([]string(nil), sc.DatasetIDs...)
	case scraper.ModeCustom:
		job.DatasetRanges = append([]scraper.DatasetRange(nil), sc.DatasetRanges...)
	case scraper.ModeSingle:
		job.TargetDataset = sc.Target.Dataset
		job.TargetReaction = sc.Target.Reaction
	}
	return job
}

// EngineOptions returns the engine pacing and concurrency settings.
func (sc *ScraperConfig) EngineOptions() scraper.Options {
	opts := scraper.DefaultOptions()
	opts.MaxWorkers = sc.MaxWorkers
	opts.MaxPages = sc.MaxPages
	opts.Retry = sc.Retry
	opts.RateLimit = max(sc.RateLimit, 0)
	opts.SettleDelay = sc.SettleDelay
	opts.ElementTimeout = sc.ElementTimeout
	return opts
}

// Sites returns the site layout rooted at the configured base URL.
func (sc *ScraperConfig) Sites() scraper.Sites {
	sites := scraper.DefaultSites()
	if sc.BaseURL != "" {
		sites.BaseURL = sc.BaseURL
	}
	return sites
}
