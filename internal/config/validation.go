// internal/config/validation.go - validation with detailed error messages
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/valpere/ORDScrapexter/internal/output"
	"github.com/valpere/ORDScrapexter/internal/ranges"
	"github.com/valpere/ORDScrapexter/internal/scraper"
	"github.com/valpere/ORDScrapexter/internal/utils"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate collects every problem of the configuration into one error
func (sc *ScraperConfig) Validate() error {
	result := sc.ValidateWithDetails()
	if !result.Valid {
		return sc.formatValidationError(result)
	}
	return nil
}

// ValidateWithDetails returns all errors and warnings without failing fast
func (sc *ScraperConfig) ValidateWithDetails() *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	sc.validateBasicFields(result)
	sc.validateURL(result)
	sc.validateMode(result)
	sc.validateEngineSettings(result)
	sc.validateBrowser(result)
	sc.validateOutput(result)
	sc.validateObservability(result)

	result.Valid = len(result.Errors) == 0
	return result
}

func (sc *ScraperConfig) validateBasicFields(result *ValidationResult) {
	if strings.TrimSpace(sc.Name) == "" {
		result.addError("name", "", "Scraper name is required")
	}
}

func (sc *ScraperConfig) validateURL(result *ValidationResult) {
	if sc.BaseURL == "" {
		result.addError("base_url", "", "Base URL is required")
		return
	}

	parsedURL, err := url.Parse(sc.BaseURL)
	if err != nil {
		result.addError("base_url", sc.BaseURL, fmt.Sprintf("Invalid URL format: %s", err.Error()))
		return
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		result.addError("base_url", sc.BaseURL, "URL must include protocol (http:// or https://)")
	}
	if parsedURL.Host == "" {
		result.addError("base_url", sc.BaseURL, "URL must include hostname")
	}
	if parsedURL.Scheme == "http" {
		result.addWarning("Using HTTP instead of HTTPS for %s", sc.BaseURL)
	}
}

func (sc *ScraperConfig) validateMode(result *ValidationResult) {
	mode, ok := ParseMode(sc.Mode)
	if !ok {
		names := make([]string, len(scraper.Modes))
		for i, m := range scraper.Modes {
			names[i] = string(m)
		}
		result.addError("mode", sc.Mode, fmt.Sprintf("Invalid mode. Valid modes: %s", strings.Join(names, ", ")))
		return
	}

	switch mode {
	case scraper.ModeAll:
		validateWindow(result, "datasets", sc.Datasets)
	case scraper.ModeUniform:
		validateWindow(result, "datasets", sc.Datasets)
		validateWindow(result, "reactions", sc.Reactions)
	case scraper.ModeSpecific:
		if len(sc.DatasetIDs) == 0 {
			result.addError("dataset_ids", "[]", "Mode specific requires at least one dataset id")
		}
		for i, id := range sc.DatasetIDs {
			validateDatasetID(result, fmt.Sprintf("dataset_ids[%d]", i), id)
		}
	case scraper.ModeCustom:
		if len(sc.DatasetRanges) == 0 {
			result.addError("dataset_ranges", "[]", "Mode custom requires at least one dataset range")
		}
		for i, dr := range sc.DatasetRanges {
			prefix := fmt.Sprintf("dataset_ranges[%d]", i)
			validateDatasetID(result, prefix+".id", dr.ID)
			validateWindow(result, prefix, dr.Reactions)
		}
	case scraper.ModeSingle:
		if sc.Target.Dataset < 1 {
			result.addError("target.dataset", strconv.Itoa(sc.Target.Dataset), "Mode single requires a 1-based dataset position")
		}
		if sc.Target.Reaction < 1 {
			result.addError("target.reaction", strconv.Itoa(sc.Target.Reaction), "Mode single requires a 1-based reaction position")
		}
	}
}

func validateDatasetID(result *ValidationResult, field, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		result.addError(field, "", "Dataset id cannot be empty")
		return
	}
	if !strings.HasPrefix(id, scraper.DefaultSites().DatasetPrefix) {
		result.addWarning("%s %q does not look like an ORD dataset id", field, id)
	}
}

func validateWindow(result *ValidationResult, field string, w ranges.Window) {
	if w.Start != nil && *w.Start < 1 {
		result.addError(field+".start", strconv.Itoa(*w.Start), "Range start is 1-based and must be at least 1")
	}
	if w.End != nil && *w.End < 1 {
		result.addError(field+".end", strconv.Itoa(*w.End), "Range end is 1-based and must be at least 1")
	}
	if w.Start != nil && w.End != nil && *w.Start > *w.End {
		result.addWarning("%s range %s is empty", field, w)
	}
}

func (sc *ScraperConfig) validateEngineSettings(result *ValidationResult) {
	if sc.MaxWorkers < 1 {
		result.addError("max_workers", strconv.Itoa(sc.MaxWorkers), "At least one worker is required")
	} else if sc.MaxWorkers > 10 {
		result.addWarning("%d workers each run a browser and may overwhelm the site", sc.MaxWorkers)
	}

	if sc.MaxPages < 0 {
		result.addError("max_pages", strconv.Itoa(sc.MaxPages), "Max pages cannot be negative")
	}

	if sc.Retry.MaxAttempts < 1 {
		result.addError("retry.max_attempts", strconv.Itoa(sc.Retry.MaxAttempts), "At least one attempt is required")
	}
	if sc.Retry.Delay < 0 {
		result.addError("retry.delay", sc.Retry.Delay.String(), "Retry delay cannot be negative")
	}

	if sc.RateLimit <= 0 {
		result.addWarning("Rate limiting is disabled")
	} else if sc.RateLimit > 5 {
		result.addWarning("Rate limit of %.1f reactions/s per worker may overwhelm the site", sc.RateLimit)
	}

	if sc.SettleDelay < 0 {
		result.addError("settle_delay", sc.SettleDelay.String(), "Settle delay cannot be negative")
	}
	if sc.ElementTimeout <= 0 {
		result.addError("element_timeout", sc.ElementTimeout.String(), "Element timeout must be positive")
	}
}

func (sc *ScraperConfig) validateBrowser(result *ValidationResult) {
	if sc.Browser.Timeout <= 0 {
		result.addError("browser.timeout", sc.Browser.Timeout.String(), "Browser timeout must be positive")
	}
	if sc.Browser.ViewportWidth < 0 || sc.Browser.ViewportHeight < 0 {
		result.addError("browser.viewport",
			fmt.Sprintf("%dx%d", sc.Browser.ViewportWidth, sc.Browser.ViewportHeight),
			"Viewport dimensions cannot be negative")
	}
	if sc.Browser.WaitDelay < 0 {
		result.addError("browser.wait_delay", sc.Browser.WaitDelay.String(), "Wait delay cannot be negative")
	}
}

func (sc *ScraperConfig) validateOutput(result *ValidationResult) {
	out := sc.Output
	if !output.IsValidFormat(out.Format) {
		names := make([]string, 0)
		for _, f := range output.ValidOutputFormats() {
			names = append(names, string(f))
		}
		result.addError("output.format", string(out.Format),
			fmt.Sprintf("Invalid output format. Valid formats: %s", strings.Join(names, ", ")))
		return
	}

	switch out.Format {
	case output.FormatPostgreSQL, output.FormatMySQL:
		if out.Database.DSN == "" {
			result.addError("output.database.dsn", "", fmt.Sprintf("Output format %s requires a connection string", out.Format))
		}
	case output.FormatMongoDB:
		if out.MongoDB.URI == "" {
			result.addError("output.mongodb.uri", "", "Output format mongodb requires a connection URI")
		}
		if out.MongoDB.Database == "" || out.MongoDB.Collection == "" {
			result.addError("output.mongodb", out.MongoDB.Database+"."+out.MongoDB.Collection,
				"MongoDB database and collection are required")
		}
	}

	switch out.Format {
	case output.FormatSQLite, output.FormatPostgreSQL, output.FormatMySQL:
		if err := output.ValidateSQLIdentifier(out.Database.TablePrefix + "_datasets"); err != nil {
			result.addError("output.database.table_prefix", out.Database.TablePrefix, err.Error())
		}
	}

	if out.Format.IsFileFormat() && out.File == "" {
		result.addWarning("No output file specified, results will be written to %s", out.Path())
	}
}

func (sc *ScraperConfig) validateObservability(result *ValidationResult) {
	if _, err := utils.ParseLogLevel(sc.LogLevel); err != nil {
		result.addError("log_level", sc.LogLevel, "Invalid log level. Valid levels: debug, info, warn, error")
	}
	if sc.Metrics.Enabled && sc.Metrics.ListenAddress == "" {
		result.addError("metrics.listen_address", "", "Metrics listen address is required when metrics are enabled")
	}
}

// outputFormat normalizes format spellings
func outputFormat(f output.OutputFormat) output.OutputFormat {
	s := strings.ToLower(strings.TrimSpace(string(f)))
	switch s {
	case "excel":
		return output.FormatExcel
	case "postgres":
		return output.FormatPostgreSQL
	case "sqlite3":
		return output.FormatSQLite
	case "mongo":
		return output.FormatMongoDB
	case "yml":
		return output.FormatYAML
	}
	return output.OutputFormat(s)
}

// formatValidationError renders every error and warning as one message
func (sc *ScraperConfig) formatValidationError(result *ValidationResult) error {
	var errorMsg strings.Builder

	errorMsg.WriteString("Configuration validation failed:\n")

	for i, err := range result.Errors {
		errorMsg.WriteString(fmt.Sprintf("  %d. %s", i+1, err.Message))
		if err.Field != "" {
			errorMsg.WriteString(fmt.Sprintf(" (field: %s)", err.Field))
		}
		if err.Value != "" {
			errorMsg.WriteString(fmt.Sprintf(" (value: %s)", err.Value))
		}
		errorMsg.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		errorMsg.WriteString("\nWarnings:\n")
		for i, warning := range result.Warnings {
			errorMsg.WriteString(fmt.Sprintf("  %d. %s\n", i+1, warning))
		}
	}

	return fmt.Errorf("%s", errorMsg.String())
}

// GetValidationSuggestions provides actionable suggestions for fixing validation errors
func (sc *ScraperConfig) GetValidationSuggestions(result *ValidationResult) []string {
	suggestions := make([]string, 0)

	var hasURL, hasRange, hasOutput bool
	for _, err := range result.Errors {
		switch {
		case strings.Contains(err.Field, "url"):
			hasURL = true
		case strings.Contains(err.Field, "dataset") || strings.Contains(err.Field, "reactions") ||
			strings.HasPrefix(err.Field, "target") || err.Field == "mode":
			hasRange = true
		case strings.HasPrefix(err.Field, "output"):
			hasOutput = true
		}
	}

	if hasURL {
		suggestions = append(suggestions, "Ensure base_url includes protocol, e.g. "+scraper.DefaultBaseURL)
	}
	if hasRange {
		suggestions = append(suggestions,
			"Range bounds are 1-based positions in the site listings",
			"Run 'ordscraper template --type <mode>' for a working example of each mode")
	}
	if hasOutput {
		suggestions = append(suggestions, "Database outputs need output.database.dsn or output.mongodb.uri")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions,
			"Review the configuration file for syntax errors",
			"Check YAML indentation and formatting")
	}

	return suggestions
}
