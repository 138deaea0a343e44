// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valpere/ORDScrapexter/internal/ranges"
	"github.com/valpere/ORDScrapexter/internal/scraper"
)

// LoadFromFile loads and validates configuration from a YAML file
func LoadFromFile(filename string) (*ScraperConfig, error) {
	config, err := ParseFile(filename)
	if err != nil {
		return nil, err
	}
	return validated(config)
}

// ParseFile reads a YAML file and applies defaults without validating it.
func ParseFile(filename string) (*ScraperConfig, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return Parse(data)
}

// LoadFromBytes loads configuration from YAML bytes
func LoadFromBytes(data []byte) (*ScraperConfig, error) {
	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return validated(config)
}

// Parse decodes YAML bytes over the defaults without validating the result.
func Parse(data []byte) (*ScraperConfig, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	// Substitute environment variables
	expanded := os.ExpandEnv(string(data))

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(config)
	return config, nil
}

func validated(config *ScraperConfig) (*ScraperConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*ScraperConfig, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// SaveToFile saves configuration to a YAML file
func SaveToFile(config *ScraperConfig, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	data, err := marshal(config)
	if err != nil {
		return err
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// SaveToWriter saves configuration to an io.Writer
func SaveToWriter(config *ScraperConfig, writer io.Writer) error {
	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	data, err := marshal(config)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	return nil
}

// marshal validates the configuration before encoding it
func marshal(config *ScraperConfig) ([]byte, error) {
	if config == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}
	return data, nil
}

// TemplateTypes lists the kinds accepted by GenerateTemplate.
var TemplateTypes = []string{"all", "specific", "uniform", "custom", "single"}

// GenerateTemplate generates a template configuration for the specified type
func GenerateTemplate(templateType string) *ScraperConfig {
	mode, ok := ParseMode(templateType)
	if !ok {
		mode = scraper.ModeAll
	}

	config := DefaultConfig()
	config.Name = "ord_" + string(mode)
	config.Mode = string(mode)

	switch mode {
	case scraper.ModeAll:
		config.Datasets = ranges.Between(1, 10)
	case scraper.ModeSpecific:
		config.DatasetIDs = []string{
			"ord_dataset-00005539a1e04c809a9a78647bea649c",
			"ord_dataset-0b70410902ae4139bd5d334881938f69",
		}
	case scraper.ModeUniform:
		config.Datasets = ranges.Between(1, 5)
		config.Reactions = ranges.Between(1, 20)
	case scraper.ModeCustom:
		config.DatasetRanges = []scraper.DatasetRange{
			{ID: "ord_dataset-00005539a1e04c809a9a78647bea649c", Reactions: ranges.Between(1, 50)},
			{ID: "ord_dataset-0b70410902ae4139bd5d334881938f69", Reactions: ranges.From(100)},
		}
	case scraper.ModeSingle:
		config.Target = TargetConfig{Dataset: 1, Reaction: 1}
		config.MaxWorkers = 1
	}

	return config
}

// applyDefaults fills values a YAML file may have cleared
func applyDefaults(config *ScraperConfig) {
	if config.BaseURL == "" {
		config.BaseURL = scraper.DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Mode == "" {
		config.Mode = string(scraper.ModeAll)
	}
	if mode, ok := ParseMode(config.Mode); ok {
		config.Mode = string(mode)
	}

	if config.Mode == string(scraper.ModeSingle) && config.Target.Reaction == 0 {
		config.Target.Reaction = 1
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.Browser.Timeout == 0 {
		config.Browser.Timeout = 30 * time.Second
	}
	if config.Browser.ViewportWidth == 0 {
		config.Browser.ViewportWidth = 1920
	}
	if config.Browser.ViewportHeight == 0 {
		config.Browser.ViewportHeight = 1080
	}

	if config.Output.Format == "" {
		config.Output.Format = "json"
	}
	config.Output.Format = outputFormat(config.Output.Format)

	if config.Metrics.Enabled && config.Metrics.ListenAddress == "" {
		config.Metrics.ListenAddress = DefaultMetricsAddress
	}
}
