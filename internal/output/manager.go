// internal/output/manager.go
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valpere/ORDScrapexter/internal/scraper"
	"github.com/valpere/ORDScrapexter/internal/utils"
)

// Manager manages different output formats
type Manager struct {
	config Config
	logger utils.Logger
}

// NewManager creates a new output manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if !IsValidFormat(cfg.Format) {
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}

	return &Manager{
		config: cfg,
		logger: utils.NewComponentLogger("output"),
	}, nil
}

// WithLogger replaces the manager's logger.
func (m *Manager) WithLogger(logger utils.Logger) *Manager {
	m.logger = logger
	return m
}

// Destination describes where the output goes, for log lines.
func (m *Manager) Destination() string {
	switch m.config.Format {
	case FormatPostgreSQL, FormatMySQL:
		return string(m.config.Format) + " " + m.config.Database.TablePrefix + "_*"
	case FormatMongoDB:
		return "mongodb " + m.config.MongoDB.Database + "." + m.config.MongoDB.Collection
	}
	return m.config.Path()
}

// GetWriter returns the appropriate writer for the configured format
func (m *Manager) GetWriter(ctx context.Context) (Writer, error) {
	switch m.config.Format {
	case FormatJSON:
		return NewJSONWriter(m.config.Path())
	case FormatYAML:
		return NewYAMLWriter(m.config.Path())
	case FormatCSV:
		return NewCSVWriter(m.config.Path())
	case FormatExcel:
		return NewExcelWriter(m.config.Path())
	case FormatSQLite, FormatPostgreSQL, FormatMySQL:
		return NewSQLWriter(ctx, m.config.Format, m.config)
	case FormatMongoDB:
		return NewMongoDBWriter(ctx, m.config.MongoDB)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", m.config.Format)
	}
}

// Write writes the document using the configured format
func (m *Manager) Write(ctx context.Context, doc Document) error {
	writer, err := m.GetWriter(ctx)
	if err != nil {
		return fmt.Errorf("failed to get writer: %w", err)
	}

	if err := writer.Write(ctx, doc); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// Persist builds the document from engine results and writes it
func (m *Manager) Persist(ctx context.Context, results []scraper.DatasetResult) (Document, error) {
	doc := Build(results)
	datasets, reactions := doc.Totals()
	if err := m.Write(ctx, doc); err != nil {
		return doc, err
	}
	m.logger.Infof("Saved %d datasets with %d reactions to %s", datasets, reactions, m.Destination())
	return doc, nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("output file path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}
