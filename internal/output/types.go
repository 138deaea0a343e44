// internal/output/types.go
package output

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/valpere/ORDScrapexter/internal/ord"
	"github.com/valpere/ORDScrapexter/internal/scraper"
)

// OutputFormat represents supported output formats
type OutputFormat string

const (
	FormatJSON       OutputFormat = "json"
	FormatYAML       OutputFormat = "yaml"
	FormatCSV        OutputFormat = "csv"
	FormatExcel      OutputFormat = "xlsx"
	FormatSQLite     OutputFormat = "sqlite"
	FormatPostgreSQL OutputFormat = "postgresql"
	FormatMySQL      OutputFormat = "mysql"
	FormatMongoDB    OutputFormat = "mongodb"
)

// DefaultBaseName is the file name, without extension, used when no output
// file is configured.
const DefaultBaseName = "ord_formatted_data"

// ValidOutputFormats returns all valid output format values
func ValidOutputFormats() []OutputFormat {
	return []OutputFormat{
		FormatJSON, FormatYAML, FormatCSV, FormatExcel,
		FormatSQLite, FormatPostgreSQL, FormatMySQL, FormatMongoDB,
	}
}

// IsValidFormat checks if a format is supported
func IsValidFormat(format OutputFormat) bool {
	for _, valid := range ValidOutputFormats() {
		if format == valid {
			return true
		}
	}
	return false
}

// IsFileFormat reports whether the format writes a local file.
func (f OutputFormat) IsFileFormat() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatCSV, FormatExcel, FormatSQLite:
		return true
	}
	return false
}

// DefaultFile returns the file used by a file format when none is configured.
func (f OutputFormat) DefaultFile() string {
	switch f {
	case FormatSQLite:
		return DefaultBaseName + ".db"
	case FormatJSON, FormatYAML, FormatCSV, FormatExcel:
		return DefaultBaseName + "." + string(f)
	}
	return ""
}

// Config represents output configuration
type Config struct {
	Format   OutputFormat   `yaml:"format" json:"format"`
	File     string         `yaml:"file,omitempty" json:"file,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty"`
	MongoDB  MongoDBConfig  `yaml:"mongodb,omitempty" json:"mongodb,omitempty"`
}

// DatabaseConfig configures the SQL sinks. The sqlite sink uses File when
// DSN is empty.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	TablePrefix string `yaml:"table_prefix,omitempty" json:"table_prefix,omitempty"`
	BatchSize   int    `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
}

// MongoDBConfig configures the MongoDB sink.
type MongoDBConfig struct {
	URI        string        `yaml:"uri,omitempty" json:"uri,omitempty"`
	Database   string        `yaml:"database,omitempty" json:"database,omitempty"`
	Collection string        `yaml:"collection,omitempty" json:"collection,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DefaultConfig returns the JSON file output. File is left empty so each
// format falls back to its own default file.
func DefaultConfig() Config {
	return Config{
		Format: FormatJSON,
		Database: DatabaseConfig{
			TablePrefix: "ord",
			BatchSize:   500,
		},
		MongoDB: MongoDBConfig{
			Database:   "ord",
			Collection: "datasets",
			Timeout:    30 * time.Second,
		},
	}
}

// Path returns the configured file, or the format default.
func (c Config) Path() string {
	if c.File != "" {
		return c.File
	}
	return c.Format.DefaultFile()
}

// Writer persists a scraped Document.
type Writer interface {
	Write(ctx context.Context, doc Document) error
	Close() error
}

// DatasetRecord is the persisted form of one scraped dataset.
type DatasetRecord struct {
	DatasetID         string          `json:"dataset_id" yaml:"dataset_id"`
	TotalReactions    int             `json:"total_reactions" yaml:"total_reactions"`
	SuccessfulScrapes int             `json:"successful_scrapes" yaml:"successful_scrapes"`
	Reactions         []*ord.Reaction `json:"reactions" yaml:"reactions"`

	// Error is set when the dataset failed or was never reached before a
	// run was interrupted.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Document maps dataset id to its record.
type Document map[string]DatasetRecord

// Build collects engine results into a Document. A dataset listed twice
// keeps its last result.
func Build(results []scraper.DatasetResult) Document {
	doc := make(Document, len(results))
	for _, r := range results {
		reactions := r.Reactions
		if reactions == nil {
			reactions = []*ord.Reaction{}
		}
		doc[r.DatasetID] = DatasetRecord{
			DatasetID:         r.DatasetID,
			TotalReactions:    r.TotalReactions,
			SuccessfulScrapes: r.SuccessfulScrapes,
			Reactions:         reactions,
			Error:             r.Error,
		}
	}
	return doc
}

// Totals returns the number of datasets and normalized reactions.
func (d Document) Totals() (datasets, reactions int) {
	for _, rec := range d {
		reactions += len(rec.Reactions)
	}
	return len(d), reactions
}

// SQL identifier validation
var (
	// starts with letter or underscore, contains letters, digits, underscores
	sqlIdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// keywords reserved by every supported SQL dialect
	reservedWords = map[string]bool{
		"ALL": true, "AND": true, "AS": true, "ASC": true, "BY": true, "CASE": true,
		"CHECK": true, "COLUMN": true, "CONSTRAINT": true, "CREATE": true, "DEFAULT": true,
		"DELETE": true, "DESC": true, "DISTINCT": true, "DROP": true, "ELSE": true,
		"FOREIGN": true, "FROM": true, "GROUP": true, "HAVING": true, "IN": true,
		"INDEX": true, "INSERT": true, "INTO": true, "IS": true, "JOIN": true, "KEY": true,
		"LIMIT": true, "NOT": true, "NULL": true, "ON": true, "OR": true, "ORDER": true,
		"PRIMARY": true, "REFERENCES": true, "SELECT": true, "SET": true, "TABLE": true,
		"THEN": true, "TO": true, "UNION": true, "UNIQUE": true, "UPDATE": true,
		"USING": true, "VALUES": true, "WHEN": true, "WHERE": true, "WITH": true,
	}
)

// MaxIdentifierLength is the PostgreSQL identifier limit, the tightest of the
// supported dialects.
const MaxIdentifierLength = 63

// ValidateSQLIdentifier validates that a string is a safe SQL identifier.
func ValidateSQLIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(identifier) > MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d characters", identifier, MaxIdentifierLength)
	}
	if !sqlIdentifierRegex.MatchString(identifier) {
		return fmt.Errorf("identifier %q must start with a letter or underscore and contain only letters, digits and underscores", identifier)
	}
	if reservedWords[strings.ToUpper(identifier)] {
		return fmt.Errorf("identifier %q is a reserved SQL keyword", identifier)
	}
	return nil
}
