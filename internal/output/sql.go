// internal/output/sql.go
package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/valpere/ORDScrapexter/internal/utils"
)

// sqliteParams are appended to a sqlite path that carries no parameters.
const sqliteParams = "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// dialect captures the differences between the supported SQL databases.
type dialect struct {
	driver      string
	keyType     string
	payloadType string
	timeType    string
	bind        func(n int) string
	upsert      func(keys, cols []string) string
}

func questionBind(int) string { return "?" }

func dollarBind(n int) string { return "$" + strconv.Itoa(n) }

// excludedUpsert is the ON CONFLICT form shared by SQLite and PostgreSQL.
func excludedUpsert(keys, cols []string) string {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(keys, ", "), strings.Join(sets, ", "))
}

func mysqlUpsert(_, cols []string) string {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

var dialects = map[OutputFormat]dialect{
	FormatSQLite: {
		driver: "sqlite3", keyType: "TEXT", payloadType: "TEXT", timeType: "DATETIME",
		bind: questionBind, upsert: excludedUpsert,
	},
	FormatPostgreSQL: {
		driver: "postgres", keyType: "TEXT", payloadType: "JSONB", timeType: "TIMESTAMPTZ",
		bind: dollarBind, upsert: excludedUpsert,
	},
	FormatMySQL: {
		driver: "mysql", keyType: "VARCHAR(191)", payloadType: "LONGTEXT", timeType: "DATETIME",
		bind: questionBind, upsert: mysqlUpsert,
	},
}

// SQLWriter upserts datasets and reactions into two tables,
// <prefix>_datasets and <prefix>_reactions. Reactions are stored as JSON.
type SQLWriter struct {
	db             *sql.DB
	format         OutputFormat
	dialect        dialect
	datasetsTable  string
	reactionsTable string
	batchSize      int
	logger         utils.Logger
}

// NewSQLWriter connects to the database of the given format and creates the
// tables when missing.
func NewSQLWriter(ctx context.Context, format OutputFormat, cfg Config) (*SQLWriter, error) {
	d, ok := dialects[format]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL format: %s", format)
	}

	prefix := cfg.Database.TablePrefix
	if prefix == "" {
		prefix = "ord"
	}
	if err := ValidateSQLIdentifier(prefix + "_datasets"); err != nil {
		return nil, fmt.Errorf("invalid table prefix: %w", err)
	}
	batchSize := cfg.Database.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	dsn, err := connectionString(format, cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", format, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", format, err)
	}

	switch format {
	case FormatSQLite:
		db.SetMaxOpenConns(1) // single writer
		db.SetMaxIdleConns(1)
	default:
		db.SetMaxOpenConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	w := &SQLWriter{
		db:             db,
		format:         format,
		dialect:        d,
		datasetsTable:  prefix + "_datasets",
		reactionsTable: prefix + "_reactions",
		batchSize:      batchSize,
		logger:         utils.NewComponentLogger(string(format) + "-output"),
	}
	if err := w.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func connectionString(format OutputFormat, cfg Config) (string, error) {
	dsn := cfg.Database.DSN
	switch format {
	case FormatSQLite:
		if dsn == "" {
			path := cfg.Path()
			if err := ensureDir(path); err != nil {
				return "", err
			}
			dsn = path
		}
		if !strings.Contains(dsn, "?") {
			dsn += sqliteParams
		}
		return dsn, nil
	case FormatMySQL:
		if dsn == "" {
			return "", fmt.Errorf("MySQL connection string is required")
		}
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid MySQL connection string: %w", err)
		}
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	default:
		if dsn == "" {
			return "", fmt.Errorf("%s connection string is required", format)
		}
		return dsn, nil
	}
}

func (w *SQLWriter) createTables(ctx context.Context) error {
	d := w.dialect
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id %s PRIMARY KEY,
			total_reactions INTEGER NOT NULL,
			successful_scrapes INTEGER NOT NULL,
			scraped_at %s NOT NULL
		)`, w.datasetsTable, d.keyType, d.timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id %s NOT NULL,
			reaction_id %s NOT NULL,
			success BOOLEAN NOT NULL,
			payload %s NOT NULL,
			scraped_at %s NOT NULL,
			PRIMARY KEY (dataset_id, reaction_id)
		)`, w.reactionsTable, d.keyType, d.keyType, d.payloadType, d.timeType),
	}
	for _, stmt := range statements {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (w *SQLWriter) insertQuery(table string, keys, cols []string) string {
	all := append(append([]string{}, keys...), cols...)
	binds := make([]string, len(all))
	for i := range all {
		binds[i] = w.dialect.bind(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		table, strings.Join(all, ", "), strings.Join(binds, ", "), w.dialect.upsert(keys, cols))
}

// Write upserts every dataset and its reactions. Reactions are committed in
// batches.
func (w *SQLWriter) Write(ctx context.Context, doc Document) error {
	if w.db == nil {
		return fmt.Errorf("%s writer is closed", w.format)
	}
	now := time.Now().UTC()

	datasetQuery := w.insertQuery(w.datasetsTable,
		[]string{"dataset_id"}, []string{"total_reactions", "successful_scrapes", "scraped_at"})
	reactionQuery := w.insertQuery(w.reactionsTable,
		[]string{"dataset_id", "reaction_id"}, []string{"success", "payload", "scraped_at"})

	rows := 0
	for _, id := range doc.DatasetIDs() {
		rec := doc[id]
		if _, err := w.db.ExecContext(ctx, datasetQuery, id, rec.TotalReactions, rec.SuccessfulScrapes, now); err != nil {
			return fmt.Errorf("failed to upsert dataset %s: %w", id, err)
		}

		for start := 0; start < len(rec.Reactions); start += w.batchSize {
			end := min(start+w.batchSize, len(rec.Reactions))
			if err := w.writeBatch(ctx, reactionQuery, id, rec, start, end, now); err != nil {
				return err
			}
			rows += end - start
		}
	}

	w.logger.Debugf("Upserted %d datasets and %d reactions", len(doc), rows)
	return nil
}

func (w *SQLWriter) writeBatch(ctx context.Context, query, datasetID string, rec DatasetRecord, start, end int, now time.Time) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rec.Reactions[start:end] {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode reaction %s: %w", r.ReactionID, err)
		}
		if _, err := stmt.ExecContext(ctx, datasetID, r.ReactionID, r.Success, string(payload), now); err != nil {
			return fmt.Errorf("failed to upsert reaction %s: %w", r.ReactionID, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection
func (w *SQLWriter) Close() error {
	if w.db != nil {
		err := w.db.Close()
		w.db = nil
		return err
	}
	return nil
}
