// internal/output/output_test.go
package output

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"

	"github.com/valpere/ORDScrapexter/internal/ord"
	"github.com/valpere/ORDScrapexter/internal/scraper"
)

func ptr[T any](v T) *T { return &v }

func sampleResults() []scraper.DatasetResult {
	r1 := &ord.Reaction{
		ReactionID: "ord-a1",
		Success:    true,
		Inputs: []ord.InputTab{{
			Name: "aryl halide",
			Components: []ord.Component{
				{
					Identifiers:  []ord.Identifier{{Type: "SMILES", Value: "Brc1ccccc1"}, {Type: "NAME", Value: "bromobenzene"}},
					Amount:       ord.Amount{Moles: &ord.Quantity{Value: ptr(0.5), Units: "MILLIMOLE"}},
					ReactionRole: "REACTANT",
				},
				{
					Identifiers:  []ord.Identifier{{Type: "NAME", Value: "THF"}},
					Amount:       ord.Amount{Volume: &ord.Quantity{Value: ptr(2.0), Units: "MILLILITER"}},
					ReactionRole: "SOLVENT",
				},
			},
		}},
		Outcomes: []ord.Product{{
			Identifiers:      []ord.Identifier{{Type: "SMILES", Value: "c1ccccc1"}},
			ReactionRole:     "PRODUCT",
			IsDesiredProduct: true,
			Measurements:     []ord.Measurement{{Type: ptr(3), Details: ptr("rendement <95%> ü")}},
		}},
	}
	r2 := &ord.Reaction{
		ReactionID: "ord-a2",
		Success:    true,
		Inputs: []ord.InputTab{{
			Name:       "catalyst",
			Components: []ord.Component{{Identifiers: []ord.Identifier{}, ReactionRole: "CATALYST"}},
		}},
		Outcomes: []ord.Product{},
	}
	return []scraper.DatasetResult{
		{DatasetID: "ord_dataset-b", TotalReactions: 1, SuccessfulScrapes: 0, Error: "navigation failed"},
		{DatasetID: "ord_dataset-a", TotalReactions: 3, SuccessfulScrapes: 2, Reactions: []*ord.Reaction{r1, r2}},
	}
}

func TestBuild(t *testing.T) {
	doc := Build(sampleResults())

	if diff := cmp.Diff([]string{"ord_dataset-a", "ord_dataset-b"}, doc.DatasetIDs()); diff != "" {
		t.Errorf("dataset ids mismatch (-want +got):\n%s", diff)
	}
	if b := doc["ord_dataset-b"]; b.Reactions == nil || len(b.Reactions) != 0 {
		t.Errorf("failed dataset should have an empty reaction list, got %#v", b.Reactions)
	}
	if datasets, reactions := doc.Totals(); datasets != 2 || reactions != 2 {
		t.Errorf("Totals() = (%d, %d), want (2, 2)", datasets, reactions)
	}
	if doc["ord_dataset-b"].Error != "navigation failed" || doc["ord_dataset-a"].Error != "" {
		t.Errorf("dataset errors not carried: a=%q b=%q", doc["ord_dataset-a"].Error, doc["ord_dataset-b"].Error)
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	mgr, err := NewManager(Config{Format: FormatJSON, File: path})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := mgr.Persist(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "rendement <95%> ü") {
		t.Error("expected non-ASCII and HTML characters to be written verbatim")
	}
	if !strings.HasPrefix(text, "{\n  \"ord_dataset-a\": {") {
		t.Errorf("unexpected indentation: %.40q", text)
	}

	var got map[string]struct {
		DatasetID         string            `json:"dataset_id"`
		TotalReactions    int               `json:"total_reactions"`
		SuccessfulScrapes int               `json:"successful_scrapes"`
		Reactions         []json.RawMessage `json:"reactions"`
		Error             *string           `json:"error"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	a := got["ord_dataset-a"]
	if a.DatasetID != "ord_dataset-a" || a.TotalReactions != 3 || a.SuccessfulScrapes != 2 || len(a.Reactions) != 2 {
		t.Errorf("unexpected dataset record: %+v", a)
	}
	if a.Error != nil {
		t.Errorf("successful dataset should omit error, got %q", *a.Error)
	}
	if b := got["ord_dataset-b"]; b.Error == nil || *b.Error != "navigation failed" {
		t.Errorf("failed dataset should carry its error, got %+v", b)
	}

	var r ord.Reaction
	if err := json.Unmarshal(a.Reactions[0], &r); err != nil {
		t.Fatalf("reaction does not round trip: %v", err)
	}
	if r.Inputs[0].Name != "aryl halide" || len(r.Inputs[0].Components) != 2 {
		t.Errorf("unexpected inputs: %+v", r.Inputs)
	}
}

func TestYAMLWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	mgr, _ := NewManager(Config{Format: FormatYAML, File: path})
	if _, err := mgr.Persist(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	var got map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if got["ord_dataset-a"]["successful_scrapes"] != 2 {
		t.Errorf("unexpected record: %v", got["ord_dataset-a"])
	}
	reactions, _ := got["ord_dataset-a"]["reactions"].([]interface{})
	if len(reactions) != 2 {
		t.Fatalf("expected 2 reactions, got %v", got["ord_dataset-a"]["reactions"])
	}
	first := reactions[0].(map[string]interface{})
	tab := first["inputsMap"].([]interface{})[0].([]interface{})
	if tab[0] != "aryl halide" {
		t.Errorf("input tab should serialize as [name, body], got %v", tab)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	mgr, _ := NewManager(Config{Format: FormatCSV, File: path})
	if _, err := mgr.Persist(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if diff := cmp.Diff(csvColumns, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{
		{"component", "ord_dataset-a", "ord-a1", "aryl halide", "REACTANT", "", "SMILES:Brc1ccccc1; NAME:bromobenzene", "moles", "0.5", "MILLIMOLE", ""},
		{"component", "ord_dataset-a", "ord-a1", "aryl halide", "SOLVENT", "", "NAME:THF", "volume", "2", "MILLILITER", ""},
		{"component", "ord_dataset-a", "ord-a2", "catalyst", "CATALYST", "", "", "", "", "", ""},
		{"product", "ord_dataset-a", "ord-a1", "", "PRODUCT", "true", "SMILES:c1ccccc1", "", "", "", "3 rendement <95%> ü"},
	}
	if diff := cmp.Diff(want, records[1:]); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExcelWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	mgr, _ := NewManager(Config{Format: FormatExcel, File: path})
	if _, err := mgr.Persist(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{SheetDatasets, SheetComponents, SheetProducts}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	datasets, err := f.GetRows(SheetDatasets)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	wantDatasets := [][]string{
		datasetColumns,
		{"ord_dataset-a", "3", "2", "2"},
		{"ord_dataset-b", "1", "0", "0"},
	}
	if diff := cmp.Diff(wantDatasets, datasets); diff != "" {
		t.Errorf("datasets sheet mismatch (-want +got):\n%s", diff)
	}

	components, _ := f.GetRows(SheetComponents)
	if len(components) != 4 {
		t.Errorf("expected header and 3 component rows, got %d", len(components))
	}
	products, _ := f.GetRows(SheetProducts)
	if len(products) != 2 || products[1][1] != "ord-a1" {
		t.Errorf("unexpected products sheet: %v", products)
	}
}

func TestSQLWriter_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ord.db")
	cfg := DefaultConfig()
	cfg.Format = FormatSQLite
	cfg.File = path
	cfg.Database.BatchSize = 1

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	// a second write upserts instead of duplicating rows
	for i := 0; i < 2; i++ {
		if _, err := mgr.Persist(context.Background(), sampleResults()); err != nil {
			t.Fatalf("Persist #%d failed: %v", i+1, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var datasets, reactions int
	if err := db.QueryRow("SELECT COUNT(*) FROM ord_datasets").Scan(&datasets); err != nil {
		t.Fatalf("count datasets: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM ord_reactions").Scan(&reactions); err != nil {
		t.Fatalf("count reactions: %v", err)
	}
	if datasets != 2 || reactions != 2 {
		t.Errorf("got %d datasets and %d reactions, want 2 and 2", datasets, reactions)
	}

	var total, successful int
	if err := db.QueryRow("SELECT total_reactions, successful_scrapes FROM ord_datasets WHERE dataset_id = ?",
		"ord_dataset-a").Scan(&total, &successful); err != nil {
		t.Fatalf("query dataset: %v", err)
	}
	if total != 3 || successful != 2 {
		t.Errorf("got total=%d successful=%d", total, successful)
	}

	var payload string
	if err := db.QueryRow("SELECT payload FROM ord_reactions WHERE reaction_id = ?", "ord-a2").Scan(&payload); err != nil {
		t.Fatalf("query reaction: %v", err)
	}
	var r ord.Reaction
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("payload is not a reaction: %v", err)
	}
	if r.ReactionID != "ord-a2" || r.Inputs[0].Components[0].ReactionRole != "CATALYST" {
		t.Errorf("unexpected payload: %+v", r)
	}
}

func TestSQLWriter_InvalidPrefix(t *testing.T) {
	cfg := Config{Format: FormatSQLite, File: filepath.Join(t.TempDir(), "x.db")}
	cfg.Database.TablePrefix = "ord-data"
	if _, err := NewSQLWriter(context.Background(), FormatSQLite, cfg); err == nil {
		t.Error("expected error for invalid table prefix")
	}
}

func TestConnectionString(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{DSN: "scraper:secret@tcp(db:3306)/ord"}}
	dsn, err := connectionString(FormatMySQL, cfg)
	if err != nil {
		t.Fatalf("connectionString failed: %v", err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime in %q", dsn)
	}

	if _, err := connectionString(FormatPostgreSQL, Config{}); err == nil {
		t.Error("expected error for missing PostgreSQL connection string")
	}

	dsn, err = connectionString(FormatSQLite, Config{Format: FormatSQLite})
	if err != nil || dsn != "ord_formatted_data.db"+sqliteParams {
		t.Errorf("unexpected sqlite dsn %q (%v)", dsn, err)
	}
}

func TestInsertQuery(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatSQLite, "INSERT INTO t (k, a, b) VALUES (?, ?, ?) ON CONFLICT (k) DO UPDATE SET a = excluded.a, b = excluded.b"},
		{FormatPostgreSQL, "INSERT INTO t (k, a, b) VALUES ($1, $2, $3) ON CONFLICT (k) DO UPDATE SET a = excluded.a, b = excluded.b"},
		{FormatMySQL, "INSERT INTO t (k, a, b) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE a = VALUES(a), b = VALUES(b)"},
	}
	for _, tt := range tests {
		w := &SQLWriter{dialect: dialects[tt.format]}
		if got := w.insertQuery("t", []string{"k"}, []string{"a", "b"}); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestMongoDocument(t *testing.T) {
	doc := Build(sampleResults())
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	got, err := mongoDocument("ord_dataset-a", doc["ord_dataset-a"], now)
	if err != nil {
		t.Fatalf("mongoDocument failed: %v", err)
	}
	if got["_id"] != "ord_dataset-a" || got["total_reactions"] != 3 || got["scraped_at"] != now {
		t.Errorf("unexpected document: %v", got)
	}
	reactions, ok := got["reactions"].(bson.A)
	if !ok || len(reactions) != 2 {
		t.Fatalf("unexpected reactions: %#v", got["reactions"])
	}

	empty, err := mongoDocument("ord_dataset-b", doc["ord_dataset-b"], now)
	if err != nil {
		t.Fatalf("mongoDocument failed: %v", err)
	}
	if r, ok := empty["reactions"].(bson.A); !ok || len(r) != 0 {
		t.Errorf("expected empty reactions array, got %#v", empty["reactions"])
	}
	if empty["error"] != "navigation failed" {
		t.Errorf("expected dataset error in document, got %v", empty["error"])
	}
	if _, ok := got["error"]; ok {
		t.Error("successful dataset should not carry an error key")
	}
}

func TestMongoDBWriter_RequiresURI(t *testing.T) {
	if _, err := NewMongoDBWriter(context.Background(), MongoDBConfig{Database: "ord", Collection: "datasets"}); err == nil {
		t.Error("expected error for missing connection string")
	}
}

func TestNewManager(t *testing.T) {
	if _, err := NewManager(Config{Format: "pdf"}); err == nil {
		t.Error("expected error for unsupported format")
	}

	mgr, err := NewManager(Config{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if mgr.Destination() != "ord_formatted_data.json" {
		t.Errorf("unexpected default destination %q", mgr.Destination())
	}
}

func TestValidateSQLIdentifier(t *testing.T) {
	tests := []struct {
		name        string
		identifier  string
		expectError bool
	}{
		{"valid identifier", "ord_reactions", false},
		{"starts with underscore", "_private", false},
		{"empty string", "", true},
		{"starts with number", "123ord", true},
		{"contains hyphen", "ord-data", true},
		{"reserved word", "select", true},
		{"too long", "a" + strings.Repeat("b", 63), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSQLIdentifier(tt.identifier)
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
