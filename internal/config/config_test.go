package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Point at a nonexistent file so only defaults apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 4600 {
		t.Errorf("Port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.Store.Backend != BackendCSV {
		t.Errorf("Backend = %q, want csv", cfg.Store.Backend)
	}
	if cfg.Store.CSVPath != "conversation_reviews.csv" {
		t.Errorf("CSVPath = %q", cfg.Store.CSVPath)
	}
	if cfg.Catalog.Path == "" {
		t.Error("default catalog path is empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
catalog:
  path: /data/conversations.json
store:
  backend: sqlite
  data_dir: /data/reviews
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.DataDir != "/data/reviews" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	t.Setenv("CONVREV_SERVER_PORT", "9100")
	t.Setenv("CONVREV_CATALOG_PATH", "/override/catalog.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Catalog.Path != "/override/catalog.json" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: dynamo\n")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown store backend") {
		t.Errorf("err = %v, want unknown backend error", err)
	}
}

func TestLoadSheetsRequiresSpreadsheetID(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: sheets\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for sheets backend without spreadsheet id")
	}

	t.Setenv("CONVREV_SHEETS_SPREADSHEET_ID", "sheet-123")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed with env spreadsheet id: %v", err)
	}
	if cfg.Store.Sheets.SpreadsheetID != "sheet-123" {
		t.Errorf("SpreadsheetID = %q", cfg.Store.Sheets.SpreadsheetID)
	}
	if cfg.Store.Sheets.SheetName != "reviews" {
		t.Errorf("SheetName default = %q", cfg.Store.Sheets.SheetName)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "server: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
