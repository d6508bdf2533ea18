package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by Store.Backend.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// Token protects the HTTP API. Usually supplied via CONVREV_SERVER_TOKEN
	// rather than the config file.
	Token string `yaml:"token"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Backend string       `yaml:"backend"`
	CSVPath string       `yaml:"csv_path"`
	DataDir string       `yaml:"data_dir"`
	Sheets  SheetsConfig `yaml:"sheets"`
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
	CredentialsFile string `yaml:"credentials_file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Catalog: CatalogConfig{
			Path: "cyberbullying_conversations_generated.json",
		},
		Store: StoreConfig{
			Backend: BackendCSV,
			CSVPath: "conversation_reviews.csv",
			DataDir: defaultDataDir(),
			Sheets: SheetsConfig{
				SheetName: "reviews",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "convrev-data"
		}
	}
	return filepath.Join(dir, "convrev")
}

// DefaultPath returns the XDG-compatible config file location.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "convrev", "config.yaml")
}

// Load reads configuration from the YAML file at path (DefaultPath when
// empty), then applies CONVREV_* environment overrides. A missing config
// file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONVREV_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			fmt.Fprintf(os.Stderr, "[WARN] ignoring invalid CONVREV_SERVER_PORT %q\n", v)
		}
	}
	setEnvString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setEnvString("CONVREV_SERVER_TOKEN", &cfg.Server.Token)
	setEnvString("CONVREV_CATALOG_PATH", &cfg.Catalog.Path)
	setEnvString("CONVREV_STORE_BACKEND", &cfg.Store.Backend)
	setEnvString("CONVREV_STORE_CSV_PATH", &cfg.Store.CSVPath)
	setEnvString("CONVREV_STORE_DATA_DIR", &cfg.Store.DataDir)
	setEnvString("CONVREV_SHEETS_SPREADSHEET_ID", &cfg.Store.Sheets.SpreadsheetID)
	setEnvString("CONVREV_SHEETS_SHEET_NAME", &cfg.Store.Sheets.SheetName)
	setEnvString("CONVREV_SHEETS_CREDENTIALS_FILE", &cfg.Store.Sheets.CredentialsFile)
	setEnvString("CONVREV_LOG_LEVEL", &cfg.Log.Level)
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case BackendCSV, BackendSQLite:
	case BackendSheets:
		if c.Store.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("store backend %q requires sheets.spreadsheet_id "+
				"(or CONVREV_SHEETS_SPREADSHEET_ID)", BackendSheets)
		}
	default:
		return fmt.Errorf("unknown store backend %q (want %s, %s, or %s)",
			c.Store.Backend, BackendCSV, BackendSQLite, BackendSheets)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
