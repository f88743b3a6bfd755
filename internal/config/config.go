package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabsift/internal/utils"
)

const dirName = ".tabsift"

// Global configuration structure.
type Global struct {
	// Workspace holds session.json, filtered snapshots and charts.
	WorkspaceDir string `mapstructure:"workspace_dir" yaml:"workspace_dir"`

	// Snapshot persistence
	StoreBackend   string `mapstructure:"store_backend" yaml:"store_backend"`
	FilteredFormat string `mapstructure:"filtered_format" yaml:"filtered_format"`
	FilteredFile   string `mapstructure:"filtered_file" yaml:"filtered_file"`
	SQLitePath     string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	// Loader options
	SheetName    string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex   int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	PreviewRows  int    `mapstructure:"preview_rows" yaml:"preview_rows"`

	// Charts
	ChartDir    string `mapstructure:"chart_dir" yaml:"chart_dir"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Voice transcription
	TranscribeURL      string `mapstructure:"transcribe_url" yaml:"transcribe_url"`
	TranscribeModel    string `mapstructure:"transcribe_model" yaml:"transcribe_model"`
	TranscribeLanguage string `mapstructure:"transcribe_language" yaml:"transcribe_language"`
	APIKey             string `mapstructure:"api_key" yaml:"api_key"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// keys filled by applyDefaults; Save leaves them blank
	derived map[string]bool
}

// Keys lists every settable key in display order.
var Keys = []string{
	"workspace_dir", "store_backend", "filtered_format", "filtered_file", "sqlite_path",
	"sheet_name", "sheet_index", "csv_delimiter", "preview_rows",
	"chart_dir", "chart_width", "chart_height",
	"transcribe_url", "transcribe_model", "transcribe_language", "api_key",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"log_level", "log_format",
}

// Dir returns ~/.tabsift.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabsift/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	out := *c
	if out.derived["workspace_dir"] {
		out.WorkspaceDir = ""
	}
	if out.derived["sqlite_path"] {
		out.SQLitePath = ""
	}
	if out.derived["chart_dir"] {
		out.ChartDir = ""
	}
	b, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env (TABSIFT_*) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	return LoadWithOverrides(cfgFile, nil)
}

// LoadWithOverrides is Load with command-line values that win over every
// other source. Paths derived from workspace_dir follow an overridden one.
func LoadWithOverrides(cfgFile string, overrides map[string]any) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABSIFT")
	v.AutomaticEnv()

	v.SetDefault("workspace_dir", "")
	v.SetDefault("store_backend", "file")
	v.SetDefault("filtered_format", "xlsx")
	v.SetDefault("filtered_file", "filtered_data")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("preview_rows", 10)
	v.SetDefault("chart_dir", "")
	v.SetDefault("chart_width", 1024)
	v.SetDefault("chart_height", 640)
	v.SetDefault("transcribe_url", "https://api.openai.com/v1")
	v.SetDefault("transcribe_model", "whisper-1")
	v.SetDefault("transcribe_language", "")
	v.SetDefault("api_key", "")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// the file is optional, but a broken one is an error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.applyDefaults(dir)
	return &c, nil
}

// applyDefaults resolves paths that hang off the workspace directory.
func (c *Global) applyDefaults(dir string) {
	c.derived = map[string]bool{}
	if c.WorkspaceDir == "" {
		c.WorkspaceDir = filepath.Join(dir, "workspace")
		c.derived["workspace_dir"] = true
	}
	c.WorkspaceDir = expand(c.WorkspaceDir)
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.WorkspaceDir, "snapshots.db")
		c.derived["sqlite_path"] = true
	}
	if c.ChartDir == "" {
		c.ChartDir = filepath.Join(c.WorkspaceDir, "charts")
		c.derived["chart_dir"] = true
	}
	c.SQLitePath = expand(c.SQLitePath)
	c.ChartDir = expand(c.ChartDir)
}

func expand(p string) string {
	if out, err := utils.ExpandHome(p); err == nil {
		return out
	}
	return p
}

// Validate checks enumerated and numeric settings.
func (c *Global) Validate() error {
	switch c.StoreBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid store_backend: %s (use file or sqlite)", c.StoreBackend)
	}
	switch c.FilteredFormat {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("invalid filtered_format: %s (use xlsx or csv)", c.FilteredFormat)
	}
	if len([]rune(c.CSVDelimiter)) > 1 && c.CSVDelimiter != `\t` {
		return fmt.Errorf("invalid csv_delimiter: %q (single character)", c.CSVDelimiter)
	}
	if c.PreviewRows < 0 || c.SheetIndex < 0 {
		return fmt.Errorf("preview_rows and sheet_index must not be negative")
	}
	return nil
}

// Delimiter returns the configured CSV delimiter ("" means by extension).
func (c *Global) Delimiter() string {
	if c.CSVDelimiter == `\t` {
		return "\t"
	}
	return c.CSVDelimiter
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "workspace_dir":
		return c.WorkspaceDir, nil
	case "store_backend":
		return c.StoreBackend, nil
	case "filtered_format":
		return c.FilteredFormat, nil
	case "filtered_file":
		return c.FilteredFile, nil
	case "sqlite_path":
		return c.SQLitePath, nil
	case "sheet_name":
		return c.SheetName, nil
	case "sheet_index":
		return strconv.Itoa(c.SheetIndex), nil
	case "csv_delimiter":
		return c.CSVDelimiter, nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "chart_dir":
		return c.ChartDir, nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "transcribe_url":
		return c.TranscribeURL, nil
	case "transcribe_model":
		return c.TranscribeModel, nil
	case "transcribe_language":
		return c.TranscribeLanguage, nil
	case "api_key":
		return c.APIKey, nil
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), nil
	case "retry_max_attempts":
		return strconv.Itoa(c.RetryMaxAttempts), nil
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs), nil
	case "retry_max_delay_ms":
		return strconv.Itoa(c.RetryMaxDelayMs), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val for key and stores it.
func (c *Global) Set(key, val string) error {
	ints := map[string]*int{
		"sheet_index":         &c.SheetIndex,
		"preview_rows":        &c.PreviewRows,
		"chart_width":         &c.ChartWidth,
		"chart_height":        &c.ChartHeight,
		"http_timeout_sec":    &c.HTTPTimeoutSec,
		"retry_max_attempts":  &c.RetryMaxAttempts,
		"retry_base_delay_ms": &c.RetryBaseDelayMs,
		"retry_max_delay_ms":  &c.RetryMaxDelayMs,
	}
	if p, ok := ints[key]; ok {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*p = i
		return nil
	}
	delete(c.derived, key)
	switch key {
	case "workspace_dir":
		c.WorkspaceDir = val
	case "store_backend":
		v := strings.ToLower(val)
		if v != "file" && v != "sqlite" {
			return fmt.Errorf("invalid store_backend: %s (use file or sqlite)", val)
		}
		c.StoreBackend = v
	case "filtered_format":
		v := strings.ToLower(strings.TrimPrefix(val, "."))
		if v != "xlsx" && v != "csv" {
			return fmt.Errorf("invalid filtered_format: %s (use xlsx or csv)", val)
		}
		c.FilteredFormat = v
	case "filtered_file":
		c.FilteredFile = val
	case "sqlite_path":
		c.SQLitePath = val
	case "sheet_name":
		c.SheetName = val
	case "csv_delimiter":
		c.CSVDelimiter = val
	case "chart_dir":
		c.ChartDir = val
	case "transcribe_url":
		c.TranscribeURL = val
	case "transcribe_model":
		c.TranscribeModel = val
	case "transcribe_language":
		c.TranscribeLanguage = val
	case "api_key":
		c.APIKey = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return c.Validate()
}
