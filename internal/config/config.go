package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/cleaning"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
)

// Results backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

const (
	envPrefix = "INSIGHTMATE"
	dirName   = ".insightmate"
)

// Global configuration structure.
type Global struct {
	DataDir        string `mapstructure:"data_dir" yaml:"data_dir"`
	ResultsBackend string `mapstructure:"results_backend" yaml:"results_backend"`

	// Analysis
	IQRMultiplier float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	ClusterSeed   uint64  `mapstructure:"cluster_seed" yaml:"cluster_seed"`
	MaxClusters   int     `mapstructure:"max_clusters" yaml:"max_clusters"`
	Parallelism   int     `mapstructure:"parallelism" yaml:"parallelism"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Loading
	CSVDelimiter       string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	SampleRows         int    `mapstructure:"sample_rows" yaml:"sample_rows"`
}

// Keys lists the settable configuration keys.
var Keys = []string{
	"data_dir", "results_backend", "iqr_multiplier", "cluster_seed", "max_clusters",
	"parallelism", "log_level", "log_format", "csv_delimiter", "decimal_separator",
	"thousands_separator", "sample_rows",
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insightmate/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A .env file in the working directory is read into the environment first.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	ad := analysis.DefaultOptions()
	v.SetDefault("results_backend", BackendSQLite)
	v.SetDefault("iqr_multiplier", ad.IQRMultiplier)
	v.SetDefault("cluster_seed", ad.ClusterSeed)
	v.SetDefault("max_clusters", ad.MaxClusters)
	v.SetDefault("parallelism", ad.Parallelism)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("sample_rows", 0)
	v.SetDefault("data_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = dir
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated and single-character settings.
func (c *Global) Validate() error {
	switch c.ResultsBackend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("results_backend must be %q or %q, got %q", BackendMemory, BackendSQLite, c.ResultsBackend)
	}
	for key, s := range map[string]string{
		"csv_delimiter":       c.CSVDelimiter,
		"decimal_separator":   c.DecimalSeparator,
		"thousands_separator": c.ThousandsSeparator,
	} {
		if utf8.RuneCountInString(unescape(s)) > 1 {
			return fmt.Errorf("%s must be a single character, got %q", key, s)
		}
	}
	if c.IQRMultiplier < 0 {
		return fmt.Errorf("iqr_multiplier must not be negative")
	}
	return nil
}

// Set assigns one key from its string form, as used by `config set`.
func (c *Global) Set(key, value string) error {
	var err error
	switch key {
	case "data_dir":
		c.DataDir = value
	case "results_backend":
		c.ResultsBackend = strings.ToLower(value)
	case "iqr_multiplier":
		c.IQRMultiplier, err = cast.ToFloat64E(value)
	case "cluster_seed":
		c.ClusterSeed, err = cast.ToUint64E(value)
	case "max_clusters":
		c.MaxClusters, err = cast.ToIntE(value)
	case "parallelism":
		c.Parallelism, err = cast.ToIntE(value)
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "csv_delimiter":
		c.CSVDelimiter = value
	case "decimal_separator":
		c.DecimalSeparator = value
	case "thousands_separator":
		c.ThousandsSeparator = value
	case "sample_rows":
		c.SampleRows, err = cast.ToIntE(value)
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.Validate()
}

// LoadOptions maps the loading settings onto dataset options.
func (c *Global) LoadOptions() dataset.LoadOptions {
	return dataset.LoadOptions{
		Delimiter: firstRune(c.CSVDelimiter),
		MaxRows:   c.SampleRows,
		Parse: dataset.ParseOptions{
			DecimalSeparator:   firstRune(c.DecimalSeparator),
			ThousandsSeparator: firstRune(c.ThousandsSeparator),
		},
	}
}

// AnalysisOptions maps the analysis settings onto stage options.
func (c *Global) AnalysisOptions() analysis.Options {
	o := analysis.DefaultOptions()
	if c.IQRMultiplier > 0 {
		o.IQRMultiplier = c.IQRMultiplier
	}
	if c.MaxClusters > 0 {
		o.MaxClusters = c.MaxClusters
	}
	o.ClusterSeed = c.ClusterSeed
	o.Parallelism = c.Parallelism
	return o
}

// CleaningOptions maps the cleaning settings onto stage options.
func (c *Global) CleaningOptions() cleaning.Options {
	o := cleaning.DefaultOptions()
	if c.IQRMultiplier > 0 {
		o.IQRMultiplier = c.IQRMultiplier
	}
	return o
}

// LoggingOptions maps the logging settings.
func (c *Global) LoggingOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat}
}

// unescape accepts `\t` for tab, which is awkward to write in YAML and shells.
func unescape(s string) string {
	if s == `\t` {
		return "\t"
	}
	return s
}

func firstRune(s string) rune {
	s = unescape(s)
	if s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
