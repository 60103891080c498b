package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"warshipfetch/pkg/version"
)

// DefaultPath is where the command looks for its configuration file.
const DefaultPath = "configs/warshipfetch.yaml"

// Environment fallbacks, read after an optional .env file.
const (
	EnvUserAgent = "WARSHIPFETCH_USER_AGENT"
	EnvCSVPath   = "WARSHIPFETCH_CSV_PATH"
)

// AutoLanguage is the label service placeholder for the requester's language.
const AutoLanguage = "[AUTO_LANGUAGE]"

// MaxLimit caps the server-side result limit. The query builder enforces the same cap.
const MaxLimit = 10000

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration.
type Config struct {
	Request RequestConfig `yaml:"request"`
	Query   QueryConfig   `yaml:"query"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Cache   CacheConfig   `yaml:"cache"`
	Output  OutputConfig  `yaml:"output"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Timeout   Duration `yaml:"timeout"`
	UserAgent string   `yaml:"user_agent"`
}

// QueryConfig holds the parameters of the warship SPARQL query.
type QueryConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Class     string   `yaml:"class"`     // Wikidata class the ships must be an instance of (transitively)
	Languages []string `yaml:"languages"` // Label service fallback chain
	Limit     int      `yaml:"limit"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls the optional SPARQL response cache.
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	TTL     Duration `yaml:"ttl"`
}

// OutputConfig controls the report and the optional persistence paths.
type OutputConfig struct {
	PreviewRows int    `yaml:"preview_rows"`
	CSVPath     string `yaml:"csv_path"` // empty disables the CSV export
	SaveDB      bool   `yaml:"save_db"`
}

// DefaultUserAgent identifies the client to the query service.
func DefaultUserAgent() string {
	return fmt.Sprintf("WarshipDataFetcher/1.0 (warshipfetch/%s)", version.Version)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Timeout:   Duration(60 * time.Second),
			UserAgent: DefaultUserAgent(),
		},
		Query: QueryConfig{
			Endpoint:  "https://query.wikidata.org/sparql",
			Class:     "Q31146",
			Languages: []string{AutoLanguage, "en"},
			Limit:     100,
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/warshipfetch.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/warshipfetch.db",
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     Duration(Day),
		},
		Output: OutputConfig{
			PreviewRows: 5,
		},
	}
}

// Load loads the configuration from the given path.
// A missing file is not an error: the defaults are used and nothing is written to disk.
// Environment variables (optionally from a .env file next to the working directory) fill
// in values the file leaves empty.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if ua := os.Getenv(EnvUserAgent); ua != "" && (cfg.Request.UserAgent == "" || cfg.Request.UserAgent == DefaultUserAgent()) {
		cfg.Request.UserAgent = ua
	}
	if cfg.Request.UserAgent == "" {
		cfg.Request.UserAgent = DefaultUserAgent()
	}
	if cfg.Output.CSVPath == "" {
		cfg.Output.CSVPath = os.Getenv(EnvCSVPath)
	}
}

var reQID = regexp.MustCompile(`^Q[1-9][0-9]*$`)

// ValidClass reports whether s is a Wikidata item id such as Q31146.
func ValidClass(s string) bool {
	return reQID.MatchString(s)
}

// ValidLanguage reports whether s is AutoLanguage or a well-formed BCP 47 tag.
func ValidLanguage(s string) error {
	if s == AutoLanguage {
		return nil
	}
	_, err := language.Parse(s)
	return err
}

// Validate checks the configuration for values the query service would reject.
func (c *Config) Validate() error {
	if time.Duration(c.Request.Timeout) <= 0 {
		return fmt.Errorf("%w: request.timeout must be positive", ErrInvalid)
	}
	if strings.TrimSpace(c.Query.Endpoint) == "" {
		return fmt.Errorf("%w: query.endpoint is empty", ErrInvalid)
	}
	if !ValidClass(c.Query.Class) {
		return fmt.Errorf("%w: query.class %q is not a Wikidata item id", ErrInvalid, c.Query.Class)
	}
	if c.Query.Limit < 1 || c.Query.Limit > MaxLimit {
		return fmt.Errorf("%w: query.limit %d out of range 1..%d", ErrInvalid, c.Query.Limit, MaxLimit)
	}
	if len(c.Query.Languages) == 0 {
		return fmt.Errorf("%w: query.languages is empty", ErrInvalid)
	}
	for _, lang := range c.Query.Languages {
		if err := ValidLanguage(lang); err != nil {
			return fmt.Errorf("%w: query.languages entry %q: %v", ErrInvalid, lang, err)
		}
	}
	if c.Output.PreviewRows < 0 {
		return fmt.Errorf("%w: output.preview_rows must not be negative", ErrInvalid)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# warshipfetch configuration
# ------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	reCSV := regexp.MustCompile(`(?m)^(\s+)csv_path:`)
	data = reCSV.ReplaceAll(data, []byte("${1}# Leave empty to skip the CSV export\n${1}csv_path:"))

	reLang := regexp.MustCompile(`(?m)^(\s+)languages:`)
	data = reLang.ReplaceAll(data, []byte("${1}# BCP 47 codes; "+AutoLanguage+" lets the endpoint pick\n${1}languages:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
