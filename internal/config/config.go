package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset and the file exists.
const DefaultPath = "thesisgen.yaml"

// PaperSize is a paper format in inches.
type PaperSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config is the full application configuration.
type Config struct {
	Output struct {
		Path string `yaml:"path"`
	} `yaml:"output"`

	Figures struct {
		Dir string `yaml:"dir"`
	} `yaml:"figures"`

	Placeholder struct {
		FontPath string  `yaml:"font_path"`
		FontSize float64 `yaml:"font_size"`
	} `yaml:"placeholder"`

	Document struct {
		FontName       string  `yaml:"font_name"`
		FontSizePt     float64 `yaml:"font_size_pt"`
		PictureWidthIn float64 `yaml:"picture_width_in"`
	} `yaml:"document"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	PDF struct {
		DefaultPaper    string               `yaml:"default_paper"`
		PaperSizes      map[string]PaperSize `yaml:"paper_sizes"`
		Margin          float64              `yaml:"margin"`
		TimeoutSecs     int                  `yaml:"timeout_secs"`
		ChromePath      string               `yaml:"chrome_path"`
		ChromeNoSandbox bool                 `yaml:"chrome_no_sandbox"`
		ChromePoolSize  int                  `yaml:"chrome_pool_size"`
		UserDataDir     string               `yaml:"user_data_dir"`
	} `yaml:"pdf"`

	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Cache struct {
		DocumentCacheEnabled bool          `yaml:"document_cache_enabled"`
		DocumentCacheTTL     time.Duration `yaml:"document_cache_ttl"`
		RedisHost            string        `yaml:"redis_host"`
		RateLimitDB          int           `yaml:"redis_rate_db"`
		DocumentCacheDB      int           `yaml:"redis_document_db"`
	} `yaml:"cache"`

	RateLimiter struct {
		Interval  time.Duration `yaml:"interval"`
		UserLimit int           `yaml:"user_limit"`
	} `yaml:"rate_limiter"`
}

// Default returns the configuration that reproduces the stock build: a .docx
// in the working directory with figures next to it.
func Default() Config {
	var cfg Config
	cfg.Output.Path = "SkripsiBelumFix.docx"
	cfg.Figures.Dir = "."
	cfg.Placeholder.FontSize = 14
	cfg.Document.FontName = "Times New Roman"
	cfg.Document.FontSizePt = 12
	cfg.Document.PictureWidthIn = 5.0
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 28
	cfg.PDF.DefaultPaper = "A4"
	cfg.PDF.PaperSizes = map[string]PaperSize{
		"A4":     {Width: 8.27, Height: 11.69},
		"LETTER": {Width: 8.5, Height: 11},
		"LEGAL":  {Width: 8.5, Height: 14},
	}
	cfg.PDF.Margin = 1.0
	cfg.PDF.TimeoutSecs = 30
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = ":8080"
	cfg.Cache.DocumentCacheTTL = 10 * time.Minute
	cfg.Cache.RedisHost = "127.0.0.1:6379"
	cfg.Cache.DocumentCacheDB = 1
	cfg.RateLimiter.Interval = time.Minute
	return cfg
}

// Load reads the file named by CONFIG_PATH, falling back to DefaultPath when
// it exists and to Default() otherwise.
func Load() Config {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return LoadFrom(p)
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return LoadFrom(DefaultPath)
	}
	return Default()
}

// LoadFrom reads and validates the YAML file at path on top of Default().
// It panics if the file cannot be read or holds invalid values.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: %s: %v", path, err))
	}
	return cfg
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New("output.path is empty")
	}
	if c.Document.PictureWidthIn <= 0 {
		return errors.New("document.picture_width_in must be positive")
	}
	if c.Document.FontSizePt <= 0 {
		return errors.New("document.font_size_pt must be positive")
	}
	if c.Placeholder.FontSize <= 0 {
		return errors.New("placeholder.font_size must be positive")
	}
	c.PDF.DefaultPaper = strings.ToUpper(c.PDF.DefaultPaper)
	if _, ok := c.PDF.PaperSizes[c.PDF.DefaultPaper]; !ok {
		return fmt.Errorf("pdf.default_paper %q is not in pdf.paper_sizes", c.PDF.DefaultPaper)
	}
	if c.PDF.Margin < 0 || c.PDF.Margin > 2.0 {
		return errors.New("pdf.margin must be between 0 and 2.0 inches")
	}
	if c.PDF.TimeoutSecs <= 0 {
		return errors.New("pdf.timeout_secs must be positive")
	}
	if c.PDF.ChromePoolSize < 0 {
		return errors.New("pdf.chrome_pool_size must not be negative")
	}
	if c.Cache.DocumentCacheEnabled && c.Cache.DocumentCacheTTL <= 0 {
		return errors.New("cache.document_cache_ttl must be positive when caching is enabled")
	}
	if c.RateLimiter.UserLimit < 0 {
		return errors.New("rate_limiter.user_limit must not be negative")
	}
	if c.RateLimiter.UserLimit > 0 && c.RateLimiter.Interval <= 0 {
		return errors.New("rate_limiter.interval must be positive")
	}
	return nil
}

// Paper returns the default paper size.
func (c Config) Paper() PaperSize {
	return c.PDF.PaperSizes[c.PDF.DefaultPaper]
}
