package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Trend    TrendConfig    `mapstructure:"trend"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// FeedConfig points at the tcgcsv-style marketplace price feed.
type FeedConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	CategoryID int           `mapstructure:"category_id"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	// Pause between group fetches so we stay polite to the feed.
	Throttle time.Duration `mapstructure:"throttle"`
	// Max groups fetched concurrently within a run.
	Concurrency int `mapstructure:"concurrency"`
}

// VisionConfig configures the Google Vision REST endpoint used for card scans.
type VisionConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type TrendConfig struct {
	Lookback7d  int `mapstructure:"lookback_7d"`  // search window behind the 7d anchor, in days
	Lookback30d int `mapstructure:"lookback_30d"` // search window behind the 30d anchor, in days
}

type ResolverConfig struct {
	// Minimum confidence for a match to be accepted; below it the
	// resolution is reported as unresolved.
	AcceptThreshold float64 `mapstructure:"accept_threshold"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	// TODO: env path
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	// Support environment variables with dot notation (e.g., FEED_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("feed.retries", 3)
	v.SetDefault("feed.concurrency", 5)
	v.SetDefault("trend.lookback_7d", 10)
	v.SetDefault("trend.lookback_30d", 35)
	v.SetDefault("resolver.accept_threshold", 0.6)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}
