// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/gurmukhi-data/granth-corpus/internal/corpus"
	"github.com/gurmukhi-data/granth-corpus/internal/pipeline"
	"github.com/gurmukhi-data/granth-corpus/internal/scraper"
)

// Config captures every knob the granthctl commands read.
type Config struct {
	Corpus        CorpusConfig               `mapstructure:"corpus"`
	Normalization corpus.NormalizationConfig `mapstructure:"normalization"`
	ErrorHandling pipeline.ErrorConfig       `mapstructure:"error_handling"`
	Scraper       scraper.Config             `mapstructure:"scraper"`
	CrossVal      CrossValConfig             `mapstructure:"crossval"`
	Logging       LoggingConfig              `mapstructure:"logging"`
}

// CorpusConfig governs the corpus build.
type CorpusConfig struct {
	PagesDir  string `mapstructure:"pages_dir"`
	OutputDir string `mapstructure:"output_dir"`
	TotalAngs int    `mapstructure:"total_angs"`
	AngStart  int    `mapstructure:"ang_start"`
	AngEnd    int    `mapstructure:"ang_end"`
	Workers   int    `mapstructure:"workers"`
}

// CrossValConfig governs cross-validation runs.
type CrossValConfig struct {
	SampleSize    int    `mapstructure:"sample_size"`
	Seed          int64  `mapstructure:"seed"`
	SecondaryName string `mapstructure:"secondary_name"`
	SecondaryPath string `mapstructure:"secondary_path"`
	ReportPath    string `mapstructure:"report_path"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GRANTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("granthctl")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.pages_dir", "data/raw_html")
	v.SetDefault("corpus.output_dir", "data/corpus")
	v.SetDefault("corpus.total_angs", 1430)
	v.SetDefault("corpus.workers", 4)

	v.SetDefault("normalization.nukta_policy", string(corpus.NuktaPreserve))
	v.SetDefault("normalization.nasal_policy", string(corpus.NasalCanonicalTippi))
	v.SetDefault("normalization.vishram_policy", string(corpus.VishramStrip))
	v.SetDefault("normalization.halant_policy", string(corpus.HalantDecompose))

	v.SetDefault("error_handling.max_record_errors", 100)
	v.SetDefault("error_handling.strict_mode", false)

	v.SetDefault("scraper.user_agent", "granth-corpus/0.3 (research scraper)")
	v.SetDefault("scraper.url_pattern", corpus.PageURLPattern)
	v.SetDefault("scraper.delay_ms", 500)
	v.SetDefault("scraper.jitter_ms", 1000)
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.max_retries", 4)
	v.SetDefault("scraper.backoff_base_ms", 500)
	v.SetDefault("scraper.forbidden_limit", 3)
	v.SetDefault("scraper.ang_start", 1)
	v.SetDefault("scraper.ang_end", 1430)

	v.SetDefault("crossval.sample_size", 50)
	v.SetDefault("crossval.seed", 1)
	v.SetDefault("crossval.secondary_name", "secondary")
	v.SetDefault("crossval.report_path", "data/corpus/cross_validation.json")

	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Corpus.TotalAngs <= 0 {
		return fmt.Errorf("corpus.total_angs must be > 0")
	}
	if c.Corpus.Workers <= 0 {
		return fmt.Errorf("corpus.workers must be > 0")
	}
	if strings.TrimSpace(c.Corpus.PagesDir) == "" {
		return fmt.Errorf("corpus.pages_dir is required")
	}
	if strings.TrimSpace(c.Corpus.OutputDir) == "" {
		return fmt.Errorf("corpus.output_dir is required")
	}
	if err := validatePolicies(c.Normalization); err != nil {
		return err
	}
	if c.ErrorHandling.MaxRecordErrors <= 0 {
		return fmt.Errorf("error_handling.max_record_errors must be > 0")
	}
	if c.Scraper.AngStart <= 0 || c.Scraper.AngEnd < c.Scraper.AngStart {
		return fmt.Errorf("scraper ang range %d..%d is invalid", c.Scraper.AngStart, c.Scraper.AngEnd)
	}
	if c.CrossVal.SampleSize <= 0 {
		return fmt.Errorf("crossval.sample_size must be > 0")
	}
	return nil
}

func validatePolicies(n corpus.NormalizationConfig) error {
	switch n.Nukta {
	case corpus.NuktaPreserve, corpus.NuktaStrip:
	default:
		return fmt.Errorf("unknown normalization.nukta_policy %q", n.Nukta)
	}
	switch n.Nasal {
	case corpus.NasalCanonicalTippi, corpus.NasalCanonicalBindi, corpus.NasalPreserve:
	default:
		return fmt.Errorf("unknown normalization.nasal_policy %q", n.Nasal)
	}
	switch n.Vishram {
	case corpus.VishramStrip, corpus.VishramPreserveSeparate:
	default:
		return fmt.Errorf("unknown normalization.vishram_policy %q", n.Vishram)
	}
	switch n.Halant {
	case corpus.HalantDecompose, corpus.HalantPreserve:
	default:
		return fmt.Errorf("unknown normalization.halant_policy %q", n.Halant)
	}
	return nil
}
