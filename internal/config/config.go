package config

import (
	"os"
	"strconv"
	"strings"

	"croptrends/internal/errors"
)

// Default remote sources (Our World in Data crop yield tables, mirrored
// by the tidytuesday data repository).
const (
	DefaultYieldURL = "https://raw.githubusercontent.com/rfordatascience/tidytuesday/master/data/2020/2020-09-01/key_crop_yields.csv"
	DefaultRankURL  = "https://raw.githubusercontent.com/rfordatascience/tidytuesday/master/data/2020/2020-09-01/land_use_vs_yield_change_in_cereal_production.csv"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Analysis AnalysisConfig
	Output   OutputConfig
	Database DatabaseConfig
}

// DataConfig holds data source settings
type DataConfig struct {
	YieldSource string // URL or local path of the wide crop-yield table
	RankSource  string // URL or local path of the land-use/population table
	RankColumn  string // normalized column used to rank entities
	MaxRetries  int
}

// AnalysisConfig holds pipeline parameters
type AnalysisConfig struct {
	Crops      []string // crop labels of interest, post suffix-strip
	TopN       int      // cohort size
	Aggregates []string // pseudo-entities excluded from the cohort
	Workers    int      // concurrent fitter workers; 1 = sequential
}

// OutputConfig holds result sink settings
type OutputConfig struct {
	ChartDir   string
	ExcelFile  string
	ReportFile string
}

// DatabaseConfig holds the optional Postgres sink settings
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data: DataConfig{
			YieldSource: getEnvOrDefault("YIELD_SOURCE", DefaultYieldURL),
			RankSource:  getEnvOrDefault("RANK_SOURCE", DefaultRankURL),
			RankColumn:  getEnvOrDefault("RANK_COLUMN", "total_population_gapminder"),
			MaxRetries:  getEnvIntOrDefault("FETCH_MAX_RETRIES", 3),
		},
		Analysis: AnalysisConfig{
			Crops:      getEnvListOrDefault("CROPS", []string{"wheat", "rice", "maize", "barley"}),
			TopN:       getEnvIntOrDefault("TOP_N", 30),
			Aggregates: getEnvListOrDefault("EXCLUDE_ENTITIES", []string{"World"}),
			Workers:    getEnvIntOrDefault("FIT_WORKERS", 1),
		},
		Output: OutputConfig{
			ChartDir:   getEnvOrDefault("CHART_DIR", "out/charts"),
			ExcelFile:  getEnvOrDefault("EXCEL_FILE", "out/crop_trends.xlsx"),
			ReportFile: getEnvOrDefault("REPORT_FILE", "out/crop_trends.md"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}
	config.Database.Enabled = config.Database.URL != ""

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Data.YieldSource == "" {
		return errors.ConfigInvalid("YIELD_SOURCE is required")
	}
	if config.Data.RankSource == "" {
		return errors.ConfigInvalid("RANK_SOURCE is required")
	}
	if config.Data.RankColumn == "" {
		return errors.ConfigInvalid("RANK_COLUMN is required")
	}
	if config.Analysis.TopN <= 0 {
		return errors.ConfigInvalid("TOP_N must be positive")
	}
	if len(config.Analysis.Crops) == 0 {
		return errors.ConfigInvalid("CROPS must name at least one crop")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("FIT_WORKERS must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
