// Package config loads the pipeline's tunables from an optional YAML file
// plus environment overrides, and wires the global zap logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds every pipeline tunable, each with a documented default.
type Config struct {
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
	Risk    RiskConfig    `yaml:"risk" mapstructure:"risk"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// MatchConfig tunes the bipartite match cost model, distance gate, and
// window geometry.
type MatchConfig struct {
	WeightDistance float64 `yaml:"weight_distance" mapstructure:"weight_distance"`
	WeightClock    float64 `yaml:"weight_clock" mapstructure:"weight_clock"`
	WeightFeature  float64 `yaml:"weight_feature" mapstructure:"weight_feature"`
	MaxDistanceFt  float64 `yaml:"max_distance_ft" mapstructure:"max_distance_ft"`
	CostThreshold  float64 `yaml:"cost_threshold" mapstructure:"cost_threshold"`
	WindowSizeFt   float64 `yaml:"window_size_ft" mapstructure:"window_size_ft"`
	WindowStepFt   float64 `yaml:"window_step_ft" mapstructure:"window_step_ft"`
	// WindowCellThreshold is the |A|*|B| size above which a pair-pass is
	// segmented into windows instead of solved as one assignment problem.
	WindowCellThreshold int `yaml:"window_cell_threshold" mapstructure:"window_cell_threshold"`
}

// ClusterConfig tunes the spatial density histogram.
type ClusterConfig struct {
	BinWidthFt      float64 `yaml:"bin_width_ft" mapstructure:"bin_width_ft"`
	ThresholdFactor float64 `yaml:"threshold_factor" mapstructure:"threshold_factor"`
}

// RiskConfig tunes the risk evaluation grid and zone threshold.
type RiskConfig struct {
	GridStepFt  float64 `yaml:"grid_step_ft" mapstructure:"grid_step_ft"`
	WindowFt    float64 `yaml:"window_ft" mapstructure:"window_ft"`
	RiskThreshold float64 `yaml:"risk_threshold" mapstructure:"risk_threshold"`
	Horizons    []float64 `yaml:"horizons_years" mapstructure:"horizons_years"`
	CriticalDepthPct float64 `yaml:"critical_depth_pct" mapstructure:"critical_depth_pct"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the pipeline's documented defaults, with no file or
// environment applied.
func Default() *Config {
	return &Config{
		Match: MatchConfig{
			WeightDistance:      0.5,
			WeightClock:         0.3,
			WeightFeature:       0.2,
			MaxDistanceFt:       50.0,
			CostThreshold:       0.8,
			WindowSizeFt:        500.0,
			WindowStepFt:        400.0,
			WindowCellThreshold: 1_000_000,
		},
		Cluster: ClusterConfig{
			BinWidthFt:      200.0,
			ThresholdFactor: 2.0,
		},
		Risk: RiskConfig{
			GridStepFt:       100.0,
			WindowFt:         500.0,
			RiskThreshold:    0.6,
			Horizons:         []float64{5, 10, 15, 20},
			CriticalDepthPct: 80.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config.yaml from the current directory (if present) and
// ILIALIGN_-prefixed environment overrides, layered on top of Default().
func Load() (*Config, error) {
	d := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ILIALIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("match.weight_distance", d.Match.WeightDistance)
	v.SetDefault("match.weight_clock", d.Match.WeightClock)
	v.SetDefault("match.weight_feature", d.Match.WeightFeature)
	v.SetDefault("match.max_distance_ft", d.Match.MaxDistanceFt)
	v.SetDefault("match.cost_threshold", d.Match.CostThreshold)
	v.SetDefault("match.window_size_ft", d.Match.WindowSizeFt)
	v.SetDefault("match.window_step_ft", d.Match.WindowStepFt)
	v.SetDefault("match.window_cell_threshold", d.Match.WindowCellThreshold)

	v.SetDefault("cluster.bin_width_ft", d.Cluster.BinWidthFt)
	v.SetDefault("cluster.threshold_factor", d.Cluster.ThresholdFactor)

	v.SetDefault("risk.grid_step_ft", d.Risk.GridStepFt)
	v.SetDefault("risk.window_ft", d.Risk.WindowFt)
	v.SetDefault("risk.risk_threshold", d.Risk.RiskThreshold)
	v.SetDefault("risk.horizons_years", d.Risk.Horizons)
	v.SetDefault("risk.critical_depth_pct", d.Risk.CriticalDepthPct)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger from LogConfig.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
