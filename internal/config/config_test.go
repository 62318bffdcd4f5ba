package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_MatchesSpecDefaults(t *testing.T) {
	d := Default()
	assert.Equal(t, 0.5, d.Match.WeightDistance)
	assert.Equal(t, 0.3, d.Match.WeightClock)
	assert.Equal(t, 0.2, d.Match.WeightFeature)
	assert.Equal(t, 50.0, d.Match.MaxDistanceFt)
	assert.Equal(t, 0.8, d.Match.CostThreshold)
	assert.Equal(t, 500.0, d.Match.WindowSizeFt)
	assert.Equal(t, 400.0, d.Match.WindowStepFt)
	assert.Equal(t, 200.0, d.Cluster.BinWidthFt)
	assert.Equal(t, 2.0, d.Cluster.ThresholdFactor)
	assert.Equal(t, 100.0, d.Risk.GridStepFt)
	assert.Equal(t, 500.0, d.Risk.WindowFt)
	assert.Equal(t, 0.6, d.Risk.RiskThreshold)
	assert.Equal(t, []float64{5, 10, 15, 20}, d.Risk.Horizons)
}

func TestLoad_NoFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, Default().Match.WeightDistance, cfg.Match.WeightDistance)
	assert.Equal(t, Default().Risk.RiskThreshold, cfg.Risk.RiskThreshold)
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Valid(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
