package data

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidWaveConfig is wrapped by every WaveConfig validation failure.
var ErrInvalidWaveConfig = errors.New("invalid wave config")

const (
	MinDifficultyMultiplier = 1.0
	MaxDifficultyMultiplier = 5.0
)

// WaveConfig drives the wave scheduler. Durations are in seconds.
type WaveConfig struct {
	WaveCount            int     `yaml:"wave_count"`
	WaveDuration         float64 `yaml:"wave_duration"`
	SpawnInterval        float64 `yaml:"spawn_interval"`
	DifficultyMultiplier float64 `yaml:"difficulty_multiplier"`
	BaseCeiling          int     `yaml:"base_ceiling"`
	CeilingIncrement     int     `yaml:"ceiling_increment"`
}

// DefaultWaveConfig matches the stock tuning of the game.
func DefaultWaveConfig() WaveConfig {
	return WaveConfig{
		WaveCount:            5,
		WaveDuration:         30,
		SpawnInterval:        1,
		DifficultyMultiplier: 1,
		BaseCeiling:          10,
		CeilingIncrement:     5,
	}
}

// LoadWaveConfig loads the wave table from a YAML file. Missing keys keep
// their defaults.
func LoadWaveConfig(path string) (*WaveConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wave_list: %w", err)
	}
	return ParseWaveConfig(raw)
}

// ParseWaveConfig decodes wave table YAML.
func ParseWaveConfig(raw []byte) (*WaveConfig, error) {
	c := DefaultWaveConfig()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse wave_list: %w", err)
	}
	return &c, nil
}

// Validate checks every field range.
func (c WaveConfig) Validate() error {
	switch {
	case c.WaveCount < 1:
		return fmt.Errorf("%w: wave_count %d must be at least 1", ErrInvalidWaveConfig, c.WaveCount)
	case !validSeconds(c.WaveDuration):
		return fmt.Errorf("%w: wave_duration %g must be a positive duration", ErrInvalidWaveConfig, c.WaveDuration)
	case !validSeconds(c.SpawnInterval):
		return fmt.Errorf("%w: spawn_interval %g must be a positive duration", ErrInvalidWaveConfig, c.SpawnInterval)
	case !(c.DifficultyMultiplier >= MinDifficultyMultiplier && c.DifficultyMultiplier <= MaxDifficultyMultiplier):
		return fmt.Errorf("%w: difficulty_multiplier %g out of [%g,%g]", ErrInvalidWaveConfig,
			c.DifficultyMultiplier, MinDifficultyMultiplier, MaxDifficultyMultiplier)
	case c.BaseCeiling < 1:
		return fmt.Errorf("%w: base_ceiling %d must be at least 1", ErrInvalidWaveConfig, c.BaseCeiling)
	case c.CeilingIncrement < 0:
		return fmt.Errorf("%w: ceiling_increment %d must not be negative", ErrInvalidWaveConfig, c.CeilingIncrement)
	}
	return nil
}

// Ceiling is the maximum number of simultaneously active objects in wave w
// (0-based).
func (c WaveConfig) Ceiling(w int) int {
	return c.BaseCeiling + c.CeilingIncrement*w
}

// Duration returns WaveDuration as a time.Duration.
func (c WaveConfig) Duration() time.Duration {
	return seconds(c.WaveDuration)
}

// Interval returns SpawnInterval as a time.Duration.
func (c WaveConfig) Interval() time.Duration {
	return seconds(c.SpawnInterval)
}

// maxSeconds is the longest span a time.Duration can hold.
var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// validSeconds rejects NaN, infinities, non-positive values and spans that
// do not survive conversion to at least 1ns.
func validSeconds(s float64) bool {
	return s > 0 && s < maxSeconds && seconds(s) > 0
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
