package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnElement is one spawnable template with its pool capacity and the
// percentage chance that a spawn attempt picks it.
type SpawnElement struct {
	Template    string  `yaml:"template"`
	MaxCount    int     `yaml:"max_count"`
	SpawnChance float64 `yaml:"spawn_chance"` // percent, 0-100
}

// Placement controls where spawned objects enter the field and how far
// below the visible area they may fall before being reclaimed. Viewport
// values are fractions of the camera height (0 = bottom, 1 = top).
type Placement struct {
	MinSpawnYViewport          float64 `yaml:"min_spawn_y_viewport"`
	MaxSpawnYViewport          float64 `yaml:"max_spawn_y_viewport"`
	DespawnDistanceBelowScreen float64 `yaml:"despawn_distance_below_screen"`
	HorizontalScreenOffset     float64 `yaml:"horizontal_screen_offset"`
}

// DefaultPlacement matches the stock tuning of the game.
func DefaultPlacement() Placement {
	return Placement{
		MinSpawnYViewport:          0.2,
		MaxSpawnYViewport:          0.8,
		DespawnDistanceBelowScreen: 5,
		HorizontalScreenOffset:     2,
	}
}

// SpawnList is the spawner configuration. It is not validated here; the
// spawn package owns the weight invariant.
type SpawnList struct {
	Elements  []SpawnElement `yaml:"elements"`
	Placement Placement      `yaml:"placement"`
}

// LoadSpawnList loads the spawner configuration from a YAML file.
func LoadSpawnList(path string) (*SpawnList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	return ParseSpawnList(raw)
}

// ParseSpawnList decodes spawner configuration YAML.
func ParseSpawnList(raw []byte) (*SpawnList, error) {
	l := &SpawnList{Placement: DefaultPlacement()}
	if err := yaml.Unmarshal(raw, l); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	return l, nil
}

// Count returns the number of configured elements.
func (l *SpawnList) Count() int {
	return len(l.Elements)
}

// TotalChance returns the sum of all spawn chances.
func (l *SpawnList) TotalChance() float64 {
	total := 0.0
	for _, e := range l.Elements {
		total += e.SpawnChance
	}
	return total
}
