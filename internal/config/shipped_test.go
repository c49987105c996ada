package config

import (
	"path/filepath"
	"testing"
)

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "squarefall.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Name != "squarefall" || cfg.Loop.TickRate <= 0 {
		t.Errorf("unexpected config: %+v", cfg.Server)
	}
}
