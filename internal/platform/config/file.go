package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors Config for the optional TOML file. Pointer fields
// distinguish "unset" from zero values.
type fileConfig struct {
	Server struct {
		Port *int    `toml:"port"`
		Host *string `toml:"host"`
	} `toml:"server"`
	Storage struct {
		Driver     *string `toml:"driver"`
		Key        *string `toml:"key"`
		FileDir    *string `toml:"file-path"`
		SQLitePath *string `toml:"sqlite-path"`
	} `toml:"storage"`
	Database struct {
		URL      *string `toml:"url"`
		MaxConns *int    `toml:"max-conns"`
		MinConns *int    `toml:"min-conns"`
	} `toml:"database"`
	Cache struct {
		URL *string `toml:"url"`
	} `toml:"cache"`
	Log struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"log"`
	Quiz struct {
		CompleteOnPass *bool   `toml:"complete-on-pass"`
		Path           *string `toml:"path"`
	} `toml:"quiz"`
	CatalogPath     *string `toml:"catalog-path"`
	LegacyRoadmapID *string `toml:"legacy-roadmap-id"`
}

// loadFile reads the TOML config at path. An empty path means no file.
func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	if _, err := os.Stat(path); err != nil {
		return fc, fmt.Errorf("LMS_CONFIG_FILE: %w", err)
	}
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fc, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fc, fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	return fc, nil
}

func pick[T any](v *T, fallback T) T {
	if v != nil {
		return *v
	}
	return fallback
}
