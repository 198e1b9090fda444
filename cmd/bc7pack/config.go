package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config maps animation names to their sources so frequently packed
// animations can be referred to by name instead of path.
type Config struct {
	Animations map[string]Animation `toml:"animations"`
}

// Animation is one configured source.
type Animation struct {
	Path string  `toml:"path"`
	FPS  float64 `toml:"fps"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bc7pack", "config.toml")
}

func loadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// isLikelyPath reports whether the argument names a filesystem source rather
// than a configured animation name.
func isLikelyPath(s string) bool {
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "~") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(s))
	switch ext {
	case ".gif", ".png", ".apng", ".jpg", ".jpeg", ".bmp", ".webp":
		return true
	}
	return false
}

// resolveInput turns the -in argument into a path: paths pass through,
// names are looked up in the config.
func resolveInput(in, configPath string) (string, error) {
	if isLikelyPath(in) {
		return in, nil
	}
	if _, err := os.Stat(in); err == nil {
		return in, nil
	}

	if configPath == "" {
		return "", fmt.Errorf("%q is not a path and no config is available", in)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return "", err
	}
	anim, ok := cfg.Animations[in]
	if !ok {
		return "", fmt.Errorf("animation %q not found in %s", in, configPath)
	}
	return anim.Path, nil
}
