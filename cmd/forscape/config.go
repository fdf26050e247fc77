package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"forscape/internal/settings"
)

const configName = "forscape.toml"

type projectConfig struct {
	Warnings map[string]string `toml:"warnings"`
	Resolve  resolveConfig     `toml:"resolve"`
}

type resolveConfig struct {
	Jobs           int    `toml:"jobs"`
	Cache          bool   `toml:"cache"`
	Format         string `toml:"format"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

// loadedConfig is a parsed forscape.toml. A nil *loadedConfig stands for
// "no config file" and defines nothing.
type loadedConfig struct {
	Path     string
	Warnings []settings.Override
	Resolve  resolveConfig
	meta     toml.MetaData
}

func (c *loadedConfig) defines(key ...string) bool {
	return c != nil && c.meta.IsDefined(key...)
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// discoverConfig loads explicit when set, otherwise the nearest
// forscape.toml above startDir, if any.
func discoverConfig(explicit, startDir string) (*loadedConfig, error) {
	path := explicit
	if path == "" {
		found, ok, err := findConfig(startDir)
		if err != nil || !ok {
			return nil, err
		}
		path = found
	}
	return loadConfig(path)
}

func loadConfig(path string) (*loadedConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	overrides, err := settings.ParseOverrides(cfg.Warnings)
	if err != nil {
		return nil, fmt.Errorf("%s: [warnings]: %w", path, err)
	}
	if meta.IsDefined("resolve", "jobs") && cfg.Resolve.Jobs < 0 {
		return nil, fmt.Errorf("%s: [resolve].jobs must not be negative", path)
	}
	if meta.IsDefined("resolve", "max_diagnostics") && cfg.Resolve.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: [resolve].max_diagnostics must not be negative", path)
	}
	if meta.IsDefined("resolve", "format") {
		cfg.Resolve.Format = strings.ToLower(strings.TrimSpace(cfg.Resolve.Format))
		if cfg.Resolve.Format != "pretty" && cfg.Resolve.Format != "json" {
			return nil, fmt.Errorf("%s: [resolve].format must be pretty or json", path)
		}
	}
	return &loadedConfig{
		Path:     path,
		Warnings: overrides,
		Resolve:  cfg.Resolve,
		meta:     meta,
	}, nil
}

// parseWarnFlags turns repeated --warn name=level values into overrides.
func parseWarnFlags(values []string) ([]settings.Override, error) {
	table := make(map[string]string, len(values))
	for _, v := range values {
		name, level, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --warn %q (expected category=level)", v)
		}
		table[strings.TrimSpace(name)] = level
	}
	return settings.ParseOverrides(table)
}

// mergeWarnings applies later overrides on top of earlier ones.
func mergeWarnings(base, top []settings.Override) []settings.Override {
	if len(top) == 0 {
		return base
	}
	out := make([]settings.Override, 0, len(base)+len(top))
	for _, o := range base {
		replaced := false
		for _, t := range top {
			if t.Category == o.Category {
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return append(out, top...)
}
