// Package config loads decider configuration from TOML. It follows the
// teacher's two-pass decode style (decode into a generic map, then pick
// apart named sections by hand) because the set of [vertex.<name>] tables is
// open-ended and BurntSushi/toml's struct tags alone cannot express "zero or
// more named overrides sharing one shape" as cleanly as the teacher's own
// StaticTries/LiveTries map-of-named-tables pattern.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ChristianF88/batchdecider/decider"
)

// GlobalConfig is the top-level [global] table: defaults applied to every
// job vertex that has no matching [vertex.<name>] override.
type GlobalConfig struct {
	MinParallelism           int    `toml:"minParallelism"`
	MaxParallelism           int    `toml:"maxParallelism"`
	DataVolumePerTask        string `toml:"dataVolumePerTask"`
	DefaultSourceParallelism int    `toml:"defaultSourceParallelism"`
}

// VertexOverride is one [vertex.<name>] table. Zero-valued fields fall back
// to GlobalConfig when the override is resolved.
type VertexOverride struct {
	MinParallelism           int    `toml:"minParallelism"`
	MaxParallelism           int    `toml:"maxParallelism"`
	DataVolumePerTask        string `toml:"dataVolumePerTask"`
	DefaultSourceParallelism int    `toml:"defaultSourceParallelism"`
}

// Config is a fully loaded decider configuration document.
type Config struct {
	Global   GlobalConfig
	Vertices map[string]VertexOverride
}

// Load reads and parses a batchdecider.toml document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse decodes a batchdecider.toml document from its text.
func Parse(data string) (*Config, error) {
	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("config: failed to parse TOML: %w", err)
	}

	cfg := &Config{Vertices: make(map[string]VertexOverride)}

	if v, ok := raw["global"]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("config: [global] must be a table")
		}
		if err := checkUnknownKeys("[global]", m); err != nil {
			return nil, err
		}
		cfg.Global = parseGlobal(m)
	}

	if v, ok := raw["vertex"]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("config: [vertex] must be a table of named sub-tables")
		}
		for name, sub := range m {
			subMap, ok := sub.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config: [vertex.%s] must be a table", name)
			}
			if err := checkUnknownKeys(fmt.Sprintf("[vertex.%s]", name), subMap); err != nil {
				return nil, err
			}
			cfg.Vertices[name] = parseVertexOverride(subMap)
		}
	}

	return cfg, nil
}

// knownKeys is the set of TOML keys recognized in both [global] and
// [vertex.<name>] tables.
var knownKeys = map[string]bool{
	"minParallelism":           true,
	"maxParallelism":           true,
	"dataVolumePerTask":        true,
	"defaultSourceParallelism": true,
}

// checkUnknownKeys rejects typos early instead of silently ignoring them,
// the way the teacher's config loader rejects flag combinations it does not
// recognize in --config mode.
func checkUnknownKeys(table string, m map[string]any) error {
	for key := range m {
		if !knownKeys[key] {
			return fmt.Errorf("config: %s: unrecognized key %q", table, key)
		}
	}
	return nil
}

func parseGlobal(m map[string]any) GlobalConfig {
	var g GlobalConfig
	if v, ok := m["minParallelism"].(int64); ok {
		g.MinParallelism = int(v)
	}
	if v, ok := m["maxParallelism"].(int64); ok {
		g.MaxParallelism = int(v)
	}
	if v, ok := m["dataVolumePerTask"].(string); ok {
		g.DataVolumePerTask = v
	} else if v, ok := m["dataVolumePerTask"].(int64); ok {
		g.DataVolumePerTask = strconv.FormatInt(v, 10)
	}
	if v, ok := m["defaultSourceParallelism"].(int64); ok {
		g.DefaultSourceParallelism = int(v)
	}
	return g
}

func parseVertexOverride(m map[string]any) VertexOverride {
	var v VertexOverride
	if x, ok := m["minParallelism"].(int64); ok {
		v.MinParallelism = int(x)
	}
	if x, ok := m["maxParallelism"].(int64); ok {
		v.MaxParallelism = int(x)
	}
	if x, ok := m["dataVolumePerTask"].(string); ok {
		v.DataVolumePerTask = x
	} else if x, ok := m["dataVolumePerTask"].(int64); ok {
		v.DataVolumePerTask = strconv.FormatInt(x, 10)
	}
	if x, ok := m["defaultSourceParallelism"].(int64); ok {
		v.DefaultSourceParallelism = int(x)
	}
	return v
}

// Resolve merges the named vertex override (if any) over the global
// defaults and builds a decider.Config. It only rejects a missing or
// unparsable dataVolumePerTask; the range checks on the resolved values are
// made by decider.New.
func (c *Config) Resolve(vertexName string) (decider.Config, error) {
	resolved := decider.Config{
		MinParallelism:           c.Global.MinParallelism,
		MaxParallelism:           c.Global.MaxParallelism,
		DefaultSourceParallelism: c.Global.DefaultSourceParallelism,
	}
	dataVolume := c.Global.DataVolumePerTask

	if override, ok := c.Vertices[vertexName]; ok {
		if override.MinParallelism != 0 {
			resolved.MinParallelism = override.MinParallelism
		}
		if override.MaxParallelism != 0 {
			resolved.MaxParallelism = override.MaxParallelism
		}
		if override.DefaultSourceParallelism != 0 {
			resolved.DefaultSourceParallelism = override.DefaultSourceParallelism
		}
		if override.DataVolumePerTask != "" {
			dataVolume = override.DataVolumePerTask
		}
	}

	bytes, err := ParseByteSize(dataVolume)
	if err != nil {
		return decider.Config{}, fmt.Errorf("config: vertex %q: %w: %w", vertexName, decider.ErrConfigInvalid, err)
	}
	resolved.DataVolumePerTask = bytes

	return resolved, nil
}

// byteUnits maps the suffixes this loader accepts to their multiplier,
// binary (IEC) units only — matching the GiB/MiB figures the spec's own
// scenarios are written in.
var byteUnits = map[string]int64{
	"B":   1,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
	"TiB": 1 << 40,
}

// ParseByteSize parses a bare integer ("1073741824") or a human-friendly
// size ("512MiB", "1GiB") into bytes.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	for _, suffix := range []string{"TiB", "GiB", "MiB", "KiB", "B"} {
		if strings.HasSuffix(s, suffix) {
			numPart := strings.TrimSpace(strings.TrimSuffix(s, suffix))
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
			}
			return int64(n * float64(byteUnits[suffix])), nil
		}
	}
	return 0, fmt.Errorf("invalid byte size %q: unrecognized unit (want B, KiB, MiB, GiB, TiB)", s)
}

// CanonicalKey maps a friendly TOML key to the canonical
// adaptive-batch-scheduler.* option key used in diagnostics, matching the
// naming documented in the distilled spec's external-interfaces section.
func CanonicalKey(field string) string {
	switch field {
	case "minParallelism":
		return "adaptive-batch-scheduler.min-parallelism"
	case "maxParallelism":
		return "adaptive-batch-scheduler.max-parallelism"
	case "dataVolumePerTask":
		return "adaptive-batch-scheduler.avg-data-volume-per-task"
	case "defaultSourceParallelism":
		return "adaptive-batch-scheduler.default-source-parallelism"
	default:
		return field
	}
}
