// Package config decodes Director/Actor construction options from a TOML or
// YAML document, the way the teacher layers tolerant, loosely-typed
// configuration over a strict struct (config_provider.go's ConfigProvider,
// feeders/tenant_affixed_env.go's affixed-coercion feeder style).
//
// Config is consumed only before Director.Start — this package has no
// live-reconfiguration path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"

	"github.com/relaykit/relaykit/actor"
	"github.com/relaykit/relaykit/logging"
)

// ActorConfig is one Actor's construction options as loaded from file.
// Capacity/Frequency are read as loosely-typed values (numbers, duration
// strings, etc.) and coerced via github.com/golobby/cast, mirroring the
// teacher's tolerant env/file coercion.
type ActorConfig struct {
	Name            string      `toml:"name" yaml:"name"`
	Capacity        interface{} `toml:"capacity" yaml:"capacity"`
	BlockingConsume bool        `toml:"blocking_consume" yaml:"blocking_consume"`
	GenerateMetrics bool        `toml:"generate_metrics" yaml:"generate_metrics"`
	Frequency       interface{} `toml:"frequency" yaml:"frequency"`
	LogLevel        string      `toml:"log_level" yaml:"log_level"`
}

// IntCapacity coerces Capacity to an int (0 if unset).
func (c ActorConfig) IntCapacity() (int, error) {
	if c.Capacity == nil {
		return 0, nil
	}
	return cast.ToInt(c.Capacity)
}

// Duration coerces Frequency to a time.Duration, defaulting to 1s if unset.
// Accepts a Go duration string ("500ms") or a plain number of seconds.
func (c ActorConfig) Duration() (time.Duration, error) {
	if c.Frequency == nil {
		return time.Second, nil
	}
	if s, ok := c.Frequency.(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
	}
	seconds, err := cast.ToFloat64(c.Frequency)
	if err != nil {
		return 0, fmt.Errorf("config: actor %s: invalid frequency: %w", c.Name, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// DirectorConfig is the top-level document: a named list of Actor options
// plus the Director's own log level.
type DirectorConfig struct {
	LogLevel string        `toml:"log_level" yaml:"log_level"`
	Actors   []ActorConfig `toml:"actors" yaml:"actors"`
}

// Load reads a DirectorConfig from path, selecting TOML or YAML decoding by
// file extension (.toml vs .yaml/.yml).
func Load(path string) (*DirectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg DirectorConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode toml %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: %s: unrecognized extension (want .toml, .yaml, or .yml)", path)
	}
	return &cfg, nil
}

// Options translates c into actor.Option values suitable for actor.New,
// resolving the loosely-typed Capacity/Frequency fields.
func (c ActorConfig) Options() ([]actor.Option, error) {
	capacity, err := c.IntCapacity()
	if err != nil {
		return nil, fmt.Errorf("config: actor %s: %w", c.Name, err)
	}
	freq, err := c.Duration()
	if err != nil {
		return nil, err
	}

	opts := []actor.Option{
		actor.WithCapacity(capacity),
		actor.WithBlockingConsume(c.BlockingConsume),
		actor.WithGenerateMetrics(c.GenerateMetrics),
		actor.WithFrequency(freq),
	}
	if c.LogLevel != "" {
		opts = append(opts, actor.WithLogger(logging.New(c.LogLevel)))
	}
	return opts, nil
}

// Actor looks up a named ActorConfig, or reports ok=false.
func (d *DirectorConfig) Actor(name string) (ActorConfig, bool) {
	for _, a := range d.Actors {
		if a.Name == name {
			return a, true
		}
	}
	return ActorConfig{}, false
}
