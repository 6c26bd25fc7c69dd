package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenery/internal/core/observability/log"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalid           = errors.New("invalid config")
)

// Format names a config encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

type Config struct {
	Scene     SceneConfig     `yaml:"scene" toml:"scene" json:"scene"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging" json:"logging"`
	Inspector InspectorConfig `yaml:"inspector" toml:"inspector" json:"inspector"`
	Objects   []ObjectConfig  `yaml:"objects" toml:"objects" json:"objects"`
}

type SceneConfig struct {
	Name     string `yaml:"name" toml:"name" json:"name"`
	TickRate int    `yaml:"tick_rate" toml:"tick_rate" json:"tick_rate"` // ticks per second
	Frames   uint64 `yaml:"frames" toml:"frames" json:"frames"`          // 0 runs until cancelled
	Workers  int    `yaml:"workers" toml:"workers" json:"workers"`       // 0 keeps the main pass sequential
}

type LoggingConfig struct {
	Level    string `yaml:"level" toml:"level" json:"level"`
	Encoding string `yaml:"encoding" toml:"encoding" json:"encoding"` // "json" or "console"
}

type InspectorConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" toml:"addr" json:"addr"`
}

// ObjectConfig describes a game object created at startup. Parent names
// another object of the same file.
type ObjectConfig struct {
	Name       string    `yaml:"name" toml:"name" json:"name"`
	Parent     string    `yaml:"parent,omitempty" toml:"parent" json:"parent,omitempty"`
	Position   []float64 `yaml:"position,omitempty" toml:"position" json:"position,omitempty"`
	Scale      []float64 `yaml:"scale,omitempty" toml:"scale" json:"scale,omitempty"`
	Script     string    `yaml:"script,omitempty" toml:"script" json:"script,omitempty"`                // inline Lua source
	ScriptFile string    `yaml:"script_file,omitempty" toml:"script_file" json:"script_file,omitempty"` // Lua file, relative to the config file
}

// Default returns the configuration used for unset values.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			Name:     "main",
			TickRate: 60,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Inspector: InspectorConfig{
			Addr: "127.0.0.1:7070",
		},
	}
}

// Load reads path, picking the decoder from its extension, and validates the
// result. Relative script files are resolved against the config directory.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range cfg.Objects {
		if f := cfg.Objects[i].ScriptFile; f != "" && !filepath.IsAbs(f) {
			cfg.Objects[i].ScriptFile = filepath.Join(dir, f)
		}
	}
	return cfg, nil
}

// FormatOf maps a file extension to its Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Parse decodes data over the defaults and validates it.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	case FormatTOML:
		err = toml.Unmarshal(data, cfg)
	case FormatJSON:
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if c.Scene.Name == "" {
		invalid("scene.name is empty")
	}
	if c.Scene.TickRate <= 0 || c.Scene.TickRate > 1000 {
		invalid("scene.tick_rate %d out of range 1..1000", c.Scene.TickRate)
	}
	if c.Scene.Workers < 0 {
		invalid("scene.workers %d is negative", c.Scene.Workers)
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		invalid("logging.level: %v", err)
	}
	if c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		invalid("logging.encoding %q is not json or console", c.Logging.Encoding)
	}

	if c.Inspector.Enabled && c.Inspector.Addr == "" {
		invalid("inspector.addr is empty")
	}

	parents := make(map[string]string, len(c.Objects))
	for i, o := range c.Objects {
		if o.Name == "" {
			invalid("objects[%d].name is empty", i)
			continue
		}
		if _, dup := parents[o.Name]; dup {
			invalid("objects[%d]: duplicate name %q", i, o.Name)
		}
		parents[o.Name] = o.Parent
		if len(o.Position) != 0 && len(o.Position) != 3 {
			invalid("objects[%d].position needs 3 values", i)
		}
		if len(o.Scale) != 0 && len(o.Scale) != 3 {
			invalid("objects[%d].scale needs 3 values", i)
		}
		if o.Script != "" && o.ScriptFile != "" {
			invalid("objects[%d]: script and script_file are exclusive", i)
		}
	}
	for _, o := range c.Objects {
		name, parent := o.Name, o.Parent
		if name == "" || parent == "" {
			continue
		}
		if _, ok := parents[parent]; !ok {
			invalid("object %q: unknown parent %q", name, parent)
			continue
		}
		seen := map[string]bool{name: true}
		for p := parent; p != ""; p = parents[p] {
			if seen[p] {
				invalid("object %q: parent cycle through %q", name, p)
				break
			}
			seen[p] = true
		}
	}

	return errors.Join(errs...)
}
