// Package config loads meshdraw settings from defaults, an optional TOML file,
// an optional .env file and MESHDRAW_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MESHDRAW_"

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = "meshdraw.toml"

// Format controls input validation.
type Format struct {
	// AllowEmpty accepts binary STL files that declare zero triangles.
	AllowEmpty bool `toml:"allow_empty"`
	// MaxInputBytes rejects larger inputs before any parsing.
	MaxInputBytes int64 `toml:"max_input_bytes"`
}

// Render controls the rasterizer.
type Render struct {
	Supersample    int      `toml:"supersample"`
	EdgeAngle      float64  `toml:"edge_angle"`
	MaxContexts    int      `toml:"max_contexts"`
	AcquireTimeout Duration `toml:"acquire_timeout"`
	// Concurrent renders the four views in parallel when more than one
	// context is available.
	Concurrent bool `toml:"concurrent"`
}

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Log controls the CLI logger.
type Log struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// Config is the full configuration.
type Config struct {
	Format Format `toml:"format"`
	Render Render `toml:"render"`
	Log    Log    `toml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format: Format{MaxInputBytes: 50 << 20},
		Render: Render{
			Supersample: 2,
			EdgeAngle:   30,
			MaxContexts: 1,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. An empty path falls back to DefaultFile in
// the working directory; a missing default file is not an error, but a
// missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// .env is optional, but a broken one is reported
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays MESHDRAW_* variables read through getenv.
func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	boolean("ALLOW_EMPTY", &c.Format.AllowEmpty)
	if v := getenv(EnvPrefix + "MAX_INPUT_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_INPUT_BYTES: %w", EnvPrefix, err))
		} else {
			c.Format.MaxInputBytes = n
		}
	}
	integer("SUPERSAMPLE", &c.Render.Supersample)
	if v := getenv(EnvPrefix + "EDGE_ANGLE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sEDGE_ANGLE: %w", EnvPrefix, err))
		} else {
			c.Render.EdgeAngle = f
		}
	}
	integer("MAX_CONTEXTS", &c.Render.MaxContexts)
	if v := getenv(EnvPrefix + "ACQUIRE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sACQUIRE_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Render.AcquireTimeout = Duration(d)
		}
	}
	boolean("CONCURRENT", &c.Render.Concurrent)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Validate rejects settings the pipeline cannot honor.
func (c *Config) Validate() error {
	var errs []error
	if c.Format.MaxInputBytes <= 0 {
		errs = append(errs, fmt.Errorf("format.max_input_bytes must be positive, got %d", c.Format.MaxInputBytes))
	}
	if c.Render.Supersample < 1 || c.Render.Supersample > 4 {
		errs = append(errs, fmt.Errorf("render.supersample must be in [1, 4], got %d", c.Render.Supersample))
	}
	if c.Render.EdgeAngle <= 0 || c.Render.EdgeAngle >= 180 {
		errs = append(errs, fmt.Errorf("render.edge_angle must be in (0, 180), got %v", c.Render.EdgeAngle))
	}
	if c.Render.MaxContexts < 1 {
		errs = append(errs, fmt.Errorf("render.max_contexts must be at least 1, got %d", c.Render.MaxContexts))
	}
	if c.Render.AcquireTimeout < 0 {
		errs = append(errs, fmt.Errorf("render.acquire_timeout must not be negative"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
