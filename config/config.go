package config

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/dshills/relay/dispatch"
)

// Config holds engine configuration loaded from TOML.
type Config struct {
	Manager ManagerConfig `toml:"manager"`
	Log     LogConfig     `toml:"log"`
}

// ManagerConfig configures manager construction.
type ManagerConfig struct {
	// QueueCapacity is the initial event queue capacity.
	QueueCapacity int `toml:"queue_capacity"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is a zerolog level name ("trace", "debug", ...). Empty or
	// "disabled" turns logging off.
	Level string `toml:"level"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Manager: ManagerConfig{QueueCapacity: 64},
		Log:     LogConfig{Level: "disabled"},
	}
}

// Load reads configuration from a TOML file. A missing file is not an
// error; the defaults are returned. Absent keys keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parse(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Defaults(), fmt.Errorf("reading config: %w", err)
	}
	return parse("<reader>", data)
}

func parse(source string, data []byte) (Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), &ParseError{Path: source, Err: err}
	}
	return cfg, nil
}

// Logger builds the structured logger described by the configuration,
// writing to w.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		lvl = zerolog.Disabled
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ManagerOptions translates the configuration into manager construction
// options, with log output going to w.
func (c Config) ManagerOptions(w io.Writer) []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithQueueCapacity(c.Manager.QueueCapacity),
		dispatch.WithLogger(c.Logger(w)),
	}
}

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
