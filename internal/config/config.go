// Package config reads the jaxrsflow configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/speakeasy-api/jaxrsflow/simulate"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Output formats.
const (
	FormatTable   = "table"
	FormatYAML    = "yaml"
	FormatOpenAPI = "openapi"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Simulation  Simulation `yaml:"simulation"`
	Logging     Logging    `yaml:"logging"`
	Output      Output     `yaml:"output"`
	Concurrency int        `yaml:"concurrency"`
}

type Simulation struct {
	MaxSteps      int  `yaml:"maxSteps"`
	MaxStackDepth int  `yaml:"maxStackDepth"`
	MaxCallDepth  int  `yaml:"maxCallDepth"`
	Warnings      bool `yaml:"warnings"`
}

type Logging struct {
	Level      string `yaml:"level"`
	TimeFormat string `yaml:"timeFormat"`
	Color      string `yaml:"color"`
}

type Output struct {
	Format  string `yaml:"format"`
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Default mirrors simulate.DefaultOptions.
func Default() Config {
	d := simulate.DefaultOptions()
	return Config{
		Simulation: Simulation{
			MaxSteps:      d.MaxSteps,
			MaxStackDepth: d.MaxStackDepth,
			MaxCallDepth:  d.MaxCallDepth,
			Warnings:      d.EnableWarnings,
		},
		Logging: Logging{
			Level:      d.LogLevel,
			TimeFormat: d.LogTimeFormat,
			Color:      ColorAuto,
		},
		Output: Output{
			Format:  FormatTable,
			Title:   "REST resources",
			Version: "1.0",
		},
		Concurrency: runtime.NumCPU(),
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load for an already opened document.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalid, name, v))
		}
	}
	positive("simulation.maxSteps", c.Simulation.MaxSteps)
	positive("simulation.maxStackDepth", c.Simulation.MaxStackDepth)
	positive("simulation.maxCallDepth", c.Simulation.MaxCallDepth)
	positive("concurrency", c.Concurrency)

	switch strings.ToLower(c.Logging.Level) {
	case "error", "warn", "warning", "info", "debug":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Logging.Level))
	}
	switch c.Logging.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown color mode %q", ErrInvalid, c.Logging.Color))
	}
	switch c.Output.Format {
	case FormatTable, FormatYAML, FormatOpenAPI:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown output format %q", ErrInvalid, c.Output.Format))
	}
	return errors.Join(errs...)
}

// Options converts the simulation and logging sections. The logger writes
// to w.
func (c Config) Options(w io.Writer) simulate.Options {
	opts := simulate.DefaultOptions()
	opts.MaxSteps = c.Simulation.MaxSteps
	opts.MaxStackDepth = c.Simulation.MaxStackDepth
	opts.MaxCallDepth = c.Simulation.MaxCallDepth
	opts.EnableWarnings = c.Simulation.Warnings
	opts.LogLevel = c.Logging.Level
	opts.LogTimeFormat = c.Logging.TimeFormat
	opts.Logger = c.Logger(w)
	return opts
}

// Logger builds the engine logger described by the logging section.
func (c Config) Logger(w io.Writer) simulate.Logger {
	color := simulate.IsTerminal(w)
	switch c.Logging.Color {
	case ColorAlways:
		color = true
	case ColorNever:
		color = false
	}
	return simulate.NewLogger(simulate.ParseLogLevel(c.Logging.Level), w,
		simulate.WithTimeFormat(c.Logging.TimeFormat),
		simulate.WithColor(color),
	)
}
