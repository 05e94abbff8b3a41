// Package config loads the bridge configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/banshee-data/touchbridge/internal/link"
	"github.com/banshee-data/touchbridge/internal/monitoring"
	"github.com/banshee-data/touchbridge/internal/touchstate"
)

// ErrNoPort is returned by Validate when a link has no device path.
var ErrNoPort = errors.New("serial port path is required")

// PortConfig describes one serial link.
type PortConfig struct {
	Path        string
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      string
	ReadTimeout time.Duration
}

// Options converts the port settings into link options.
func (p PortConfig) Options() link.PortOptions {
	return link.PortOptions{
		BaudRate:    p.BaudRate,
		DataBits:    p.DataBits,
		StopBits:    p.StopBits,
		Parity:      p.Parity,
		ReadTimeout: p.ReadTimeout,
	}
}

// Config is the complete bridge configuration.
type Config struct {
	// ALLS is the display controller link.
	ALLS PortConfig
	// ADX is the touch sensor link.
	ADX PortConfig
	// Slot selects the touch slot encoding ("packed" or "locked").
	Slot string
	// DebugListen is the address of the debug HTTP server; empty disables it.
	DebugListen string
	// LogLevel is a zerolog level name.
	LogLevel string
}

// Default returns the configuration used when no file is given: 9600 8N1
// with a one second read timeout on both links.
func Default() Config {
	port := PortConfig{
		BaudRate:    link.DefaultBaudRate,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		ReadTimeout: link.DefaultReadTimeout,
	}
	return Config{
		ALLS:     port,
		ADX:      port,
		Slot:     touchstate.KindPacked,
		LogLevel: "info",
	}
}

type filePort struct {
	Path        string `toml:"path"`
	BaudRate    int    `toml:"baud_rate"`
	DataBits    int    `toml:"data_bits"`
	StopBits    int    `toml:"stop_bits"`
	Parity      string `toml:"parity"`
	ReadTimeout string `toml:"read_timeout"`
}

type fileConfig struct {
	ALLS        filePort `toml:"alls"`
	ADX         filePort `toml:"adx"`
	Slot        string   `toml:"slot"`
	DebugListen string   `toml:"debug_listen"`
	LogLevel    string   `toml:"log_level"`
}

// Load reads path and overlays every key it defines onto Default. Only
// syntax, unknown keys and durations are checked here; port paths may still
// come from the command line, so call Validate once all overrides are applied.
func Load(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".toml" {
		return Config{}, fmt.Errorf("config file must have .toml extension, got %q", ext)
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(cleanPath, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if err := overlayPort(&cfg.ALLS, raw.ALLS, meta, "alls"); err != nil {
		return Config{}, err
	}
	if err := overlayPort(&cfg.ADX, raw.ADX, meta, "adx"); err != nil {
		return Config{}, err
	}
	if meta.IsDefined("slot") {
		cfg.Slot = strings.TrimSpace(raw.Slot)
	}
	if meta.IsDefined("debug_listen") {
		cfg.DebugListen = strings.TrimSpace(raw.DebugListen)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	return cfg, nil
}

func overlayPort(dst *PortConfig, raw filePort, meta toml.MetaData, section string) error {
	if meta.IsDefined(section, "path") {
		dst.Path = strings.TrimSpace(raw.Path)
	}
	if meta.IsDefined(section, "baud_rate") {
		dst.BaudRate = raw.BaudRate
	}
	if meta.IsDefined(section, "data_bits") {
		dst.DataBits = raw.DataBits
	}
	if meta.IsDefined(section, "stop_bits") {
		dst.StopBits = raw.StopBits
	}
	if meta.IsDefined(section, "parity") {
		dst.Parity = raw.Parity
	}
	if meta.IsDefined(section, "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse %s.read_timeout: %w", section, err)
		}
		dst.ReadTimeout = d
	}
	return nil
}

// Validate checks the configuration is complete and consistent.
func (c Config) Validate() error {
	if err := c.ALLS.validate("alls"); err != nil {
		return err
	}
	if err := c.ADX.validate("adx"); err != nil {
		return err
	}
	if c.ALLS.Path == c.ADX.Path {
		return fmt.Errorf("alls and adx must be different ports, both are %q", c.ALLS.Path)
	}
	if _, err := touchstate.New(c.Slot); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, ok := monitoring.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("unknown log level %q", c.LogLevel)
		}
	}
	return nil
}

func (p PortConfig) validate(section string) error {
	if p.Path == "" {
		return fmt.Errorf("%s: %w", section, ErrNoPort)
	}
	if p.ReadTimeout <= 0 {
		return fmt.Errorf("%s: read_timeout must be positive, got %s", section, p.ReadTimeout)
	}
	if _, err := p.Options().Normalize(); err != nil {
		return fmt.Errorf("%s: %w", section, err)
	}
	return nil
}
