package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/touchbridge/internal/config"
)

// overrides holds the command-line values that take precedence over the
// config file. Zero values leave the file or default setting alone.
type overrides struct {
	configFile  string
	alls        string
	adx         string
	baudRate    int
	readTimeout time.Duration
	slot        string
	debugListen string
	logLevel    string
}

func flagOverrides() overrides {
	return overrides{
		configFile:  *configFile,
		alls:        *allsPort,
		adx:         *adxPort,
		baudRate:    *baudRate,
		readTimeout: *readTimeout,
		slot:        *slotKind,
		debugListen: *debugListen,
		logLevel:    *logLevel,
	}
}

// buildConfig layers defaults, the optional config file, flags and the
// positional ALLS and ADX ports, then validates the result.
func buildConfig(o overrides, args []string) (config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		loaded, err := config.Load(o.configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	switch len(args) {
	case 0:
	case 2:
		if o.alls != "" || o.adx != "" {
			return config.Config{}, errors.New("ports given both as arguments and with -alls/-adx")
		}
		o.alls, o.adx = args[0], args[1]
	default:
		return config.Config{}, fmt.Errorf("expected ALLS and ADX port arguments, got %d arguments", len(args))
	}

	if o.alls != "" {
		cfg.ALLS.Path = o.alls
	}
	if o.adx != "" {
		cfg.ADX.Path = o.adx
	}
	if o.baudRate < 0 {
		return config.Config{}, fmt.Errorf("-baud must not be negative, got %d", o.baudRate)
	}
	if o.baudRate > 0 {
		cfg.ALLS.BaudRate = o.baudRate
		cfg.ADX.BaudRate = o.baudRate
	}
	if o.readTimeout < 0 {
		return config.Config{}, fmt.Errorf("-timeout must not be negative, got %s", o.readTimeout)
	}
	if o.readTimeout > 0 {
		cfg.ALLS.ReadTimeout = o.readTimeout
		cfg.ADX.ReadTimeout = o.readTimeout
	}
	if o.slot != "" {
		cfg.Slot = o.slot
	}
	if o.debugListen != "" {
		cfg.DebugListen = o.debugListen
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
