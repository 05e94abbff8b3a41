package monitoring

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "TOUCHBRIDGE_LOG_LEVEL"
	EnvLogNoColor = "TOUCHBRIDGE_LOG_NOCOLOR"
)

// LogOptions configures InitLogger. Environment variables override the
// level and colour settings.
type LogOptions struct {
	Level   string
	NoColor bool
	Out     io.Writer
}

// InitLogger builds the console logger for app and installs it as the
// global zerolog logger.
func InitLogger(app string, opts LogOptions) zerolog.Logger {
	applyEnvOverrides(&opts)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	level, ok := ParseLevel(opts.Level)
	if !ok {
		level = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

func applyEnvOverrides(opts *LogOptions) {
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if _, ok := ParseLevel(raw); ok {
			opts.Level = raw
		}
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		opts.NoColor = v
	}
}

// ParseLevel maps a level name to a zerolog level. The second result is
// false for unknown or empty names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
