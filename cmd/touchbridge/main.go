// Command touchbridge bridges an ALLS display controller and an ADX touch
// sensor controller over two serial ports.
//
// Usage:
//
//	touchbridge [flags] [ALLS_PORT ADX_PORT]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/banshee-data/touchbridge/internal/bridge"
	"github.com/banshee-data/touchbridge/internal/config"
	"github.com/banshee-data/touchbridge/internal/link"
	"github.com/banshee-data/touchbridge/internal/monitoring"
	"github.com/banshee-data/touchbridge/internal/touchstate"
	"github.com/banshee-data/touchbridge/internal/version"
)

const appName = "touchbridge"

var (
	configFile  = flag.String("config", "", "Path to a TOML config file")
	allsPort    = flag.String("alls", "", "Serial port of the ALLS display controller")
	adxPort     = flag.String("adx", "", "Serial port of the ADX touch sensor")
	baudRate    = flag.Int("baud", 0, "Baud rate for both ports (0 keeps the configured rate)")
	readTimeout = flag.Duration("timeout", 0, "Read timeout for both ports (0 keeps the configured timeout)")
	slotKind    = flag.String("slot", "", "Touch slot encoding: packed or locked")
	debugListen = flag.String("debug-listen", "", "Listen address for the /debug/ pages (empty disables them)")
	logLevel    = flag.String("log-level", "", "Log level: trace, debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [ALLS_PORT ADX_PORT]\n\nFlags:\n", appName)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := buildConfig(flagOverrides(), flag.Args())
	if err != nil {
		logger := monitoring.InitLogger(appName, monitoring.LogOptions{Level: *logLevel})
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := monitoring.InitLogger(appName, monitoring.LogOptions{Level: cfg.LogLevel})
	logger.Info().Str("version", version.Version).Str("git_sha", version.GitSHA).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, link.OpenSerial, logger); err != nil {
		logger.Fatal().Err(err).Msg("bridge stopped")
	}
	logger.Info().Msg("Graceful shutdown complete")
}

// run opens both ports and relays between them until ctx is cancelled or an
// I/O error occurs. Cancellation is not an error.
func run(ctx context.Context, cfg config.Config, opener link.Opener, logger zerolog.Logger) error {
	newSlot, err := slotFactory(cfg.Slot)
	if err != nil {
		return err
	}

	display, err := link.Open(opener, "ALLS", cfg.ALLS.Path, cfg.ALLS.Options())
	if err != nil {
		return err
	}
	defer display.Close()
	logPortOpened(logger, display, cfg.ALLS)

	sensor, err := link.Open(opener, "ADX", cfg.ADX.Path, cfg.ADX.Options())
	if err != nil {
		return err
	}
	defer sensor.Close()
	logPortOpened(logger, sensor, cfg.ADX)

	b := bridge.New(bridge.Config{
		Display: display,
		Sensor:  sensor,
		NewSlot: newSlot,
		Logger:  logger,
		Metrics: monitoring.NewMetrics(),
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if cfg.DebugListen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(runCtx, cfg.DebugListen, b, logger)
		}()
	}

	err = b.Run(runCtx)
	cancel()
	wg.Wait()

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// slotFactory returns the constructor for the touch slot named by kind.
func slotFactory(kind string) (func() touchstate.Slot, error) {
	switch kind {
	case "", touchstate.KindPacked:
		return func() touchstate.Slot { return touchstate.NewPacked() }, nil
	case touchstate.KindLocked:
		return func() touchstate.Slot { return touchstate.NewLocked() }, nil
	default:
		return nil, fmt.Errorf("unknown touch slot %q: expected %q or %q", kind, touchstate.KindPacked, touchstate.KindLocked)
	}
}

func logPortOpened(logger zerolog.Logger, l *link.Link, p config.PortConfig) {
	logger.Info().
		Str("port", l.Name()).
		Str("path", p.Path).
		Int("baud", p.BaudRate).
		Dur("read_timeout", p.ReadTimeout).
		Msg("serial port opened")
}

// serveDebug serves the bridge debug pages on addr until ctx is done.
func serveDebug(ctx context.Context, addr string, b *bridge.Bridge, logger zerolog.Logger) {
	mux := http.NewServeMux()
	b.AttachAdminRoutes(mux)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("debug server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("debug server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down debug server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("debug server shutdown error")
		// Force close the server if graceful shutdown fails
		if err := server.Close(); err != nil {
			logger.Warn().Err(err).Msg("debug server force close error")
		}
	}
}
