// Command mavkit-cli is a small demonstration client: it connects to
// one vehicle, prints state/telemetry changes as they arrive, and
// issues a single action named on the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightpath-dev/mavkit"
)

func main() {
	var (
		address   = flag.String("address", "udpin:0.0.0.0:14550", "connection address (udpin:/udpout:/tcpin:/serial:host:port)")
		registry  = flag.String("registry", "", "path to a vehicle registry YAML file (overrides -address)")
		vehicleID = flag.String("vehicle", "", "vehicle ID to connect to, looked up in -registry")
		action    = flag.String("action", "watch", "arm|disarm|takeoff|watch")
		altitudeM = flag.Float64("altitude", 10, "takeoff altitude in meters")
		jsonLog   = flag.Bool("json-log", false, "emit log lines as JSON instead of console text")
		logLevel  = flag.String("log-level", "info", "debug|info|warn|error")
	)
	flag.Parse()

	logger := buildLogger(*jsonLog, *logLevel)

	config := mavkit.DefaultConfig()
	config.Logger = logger

	vehicle, err := connect(*registry, *vehicleID, *address, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect failed")
	}
	defer vehicle.Disconnect()

	identity, _ := vehicle.Identity()
	logger.Info().
		Uint8("system_id", identity.SystemID).
		Uint8("component_id", identity.ComponentID).
		Msg("connected")

	ctx, cancel := context.WithCancel(context.Background())
	go handleShutdown(cancel, logger)

	switch *action {
	case "arm":
		runAction(ctx, logger, "arm", func(c context.Context) error { return vehicle.Arm(c, false) })
	case "disarm":
		runAction(ctx, logger, "disarm", func(c context.Context) error { return vehicle.Disarm(c, false) })
	case "takeoff":
		runAction(ctx, logger, "takeoff", func(c context.Context) error { return vehicle.Takeoff(c, float32(*altitudeM)) })
	case "watch":
		watch(ctx, vehicle, logger)
	default:
		logger.Fatal().Str("action", *action).Msg("unknown action")
	}
}

func connect(registryPath, vehicleID, address string, config mavkit.Config) (*mavkit.Vehicle, error) {
	if registryPath == "" {
		return mavkit.ConnectWithConfig(address, config)
	}
	reg, err := mavkit.LoadVehicleRegistry(registryPath)
	if err != nil {
		return nil, err
	}
	if vehicleID == "" {
		return nil, fmt.Errorf("mavkit-cli: -vehicle is required with -registry")
	}
	return reg.Connect(vehicleID, config)
}

func buildLogger(asJSON bool, level string) zerolog.Logger {
	var logger zerolog.Logger
	if asJSON {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	return logger.Level(parsed)
}

func runAction(ctx context.Context, logger zerolog.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.Error().Err(err).Str("action", name).Msg("action failed")
		os.Exit(1)
	}
	logger.Info().Str("action", name).Msg("action succeeded")
}

// watch prints state, telemetry and link changes until ctx is
// cancelled (Ctrl-C).
func watch(ctx context.Context, vehicle *mavkit.Vehicle, logger zerolog.Logger) {
	state := vehicle.State()
	telemetry := vehicle.Telemetry()
	link := vehicle.LinkState()

	for {
		select {
		case <-ctx.Done():
			return
		case <-state.Changed():
			s := state.Get()
			logger.Info().
				Bool("armed", s.Armed).
				Str("mode", s.ModeName).
				Msg("state")
		case <-telemetry.Changed():
			t := telemetry.Get()
			ev := logger.Info()
			if t.AltitudeM != nil {
				ev = ev.Float64("altitude_m", *t.AltitudeM)
			}
			if t.SpeedMps != nil {
				ev = ev.Float64("speed_mps", *t.SpeedMps)
			}
			ev.Msg("telemetry")
		case <-link.Changed():
			logger.Info().Str("link", link.Get().String()).Msg("link")
		}
	}
}

func handleShutdown(cancel context.CancelFunc, logger zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("shutting down")
	cancel()
}
