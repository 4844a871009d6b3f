package mavkit

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightpath-dev/mavkit/mission"
)

// Config controls the behavior of a connected Vehicle. The zero value is
// not usable; build one with DefaultConfig and override fields as needed.
type Config struct {
	// GCSSystemID/GCSComponentID identify this ground station as the
	// sender of every outbound message. Defaults 255/190.
	GCSSystemID    uint8
	GCSComponentID uint8

	RetryPolicy mission.RetryPolicy

	// AutoRequestHome requests HOME_POSITION once, after the first
	// identity is learned.
	AutoRequestHome bool

	// CommandBufferSize bounds the engine's inbound command queue.
	CommandBufferSize int

	// ConnectTimeout bounds how long Connect waits for the first
	// HEARTBEAT before failing with ErrTimeout.
	ConnectTimeout time.Duration

	// Dialect names the gomavlib dialect in use. ConnectWithConfig does
	// not read it: the connection always uses the "common" dialect.
	Dialect string

	// Logger receives the engine's structured event log. Defaults to a
	// console writer on stderr; callers may substitute their own sink.
	Logger zerolog.Logger
}

// DefaultConfig mirrors the teacher's config.Default(): sensible
// out-of-the-box values matching the upstream VehicleConfig defaults.
func DefaultConfig() Config {
	return Config{
		GCSSystemID:       255,
		GCSComponentID:    190,
		RetryPolicy:       mission.DefaultRetryPolicy(),
		AutoRequestHome:   true,
		CommandBufferSize: 32,
		ConnectTimeout:    30 * time.Second,
		Dialect:           "common",
		Logger:            zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}
}

// Validate checks invariants that matter before Connect is attempted.
func (c Config) Validate() error {
	if c.CommandBufferSize <= 0 {
		return newConnectionFailed("command buffer size must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return newConnectionFailed("connect timeout must be positive")
	}
	return nil
}
