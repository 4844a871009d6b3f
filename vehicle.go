package mavkit

import (
	"context"
	"fmt"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flightpath-dev/mavkit/mavcodec"
	"github.com/flightpath-dev/mavkit/mission"
)

// Vehicle is a handle to one connected MAVLink peer. All of its methods
// are safe for concurrent use; internally they hand work off to a
// single engine goroutine that owns the connection.
type Vehicle struct {
	commandTx    chan command
	cancelSignal chan struct{}
	channels     *stateChannels
	cancel       context.CancelFunc
	config       Config
	log          zerolog.Logger
}

// Connect opens a connection at address (e.g. "udpin:0.0.0.0:14550",
// "tcpin:0.0.0.0:5760", "serial:/dev/ttyUSB0:57600") using default
// configuration and blocks until the first HEARTBEAT arrives or
// ConnectTimeout elapses.
func Connect(address string) (*Vehicle, error) {
	return ConnectWithConfig(address, DefaultConfig())
}

// ConnectUDP is a convenience wrapper binding a UDP server endpoint.
func ConnectUDP(bindAddress string) (*Vehicle, error) {
	return Connect("udpin:" + bindAddress)
}

// ConnectTCP is a convenience wrapper binding a TCP server endpoint.
func ConnectTCP(bindAddress string) (*Vehicle, error) {
	return Connect("tcpin:" + bindAddress)
}

// ConnectSerial is a convenience wrapper for a serial link.
func ConnectSerial(device string, baud int) (*Vehicle, error) {
	return Connect(fmt.Sprintf("serial:%s:%d", device, baud))
}

// ConnectWithConfig is Connect with caller-controlled configuration.
func ConnectWithConfig(address string, config Config) (*Vehicle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := mavcodec.ParseEndpoint(address)
	if err != nil {
		return nil, newConnectionFailed(err.Error())
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:      []gomavlib.EndpointConf{endpoint},
		Dialect:        common.Dialect,
		OutVersion:     gomavlib.V2,
		OutSystemID:    config.GCSSystemID,
		OutComponentID: config.GCSComponentID,
	})
	if err != nil {
		return nil, newConnectionFailed(err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	channels := newStateChannels()
	commandTx := make(chan command, config.CommandBufferSize)
	cancelSignal := make(chan struct{}, 1)

	go runEventLoop(ctx, node, commandTx, cancelSignal, channels, config, config.Logger)

	v := &Vehicle{commandTx: commandTx, cancelSignal: cancelSignal, channels: channels, cancel: cancel, config: config, log: config.Logger}

	if err := v.awaitIdentity(config.ConnectTimeout); err != nil {
		v.Disconnect()
		return nil, err
	}

	return v, nil
}

func (v *Vehicle) awaitIdentity(timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	if v.channels.vehicleState.Get().SystemID != 0 {
		return nil
	}

	for {
		select {
		case <-v.channels.vehicleState.Changed():
			if v.channels.vehicleState.Get().SystemID != 0 {
				return nil
			}
		case <-deadline.C:
			return newTimeout()
		}
	}
}

// State returns the handle to the arm/mode/health projection.
func (v *Vehicle) State() *Signal[VehicleState] { return v.channels.vehicleState }

// Telemetry returns the handle to the position/speed/battery projection.
func (v *Vehicle) Telemetry() *Signal[Telemetry] { return v.channels.telemetry }

// HomePosition returns the handle to the home-position projection, nil
// until one has been received.
func (v *Vehicle) HomePosition() *Signal[*mission.HomePosition] { return v.channels.homePosition }

// MissionStateSignal returns the handle to the onboard mission-execution
// projection.
func (v *Vehicle) MissionStateSignal() *Signal[MissionState] { return v.channels.missionState }

// LinkState returns the handle to the connection lifecycle projection.
func (v *Vehicle) LinkState() *Signal[LinkState] { return v.channels.linkState }

// MissionProgress returns the handle to the transfer-progress
// projection. Its value is nil until the first transfer starts; after a
// transfer ends it keeps that transfer's last snapshot.
func (v *Vehicle) MissionProgress() *Signal[*mission.TransferProgress] {
	return v.channels.missionProgress
}

// Identity reports the learned system/component ID and airframe, or
// false if no HEARTBEAT has arrived yet.
func (v *Vehicle) Identity() (VehicleIdentity, bool) {
	state := v.channels.vehicleState.Get()
	if state.SystemID == 0 {
		return VehicleIdentity{}, false
	}
	return VehicleIdentity{
		SystemID:    state.SystemID,
		ComponentID: state.ComponentID,
		Autopilot:   state.Autopilot,
		VehicleType: state.VehicleType,
	}, true
}

// AvailableModes lists the modes known for the vehicle's current
// autopilot/airframe combination; empty for non-ArduPilot autopilots.
func (v *Vehicle) AvailableModes() []FlightMode {
	state := v.channels.vehicleState.Get()
	return AvailableModes(state.Autopilot, state.VehicleType)
}

// Mission returns a handle scoped to mission-transfer operations.
func (v *Vehicle) Mission() *MissionHandle { return &MissionHandle{vehicle: v} }

func (v *Vehicle) dispatch(ctx context.Context, cmd command, reply <-chan error) error {
	id := uuid.New()
	v.log.Debug().Str("command_id", id.String()).Msg("queuing command")

	select {
	case v.commandTx <- cmd:
	case <-ctx.Done():
		return newCancelled()
	}

	select {
	case err := <-reply:
		if err != nil {
			v.log.Warn().Str("command_id", id.String()).Err(err).Msg("command failed")
		}
		return err
	case <-ctx.Done():
		return newCancelled()
	}
}

// Arm arms the vehicle. force bypasses the autopilot's pre-arm checks.
func (v *Vehicle) Arm(ctx context.Context, force bool) error {
	reply := make(chan error, 1)
	return v.dispatch(ctx, cmdArm{force: force, reply: reply}, reply)
}

// Disarm disarms the vehicle. force bypasses in-flight disarm guards.
func (v *Vehicle) Disarm(ctx context.Context, force bool) error {
	reply := make(chan error, 1)
	return v.dispatch(ctx, cmdDisarm{force: force, reply: reply}, reply)
}

// SetMode requests a flight mode switch by its raw custom_mode value.
func (v *Vehicle) SetMode(ctx context.Context, customMode uint32) error {
	reply := make(chan error, 1)
	return v.dispatch(ctx, cmdSetMode{customMode: customMode, reply: reply}, reply)
}

// SetModeByName resolves name against the vehicle's current mode table
// and requests that mode, or returns ErrModeNotAvailable if it isn't
// one of the known modes for this autopilot/airframe.
func (v *Vehicle) SetModeByName(ctx context.Context, name string) error {
	state := v.channels.vehicleState.Get()
	customMode, ok := ModeNumber(state.Autopilot, state.VehicleType, name)
	if !ok {
		return newModeNotAvailable(name)
	}
	return v.SetMode(ctx, customMode)
}

// CommandLong sends an arbitrary COMMAND_LONG and waits for its
// COMMAND_ACK, retrying per the configured RetryPolicy.
func (v *Vehicle) CommandLong(ctx context.Context, cmd common.MAV_CMD, params [7]float32) error {
	reply := make(chan error, 1)
	return v.dispatch(ctx, cmdCommandLong{command: cmd, params: params, reply: reply}, reply)
}

// Takeoff sends MAV_CMD_NAV_TAKEOFF to the given altitude.
func (v *Vehicle) Takeoff(ctx context.Context, altitudeM float32) error {
	return v.CommandLong(ctx, common.MAV_CMD_NAV_TAKEOFF, [7]float32{0, 0, 0, 0, 0, 0, altitudeM})
}

// Goto commands a guided-mode move to a global position via
// SET_POSITION_TARGET_GLOBAL_INT. It does not wait for arrival.
func (v *Vehicle) Goto(ctx context.Context, latitudeDeg, longitudeDeg float64, altitudeM float32) error {
	reply := make(chan error, 1)
	cmd := cmdGuidedGoto{
		latE7: int32(latitudeDeg * 1e7),
		lonE7: int32(longitudeDeg * 1e7),
		altM:  altitudeM,
		reply: reply,
	}
	return v.dispatch(ctx, cmd, reply)
}

// Disconnect stops the engine goroutine and closes the underlying node.
// Safe to call more than once.
func (v *Vehicle) Disconnect() error {
	select {
	case v.commandTx <- cmdShutdown{}:
	default:
	}
	v.cancel()
	return nil
}
