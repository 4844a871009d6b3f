package mavkit

import (
	"sync"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/flightpath-dev/mavkit/mission"
)

// VehicleState is the arm/mode/health/identity projection, updated from
// HEARTBEAT. SystemID is zero until the first HEARTBEAT
// has been observed.
type VehicleState struct {
	SystemID     uint8
	ComponentID  uint8
	Armed        bool
	CustomMode   uint32
	ModeName     string
	SystemStatus SystemStatus
	VehicleType  VehicleType
	Autopilot    AutopilotType
}

// Telemetry is the position/speed/battery projection, updated from
// VFR_HUD, GLOBAL_POSITION_INT, SYS_STATUS and GPS_RAW_INT. Fields are
// pointers because no value has been observed yet on a fresh connection.
type Telemetry struct {
	AltitudeM    *float64
	SpeedMps     *float64
	HeadingDeg   *float64
	LatitudeDeg  *float64
	LongitudeDeg *float64
	BatteryPct   *float64
	GpsFixType   *GpsFixType
}

// MissionState is the onboard mission-execution projection, updated from
// MISSION_CURRENT.
type MissionState struct {
	CurrentSeq uint16
	TotalItems uint16
}

// LinkStateKind discriminates the phases of LinkState.
type LinkStateKind int

const (
	LinkConnecting LinkStateKind = iota
	LinkConnected
	LinkDisconnected
	LinkError
)

// LinkState reports the connection's lifecycle phase; Detail is only set
// when Kind == LinkError.
type LinkState struct {
	Kind   LinkStateKind
	Detail string
}

func (s LinkState) String() string {
	switch s.Kind {
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	case LinkError:
		return "error: " + s.Detail
	default:
		return "unknown"
	}
}

// VehicleIdentity pairs the learned system/component ID with the
// autopilot and vehicle type reported in its HEARTBEAT.
type VehicleIdentity struct {
	SystemID    uint8
	ComponentID uint8
	Autopilot   AutopilotType
	VehicleType VehicleType
}

// FlightMode pairs a raw custom_mode with its resolved display name.
type FlightMode struct {
	CustomMode uint32
	Name       string
}

// SystemStatus mirrors MAV_STATE.
type SystemStatus int

const (
	SystemStatusUnknown SystemStatus = iota
	SystemStatusBoot
	SystemStatusCalibrating
	SystemStatusStandby
	SystemStatusActive
	SystemStatusCritical
	SystemStatusEmergency
	SystemStatusPoweroff
)

func systemStatusFromMav(status common.MAV_STATE) SystemStatus {
	switch status {
	case common.MAV_STATE_BOOT:
		return SystemStatusBoot
	case common.MAV_STATE_CALIBRATING:
		return SystemStatusCalibrating
	case common.MAV_STATE_STANDBY:
		return SystemStatusStandby
	case common.MAV_STATE_ACTIVE:
		return SystemStatusActive
	case common.MAV_STATE_CRITICAL:
		return SystemStatusCritical
	case common.MAV_STATE_EMERGENCY:
		return SystemStatusEmergency
	case common.MAV_STATE_POWEROFF:
		return SystemStatusPoweroff
	default:
		return SystemStatusUnknown
	}
}

// VehicleType mirrors the airframe classes relevant to mode-table
// selection (MAV_TYPE).
type VehicleType int

const (
	VehicleTypeUnknown VehicleType = iota
	VehicleTypeFixedWing
	VehicleTypeQuadrotor
	VehicleTypeHexarotor
	VehicleTypeOctorotor
	VehicleTypeTricopter
	VehicleTypeHelicopter
	VehicleTypeCoaxial
	VehicleTypeGroundRover
	VehicleTypeGeneric
)

func vehicleTypeFromMav(mavType common.MAV_TYPE) VehicleType {
	switch mavType {
	case common.MAV_TYPE_FIXED_WING:
		return VehicleTypeFixedWing
	case common.MAV_TYPE_QUADROTOR:
		return VehicleTypeQuadrotor
	case common.MAV_TYPE_HEXAROTOR:
		return VehicleTypeHexarotor
	case common.MAV_TYPE_OCTOROTOR:
		return VehicleTypeOctorotor
	case common.MAV_TYPE_TRICOPTER:
		return VehicleTypeTricopter
	case common.MAV_TYPE_HELICOPTER:
		return VehicleTypeHelicopter
	case common.MAV_TYPE_COAXIAL:
		return VehicleTypeCoaxial
	case common.MAV_TYPE_GROUND_ROVER:
		return VehicleTypeGroundRover
	case common.MAV_TYPE_GENERIC:
		return VehicleTypeGeneric
	default:
		return VehicleTypeUnknown
	}
}

// AutopilotType mirrors MAV_AUTOPILOT, restricted to the values the mode
// tables and identity projection care about.
type AutopilotType int

const (
	AutopilotUnknown AutopilotType = iota
	AutopilotGeneric
	AutopilotArduPilotMega
	AutopilotPx4
)

func autopilotFromMav(autopilot common.MAV_AUTOPILOT) AutopilotType {
	switch autopilot {
	case common.MAV_AUTOPILOT_GENERIC:
		return AutopilotGeneric
	case common.MAV_AUTOPILOT_ARDUPILOTMEGA:
		return AutopilotArduPilotMega
	case common.MAV_AUTOPILOT_PX4:
		return AutopilotPx4
	default:
		return AutopilotUnknown
	}
}

// GpsFixType mirrors GPS_FIX_TYPE.
type GpsFixType int

const (
	GpsFixNone GpsFixType = iota
	GpsFix2D
	GpsFix3D
	GpsFixDgps
	GpsFixRtkFloat
	GpsFixRtkFixed
)

func gpsFixTypeFromRaw(fixType uint8) GpsFixType {
	switch fixType {
	case 2:
		return GpsFix2D
	case 3:
		return GpsFix3D
	case 4:
		return GpsFixDgps
	case 5:
		return GpsFixRtkFloat
	case 6:
		return GpsFixRtkFixed
	default:
		return GpsFixNone
	}
}

// Signal is a single latest-value slot with change notification, filling
// the role tokio::sync::watch plays in the original: one writer, any
// number of readers, each reader seeing only the most recent value.
//
// A reader calls Changed() to get the current wake channel, then Get()
// to read the value; after the channel closes, calling Changed() again
// returns a fresh one armed for the next update. This mirrors
// watch::Receiver::changed() followed by borrow().
type Signal[T any] struct {
	mu    sync.RWMutex
	value T
	woken chan struct{}
}

func newSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial, woken: make(chan struct{})}
}

func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	previous := s.woken
	s.woken = make(chan struct{})
	s.mu.Unlock()
	close(previous)
}

// Changed returns a channel that closes the next time Set is called.
func (s *Signal[T]) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.woken
}

// stateChannels bundles the six projection slots an engine updates and
// a handle's observer methods read from.
type stateChannels struct {
	vehicleState    *Signal[VehicleState]
	telemetry       *Signal[Telemetry]
	homePosition    *Signal[*mission.HomePosition]
	missionState    *Signal[MissionState]
	linkState       *Signal[LinkState]
	missionProgress *Signal[*mission.TransferProgress]
}

func newStateChannels() *stateChannels {
	return &stateChannels{
		vehicleState:    newSignal(VehicleState{}),
		telemetry:       newSignal(Telemetry{}),
		homePosition:    newSignal[*mission.HomePosition](nil),
		missionState:    newSignal(MissionState{}),
		linkState:       newSignal(LinkState{Kind: LinkConnecting}),
		missionProgress: newSignal[*mission.TransferProgress](nil),
	}
}
