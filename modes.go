package mavkit

import (
	"fmt"
	"strings"
)

type vehicleClass int

const (
	vehicleClassCopter vehicleClass = iota
	vehicleClassPlane
	vehicleClassRover
	vehicleClassUnknown
)

func classifyVehicle(vehicleType VehicleType) vehicleClass {
	switch vehicleType {
	case VehicleTypeQuadrotor, VehicleTypeHexarotor, VehicleTypeOctorotor,
		VehicleTypeTricopter, VehicleTypeCoaxial, VehicleTypeHelicopter:
		return vehicleClassCopter
	case VehicleTypeFixedWing:
		return vehicleClassPlane
	case VehicleTypeGroundRover:
		return vehicleClassRover
	default:
		return vehicleClassUnknown
	}
}

type modeEntry struct {
	number uint32
	name   string
}

// copterModes, planeModes and roverModes are ArduPilot's custom_mode
// tables. Only ArduPilot reports modes this way; PX4 and generic
// autopilots encode mode in base_mode and have no name table here.
var copterModes = []modeEntry{
	{0, "STABILIZE"}, {1, "ACRO"}, {2, "ALT_HOLD"}, {3, "AUTO"},
	{4, "GUIDED"}, {5, "LOITER"}, {6, "RTL"}, {7, "CIRCLE"},
	{9, "LAND"}, {11, "DRIFT"}, {13, "SPORT"}, {15, "AUTOTUNE"},
	{16, "POSHOLD"}, {17, "BRAKE"}, {18, "THROW"}, {21, "SMART_RTL"},
}

var planeModes = []modeEntry{
	{0, "MANUAL"}, {1, "CIRCLE"}, {2, "STABILIZE"}, {3, "TRAINING"},
	{4, "ACRO"}, {5, "FLY_BY_WIRE_A"}, {6, "FLY_BY_WIRE_B"}, {7, "CRUISE"},
	{8, "AUTOTUNE"}, {10, "AUTO"}, {11, "RTL"}, {12, "LOITER"},
	{15, "GUIDED"}, {17, "QSTABILIZE"}, {18, "QHOVER"}, {19, "QLOITER"},
	{20, "QLAND"}, {21, "QRTL"},
}

var roverModes = []modeEntry{
	{0, "MANUAL"}, {1, "ACRO"}, {3, "STEERING"}, {4, "HOLD"},
	{5, "LOITER"}, {6, "FOLLOW"}, {7, "SIMPLE"}, {10, "AUTO"},
	{11, "RTL"}, {12, "SMART_RTL"}, {15, "GUIDED"},
}

func modeTable(autopilot AutopilotType, vehicleType VehicleType) []modeEntry {
	if autopilot != AutopilotArduPilotMega {
		return nil
	}
	switch classifyVehicle(vehicleType) {
	case vehicleClassPlane:
		return planeModes
	case vehicleClassRover:
		return roverModes
	default:
		return copterModes
	}
}

// ModeName resolves a custom_mode to its display name. Non-ArduPilot
// autopilots have no table, so the raw number is formatted instead;
// an ArduPilot mode number absent from the table formats as UNKNOWN(n).
func ModeName(autopilot AutopilotType, vehicleType VehicleType, customMode uint32) string {
	if autopilot != AutopilotArduPilotMega {
		return fmt.Sprintf("MODE(%d)", customMode)
	}
	for _, entry := range modeTable(autopilot, vehicleType) {
		if entry.number == customMode {
			return entry.name
		}
	}
	return fmt.Sprintf("UNKNOWN(%d)", customMode)
}

// ModeNumber resolves a mode name (case-insensitive) to its custom_mode
// number, or false if the name isn't in this autopilot/vehicle's table.
func ModeNumber(autopilot AutopilotType, vehicleType VehicleType, name string) (uint32, bool) {
	upper := strings.ToUpper(name)
	for _, entry := range modeTable(autopilot, vehicleType) {
		if entry.name == upper {
			return entry.number, true
		}
	}
	return 0, false
}

// AvailableModes lists every mode this autopilot/vehicle combination
// supports; empty for non-ArduPilot autopilots.
func AvailableModes(autopilot AutopilotType, vehicleType VehicleType) []FlightMode {
	table := modeTable(autopilot, vehicleType)
	modes := make([]FlightMode, 0, len(table))
	for _, entry := range table {
		modes = append(modes, FlightMode{CustomMode: entry.number, Name: entry.name})
	}
	return modes
}

