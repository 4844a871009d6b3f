package mavkit

import "testing"

func TestCopterGuidedName(t *testing.T) {
	if got := ModeName(AutopilotArduPilotMega, VehicleTypeQuadrotor, 4); got != "GUIDED" {
		t.Errorf("ModeName = %q, want GUIDED", got)
	}
}

func TestCopterGuidedNumberCaseInsensitive(t *testing.T) {
	got, ok := ModeNumber(AutopilotArduPilotMega, VehicleTypeQuadrotor, "guided")
	if !ok || got != 4 {
		t.Errorf("ModeNumber = (%d, %v), want (4, true)", got, ok)
	}
}

func TestPlaneRTLName(t *testing.T) {
	if got := ModeName(AutopilotArduPilotMega, VehicleTypeFixedWing, 11); got != "RTL" {
		t.Errorf("ModeName = %q, want RTL", got)
	}
}

func TestUnknownModeNumber(t *testing.T) {
	if got := ModeName(AutopilotArduPilotMega, VehicleTypeQuadrotor, 999); got != "UNKNOWN(999)" {
		t.Errorf("ModeName = %q, want UNKNOWN(999)", got)
	}
}

func TestAvailableModesCopterLength(t *testing.T) {
	modes := AvailableModes(AutopilotArduPilotMega, VehicleTypeQuadrotor)
	if len(modes) != len(copterModes) {
		t.Errorf("len(modes) = %d, want %d", len(modes), len(copterModes))
	}
}

func TestNonArduPilotReturnsModeN(t *testing.T) {
	if got := ModeName(AutopilotGeneric, VehicleTypeQuadrotor, 4); got != "MODE(4)" {
		t.Errorf("ModeName = %q, want MODE(4)", got)
	}
}

func TestNonArduPilotAvailableModesEmpty(t *testing.T) {
	if modes := AvailableModes(AutopilotGeneric, VehicleTypeQuadrotor); len(modes) != 0 {
		t.Errorf("len(modes) = %d, want 0", len(modes))
	}
}

func TestRoverGuidedNumber(t *testing.T) {
	got, ok := ModeNumber(AutopilotArduPilotMega, VehicleTypeGroundRover, "GUIDED")
	if !ok || got != 15 {
		t.Errorf("ModeNumber = (%d, %v), want (15, true)", got, ok)
	}
}
