package mavcodec

import (
	"testing"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/flightpath-dev/mavkit/mission"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"udp server", "udpin:0.0.0.0:14550", false},
		{"udp client", "udpout:192.168.1.1:14550", false},
		{"tcp server", "tcpin:0.0.0.0:5760", false},
		{"serial", "serial:/dev/ttyUSB0:57600", false},
		{"serial missing baud", "serial:/dev/ttyUSB0", true},
		{"unknown scheme", "ftp:example.com", true},
		{"no scheme", "justsomething", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, err := ParseEndpoint(tt.address)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEndpoint(%q) = nil error, want error", tt.address)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEndpoint(%q) error = %v", tt.address, err)
			}
			if endpoint == nil {
				t.Fatalf("ParseEndpoint(%q) = nil endpoint", tt.address)
			}
		})
	}
}

func TestParseEndpointTypes(t *testing.T) {
	endpoint, err := ParseEndpoint("udpin:0.0.0.0:14550")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := endpoint.(gomavlib.EndpointUDPServer); !ok {
		t.Errorf("udpin produced %T, want EndpointUDPServer", endpoint)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	for _, frame := range []mission.Frame{
		mission.FrameMission,
		mission.FrameGlobalInt,
		mission.FrameGlobalRelativeAltInt,
		mission.FrameGlobalTerrainAltInt,
		mission.FrameLocalNed,
	} {
		if got := FromMavFrame(ToMavFrame(frame)); got != frame {
			t.Errorf("round trip of %v = %v", frame, got)
		}
	}
}

func TestMissionTypeMatchesDefaultsToMission(t *testing.T) {
	if !MissionTypeMatches(common.MAV_MISSION_TYPE_MISSION, mission.TypeMission) {
		t.Error("expected MAV_MISSION_TYPE_MISSION to match TypeMission")
	}
	if MissionTypeMatches(common.MAV_MISSION_TYPE_FENCE, mission.TypeMission) {
		t.Error("fence response should not match a mission request")
	}
	if !MissionTypeMatches(common.MAV_MISSION_TYPE_FENCE, mission.TypeFence) {
		t.Error("expected MAV_MISSION_TYPE_FENCE to match TypeFence")
	}
}

func TestBuildMissionItemIntCurrentAlwaysZero(t *testing.T) {
	item := mission.Item{Seq: 3, Current: true, Autocontinue: true}
	out := BuildMissionItemInt(item, mission.TypeMission, 1, 1)
	if out.Current != 0 {
		t.Errorf("Current = %d, want 0 (requested items are never marked current)", out.Current)
	}
	if out.Autocontinue != 1 {
		t.Errorf("Autocontinue = %d, want 1", out.Autocontinue)
	}
}
