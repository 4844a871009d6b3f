// Package mavcodec adapts between the library's semantic mission/frame
// types and their MAVLink wire encodings (gomavlib's common dialect),
// and turns an address string into a gomavlib endpoint. The root package
// goes through it for every wire concern; mission does not import it,
// which keeps mission itself free of any MAVLink import.
package mavcodec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/flightpath-dev/mavkit/mission"
)

// ParseEndpoint turns an address string into a gomavlib endpoint config.
// Supported schemes: udpin:host:port, udpout:host:port, tcpin:host:port,
// serial:device:baud.
func ParseEndpoint(address string) (gomavlib.EndpointConf, error) {
	scheme, rest, ok := strings.Cut(address, ":")
	if !ok {
		return nil, fmt.Errorf("mavcodec: address %q has no scheme", address)
	}

	switch scheme {
	case "udpin":
		return gomavlib.EndpointUDPServer{Address: rest}, nil
	case "udpout":
		return gomavlib.EndpointUDPClient{Address: rest}, nil
	case "tcpin":
		return gomavlib.EndpointTCPServer{Address: rest}, nil
	case "serial":
		device, baudStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("mavcodec: serial address %q missing baud rate", address)
		}
		baud, err := strconv.Atoi(baudStr)
		if err != nil {
			return nil, fmt.Errorf("mavcodec: serial address %q has invalid baud rate: %w", address, err)
		}
		return gomavlib.EndpointSerial{Device: device, Baud: baud}, nil
	default:
		return nil, fmt.Errorf("mavcodec: unsupported address scheme %q", scheme)
	}
}

// ToMavMissionType converts a semantic mission.Type to its wire enum.
func ToMavMissionType(missionType mission.Type) common.MAV_MISSION_TYPE {
	switch missionType {
	case mission.TypeFence:
		return common.MAV_MISSION_TYPE_FENCE
	case mission.TypeRally:
		return common.MAV_MISSION_TYPE_RALLY
	default:
		return common.MAV_MISSION_TYPE_MISSION
	}
}

// MissionTypeMatches reports whether a received MAV_MISSION_TYPE answers
// a request for expected. A mission-type response is treated as a match
// for the default (Mission) request, since some autopilots omit the
// extension field entirely and it decodes as the zero value.
func MissionTypeMatches(received common.MAV_MISSION_TYPE, expected mission.Type) bool {
	expectedMav := ToMavMissionType(expected)
	if expected == mission.TypeMission {
		return received == expectedMav || received == common.MAV_MISSION_TYPE_MISSION
	}
	return received == expectedMav
}

// ToMavFrame converts a semantic mission.Frame to its wire enum.
func ToMavFrame(frame mission.Frame) common.MAV_FRAME {
	switch frame {
	case mission.FrameMission:
		return common.MAV_FRAME_MISSION
	case mission.FrameGlobalInt:
		return common.MAV_FRAME_GLOBAL
	case mission.FrameGlobalRelativeAltInt:
		return common.MAV_FRAME_GLOBAL_RELATIVE_ALT
	case mission.FrameGlobalTerrainAltInt:
		return common.MAV_FRAME_GLOBAL_TERRAIN_ALT
	case mission.FrameLocalNed:
		return common.MAV_FRAME_LOCAL_NED
	default:
		return common.MAV_FRAME_MISSION
	}
}

// FromMavFrame is the inverse of ToMavFrame; the deprecated *_INT frame
// aliases collapse onto the same semantic frame as their non-suffixed
// counterpart.
func FromMavFrame(frame common.MAV_FRAME) mission.Frame {
	switch frame {
	case common.MAV_FRAME_MISSION:
		return mission.FrameMission
	case common.MAV_FRAME_GLOBAL, common.MAV_FRAME_GLOBAL_INT:
		return mission.FrameGlobalInt
	case common.MAV_FRAME_GLOBAL_RELATIVE_ALT, common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT:
		return mission.FrameGlobalRelativeAltInt
	case common.MAV_FRAME_GLOBAL_TERRAIN_ALT, common.MAV_FRAME_GLOBAL_TERRAIN_ALT_INT:
		return mission.FrameGlobalTerrainAltInt
	case common.MAV_FRAME_LOCAL_NED:
		return mission.FrameLocalNed
	default:
		return mission.FrameOther
	}
}

// FromMissionItemInt converts a received MISSION_ITEM_INT into a
// semantic Item.
func FromMissionItemInt(data *common.MessageMissionItemInt) mission.Item {
	return mission.Item{
		Seq:          data.Seq,
		Command:      uint16(data.Command),
		Frame:        FromMavFrame(data.Frame),
		Current:      data.Current > 0,
		Autocontinue: data.Autocontinue > 0,
		Param1:       data.Param1,
		Param2:       data.Param2,
		Param3:       data.Param3,
		Param4:       data.Param4,
		X:            data.X,
		Y:            data.Y,
		Z:            data.Z,
	}
}

// FromMissionItemFloat converts the deprecated float-form MISSION_ITEM
// into a semantic Item, scaling x/y by 1e7 for global frames so it lines
// up with MISSION_ITEM_INT's fixed-point encoding.
func FromMissionItemFloat(data *common.MessageMissionItem) mission.Item {
	frame := FromMavFrame(data.Frame)
	isGlobal := frame.IsGlobalPosition()

	x, y := int32(data.X), int32(data.Y)
	if isGlobal {
		x = int32(float64(data.X) * 1e7)
		y = int32(float64(data.Y) * 1e7)
	}

	return mission.Item{
		Seq:          data.Seq,
		Command:      uint16(data.Command),
		Frame:        frame,
		Current:      data.Current > 0,
		Autocontinue: data.Autocontinue > 0,
		Param1:       data.Param1,
		Param2:       data.Param2,
		Param3:       data.Param3,
		Param4:       data.Param4,
		X:            x,
		Y:            y,
		Z:            data.Z,
	}
}

// BuildMissionItemInt encodes a semantic Item as an outbound
// MISSION_ITEM_INT addressed to target/component, current always 0 since
// this is only ever used to answer a MISSION_REQUEST(_INT) during
// upload, never to announce the active item.
func BuildMissionItemInt(item mission.Item, missionType mission.Type, targetSystem, targetComponent uint8) *common.MessageMissionItemInt {
	return &common.MessageMissionItemInt{
		TargetSystem:    targetSystem,
		TargetComponent: targetComponent,
		Seq:             item.Seq,
		Frame:           ToMavFrame(item.Frame),
		Command:         common.MAV_CMD(item.Command),
		Current:         0,
		Autocontinue:    boolToU8(item.Autocontinue),
		Param1:          item.Param1,
		Param2:          item.Param2,
		Param3:          item.Param3,
		Param4:          item.Param4,
		X:               item.X,
		Y:               item.Y,
		Z:               item.Z,
		MissionType:     ToMavMissionType(missionType),
	}
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
