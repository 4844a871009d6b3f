package mavkit

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/flightpath-dev/mavkit/mission"
)

// command is the engine's inbound work item. Each concrete type pairs
// its inputs with a reply channel; the engine's dispatcher type-switches
// on command rather than using polymorphic dispatch, keeping the
// request/response shape of every operation visible at its call site.
type command interface {
	isCommand()
}

type cmdArm struct {
	force bool
	reply chan error
}

type cmdDisarm struct {
	force bool
	reply chan error
}

type cmdSetMode struct {
	customMode uint32
	reply      chan error
}

type cmdCommandLong struct {
	command common.MAV_CMD
	params  [7]float32
	reply   chan error
}

type cmdGuidedGoto struct {
	latE7 int32
	lonE7 int32
	altM  float32
	reply chan error
}

type cmdMissionUpload struct {
	plan  mission.Plan
	reply chan error
}

type missionDownloadResult struct {
	plan mission.Plan
	err  error
}

type cmdMissionDownload struct {
	missionType mission.Type
	reply       chan missionDownloadResult
}

type cmdMissionClear struct {
	missionType mission.Type
	reply       chan error
}

type cmdMissionSetCurrent struct {
	seq   uint16
	reply chan error
}

type cmdShutdown struct{}

func (cmdArm) isCommand()                {}
func (cmdDisarm) isCommand()             {}
func (cmdSetMode) isCommand()            {}
func (cmdCommandLong) isCommand()        {}
func (cmdGuidedGoto) isCommand()         {}
func (cmdMissionUpload) isCommand()      {}
func (cmdMissionDownload) isCommand()    {}
func (cmdMissionClear) isCommand()       {}
func (cmdMissionSetCurrent) isCommand()  {}
func (cmdShutdown) isCommand()           {}
