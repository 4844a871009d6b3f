package mavkit

import (
	"context"

	"github.com/flightpath-dev/mavkit/mission"
)

// MissionHandle scopes the mission-transfer operations of a Vehicle; it
// holds no state of its own beyond a reference back to the vehicle it
// was obtained from.
type MissionHandle struct {
	vehicle *Vehicle
}

// Upload validates plan and transfers it to the vehicle, blocking until
// the exchange completes, fails or ctx is cancelled. Progress can be
// observed concurrently via the vehicle's MissionProgress signal.
func (m *MissionHandle) Upload(ctx context.Context, plan mission.Plan) error {
	reply := make(chan error, 1)
	return m.vehicle.dispatch(ctx, cmdMissionUpload{plan: plan, reply: reply}, reply)
}

// Download retrieves the vehicle's current plan of the given type.
func (m *MissionHandle) Download(ctx context.Context, missionType mission.Type) (mission.Plan, error) {
	reply := make(chan missionDownloadResult, 1)
	cmd := cmdMissionDownload{missionType: missionType, reply: reply}

	select {
	case m.vehicle.commandTx <- cmd:
	case <-ctx.Done():
		return mission.Plan{}, newCancelled()
	}

	select {
	case result := <-reply:
		return result.plan, result.err
	case <-ctx.Done():
		return mission.Plan{}, newCancelled()
	}
}

// Clear removes every item of the given mission type from the vehicle.
func (m *MissionHandle) Clear(ctx context.Context, missionType mission.Type) error {
	reply := make(chan error, 1)
	return m.vehicle.dispatch(ctx, cmdMissionClear{missionType: missionType, reply: reply}, reply)
}

// SetCurrent advances the vehicle's onboard mission pointer to seq
// without otherwise touching its stored plan.
func (m *MissionHandle) SetCurrent(ctx context.Context, seq uint16) error {
	reply := make(chan error, 1)
	return m.vehicle.dispatch(ctx, cmdMissionSetCurrent{seq: seq, reply: reply}, reply)
}

// CancelTransfer signals the engine to abandon whatever upload or
// download is currently in flight. It is fire-and-forget: if no
// transfer is running, it has no effect.
func (m *MissionHandle) CancelTransfer() {
	select {
	case m.vehicle.cancelSignal <- struct{}{}:
	default:
	}
}

// VerifyRoundtrip uploads want, downloads it back, and reports whether
// the two are equivalent. Home is stripped from both sides before
// comparing, since an autopilot's stored home often differs slightly
// from the value supplied at upload time (e.g. GPS-lock drift).
func (m *MissionHandle) VerifyRoundtrip(ctx context.Context, want mission.Plan) (bool, error) {
	if err := m.Upload(ctx, want); err != nil {
		return false, err
	}
	got, err := m.Download(ctx, want.Type)
	if err != nil {
		return false, err
	}

	lhs := mission.NormalizeForCompare(want)
	rhs := mission.NormalizeForCompare(got)
	lhs.Home = nil
	rhs.Home = nil

	return mission.PlansEquivalent(lhs, rhs, mission.DefaultCompareTolerance()), nil
}
