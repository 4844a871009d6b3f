package mavkit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/rs/zerolog"

	"github.com/flightpath-dev/mavkit/mavcodec"
	"github.com/flightpath-dev/mavkit/mission"
)

const (
	forceArmMagic    = 2989.0
	forceDisarmMagic = 21196.0
)

// vehicleTarget is the system/component pair the engine addresses
// outbound messages to. Any frame with a nonzero system ID sets a
// provisional target when none is known yet; every HEARTBEAT replaces it
// with the sender's pair plus autopilot and vehicle type.
type vehicleTarget struct {
	systemID    uint8
	componentID uint8
	autopilot   AutopilotType
	vehicleType VehicleType
}

// engine owns the node and every piece of mutable dispatch state; it
// runs on a single goroutine, so none of its fields need synchronization
// of their own (the projections it publishes to do, via Signal).
type engine struct {
	node          *gomavlib.Node
	channels      *stateChannels
	config        Config
	log           zerolog.Logger
	target        *vehicleTarget
	homeRequested bool

	// cancelSignal carries mission-cancel requests. It is read from the
	// outer select below while idle (where it is drained as a no-op: a
	// cancel with nothing running has no effect) and from inside the
	// mission transfer loops while busy, since those loops run on this
	// same goroutine and block it for the duration of the transfer —
	// the commands channel is not polled again until handleCommand
	// returns, so a cancel sent via commandTx would never be seen.
	cancelSignal chan struct{}
}

// runEventLoop is the engine's single goroutine: one select over
// cancellation, inbound commands and inbound frames. When several of
// these are ready at once, Go's select picks one of them at random, so
// none of them takes priority over the others. It owns node's lifetime
// and closes it on every exit path.
func runEventLoop(ctx context.Context, node *gomavlib.Node, commands <-chan command, cancelSignal chan struct{}, channels *stateChannels, config Config, log zerolog.Logger) {
	defer node.Close()

	e := &engine{node: node, channels: channels, config: config, log: log, cancelSignal: cancelSignal}
	channels.linkState.Set(LinkState{Kind: LinkConnected})
	log.Debug().Msg("event loop started")

	events := node.Events()

	for {
		select {
		case <-ctx.Done():
			channels.linkState.Set(LinkState{Kind: LinkDisconnected})
			log.Debug().Msg("event loop stopped: context cancelled")
			return

		case <-cancelSignal:
			// no transfer in flight; nothing to cancel.

		case cmd, ok := <-commands:
			if !ok {
				channels.linkState.Set(LinkState{Kind: LinkDisconnected})
				return
			}
			if _, shutdown := cmd.(cmdShutdown); shutdown {
				channels.linkState.Set(LinkState{Kind: LinkDisconnected})
				log.Debug().Msg("event loop stopped: shutdown requested")
				return
			}
			e.handleCommand(ctx, cmd, events)

		case evt, ok := <-events:
			if !ok {
				channels.linkState.Set(LinkState{Kind: LinkError, Detail: "connection closed"})
				log.Error().Msg("event stream closed")
				return
			}
			e.handleEvent(evt)
		}
	}
}

func (e *engine) handleEvent(evt gomavlib.Event) {
	frm, ok := evt.(*gomavlib.EventFrame)
	if !ok {
		return
	}

	e.updateVehicleTarget(frm)

	if e.config.AutoRequestHome && !e.homeRequested && e.target != nil {
		e.homeRequested = true
		if err := e.requestHomePosition(); err != nil {
			e.log.Warn().Err(err).Msg("failed to request home position")
		}
	}

	e.updateState(frm)
}

func (e *engine) updateVehicleTarget(frm *gomavlib.EventFrame) {
	sysID := frm.SystemID()
	if sysID == 0 {
		return
	}

	if hb, ok := frm.Message().(*common.MessageHeartbeat); ok {
		e.target = &vehicleTarget{
			systemID:    sysID,
			componentID: frm.ComponentID(),
			autopilot:   autopilotFromMav(hb.Autopilot),
			vehicleType: vehicleTypeFromMav(hb.Type),
		}
		return
	}

	if e.target == nil {
		e.target = &vehicleTarget{systemID: sysID, componentID: frm.ComponentID()}
	}
}

func (e *engine) updateState(frm *gomavlib.EventFrame) {
	switch m := frm.Message().(type) {
	case *common.MessageHeartbeat:
		if e.target == nil {
			return
		}
		armed := m.BaseMode&common.MAV_MODE_FLAG_SAFETY_ARMED != 0
		vehicleType := vehicleTypeFromMav(m.Type)
		autopilot := autopilotFromMav(m.Autopilot)
		e.channels.vehicleState.Set(VehicleState{
			SystemID:     e.target.systemID,
			ComponentID:  e.target.componentID,
			Armed:        armed,
			CustomMode:   m.CustomMode,
			ModeName:     ModeName(autopilot, vehicleType, m.CustomMode),
			SystemStatus: systemStatusFromMav(m.SystemStatus),
			VehicleType:  vehicleType,
			Autopilot:    autopilot,
		})

	case *common.MessageVfrHud:
		t := e.channels.telemetry.Get()
		alt := float64(m.Alt)
		speed := float64(m.Groundspeed)
		heading := float64(m.Heading)
		t.AltitudeM, t.SpeedMps, t.HeadingDeg = &alt, &speed, &heading
		e.channels.telemetry.Set(t)

	case *common.MessageGlobalPositionInt:
		t := e.channels.telemetry.Get()
		alt := float64(m.RelativeAlt) / 1000.0
		lat := float64(m.Lat) / 1e7
		lon := float64(m.Lon) / 1e7
		vx, vy := float64(m.Vx)/100.0, float64(m.Vy)/100.0
		speed := math.Sqrt(vx*vx + vy*vy)
		t.AltitudeM, t.LatitudeDeg, t.LongitudeDeg, t.SpeedMps = &alt, &lat, &lon, &speed
		if m.Hdg != 0xFFFF {
			hdg := float64(m.Hdg) / 100.0
			t.HeadingDeg = &hdg
		}
		e.channels.telemetry.Set(t)

	case *common.MessageSysStatus:
		if m.BatteryRemaining >= 0 {
			t := e.channels.telemetry.Get()
			pct := float64(m.BatteryRemaining)
			t.BatteryPct = &pct
			e.channels.telemetry.Set(t)
		}

	case *common.MessageGpsRawInt:
		t := e.channels.telemetry.Get()
		fix := gpsFixTypeFromRaw(uint8(m.FixType))
		t.GpsFixType = &fix
		e.channels.telemetry.Set(t)

	case *common.MessageMissionCurrent:
		e.channels.missionState.Set(MissionState{CurrentSeq: m.Seq, TotalItems: m.Total})

	case *common.MessageHomePosition:
		home := mission.HomePosition{
			LatitudeDeg:  float64(m.Latitude) / 1e7,
			LongitudeDeg: float64(m.Longitude) / 1e7,
			AltitudeM:    float32(float64(m.Altitude) / 1000.0),
		}
		e.channels.homePosition.Set(&home)
	}
}

func (e *engine) getTarget() (*vehicleTarget, error) {
	if e.target == nil {
		return nil, newIdentityUnknown()
	}
	return e.target, nil
}

func (e *engine) send(msg message.Message) error {
	if err := e.node.WriteMessageAll(msg); err != nil {
		return newIO(err)
	}
	return nil
}

func (e *engine) requestHomePosition() error {
	target, err := e.getTarget()
	if err != nil {
		return err
	}
	msg := &common.MessageCommandLong{
		TargetSystem:    target.systemID,
		TargetComponent: target.componentID,
		Command:         common.MAV_CMD_REQUEST_MESSAGE,
		Param1:          242, // MAVLINK_MSG_ID_HOME_POSITION
	}
	return e.send(msg)
}

func (e *engine) publishProgress(machine *mission.TransferMachine) {
	progress := machine.Progress()
	e.channels.missionProgress.Set(&progress)
}

// handleCommand dispatches one queued command and writes its result to
// the caller's reply channel. Every branch blocks this goroutine until
// the operation resolves, matching the engine's single-flight design:
// only one command is in flight at a time.
func (e *engine) handleCommand(ctx context.Context, cmd command, events <-chan gomavlib.Event) {
	switch c := cmd.(type) {
	case cmdArm:
		c.reply <- e.handleArmDisarm(ctx, events, true, c.force)
	case cmdDisarm:
		c.reply <- e.handleArmDisarm(ctx, events, false, c.force)
	case cmdSetMode:
		c.reply <- e.handleSetMode(ctx, events, c.customMode)
	case cmdCommandLong:
		c.reply <- e.handleCommandLongOp(ctx, events, c.command, c.params)
	case cmdGuidedGoto:
		c.reply <- e.handleGuidedGoto(c.latE7, c.lonE7, c.altM)
	case cmdMissionUpload:
		c.reply <- e.handleMissionUpload(ctx, events, c.plan)
	case cmdMissionDownload:
		plan, err := e.handleMissionDownload(ctx, events, c.missionType)
		c.reply <- missionDownloadResult{plan: plan, err: err}
	case cmdMissionClear:
		c.reply <- e.handleMissionClear(ctx, events, c.missionType)
	case cmdMissionSetCurrent:
		c.reply <- e.handleMissionSetCurrent(ctx, events, c.seq)
	case cmdShutdown:
		// handled by the caller before reaching here.
	}
}

// sendCommandLongAck sends a COMMAND_LONG and retries it until a
// matching COMMAND_ACK arrives, the retry budget is exhausted, or ctx
// is cancelled.
func (e *engine) sendCommandLongAck(ctx context.Context, events <-chan gomavlib.Event, cmd common.MAV_CMD, params [7]float32, target *vehicleTarget) error {
	policy := e.config.RetryPolicy

attempts:
	for attempt := uint8(0); attempt <= policy.MaxRetries; attempt++ {
		msg := &common.MessageCommandLong{
			TargetSystem:    target.systemID,
			TargetComponent: target.componentID,
			Command:         cmd,
			Param1:          params[0],
			Param2:          params[1],
			Param3:          params[2],
			Param4:          params[3],
			Param5:          params[4],
			Param6:          params[5],
			Param7:          params[6],
		}
		if err := e.send(msg); err != nil {
			return err
		}

		timeout := time.NewTimer(time.Duration(policy.RequestTimeoutMs) * time.Millisecond)
		for {
			select {
			case <-ctx.Done():
				timeout.Stop()
				return newCancelled()
			case <-timeout.C:
				continue attempts
			case evt, ok := <-events:
				if !ok {
					timeout.Stop()
					return newDisconnected()
				}
				frm, ok := evt.(*gomavlib.EventFrame)
				if !ok {
					continue
				}
				e.updateVehicleTarget(frm)
				e.updateState(frm)
				if ack, ok := frm.Message().(*common.MessageCommandAck); ok && ack.Command == cmd {
					timeout.Stop()
					if ack.Result == common.MAV_RESULT_ACCEPTED {
						return nil
					}
					return newCommandRejected(fmt.Sprintf("%v", cmd), fmt.Sprintf("%v", ack.Result))
				}
			}
		}
	}
	return newTimeout()
}

func (e *engine) handleArmDisarm(ctx context.Context, events <-chan gomavlib.Event, arm, force bool) error {
	target, err := e.getTarget()
	if err != nil {
		return err
	}

	param1 := float32(0)
	if arm {
		param1 = 1
	}
	param2 := float32(0)
	if force {
		if arm {
			param2 = forceArmMagic
		} else {
			param2 = forceDisarmMagic
		}
	}

	return e.sendCommandLongAck(ctx, events, common.MAV_CMD_COMPONENT_ARM_DISARM, [7]float32{param1, param2, 0, 0, 0, 0, 0}, target)
}

// handleSetMode sends DO_SET_MODE and, if no COMMAND_ACK answers it
// (ArduPilot often omits one for mode changes), falls back to waiting
// for a HEARTBEAT confirming the requested custom_mode.
func (e *engine) handleSetMode(ctx context.Context, events <-chan gomavlib.Event, customMode uint32) error {
	target, err := e.getTarget()
	if err != nil {
		return err
	}

	ackErr := e.sendCommandLongAck(ctx, events, common.MAV_CMD_DO_SET_MODE,
		[7]float32{float32(common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED), float32(customMode), 0, 0, 0, 0, 0}, target)
	if ackErr == nil {
		return nil
	}
	if !IsTimeout(ackErr) {
		return ackErr
	}

	timeout := time.NewTimer(2 * time.Second)
	defer timeout.Stop()
	for {
		select {
		case <-ctx.Done():
			return newCancelled()
		case <-timeout.C:
			return newCommandRejected(fmt.Sprintf("DO_SET_MODE(%d)", customMode), "no confirming heartbeat")
		case evt, ok := <-events:
			if !ok {
				return newDisconnected()
			}
			frm, ok := evt.(*gomavlib.EventFrame)
			if !ok {
				continue
			}
			e.updateVehicleTarget(frm)
			e.updateState(frm)
			if hb, ok := frm.Message().(*common.MessageHeartbeat); ok && hb.CustomMode == customMode {
				return nil
			}
		}
	}
}

func (e *engine) handleCommandLongOp(ctx context.Context, events <-chan gomavlib.Event, cmd common.MAV_CMD, params [7]float32) error {
	target, err := e.getTarget()
	if err != nil {
		return err
	}
	return e.sendCommandLongAck(ctx, events, cmd, params, target)
}

func (e *engine) handleGuidedGoto(latE7, lonE7 int32, altM float32) error {
	target, err := e.getTarget()
	if err != nil {
		return err
	}
	msg := &common.MessageSetPositionTargetGlobalInt{
		TargetSystem:    target.systemID,
		TargetComponent: target.componentID,
		CoordinateFrame: common.MAV_FRAME_GLOBAL_RELATIVE_ALT,
		TypeMask:        common.POSITION_TARGET_TYPEMASK(0x0DF8), // position only
		LatInt:          latE7,
		LonInt:          lonE7,
		Alt:             altM,
	}
	return e.send(msg)
}

// handleMissionUpload drives an upload machine through MISSION_COUNT,
// the per-item MISSION_REQUEST(_INT)/MISSION_ITEM_INT exchange, and the
// final MISSION_ACK.
func (e *engine) handleMissionUpload(parentCtx context.Context, events <-chan gomavlib.Event, plan mission.Plan) error {
	for _, issue := range mission.ValidatePlan(plan) {
		if issue.Severity == mission.SeverityError {
			return newMissionValidation(fmt.Sprintf("%s: %s", issue.Code, issue.Message))
		}
	}

	target, err := e.getTarget()
	if err != nil {
		return err
	}

	wireItems := mission.ItemsForWireUpload(plan)
	mavMissionType := mavcodec.ToMavMissionType(plan.Type)

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	machine := mission.NewUploadMachine(plan.Type, uint16(len(wireItems)), e.config.RetryPolicy)
	e.publishProgress(machine)

	buildCount := func() message.Message {
		return &common.MessageMissionCount{
			Count:           uint16(len(wireItems)),
			TargetSystem:    target.systemID,
			TargetComponent: target.componentID,
			MissionType:     mavMissionType,
		}
	}
	if err := e.send(buildCount()); err != nil {
		return err
	}

	if len(wireItems) == 0 {
		return e.awaitMissionAck(ctx, events, machine, plan.Type, buildCount)
	}

	acknowledged := make(map[uint16]bool)

requestLoop:
	for machine.Progress().Phase != mission.PhaseAwaitAck {
		timeout := time.NewTimer(time.Duration(machine.TimeoutMs()) * time.Millisecond)
		for {
			select {
			case <-ctx.Done():
				timeout.Stop()
				machine.Cancel()
				e.publishProgress(machine)
				return newCancelled()

			case <-e.cancelSignal:
				timeout.Stop()
				machine.Cancel()
				e.publishProgress(machine)
				return newCancelled()

			case <-timeout.C:
				if transferErr := machine.OnTimeout(); transferErr != nil {
					e.publishProgress(machine)
					return newMissionTransfer(transferErr.Code, transferErr.Message)
				}
				e.publishProgress(machine)
				if err := e.send(buildCount()); err != nil {
					return err
				}
				continue requestLoop

			case evt, ok := <-events:
				if !ok {
					timeout.Stop()
					return newDisconnected()
				}
				frm, ok := evt.(*gomavlib.EventFrame)
				if !ok {
					continue
				}
				e.updateVehicleTarget(frm)
				e.updateState(frm)

				switch m := frm.Message().(type) {
				case *common.MessageMissionRequestInt:
					if m.MissionType != mavMissionType {
						continue
					}
					timeout.Stop()
					if err := e.sendRequestedItem(wireItems, target, plan.Type, m.Seq); err != nil {
						return err
					}
					if !acknowledged[m.Seq] {
						acknowledged[m.Seq] = true
						machine.OnItemTransferred()
						e.publishProgress(machine)
					}
					continue requestLoop

				case *common.MessageMissionRequest:
					if m.MissionType != mavMissionType {
						continue
					}
					timeout.Stop()
					if err := e.sendRequestedItem(wireItems, target, plan.Type, m.Seq); err != nil {
						return err
					}
					if !acknowledged[m.Seq] {
						acknowledged[m.Seq] = true
						machine.OnItemTransferred()
						e.publishProgress(machine)
					}
					continue requestLoop

				case *common.MessageMissionAck:
					if m.MissionType != mavMissionType {
						continue
					}
					timeout.Stop()
					if m.Type == common.MAV_MISSION_ACCEPTED {
						machine.OnAckSuccess()
						e.publishProgress(machine)
						return nil
					}
					return newMissionTransfer("transfer.ack_error", fmt.Sprintf("MISSION_ACK error: %v", m.Type))
				}
			}
		}
	}

	return e.awaitMissionAck(ctx, events, machine, plan.Type, buildCount)
}

func (e *engine) sendRequestedItem(wireItems []mission.Item, target *vehicleTarget, missionType mission.Type, seq uint16) error {
	if int(seq) >= len(wireItems) {
		return newMissionTransfer("transfer.item_out_of_range", fmt.Sprintf("peer requested item %d, plan has %d", seq, len(wireItems)))
	}
	msg := mavcodec.BuildMissionItemInt(wireItems[seq], missionType, target.systemID, target.componentID)
	return e.send(msg)
}

// awaitMissionAck waits for a MISSION_ACK answering missionType,
// retransmitting buildRetry's message on every timeout. Used to close
// out an upload and to drive the clear-all exchange.
func (e *engine) awaitMissionAck(ctx context.Context, events <-chan gomavlib.Event, machine *mission.TransferMachine, missionType mission.Type, buildRetry func() message.Message) error {
	mavMissionType := mavcodec.ToMavMissionType(missionType)

	for {
		timeout := time.NewTimer(time.Duration(machine.TimeoutMs()) * time.Millisecond)
		select {
		case <-ctx.Done():
			timeout.Stop()
			machine.Cancel()
			e.publishProgress(machine)
			return newCancelled()

		case <-e.cancelSignal:
			timeout.Stop()
			machine.Cancel()
			e.publishProgress(machine)
			return newCancelled()

		case <-timeout.C:
			if transferErr := machine.OnTimeout(); transferErr != nil {
				e.publishProgress(machine)
				return newMissionTransfer(transferErr.Code, transferErr.Message)
			}
			e.publishProgress(machine)
			if err := e.send(buildRetry()); err != nil {
				return err
			}

		case evt, ok := <-events:
			timeout.Stop()
			if !ok {
				return newDisconnected()
			}
			frm, ok := evt.(*gomavlib.EventFrame)
			if !ok {
				continue
			}
			e.updateVehicleTarget(frm)
			e.updateState(frm)
			ack, ok := frm.Message().(*common.MessageMissionAck)
			if !ok || ack.MissionType != mavMissionType {
				continue
			}
			if ack.Type == common.MAV_MISSION_ACCEPTED {
				machine.OnAckSuccess()
				e.publishProgress(machine)
				return nil
			}
			return newMissionTransfer("transfer.ack_error", fmt.Sprintf("MISSION_ACK error: %v", ack.Type))
		}
	}
}

// handleMissionDownload drives a download machine through
// MISSION_REQUEST_LIST/MISSION_COUNT, a per-item request loop, and a
// final MISSION_ACK sent to close the exchange.
func (e *engine) handleMissionDownload(parentCtx context.Context, events <-chan gomavlib.Event, missionType mission.Type) (mission.Plan, error) {
	target, err := e.getTarget()
	if err != nil {
		return mission.Plan{}, err
	}
	mavMissionType := mavcodec.ToMavMissionType(missionType)

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	machine := mission.NewDownloadMachine(missionType, e.config.RetryPolicy)
	e.publishProgress(machine)

	requestList := func() message.Message {
		return &common.MessageMissionRequestList{TargetSystem: target.systemID, TargetComponent: target.componentID, MissionType: mavMissionType}
	}
	if err := e.send(requestList()); err != nil {
		return mission.Plan{}, err
	}

	var count uint16
countLoop:
	for {
		timeout := time.NewTimer(time.Duration(machine.TimeoutMs()) * time.Millisecond)
		select {
		case <-ctx.Done():
			timeout.Stop()
			machine.Cancel()
			e.publishProgress(machine)
			return mission.Plan{}, newCancelled()

		case <-e.cancelSignal:
			timeout.Stop()
			machine.Cancel()
			e.publishProgress(machine)
			return mission.Plan{}, newCancelled()

		case <-timeout.C:
			if transferErr := machine.OnTimeout(); transferErr != nil {
				e.publishProgress(machine)
				return mission.Plan{}, newMissionTransfer(transferErr.Code, transferErr.Message)
			}
			e.publishProgress(machine)
			if err := e.send(requestList()); err != nil {
				return mission.Plan{}, err
			}

		case evt, ok := <-events:
			timeout.Stop()
			if !ok {
				return mission.Plan{}, newDisconnected()
			}
			frm, ok := evt.(*gomavlib.EventFrame)
			if !ok {
				continue
			}
			e.updateVehicleTarget(frm)
			e.updateState(frm)
			if mc, ok := frm.Message().(*common.MessageMissionCount); ok && mavcodec.MissionTypeMatches(mc.MissionType, missionType) {
				count = mc.Count
				break countLoop
			}
		}
	}

	machine.SetDownloadTotal(count)
	e.publishProgress(machine)

	items := make([]mission.Item, 0, count)
	for seq := uint16(0); seq < count; seq++ {
		item, err := e.requestDownloadItem(ctx, events, machine, target, mavMissionType, missionType, seq)
		if err != nil {
			return mission.Plan{}, err
		}
		items = append(items, item)
		machine.OnItemTransferred()
		e.publishProgress(machine)
	}

	_ = e.send(&common.MessageMissionAck{
		TargetSystem:    target.systemID,
		TargetComponent: target.componentID,
		Type:            common.MAV_MISSION_ACCEPTED,
		MissionType:     mavMissionType,
	})

	machine.OnAckSuccess()
	e.publishProgress(machine)

	return mission.PlanFromWireDownload(missionType, items), nil
}

// requestDownloadItem requests one item by sequence, preferring
// MISSION_REQUEST_INT and falling back to the deprecated
// MISSION_REQUEST after the first timeout (some autopilots never
// answer the _INT form).
func (e *engine) requestDownloadItem(ctx context.Context, events <-chan gomavlib.Event, machine *mission.TransferMachine, target *vehicleTarget, mavMissionType common.MAV_MISSION_TYPE, missionType mission.Type, seq uint16) (mission.Item, error) {
	useInt := true
	buildRequest := func() message.Message {
		if useInt {
			return &common.MessageMissionRequestInt{Seq: seq, TargetSystem: target.systemID, TargetComponent: target.componentID, MissionType: mavMissionType}
		}
		return &common.MessageMissionRequest{Seq: seq, TargetSystem: target.systemID, TargetComponent: target.componentID, MissionType: mavMissionType}
	}
	if err := e.send(buildRequest()); err != nil {
		return mission.Item{}, err
	}

	for {
		timeout := time.NewTimer(time.Duration(machine.TimeoutMs()) * time.Millisecond)
		select {
		case <-ctx.Done():
			timeout.Stop()
			machine.Cancel()
			e.publishProgress(machine)
			return mission.Item{}, newCancelled()

		case <-e.cancelSignal:
			timeout.Stop()
			machine.Cancel()
			e.publishProgress(machine)
			return mission.Item{}, newCancelled()

		case <-timeout.C:
			if transferErr := machine.OnTimeout(); transferErr != nil {
				e.publishProgress(machine)
				return mission.Item{}, newMissionTransfer(transferErr.Code, transferErr.Message)
			}
			e.publishProgress(machine)
			useInt = false
			if err := e.send(buildRequest()); err != nil {
				return mission.Item{}, err
			}

		case evt, ok := <-events:
			timeout.Stop()
			if !ok {
				return mission.Item{}, newDisconnected()
			}
			frm, ok := evt.(*gomavlib.EventFrame)
			if !ok {
				continue
			}
			e.updateVehicleTarget(frm)
			e.updateState(frm)

			switch m := frm.Message().(type) {
			case *common.MessageMissionItemInt:
				if m.Seq == seq && mavcodec.MissionTypeMatches(m.MissionType, missionType) {
					return mavcodec.FromMissionItemInt(m), nil
				}
			case *common.MessageMissionItem:
				if m.Seq == seq && mavcodec.MissionTypeMatches(m.MissionType, missionType) {
					return mavcodec.FromMissionItemFloat(m), nil
				}
			}
		}
	}
}

func (e *engine) handleMissionClear(parentCtx context.Context, events <-chan gomavlib.Event, missionType mission.Type) error {
	target, err := e.getTarget()
	if err != nil {
		return err
	}
	mavMissionType := mavcodec.ToMavMissionType(missionType)

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	machine := mission.NewUploadMachine(missionType, 0, e.config.RetryPolicy)
	e.publishProgress(machine)

	clearMsg := func() message.Message {
		return &common.MessageMissionClearAll{TargetSystem: target.systemID, TargetComponent: target.componentID, MissionType: mavMissionType}
	}
	if err := e.send(clearMsg()); err != nil {
		return err
	}

	return e.awaitMissionAck(ctx, events, machine, missionType, clearMsg)
}

// handleMissionSetCurrent runs its own independent retry loop, since
// DO_SET_MISSION_CURRENT is confirmed by either a COMMAND_ACK or a
// MISSION_CURRENT reporting the requested sequence, not a transfer.
func (e *engine) handleMissionSetCurrent(ctx context.Context, events <-chan gomavlib.Event, seq uint16) error {
	target, err := e.getTarget()
	if err != nil {
		return err
	}
	policy := e.config.RetryPolicy

attempts:
	for attempt := uint8(0); attempt <= policy.MaxRetries; attempt++ {
		msg := &common.MessageCommandLong{
			TargetSystem:    target.systemID,
			TargetComponent: target.componentID,
			Command:         common.MAV_CMD_DO_SET_MISSION_CURRENT,
			Param1:          float32(seq),
		}
		if err := e.send(msg); err != nil {
			return err
		}

		timeout := time.NewTimer(time.Duration(policy.RequestTimeoutMs) * time.Millisecond)
		for {
			select {
			case <-ctx.Done():
				timeout.Stop()
				return newCancelled()
			case <-timeout.C:
				continue attempts
			case evt, ok := <-events:
				if !ok {
					timeout.Stop()
					return newDisconnected()
				}
				frm, ok := evt.(*gomavlib.EventFrame)
				if !ok {
					continue
				}
				e.updateVehicleTarget(frm)
				e.updateState(frm)
				switch m := frm.Message().(type) {
				case *common.MessageCommandAck:
					if m.Command == common.MAV_CMD_DO_SET_MISSION_CURRENT && m.Result == common.MAV_RESULT_ACCEPTED {
						timeout.Stop()
						return nil
					}
				case *common.MessageMissionCurrent:
					if m.Seq == seq {
						timeout.Stop()
						return nil
					}
				}
			}
		}
	}
	return newMissionTransfer("mission.set_current_timeout", "no confirmation for DO_SET_MISSION_CURRENT")
}
