package mission

// ItemsForWireUpload converts a semantic Plan into the item stream sent
// over MAVLink. For Type == TypeMission, a seq-0 item carrying home (or
// a zeroed placeholder if no home is set) is prepended and the semantic
// items are resequenced starting at 1. Fence/Rally plans pass through
// unchanged.
func ItemsForWireUpload(plan Plan) []Item {
	if plan.Type != TypeMission {
		return append([]Item(nil), plan.Items...)
	}

	var homeItem Item
	if plan.Home != nil {
		homeItem = plan.Home.ToMissionItem(0)
	} else {
		homeItem = Item{
			Seq:          0,
			Command:      homeItemCommand,
			Frame:        FrameGlobalInt,
			Current:      false,
			Autocontinue: true,
		}
	}

	wire := make([]Item, 0, len(plan.Items)+1)
	wire = append(wire, homeItem)
	for i, item := range plan.Items {
		item.Seq = uint16(i + 1)
		wire = append(wire, item)
	}
	return wire
}

// PlanFromWireDownload reconstructs a semantic Plan from a downloaded
// wire item stream. For Type == TypeMission, wire[0] is extracted as
// home and wire[1:] is resequenced starting at 0 with item 0 marked
// current. Fence/Rally streams pass through unchanged.
func PlanFromWireDownload(missionType Type, wireItems []Item) Plan {
	if missionType != TypeMission || len(wireItems) == 0 {
		return Plan{Type: missionType, Items: append([]Item(nil), wireItems...)}
	}

	first := wireItems[0]
	home := HomePosition{
		LatitudeDeg:  float64(first.X) / 1e7,
		LongitudeDeg: float64(first.Y) / 1e7,
		AltitudeM:    first.Z,
	}

	items := make([]Item, 0, len(wireItems)-1)
	for i, item := range wireItems[1:] {
		item.Seq = uint16(i)
		item.Current = i == 0
		items = append(items, item)
	}

	return Plan{Type: missionType, Home: &home, Items: items}
}
