package mission

import "testing"

func sampleWireItem(seq uint16) Item {
	return Item{
		Seq:          seq,
		Command:      16,
		Frame:        FrameGlobalRelativeAltInt,
		Current:      seq == 0,
		Autocontinue: true,
		Param2:       1.0,
		X:            473977420,
		Y:            85455970,
		Z:            42.123456,
	}
}

func TestWireUploadPrependsHomeForMissionType(t *testing.T) {
	plan := Plan{
		Type: TypeMission,
		Home: &HomePosition{LatitudeDeg: 47.397742, LongitudeDeg: 8.545594, AltitudeM: 100.0},
		Items: []Item{
			sampleWireItem(0),
			sampleWireItem(1),
		},
	}

	wire := ItemsForWireUpload(plan)
	if len(wire) != 3 {
		t.Fatalf("len(wire) = %d, want 3", len(wire))
	}
	if wire[0].Seq != 0 || wire[0].Frame != FrameGlobalInt {
		t.Errorf("wire[0] = %+v, want seq=0 frame=GlobalInt", wire[0])
	}
	if wire[1].Seq != 1 {
		t.Errorf("wire[1].Seq = %d, want 1", wire[1].Seq)
	}
	if wire[2].Seq != 2 {
		t.Errorf("wire[2].Seq = %d, want 2", wire[2].Seq)
	}
}

func TestWireUploadUsesPlaceholderWhenNoHome(t *testing.T) {
	plan := Plan{Type: TypeMission, Items: []Item{sampleWireItem(0)}}
	wire := ItemsForWireUpload(plan)
	if len(wire) != 2 {
		t.Fatalf("len(wire) = %d, want 2", len(wire))
	}
	if wire[0].X != 0 || wire[0].Y != 0 {
		t.Errorf("placeholder home = %+v, want zeroed x/y", wire[0])
	}
}

func TestWireUploadPassthroughForFence(t *testing.T) {
	plan := Plan{Type: TypeFence, Items: []Item{sampleWireItem(0)}}
	wire := ItemsForWireUpload(plan)
	if len(wire) != 1 {
		t.Fatalf("len(wire) = %d, want 1", len(wire))
	}
}

func TestWireDownloadExtractsHomeForMissionType(t *testing.T) {
	wire := []Item{
		{Seq: 0, Command: 16, Frame: FrameGlobalInt, Autocontinue: true, X: 473977420, Y: 85455970, Z: 100.0},
		sampleWireItem(1),
		sampleWireItem(2),
	}

	plan := PlanFromWireDownload(TypeMission, wire)
	if plan.Home == nil {
		t.Fatal("expected home to be extracted")
	}
	if diff := plan.Home.LatitudeDeg - 47.397742; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("home.LatitudeDeg = %v, want ~47.397742", plan.Home.LatitudeDeg)
	}
	if len(plan.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(plan.Items))
	}
	if plan.Items[0].Seq != 0 || !plan.Items[0].Current {
		t.Errorf("items[0] = %+v, want seq=0 current=true", plan.Items[0])
	}
	if plan.Items[1].Seq != 1 {
		t.Errorf("items[1].Seq = %d, want 1", plan.Items[1].Seq)
	}
}

func TestWireDownloadPassthroughForFence(t *testing.T) {
	wire := []Item{sampleWireItem(0)}
	plan := PlanFromWireDownload(TypeFence, wire)
	if plan.Home != nil {
		t.Error("fence download should not extract home")
	}
	if len(plan.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(plan.Items))
	}
}
