package mission

import (
	"math"
	"testing"
)

func sampleValidationItem(seq uint16) Item {
	return Item{
		Seq:          seq,
		Command:      16,
		Frame:        FrameGlobalRelativeAltInt,
		Current:      seq == 0,
		Autocontinue: true,
		Param2:       1.0,
		Param4:       0.0,
		X:            473977420,
		Y:            85455970,
		Z:            42.123456,
	}
}

func hasIssue(issues []Issue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestDetectsNonContiguousSequence(t *testing.T) {
	second := sampleValidationItem(2)
	plan := Plan{Type: TypeMission, Items: []Item{sampleValidationItem(0), second}}

	issues := ValidatePlan(plan)
	if !hasIssue(issues, "plan.non_contiguous_sequence") {
		t.Error("expected plan.non_contiguous_sequence issue")
	}
}

func TestDetectsInvalidGlobalCoordinatesAndNaN(t *testing.T) {
	item := sampleValidationItem(0)
	item.X = 999_000_000
	item.Param4 = float32(math.NaN())
	plan := Plan{Type: TypeMission, Items: []Item{item}}

	issues := ValidatePlan(plan)
	if !hasIssue(issues, "item.latitude_out_of_range") {
		t.Error("expected item.latitude_out_of_range issue")
	}
	if !hasIssue(issues, "item.non_finite_value") {
		t.Error("expected item.non_finite_value issue")
	}
}

func TestValidatesHomeLatitudeRange(t *testing.T) {
	plan := Plan{
		Type: TypeMission,
		Home: &HomePosition{LatitudeDeg: 95.0, LongitudeDeg: 8.0},
	}
	issues := ValidatePlan(plan)
	if !hasIssue(issues, "home.latitude_out_of_range") {
		t.Error("expected home.latitude_out_of_range issue")
	}
}

func TestTooManyItemsIsFlagged(t *testing.T) {
	items := make([]Item, 4097)
	for i := range items {
		items[i] = Item{Seq: uint16(i)}
	}
	plan := Plan{Type: TypeMission, Items: items}
	issues := ValidatePlan(plan)
	if !hasIssue(issues, "plan.too_many_items") {
		t.Error("expected plan.too_many_items issue")
	}
}

func TestNormalizeAndEquivalentToleratesSmallFloatDrift(t *testing.T) {
	base := sampleValidationItem(0)
	changed := base
	changed.Param2 += 0.00005
	changed.Z += 0.005

	lhs := Plan{Type: TypeMission, Items: []Item{base}}
	rhs := Plan{Type: TypeMission, Items: []Item{changed}}

	if !PlansEquivalent(lhs, rhs, DefaultCompareTolerance()) {
		t.Error("plans with sub-tolerance float drift should be equivalent")
	}

	normalized := NormalizeForCompare(lhs)
	if normalized.Items[0].Seq != 0 {
		t.Errorf("normalized seq = %d, want 0", normalized.Items[0].Seq)
	}
}

func TestPlansEquivalentComparesHome(t *testing.T) {
	homeA := &HomePosition{LatitudeDeg: 47.397742, LongitudeDeg: 8.545594}
	homeB := &HomePosition{LatitudeDeg: 47.397742, LongitudeDeg: 8.545594, AltitudeM: 0.005}

	planA := Plan{Type: TypeMission, Home: homeA}
	planB := Plan{Type: TypeMission, Home: homeB}

	if !PlansEquivalent(planA, planB, DefaultCompareTolerance()) {
		t.Error("plans differing only by sub-tolerance home altitude should be equivalent")
	}
}

func TestPlansEquivalentIsSymmetricAndReflexive(t *testing.T) {
	plan := Plan{Type: TypeMission, Items: []Item{sampleValidationItem(0)}}
	tol := DefaultCompareTolerance()
	if !PlansEquivalent(plan, plan, tol) {
		t.Error("a plan should be equivalent to itself")
	}
	other := Plan{Type: TypeFence, Items: []Item{sampleValidationItem(0)}}
	if PlansEquivalent(plan, other, tol) != PlansEquivalent(other, plan, tol) {
		t.Error("plans_equivalent should be symmetric")
	}
}
