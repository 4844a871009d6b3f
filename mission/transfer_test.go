package mission

import "testing"

func TestUploadFlowReachesCompletedState(t *testing.T) {
	m := NewUploadMachine(TypeMission, 2, DefaultRetryPolicy())

	if got := m.Progress().Phase; got != PhaseRequestCount {
		t.Fatalf("phase = %v, want request-count", got)
	}
	m.OnItemTransferred()
	if got := m.Progress().Phase; got != PhaseTransferItems {
		t.Fatalf("phase = %v, want transfer-items", got)
	}
	m.OnItemTransferred()
	if got := m.Progress().Phase; got != PhaseAwaitAck {
		t.Fatalf("phase = %v, want await-ack", got)
	}
	m.OnAckSuccess()
	if got := m.Progress().Phase; got != PhaseCompleted {
		t.Fatalf("phase = %v, want completed", got)
	}
}

func TestTimeoutBeyondRetryBudgetFailsTransfer(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = 1
	m := NewUploadMachine(TypeMission, 1, policy)

	if err := m.OnTimeout(); err != nil {
		t.Fatalf("first timeout should not fail: %+v", err)
	}
	err := m.OnTimeout()
	if err == nil {
		t.Fatal("second timeout should fail the transfer")
	}
	if err.Code != "transfer.timeout" {
		t.Errorf("code = %q, want transfer.timeout", err.Code)
	}
	if got := m.Progress().Phase; got != PhaseFailed {
		t.Errorf("phase = %v, want failed", got)
	}
}

func TestDownloadFlowUsesItemTimeoutAfterCount(t *testing.T) {
	m := NewDownloadMachine(TypeFence, DefaultRetryPolicy())
	if got := m.TimeoutMs(); got != 1500 {
		t.Fatalf("TimeoutMs() = %d, want 1500", got)
	}
	m.SetDownloadTotal(3)
	if got := m.Progress().Phase; got != PhaseTransferItems {
		t.Fatalf("phase = %v, want transfer-items", got)
	}
	if got := m.TimeoutMs(); got != 250 {
		t.Fatalf("TimeoutMs() = %d, want 250", got)
	}
}

func TestSetDownloadTotalZeroGoesStraightToAwaitAck(t *testing.T) {
	m := NewDownloadMachine(TypeMission, DefaultRetryPolicy())
	m.SetDownloadTotal(0)
	if got := m.Progress().Phase; got != PhaseAwaitAck {
		t.Fatalf("phase = %v, want await-ack", got)
	}
}

func TestCancelSetsCancelledPhase(t *testing.T) {
	m := NewUploadMachine(TypeMission, 3, DefaultRetryPolicy())
	m.Cancel()
	if got := m.Progress().Phase; got != PhaseCancelled {
		t.Fatalf("phase = %v, want cancelled", got)
	}
}

func TestTimeoutAfterCancelIsNoop(t *testing.T) {
	m := NewUploadMachine(TypeMission, 3, DefaultRetryPolicy())
	m.Cancel()
	if err := m.OnTimeout(); err != nil {
		t.Fatalf("timeout after cancel should be a no-op, got %+v", err)
	}
	if got := m.Progress().Phase; got != PhaseCancelled {
		t.Fatalf("phase = %v, want cancelled", got)
	}
}

func TestIsTerminalForEndStates(t *testing.T) {
	completed := NewUploadMachine(TypeMission, 2, DefaultRetryPolicy())
	completed.OnItemTransferred()
	completed.OnItemTransferred()
	completed.OnAckSuccess()
	if !completed.IsTerminal() {
		t.Error("completed machine should be terminal")
	}

	policy := DefaultRetryPolicy()
	policy.MaxRetries = 0
	failed := NewUploadMachine(TypeMission, 1, policy)
	failed.OnTimeout()
	if !failed.IsTerminal() {
		t.Error("failed machine should be terminal")
	}

	cancelled := NewDownloadMachine(TypeFence, DefaultRetryPolicy())
	cancelled.Cancel()
	if !cancelled.IsTerminal() {
		t.Error("cancelled machine should be terminal")
	}

	active := NewUploadMachine(TypeMission, 3, DefaultRetryPolicy())
	if active.IsTerminal() {
		t.Error("fresh machine should not be terminal")
	}
}

func TestDuplicateItemTransferredDoesNotOvercount(t *testing.T) {
	m := NewUploadMachine(TypeMission, 2, DefaultRetryPolicy())
	m.OnItemTransferred() // request-count -> transfer-items, completed=1
	if got := m.Progress().CompletedItems; got != 1 {
		t.Fatalf("completed = %d, want 1", got)
	}
	m.OnItemTransferred() // completed=2, phase -> await-ack
	if got := m.Progress().CompletedItems; got != 2 {
		t.Fatalf("completed = %d, want 2", got)
	}
	m.OnItemTransferred() // no-op: not in transfer-items anymore
	if got := m.Progress().CompletedItems; got != 2 {
		t.Fatalf("completed = %d, want 2 (extra transfer should be ignored)", got)
	}
}

func TestExactlyKPlusOneTimeoutsYieldFirstError(t *testing.T) {
	const k = 3
	policy := DefaultRetryPolicy()
	policy.MaxRetries = k
	m := NewUploadMachine(TypeMission, 1, policy)

	for i := 0; i < k; i++ {
		if err := m.OnTimeout(); err != nil {
			t.Fatalf("timeout %d should not fail yet, got %+v", i+1, err)
		}
	}
	if err := m.OnTimeout(); err == nil {
		t.Fatalf("timeout %d should fail the transfer", k+1)
	}
}
