package mission

// Direction distinguishes an upload from a download in a TransferProgress.
type Direction int

const (
	DirectionUpload Direction = iota
	DirectionDownload
)

// Phase is one of the seven states the transfer machine moves through.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRequestCount
	PhaseTransferItems
	PhaseAwaitAck
	PhaseCompleted
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRequestCount:
		return "request-count"
	case PhaseTransferItems:
		return "transfer-items"
	case PhaseAwaitAck:
		return "await-ack"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RetryPolicy bounds how long a single request and a single item wait
// before retrying and how many retries a transfer tolerates.
type RetryPolicy struct {
	RequestTimeoutMs uint64
	ItemTimeoutMs    uint64
	MaxRetries       uint8
}

// DefaultRetryPolicy matches the protocol defaults: 1500ms / 250ms / 5.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{RequestTimeoutMs: 1500, ItemTimeoutMs: 250, MaxRetries: 5}
}

// TransferProgress is the snapshot a machine exposes after every
// transition; engines publish it to the mission-progress projection.
type TransferProgress struct {
	Direction      Direction
	Type           Type
	Phase          Phase
	CompletedItems uint16
	TotalItems     uint16
	RetriesUsed    uint8
}

// TransferError carries a machine-reported failure code and message,
// surfaced to the caller as VehicleError{Kind: ErrMissionTransfer}.
type TransferError struct {
	Code    string
	Message string
}

// TransferMachine is a pure state machine: no I/O, no timers. The engine
// feeds it discrete events and reads back progress snapshots and,
// derived from the current phase, how long the next wait should be.
type TransferMachine struct {
	direction      Direction
	missionType    Type
	phase          Phase
	totalItems     uint16
	completedItems uint16
	retriesUsed    uint8
	policy         RetryPolicy
}

// NewUploadMachine starts an upload machine with a known item count.
func NewUploadMachine(missionType Type, totalItems uint16, policy RetryPolicy) *TransferMachine {
	return &TransferMachine{
		direction:   DirectionUpload,
		missionType: missionType,
		phase:       PhaseRequestCount,
		totalItems:  totalItems,
		policy:      policy,
	}
}

// NewDownloadMachine starts a download machine; total is learned later
// via SetDownloadTotal once MISSION_COUNT arrives.
func NewDownloadMachine(missionType Type, policy RetryPolicy) *TransferMachine {
	return &TransferMachine{
		direction:   DirectionDownload,
		missionType: missionType,
		phase:       PhaseRequestCount,
		policy:      policy,
	}
}

// SetDownloadTotal records the peer-reported item count and advances the
// phase: straight to await-ack for an empty mission, else to
// transfer-items.
func (m *TransferMachine) SetDownloadTotal(total uint16) {
	m.totalItems = total
	if total == 0 {
		m.phase = PhaseAwaitAck
	} else {
		m.phase = PhaseTransferItems
	}
}

// OnItemTransferred advances item-stream progress. It is a no-op once
// every item is accounted for or once the machine has left
// request-count/transfer-items.
func (m *TransferMachine) OnItemTransferred() {
	if m.phase == PhaseRequestCount {
		m.phase = PhaseTransferItems
	}
	if m.phase != PhaseTransferItems {
		return
	}
	if m.completedItems < m.totalItems {
		m.completedItems++
	}
	if m.completedItems >= m.totalItems {
		m.phase = PhaseAwaitAck
	}
}

// OnTimeout counts a retry. Past max_retries it fails the transfer and
// returns the error to report; otherwise it returns nil. Terminal phases
// ignore timeouts entirely.
func (m *TransferMachine) OnTimeout() *TransferError {
	if m.IsTerminal() {
		return nil
	}
	m.retriesUsed++
	if m.retriesUsed > m.policy.MaxRetries {
		m.phase = PhaseFailed
		return &TransferError{Code: "transfer.timeout", Message: "mission transfer timed out after maximum retries"}
	}
	return nil
}

// OnAckSuccess completes the transfer if it was awaiting the final ACK;
// otherwise it is ignored (e.g. a duplicate ACK).
func (m *TransferMachine) OnAckSuccess() {
	if m.phase == PhaseAwaitAck {
		m.phase = PhaseCompleted
	}
}

// OnError unconditionally fails the transfer with the given code/message.
func (m *TransferMachine) OnError(code, message string) TransferError {
	m.phase = PhaseFailed
	return TransferError{Code: code, Message: message}
}

// Cancel unconditionally moves the machine to cancelled.
func (m *TransferMachine) Cancel() {
	m.phase = PhaseCancelled
}

// Progress returns the current snapshot.
func (m *TransferMachine) Progress() TransferProgress {
	return TransferProgress{
		Direction:      m.direction,
		Type:           m.missionType,
		Phase:          m.phase,
		CompletedItems: m.completedItems,
		TotalItems:     m.totalItems,
		RetriesUsed:    m.retriesUsed,
	}
}

// IsTerminal reports whether the phase is one of completed/failed/cancelled.
func (m *TransferMachine) IsTerminal() bool {
	switch m.phase {
	case PhaseCompleted, PhaseFailed, PhaseCancelled:
		return true
	default:
		return false
	}
}

// TimeoutMs is the deadline the engine should use for its next wait:
// the tighter item timeout while streaming items, the request timeout
// everywhere else.
func (m *TransferMachine) TimeoutMs() uint64 {
	if m.phase == PhaseTransferItems {
		return m.policy.ItemTimeoutMs
	}
	return m.policy.RequestTimeoutMs
}
