package models

// Heart economy constants
const (
	MaxHearts          = 5
	HeartsPerWin       = 1
	HeartsPerLoss      = 2
	PassingScore       = 60
	DefaultHeartsSpend = 2
)

// HeartState is the per-user lives record stored at userHearts/{uid}.
// Timestamps are absolute epoch milliseconds, matching what mobile clients
// already have persisted.
type HeartState struct {
	RemainingHearts int `json:"remainingHearts"`
	MaxHearts       int `json:"maxHearts"`

	// NextRegenerationTime is when the next heart becomes available,
	// or 0 when no regeneration is scheduled.
	NextRegenerationTime int64 `json:"nextRegenerationTime"`

	// RegenStartTime marks when the user dropped to zero hearts, nil otherwise.
	RegenStartTime *int64 `json:"regenStartTime"`
}

// NewHeartState returns a full-hearts state with no regeneration scheduled
func NewHeartState() *HeartState {
	return &HeartState{
		RemainingHearts:      MaxHearts,
		MaxHearts:            MaxHearts,
		NextRegenerationTime: 0,
		RegenStartTime:       nil,
	}
}

// IsFull reports whether the user is at heart capacity
func (h *HeartState) IsFull() bool {
	return h.RemainingHearts >= h.MaxHearts
}
