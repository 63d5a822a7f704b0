package pulse

import (
	"time"

	"github.com/teranos/gitpulse/errors"
)

// State is the scheduler's timing state. Owned exclusively by the loop
// goroutine; everyone else sees it through Snapshot.
type State string

const (
	StateIdle       State = "idle"
	StateWaiting    State = "waiting"
	StateCommitting State = "committing"
	StatePaused     State = "paused"
)

// ControlRequest is a pause/resume/trigger command submitted by an
// external caller and consumed at most once by the loop.
type ControlRequest string

const (
	ControlPause   ControlRequest = "pause"
	ControlResume  ControlRequest = "resume"
	ControlTrigger ControlRequest = "trigger"
)

// ParseControlRequest maps an API action string to a ControlRequest
func ParseControlRequest(action string) (ControlRequest, error) {
	switch ControlRequest(action) {
	case ControlPause, ControlResume, ControlTrigger:
		return ControlRequest(action), nil
	default:
		return "", errors.NewInvalidRequestError("unknown control action %q", action)
	}
}

// Snapshot is a consistent point-in-time view of the scheduler.
// NextFireAt is set only while the scheduler is waiting.
type Snapshot struct {
	State           State      `json:"state"`
	Paused          bool       `json:"paused"`
	NextFireAt      *time.Time `json:"next_fire_at,omitempty"`
	IntervalSeconds int        `json:"interval_seconds"`
	JitterSeconds   int        `json:"jitter_seconds"`
	LastOutcome     *Outcome   `json:"last_outcome,omitempty"`
}
