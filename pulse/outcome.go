package pulse

import (
	"time"
)

// ErrorKind classifies how a commit attempt went wrong. NoChanges is
// informational rather than a failure; PushFailed leaves the attempt
// successful but degraded.
type ErrorKind string

const (
	ErrKindNoChanges    ErrorKind = "no_changes"
	ErrKindStageFailed  ErrorKind = "stage_failed"
	ErrKindCommitFailed ErrorKind = "commit_failed"
	ErrKindPushFailed   ErrorKind = "push_failed"
)

// Outcome is the immutable record of one commit attempt. The pipeline
// creates it, the store persists it, and the scheduler keeps the most
// recent one for status snapshots.
type Outcome struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	UsedAI       bool      `json:"used_ai"`
	PushFailed   bool      `json:"push_failed"`
	FilesChanged int       `json:"files_changed"`
	Message      string    `json:"message,omitempty"`
	CommitHash   string    `json:"commit_hash,omitempty"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
}
