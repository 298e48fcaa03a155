package ports

import (
	"time"
)

// PipelineEvent is one item or cycle outcome, fanned out to operators.
type PipelineEvent struct {
	RunID  string    `json:"runId"`
	Cycle  string    `json:"cycle"` // "ingest" or "publish"
	PostID string    `json:"postId,omitempty"`
	Status string    `json:"status"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

type EventSource interface {
	Events() <-chan PipelineEvent
}

// CycleTrigger runs a named cycle through the same no-overlap guard as
// the schedule. It reports false when a run of that cycle is in flight.
type CycleTrigger interface {
	Trigger(name string) (bool, error)
}
