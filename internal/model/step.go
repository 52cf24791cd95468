package model

import "time"

// StepID identifies one stage of the pipeline.
type StepID string

const (
	StepContext   StepID = "context"
	StepPlan      StepID = "plan"
	StepSearch    StepID = "search"
	StepScraping  StepID = "scraping"
	StepSynthesis StepID = "synthesis"
)

// StepState is the lifecycle state of a pipeline step.
// Valid transitions: waiting → active → completed | error.
type StepState string

const (
	StepWaiting   StepState = "waiting"
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
	StepError     StepState = "error"
)

// Terminal reports whether the state admits no further transitions.
func (s StepState) Terminal() bool {
	return s == StepCompleted || s == StepError
}

// ValidTransition reports whether a step may move from one state to another
// within a single run. A step never re-enters active after a terminal state.
func ValidTransition(from, to StepState) bool {
	switch from {
	case StepWaiting:
		return to == StepActive
	case StepActive:
		return to == StepCompleted || to == StepError
	default:
		return false
	}
}

// PipelineStep is a snapshot of one stage's progress. Owned exclusively by
// the pipeline controller; consumers only ever see copies.
type PipelineStep struct {
	ID        StepID        `json:"id"`
	State     StepState     `json:"state"`
	Label     string        `json:"label"`
	Detail    string        `json:"detail,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}
