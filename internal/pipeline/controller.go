package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/model"
)

// ErrInterrupted is returned by a run stopped through Cancel or context
// cancellation before it could finish.
var ErrInterrupted = eris.New("pipeline: run interrupted")

// Controller tracks the step state machine of one run and carries its
// cancellation. Steps only move forward: waiting to active, active to
// completed or error. Cancel is safe from any goroutine and idempotent.
type Controller struct {
	mu     sync.Mutex
	steps  map[model.StepID]*model.PipelineStep
	order  []model.StepID
	cancel context.CancelFunc
	stopped bool
}

// stepLabels are the user-facing names of the standard steps.
var stepLabels = map[model.StepID]string{
	model.StepContext:   "Recall session context",
	model.StepPlan:      "Generate search plan",
	model.StepSearch:    "Search the web",
	model.StepScraping:  "Read sources",
	model.StepSynthesis: "Synthesize answer",
}

// NewController creates a Controller with the given steps, all waiting.
func NewController(ids ...model.StepID) *Controller {
	c := &Controller{steps: make(map[model.StepID]*model.PipelineStep, len(ids))}
	for _, id := range ids {
		c.steps[id] = &model.PipelineStep{
			ID:    id,
			State: model.StepWaiting,
			Label: stepLabels[id],
		}
		c.order = append(c.order, id)
	}
	return c
}

// Bind derives the run context and wires Cancel to it.
func (c *Controller) Bind(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return ctx
}

// Cancel requests a cooperative stop. The running step finishes its
// current stage; steps not yet started stay waiting.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
}

// Stopped reports whether Cancel was called.
func (c *Controller) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Begin moves a step from waiting to active.
func (c *Controller) Begin(id model.StepID) error {
	return c.transition(id, model.StepActive, "")
}

// Complete moves a step from active to completed.
func (c *Controller) Complete(id model.StepID) error {
	return c.transition(id, model.StepCompleted, "")
}

// Fail moves a step from active to error with a detail message.
func (c *Controller) Fail(id model.StepID, detail string) error {
	return c.transition(id, model.StepError, detail)
}

func (c *Controller) transition(id model.StepID, to model.StepState, detail string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	step, ok := c.steps[id]
	if !ok {
		return eris.Errorf("pipeline: unknown step %q", id)
	}
	if !model.ValidTransition(step.State, to) {
		return eris.Errorf("pipeline: step %q cannot go %s -> %s", id, step.State, to)
	}

	step.State = to
	step.Detail = detail
	now := time.Now()
	switch to {
	case model.StepActive:
		step.StartedAt = now
	case model.StepCompleted, model.StepError:
		if !step.StartedAt.IsZero() {
			step.Duration = now.Sub(step.StartedAt)
		}
	}
	return nil
}

// Snapshot returns copies of all steps in declaration order. An active
// step reports its running duration.
func (c *Controller) Snapshot() []model.PipelineStep {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.PipelineStep, 0, len(c.order))
	for _, id := range c.order {
		step := *c.steps[id]
		if step.State == model.StepActive && !step.StartedAt.IsZero() {
			step.Duration = time.Since(step.StartedAt)
		}
		out = append(out, step)
	}
	return out
}

// StepDuration returns a completed step's duration.
func (c *Controller) StepDuration(id model.StepID) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if step, ok := c.steps[id]; ok {
		return step.Duration
	}
	return 0
}
