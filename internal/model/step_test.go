package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from StepState
		to   StepState
		ok   bool
	}{
		{"waiting to active", StepWaiting, StepActive, true},
		{"active to completed", StepActive, StepCompleted, true},
		{"active to error", StepActive, StepError, true},
		{"waiting to completed skips active", StepWaiting, StepCompleted, false},
		{"completed is terminal", StepCompleted, StepActive, false},
		{"error is terminal", StepError, StepActive, false},
		{"error cannot complete", StepError, StepCompleted, false},
		{"active cannot go back", StepActive, StepWaiting, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, ValidTransition(tt.from, tt.to))
		})
	}
}

func TestStepState_Terminal(t *testing.T) {
	assert.False(t, StepWaiting.Terminal())
	assert.False(t, StepActive.Terminal())
	assert.True(t, StepCompleted.Terminal())
	assert.True(t, StepError.Terminal())
}
