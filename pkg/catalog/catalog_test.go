package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDecisionType(t *testing.T) {
	assert.True(t, IsValidDecisionType("tool_selection"))
	assert.True(t, IsValidDecisionType("orchestration_path"))
	assert.False(t, IsValidDecisionType("nonsense"))
	assert.False(t, IsValidDecisionType(""))
}

func TestIsValidReasonCode(t *testing.T) {
	tests := []struct {
		name          string
		decisionType  string
		code          string
		valid         bool
	}{
		{"valid pair", "tool_selection", "cost_optimization", true},
		{"wrong type for code", "retrieval_strategy", "cost_optimization", false},
		{"unknown decision type", "nonsense", "cost_optimization", false},
		{"unknown reason code", "tool_selection", "nonsense", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidReasonCode(tt.decisionType, tt.code))
		})
	}
}

func TestIsValidSignalType(t *testing.T) {
	assert.True(t, IsValidSignalType("empty_retrieval"))
	assert.False(t, IsValidSignalType("nonsense"))
}

func TestIsValidSignalCode(t *testing.T) {
	assert.True(t, IsValidSignalCode("empty_retrieval", "no_results"))
	assert.False(t, IsValidSignalCode("empty_retrieval", "success"))
	assert.False(t, IsValidSignalCode("nonsense", "no_results"))
}

func TestStepTypeIsValid(t *testing.T) {
	tests := []struct {
		name  string
		typ   StepType
		valid bool
	}{
		{"plan", StepPlan, true},
		{"tool", StepTool, true},
		{"invalid", StepType("invalid"), false},
		{"empty", StepType(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.typ.IsValid())
		})
	}
}

func TestFailureTypeIsValid(t *testing.T) {
	assert.True(t, FailureTool.IsValid())
	assert.True(t, FailureOrchestration.IsValid())
	assert.False(t, FailureType("unknown").IsValid())
}

func TestRunStatusIsValid(t *testing.T) {
	assert.True(t, RunStatusSuccess.IsValid())
	assert.True(t, RunStatusPartial.IsValid())
	assert.False(t, RunStatus("running").IsValid())
}

func TestBaselineTypeIsValid(t *testing.T) {
	assert.True(t, BaselineTypeVersion.IsValid())
	assert.True(t, BaselineTypeManual.IsValid())
	assert.False(t, BaselineType("auto").IsValid())
}
