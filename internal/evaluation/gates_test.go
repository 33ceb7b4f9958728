package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckGates_AllPassing(t *testing.T) {
	summary := &EvalSummary{
		TotalQueries:  10,
		AvgRecallAt10: 0.85,
		AvgMRRAt10:    0.70,
		AvgLatency:    40 * time.Millisecond,
	}
	cfg := GateConfig{
		MinAvgRecallAt10: 0.8,
		MinAvgMRRAt10:    0.6,
		MaxAvgLatency:    100 * time.Millisecond,
	}

	result := CheckGates(summary, cfg)

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
}

func TestCheckGates_RecallBelowFloor(t *testing.T) {
	summary := &EvalSummary{
		TotalQueries:  10,
		AvgRecallAt10: 0.45,
		AvgMRRAt10:    0.70,
	}
	cfg := GateConfig{
		MinAvgRecallAt10: 0.8,
		MinAvgMRRAt10:    0.6,
	}

	result := CheckGates(summary, cfg)

	assert.False(t, result.Passed)
	assert.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0], "recall@10")
}

func TestCheckGates_MultipleViolations(t *testing.T) {
	summary := &EvalSummary{
		TotalQueries:  10,
		AvgRecallAt10: 0.45,
		AvgMRRAt10:    0.30,
		AvgLatency:    2 * time.Second,
	}
	cfg := GateConfig{
		MinAvgRecallAt10: 0.8,
		MinAvgMRRAt10:    0.6,
		MaxAvgLatency:    500 * time.Millisecond,
	}

	result := CheckGates(summary, cfg)

	assert.False(t, result.Passed)
	assert.Len(t, result.Violations, 3)
}

func TestCheckGates_ZeroConfigDisablesGates(t *testing.T) {
	summary := &EvalSummary{
		TotalQueries:  10,
		AvgRecallAt10: 0.0,
		AvgMRRAt10:    0.0,
		AvgLatency:    5 * time.Second,
	}

	result := CheckGates(summary, GateConfig{})

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
}

func TestCheckGates_LatencyCeiling(t *testing.T) {
	summary := &EvalSummary{
		TotalQueries: 10,
		AvgLatency:   800 * time.Millisecond,
	}
	cfg := GateConfig{
		MaxAvgLatency: 500 * time.Millisecond,
	}

	result := CheckGates(summary, cfg)

	assert.False(t, result.Passed)
	assert.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0], "latency")
}
