package evaluation

import (
	"fmt"
	"time"
)

// GateConfig sets the quality floor a golden-set run must clear before a
// deploy goes out. A zero value disables that gate.
type GateConfig struct {
	MinAvgRecallAt10 float64
	MinAvgMRRAt10    float64
	MaxAvgLatency    time.Duration
}

// GateResult reports which gates a run cleared.
type GateResult struct {
	Passed     bool
	Violations []string
}

// CheckGates compares a run summary against the configured floor.
func CheckGates(summary *EvalSummary, config GateConfig) GateResult {
	result := GateResult{Passed: true}

	fail := func(format string, args ...interface{}) {
		result.Passed = false
		result.Violations = append(result.Violations, fmt.Sprintf(format, args...))
	}

	if config.MinAvgRecallAt10 > 0 && summary.AvgRecallAt10 < config.MinAvgRecallAt10 {
		fail("recall@10 %.3f below floor %.3f", summary.AvgRecallAt10, config.MinAvgRecallAt10)
	}
	if config.MinAvgMRRAt10 > 0 && summary.AvgMRRAt10 < config.MinAvgMRRAt10 {
		fail("mrr@10 %.3f below floor %.3f", summary.AvgMRRAt10, config.MinAvgMRRAt10)
	}
	if config.MaxAvgLatency > 0 && summary.AvgLatency > config.MaxAvgLatency {
		fail("average latency %s above ceiling %s", summary.AvgLatency, config.MaxAvgLatency)
	}

	return result
}
