package drift

import (
	"time"

	"github.com/laxkc/agentwatch/ent"
)

func baselineFixture() *ent.BehaviorBaseline {
	return &ent.BehaviorBaseline{
		ID:           "baseline-fixture",
		AgentID:      "triage-agent",
		AgentVersion: "1.4.0",
		Environment:  "production",
	}
}

func fixedWindow() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func fixedDetectedAt() time.Time {
	return time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
}
