// Package catalog defines the closed vocabularies ("tags") that agent
// decisions and quality signals must be drawn from. Unknown tags are
// rejected at the ingest boundary, never silently grouped — see
// Store.PutRun in pkg/eventstore.
package catalog

// DecisionType identifies the kind of choice an agent made.
type DecisionType string

const (
	DecisionToolSelection      DecisionType = "tool_selection"
	DecisionRetrievalStrategy  DecisionType = "retrieval_strategy"
	DecisionResponseMode       DecisionType = "response_mode"
	DecisionRetryStrategy      DecisionType = "retry_strategy"
	DecisionOrchestrationPath  DecisionType = "orchestration_path"
)

// ReasonCode identifies why a decision was made.
type ReasonCode string

const (
	ReasonFreshDataRequired     ReasonCode = "fresh_data_required"
	ReasonCachedDataSufficient  ReasonCode = "cached_data_sufficient"
	ReasonToolUnavailable       ReasonCode = "tool_unavailable"
	ReasonCostOptimization      ReasonCode = "cost_optimization"
	ReasonLatencyOptimization   ReasonCode = "latency_optimization"
	ReasonAccuracyRequired      ReasonCode = "accuracy_required"

	ReasonHighConfidenceRetrieval ReasonCode = "high_confidence_retrieval"
	ReasonLowConfidenceRetrieval  ReasonCode = "low_confidence_retrieval"
	ReasonEmptyFirstPass          ReasonCode = "empty_first_pass"
	ReasonBroadQuery              ReasonCode = "broad_query"

	ReasonSummaryRequested   ReasonCode = "summary_requested"
	ReasonDetailRequested    ReasonCode = "detail_requested"
	ReasonAmbiguousRequest   ReasonCode = "ambiguous_request"
	ReasonFollowUpClarified  ReasonCode = "follow_up_clarified"

	ReasonTransientError   ReasonCode = "transient_error"
	ReasonRateLimited      ReasonCode = "rate_limited"
	ReasonSchemaMismatch   ReasonCode = "schema_mismatch"
	ReasonMaxRetriesHit    ReasonCode = "max_retries_hit"

	ReasonParallelFanOut    ReasonCode = "parallel_fan_out"
	ReasonSequentialHandoff ReasonCode = "sequential_handoff"
	ReasonSingleAgentSufficient ReasonCode = "single_agent_sufficient"
	ReasonEscalatedToHuman  ReasonCode = "escalated_to_human"
)

// decisionReasonCodes maps each decision type to its legal reason codes.
var decisionReasonCodes = map[DecisionType]map[ReasonCode]struct{}{
	DecisionToolSelection: set(
		ReasonFreshDataRequired,
		ReasonCachedDataSufficient,
		ReasonToolUnavailable,
		ReasonCostOptimization,
		ReasonLatencyOptimization,
		ReasonAccuracyRequired,
	),
	DecisionRetrievalStrategy: set(
		ReasonHighConfidenceRetrieval,
		ReasonLowConfidenceRetrieval,
		ReasonEmptyFirstPass,
		ReasonBroadQuery,
	),
	DecisionResponseMode: set(
		ReasonSummaryRequested,
		ReasonDetailRequested,
		ReasonAmbiguousRequest,
		ReasonFollowUpClarified,
	),
	DecisionRetryStrategy: set(
		ReasonTransientError,
		ReasonRateLimited,
		ReasonSchemaMismatch,
		ReasonMaxRetriesHit,
	),
	DecisionOrchestrationPath: set(
		ReasonParallelFanOut,
		ReasonSequentialHandoff,
		ReasonSingleAgentSufficient,
		ReasonEscalatedToHuman,
	),
}

func set(codes ...ReasonCode) map[ReasonCode]struct{} {
	m := make(map[ReasonCode]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

// IsValidDecisionType reports whether t is a recognized decision type.
func IsValidDecisionType(t string) bool {
	_, ok := decisionReasonCodes[DecisionType(t)]
	return ok
}

// IsValidReasonCode reports whether code is legal for the given decision type.
// Returns false if decisionType itself is unrecognized.
func IsValidReasonCode(decisionType, code string) bool {
	codes, ok := decisionReasonCodes[DecisionType(decisionType)]
	if !ok {
		return false
	}
	_, ok = codes[ReasonCode(code)]
	return ok
}

// DecisionTypes returns all recognized decision types.
func DecisionTypes() []DecisionType {
	types := make([]DecisionType, 0, len(decisionReasonCodes))
	for t := range decisionReasonCodes {
		types = append(types, t)
	}
	return types
}
