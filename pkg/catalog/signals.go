package catalog

// SignalType identifies the kind of quality observation recorded for a run or step.
type SignalType string

const (
	SignalSchemaValid       SignalType = "schema_valid"
	SignalEmptyRetrieval    SignalType = "empty_retrieval"
	SignalToolSuccess       SignalType = "tool_success"
	SignalToolFailure       SignalType = "tool_failure"
	SignalRetryOccurred     SignalType = "retry_occurred"
	SignalLatencyThreshold  SignalType = "latency_threshold"
	SignalTokenUsage        SignalType = "token_usage"
)

// SignalCode identifies the specific observation code within a signal type.
type SignalCode string

const (
	SignalCodeValid      SignalCode = "valid"
	SignalCodeInvalid    SignalCode = "invalid"

	SignalCodeNoResults  SignalCode = "no_results"
	SignalCodePartial    SignalCode = "partial"

	SignalCodeSuccess    SignalCode = "success"

	SignalCodeTimeout    SignalCode = "timeout"
	SignalCodeError      SignalCode = "error"
	SignalCodeNotFound   SignalCode = "not_found"

	SignalCodeExhausted  SignalCode = "exhausted"
	SignalCodeRecovered  SignalCode = "recovered"

	SignalCodeExceeded   SignalCode = "exceeded"
	SignalCodeWithinBudget SignalCode = "within_budget"

	SignalCodeHigh       SignalCode = "high"
	SignalCodeNormal     SignalCode = "normal"
)

var signalCodes = map[SignalType]map[SignalCode]struct{}{
	SignalSchemaValid: set2(SignalCodeValid, SignalCodeInvalid),
	SignalEmptyRetrieval: set2(SignalCodeNoResults, SignalCodePartial),
	SignalToolSuccess: set2(SignalCodeSuccess),
	SignalToolFailure: set2(SignalCodeTimeout, SignalCodeError, SignalCodeNotFound),
	SignalRetryOccurred: set2(SignalCodeExhausted, SignalCodeRecovered),
	SignalLatencyThreshold: set2(SignalCodeExceeded, SignalCodeWithinBudget),
	SignalTokenUsage: set2(SignalCodeHigh, SignalCodeNormal),
}

func set2(codes ...SignalCode) map[SignalCode]struct{} {
	m := make(map[SignalCode]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

// IsValidSignalType reports whether t is a recognized signal type.
func IsValidSignalType(t string) bool {
	_, ok := signalCodes[SignalType(t)]
	return ok
}

// IsValidSignalCode reports whether code is legal for the given signal type.
func IsValidSignalCode(signalType, code string) bool {
	codes, ok := signalCodes[SignalType(signalType)]
	if !ok {
		return false
	}
	_, ok = codes[SignalCode(code)]
	return ok
}

// SignalTypes returns all recognized signal types.
func SignalTypes() []SignalType {
	types := make([]SignalType, 0, len(signalCodes))
	for t := range signalCodes {
		types = append(types, t)
	}
	return types
}
