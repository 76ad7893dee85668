// Package privacy enforces the content boundary between agent execution
// traces and the store: metadata may describe a decision or signal, it may
// never carry the content that produced it. Metadata and failure messages
// are validated once, at ingest, in pkg/eventstore; baseline descriptions
// are validated in pkg/baseline.
package privacy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPrivacyViolation is returned when a value crosses the content boundary.
var ErrPrivacyViolation = errors.New("privacy violation")

// forbiddenKeys are metadata top-level keys that would carry raw agent
// content rather than structured observations about a decision or signal.
var forbiddenKeys = set(
	"prompt", "response", "reasoning", "thought", "message", "content",
	"text", "output", "input", "chain_of_thought", "explanation", "rationale",
)

// credentialSubstrings are disallowed anywhere in a failure message.
var credentialSubstrings = []string{"password", "api_key", "token", "secret"}

const (
	maxMetadataStringLen = 100
	maxDescriptionLen    = 200
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Violation describes what in a value triggered the boundary.
type Violation struct {
	Field  string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

func (v *Violation) Unwrap() error {
	return ErrPrivacyViolation
}

func newViolation(field, reason string) error {
	return &Violation{Field: field, Reason: reason}
}

// ValidateMetadata checks a decision/signal metadata map against the
// content boundary: forbidden top-level keys, non-scalar values, and
// oversized strings are all rejected. A nil or empty map is always valid.
func ValidateMetadata(metadata map[string]any) error {
	for key, value := range metadata {
		if _, blocked := forbiddenKeys[strings.ToLower(key)]; blocked {
			return newViolation("metadata."+key, "forbidden content-bearing key")
		}
		if err := validateScalar(key, value); err != nil {
			return err
		}
	}
	return nil
}

func validateScalar(key string, value any) error {
	switch v := value.(type) {
	case nil, bool, int, int32, int64, float32, float64:
		return nil
	case string:
		if len(v) > maxMetadataStringLen {
			return newViolation("metadata."+key, "string value exceeds maximum length")
		}
		return nil
	default:
		return newViolation("metadata."+key, "value must be a primitive scalar")
	}
}

// ValidateFailureMessage rejects failure messages that carry credential-shaped
// substrings. The check is case-insensitive and matches anywhere in the text.
func ValidateFailureMessage(message string) error {
	lower := strings.ToLower(message)
	for _, substr := range credentialSubstrings {
		if strings.Contains(lower, substr) {
			return newViolation("failure.message", "contains a credential-shaped substring")
		}
	}
	return nil
}

// ValidateDescription checks a baseline description: length and the same
// content-bearing vocabulary forbidden in metadata keys, matched as a
// substring anywhere in the text rather than as a key.
func ValidateDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return newViolation("description", "exceeds maximum length")
	}
	lower := strings.ToLower(description)
	for key := range forbiddenKeys {
		if strings.Contains(lower, key) {
			return newViolation("description", "contains a forbidden content-bearing keyword")
		}
	}
	return nil
}

// Redact replaces a value that triggered a privacy violation with a fixed
// placeholder, so ingest error responses never echo the rejected content.
func Redact(_ any) string {
	return "[redacted]"
}
