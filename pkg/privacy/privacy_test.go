package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		wantErr  bool
	}{
		{"nil map", nil, false},
		{"empty map", map[string]any{}, false},
		{"allowed keys and scalars", map[string]any{"region": "us-east-1", "retries": 3, "cached": true}, false},
		{"forbidden key lowercase", map[string]any{"prompt": "hi"}, true},
		{"forbidden key mixed case", map[string]any{"Prompt": "hi"}, true},
		{"forbidden key chain_of_thought", map[string]any{"chain_of_thought": "because"}, true},
		{"oversized string value", map[string]any{"note": string(make([]byte, 101))}, true},
		{"string value at limit", map[string]any{"note": string(make([]byte, 100))}, false},
		{"non-scalar value", map[string]any{"nested": map[string]any{"a": 1}}, true},
		{"array value", map[string]any{"tags": []string{"a", "b"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.metadata)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrPrivacyViolation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFailureMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"clean message", "tool invocation timed out after 30s", false},
		{"contains password", "failed to authenticate: bad password", true},
		{"contains api_key mixed case", "invalid API_KEY supplied", true},
		{"contains token", "refresh token expired", true},
		{"contains secret", "could not read secret from vault", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFailureMessage(tt.message)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantErr     bool
	}{
		{"clean description", "Q3 production baseline for the triage agent", false},
		{"empty description", "", false},
		{"contains forbidden keyword", "captures the agent's reasoning pattern", true},
		{"too long", string(make([]byte, 201)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescription(tt.description)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
