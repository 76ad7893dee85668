package slack

import (
	"strings"
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDriftMessage_Low(t *testing.T) {
	input := DriftNotification{
		DriftID:      "drift-1",
		AgentID:      "triage-agent",
		AgentVersion: "1.4.0",
		Environment:  "production",
		Severity:     "low",
		Summary:      "tool_selection.api observed increase from 65% to 72%, statistical significance p=0.03.",
	}
	blocks := BuildDriftMessage(input, "https://dash.example.com")

	require.Len(t, blocks, 3)

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":large_blue_circle:")
	assert.Contains(t, header.Text.Text, "triage-agent")
	assert.Contains(t, header.Text.Text, "1.4.0")
	assert.Contains(t, header.Text.Text, "production")

	summary := blocks[1].(*goslack.SectionBlock)
	assert.Contains(t, summary.Text.Text, "observed increase from 65% to 72%")

	action := blocks[2].(*goslack.ActionBlock)
	btn := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	assert.Equal(t, "https://dash.example.com/drift/drift-1", btn.URL)
}

func TestBuildDriftMessage_SeverityEmoji(t *testing.T) {
	for severity, emoji := range severityEmoji {
		blocks := BuildDriftMessage(DriftNotification{Severity: severity, Summary: "x"}, "")
		header := blocks[0].(*goslack.SectionBlock)
		assert.Contains(t, header.Text.Text, emoji)
	}
}

func TestBuildDriftMessage_UnknownSeverityDefaultsToWhiteCircle(t *testing.T) {
	blocks := BuildDriftMessage(DriftNotification{Severity: "unknown", Summary: "x"}, "")
	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":white_circle:")
}

func TestBuildDriftMessage_NoDashboardURLOmitsButton(t *testing.T) {
	blocks := BuildDriftMessage(DriftNotification{Severity: "high", Summary: "x"}, "")
	assert.Len(t, blocks, 2)
}

func TestTruncateForSlack(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", truncateForSlack("hello"))
	})

	t.Run("exact limit unchanged", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength)
		assert.Equal(t, text, truncateForSlack(text))
	})

	t.Run("over limit truncated", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength+100)
		result := truncateForSlack(text)
		assert.True(t, len(result) < len(text))
		assert.Contains(t, result, "truncated")
	})
}
