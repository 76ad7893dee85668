package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var severityEmoji = map[string]string{
	"low":    ":large_blue_circle:",
	"medium": ":large_orange_circle:",
	"high":   ":red_circle:",
}

func driftURL(driftID, dashboardURL string) string {
	if dashboardURL == "" || driftID == "" {
		return ""
	}
	return fmt.Sprintf("%s/drift/%s", dashboardURL, driftID)
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated — view full event in dashboard)_"
}

// DriftNotification carries the already-composed, vocabulary-checked
// summary line for one drift event plus the identifiers needed to render
// it as a Slack message. The summary text is built once by the caller so
// every sink reports identical wording.
type DriftNotification struct {
	DriftID      string
	AgentID      string
	AgentVersion string
	Environment  string
	Severity     string
	Summary      string
}

// BuildDriftMessage creates Block Kit blocks for a drift notification.
func BuildDriftMessage(input DriftNotification, dashboardURL string) []goslack.Block {
	emoji := severityEmoji[input.Severity]
	if emoji == "" {
		emoji = ":white_circle:"
	}

	headerText := fmt.Sprintf("%s *Behavior drift detected* — %s / %s / %s", emoji, input.AgentID, input.AgentVersion, input.Environment)
	var blocks []goslack.Block
	blocks = append(blocks, goslack.NewSectionBlock(
		goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
		nil, nil,
	))
	blocks = append(blocks, goslack.NewSectionBlock(
		goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(input.Summary), false, false),
		nil, nil,
	))

	if url := driftURL(input.DriftID, dashboardURL); url != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View in Dashboard", false, false))
		btn.URL = url
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}

	return blocks
}
