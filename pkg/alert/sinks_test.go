package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSink_PostsJSONPayload(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL)
	err := sink.Send(context.Background(), Notification{
		DriftID:  "drift-1",
		AgentID:  "triage-agent",
		Severity: "high",
		Summary:  "observed increase from 65.0% to 72.0%",
	})

	require.NoError(t, err)
	assert.Equal(t, "drift-1", received.DriftID)
	assert.Equal(t, "high", received.Severity)
}

func TestWebhookSink_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL)
	err := sink.Send(context.Background(), Notification{DriftID: "drift-1"})
	assert.Error(t, err)
}

func TestPagerSink_PostsJSONPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sink := NewPagerSink(server.URL)
	err := sink.Send(context.Background(), Notification{DriftID: "drift-2", Severity: "high"})
	assert.NoError(t, err)
}

func TestSlackSink_NilServiceIsNoop(t *testing.T) {
	sink := NewSlackSink(nil)
	err := sink.Send(context.Background(), Notification{DriftID: "drift-1"})
	assert.NoError(t, err)
}
