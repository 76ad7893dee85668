package events

import (
	"context"
	"strings"
	"time"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/ent/behaviordrift"
)

// driftQuerier abstracts the query needed to satisfy catchup requests.
// Implemented by EntDriftQuerier (or any thin wrapper around *ent.Client).
type driftQuerier interface {
	DriftSince(ctx context.Context, channel string, sinceUnixSeconds, limit int) ([]*ent.BehaviorDrift, error)
}

// DriftCatchupAdapter adapts a driftQuerier to the ConnectionManager's
// CatchupQuerier interface. Because DriftEvent IDs are opaque UUIDs rather
// than a serial integer, the "sinceID" cursor here is a unix-seconds
// timestamp of the caller's last-seen detected_at instead of a row id.
type DriftCatchupAdapter struct {
	querier driftQuerier
}

// NewDriftCatchupAdapter builds a CatchupQuerier backed by q.
func NewDriftCatchupAdapter(q driftQuerier) *DriftCatchupAdapter {
	return &DriftCatchupAdapter{querier: q}
}

// GetCatchupEvents returns drift events on channel detected after
// sinceUnixSeconds, up to limit, as generic CatchupEvent payloads.
func (a *DriftCatchupAdapter) GetCatchupEvents(ctx context.Context, channel string, sinceUnixSeconds, limit int) ([]CatchupEvent, error) {
	rows, err := a.querier.DriftSince(ctx, channel, sinceUnixSeconds, limit)
	if err != nil {
		return nil, err
	}

	result := make([]CatchupEvent, len(rows))
	for i, row := range rows {
		result[i] = CatchupEvent{
			ID: int(row.DetectedAt.Unix()),
			Payload: map[string]any{
				"type":                     EventTypeDriftDetected,
				"drift_id":                 row.ID,
				"baseline_id":              row.BaselineID,
				"agent_id":                 row.AgentID,
				"agent_version":            row.AgentVersion,
				"environment":              row.Environment,
				"drift_type":               string(row.DriftType),
				"metric":                   row.Metric,
				"baseline_value":           row.BaselineValue,
				"observed_value":           row.ObservedValue,
				"delta":                    row.Delta,
				"delta_percent":            row.DeltaPercent,
				"significance":             row.Significance,
				"test_method":              row.TestMethod,
				"severity":                 string(row.Severity),
				"detected_at":              row.DetectedAt,
				"observation_window_start": row.ObservationWindowStart,
				"observation_window_end":   row.ObservationWindowEnd,
				"observation_sample_size":  row.ObservationSampleSize,
			},
		}
	}
	return result, nil
}

// EntDriftQuerier implements driftQuerier directly against an *ent.Client,
// with no intermediate service layer: the query it needs is a single
// indexed lookup, not worth a dedicated package.
type EntDriftQuerier struct {
	client *ent.Client
}

// NewEntDriftQuerier builds a driftQuerier backed by client.
func NewEntDriftQuerier(client *ent.Client) *EntDriftQuerier {
	return &EntDriftQuerier{client: client}
}

// DriftSince returns drift rows detected after sinceUnixSeconds, most recent
// first, capped at limit. The comparison is at whole-second granularity, like
// the cursor itself: a row detected within the cursor's own second is not
// returned. channel is either GlobalDriftChannel (no filter)
// or an AgentChannel string, which is parsed back into its agent key.
func (q *EntDriftQuerier) DriftSince(ctx context.Context, channel string, sinceUnixSeconds, limit int) ([]*ent.BehaviorDrift, error) {
	query := q.client.BehaviorDrift.Query()

	if channel != GlobalDriftChannel {
		agentID, agentVersion, environment, ok := parseAgentChannel(channel)
		if ok {
			query = query.Where(
				behaviordrift.AgentID(agentID),
				behaviordrift.AgentVersion(agentVersion),
				behaviordrift.Environment(environment),
			)
		}
	}

	if sinceUnixSeconds > 0 {
		query = query.Where(behaviordrift.DetectedAtGTE(time.Unix(int64(sinceUnixSeconds)+1, 0).UTC()))
	}

	return query.
		Order(ent.Desc(behaviordrift.FieldDetectedAt)).
		Limit(limit).
		All(ctx)
}

// parseAgentChannel splits a "drift:{agent_id}:{agent_version}:{environment}"
// channel name back into its parts.
func parseAgentChannel(channel string) (agentID, agentVersion, environment string, ok bool) {
	parts := strings.SplitN(channel, ":", 4)
	if len(parts) != 4 || parts[0] != "drift" {
		return "", "", "", false
	}
	return parts[1], parts[2], parts[3], true
}
