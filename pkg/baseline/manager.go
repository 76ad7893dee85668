// Package baseline manages the promotion of a BehaviorProfile into an
// immutable BehaviorBaseline and the activation state machine that
// designates at most one baseline as the live drift-comparison reference
// per (agent_id, agent_version, environment).
package baseline

import (
	"context"
	"fmt"
	"time"

	"github.com/laxkc/agentwatch/ent"
	"github.com/laxkc/agentwatch/ent/behaviorbaseline"
	"github.com/laxkc/agentwatch/pkg/catalog"
	"github.com/laxkc/agentwatch/pkg/privacy"
)

// Manager owns the baseline lifecycle.
type Manager struct {
	client *ent.Client
}

// NewManager constructs a Manager over the given ent client.
func NewManager(client *ent.Client) *Manager {
	if client == nil {
		panic("baseline.NewManager: client must not be nil")
	}
	return &Manager{client: client}
}

// CreateParams describes a baseline promotion request.
type CreateParams struct {
	ID           string
	ProfileID    string
	AgentID      string
	AgentVersion string
	Environment  string
	BaselineType string
	ApprovedBy   *string
	Description  *string
	AutoActivate bool
}

// Create promotes a profile into an inactive baseline, optionally activating
// it atomically in the same transaction.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*ent.BehaviorBaseline, error) {
	if !catalog.BaselineType(params.BaselineType).IsValid() {
		return nil, ErrInvalidBaselineType
	}
	if params.Description != nil {
		if err := privacy.ValidateDescription(*params.Description); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDescriptionRejected, err)
		}
	}

	tx, err := m.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback()

	builder := tx.BehaviorBaseline.Create().
		SetID(params.ID).
		SetProfileID(params.ProfileID).
		SetAgentID(params.AgentID).
		SetAgentVersion(params.AgentVersion).
		SetEnvironment(params.Environment).
		SetBaselineType(behaviorbaseline.BaselineType(params.BaselineType))
	if params.ApprovedBy != nil {
		builder.SetApprovedBy(*params.ApprovedBy).SetApprovedAt(time.Now())
	}
	if params.Description != nil {
		builder.SetDescription(*params.Description)
	}

	created, err := builder.Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrBaselineExists
		}
		return nil, fmt.Errorf("create baseline: %w", err)
	}

	if params.AutoActivate {
		if err := activateInTx(ctx, tx, created); err != nil {
			return nil, err
		}
		created.IsActive = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit baseline %s: %w", params.ID, err)
	}
	return created, nil
}

// Activate deactivates any baseline currently active for the same
// (agent_id, agent_version, environment) and activates the target, within a
// single transaction. Calling Activate on an already-active baseline is a
// no-op that succeeds.
func (m *Manager) Activate(ctx context.Context, baselineID string) (*ent.BehaviorBaseline, error) {
	tx, err := m.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback()

	target, err := tx.BehaviorBaseline.Get(ctx, baselineID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrBaselineNotFound
		}
		return nil, fmt.Errorf("get baseline %s: %w", baselineID, err)
	}

	if !target.IsActive {
		if err := activateInTx(ctx, tx, target); err != nil {
			return nil, err
		}
		target.IsActive = true
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activation of %s: %w", baselineID, err)
	}
	return target, nil
}

// activateInTx deactivates the current active baseline for the target's key
// (if any) and flips the target to active. Must run inside the caller's tx.
func activateInTx(ctx context.Context, tx *ent.Tx, target *ent.BehaviorBaseline) error {
	_, err := tx.BehaviorBaseline.Update().
		Where(
			behaviorbaseline.AgentIDEQ(target.AgentID),
			behaviorbaseline.AgentVersionEQ(target.AgentVersion),
			behaviorbaseline.EnvironmentEQ(target.Environment),
			behaviorbaseline.IsActiveEQ(true),
			behaviorbaseline.IDNEQ(target.ID),
		).
		SetIsActive(false).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("deactivate current active baseline: %w", err)
	}

	if err := tx.BehaviorBaseline.UpdateOneID(target.ID).SetIsActive(true).Exec(ctx); err != nil {
		if ent.IsConstraintError(err) {
			return ErrBaselineExists
		}
		return fmt.Errorf("activate baseline %s: %w", target.ID, err)
	}
	return nil
}

// Deactivate flips the active flag off. A no-op on an already-inactive
// baseline.
func (m *Manager) Deactivate(ctx context.Context, baselineID string) (*ent.BehaviorBaseline, error) {
	baseline, err := m.client.BehaviorBaseline.Get(ctx, baselineID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrBaselineNotFound
		}
		return nil, fmt.Errorf("get baseline %s: %w", baselineID, err)
	}
	if !baseline.IsActive {
		return baseline, nil
	}
	updated, err := m.client.BehaviorBaseline.UpdateOneID(baselineID).
		SetIsActive(false).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("deactivate baseline %s: %w", baselineID, err)
	}
	return updated, nil
}

// Approve records approver identity and timestamp. Calling it again simply
// overwrites the recorded approver — an idempotent update, not a rejection.
func (m *Manager) Approve(ctx context.Context, baselineID, approvedBy string) (*ent.BehaviorBaseline, error) {
	updated, err := m.client.BehaviorBaseline.UpdateOneID(baselineID).
		SetApprovedBy(approvedBy).
		SetApprovedAt(time.Now()).
		Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrBaselineNotFound
		}
		return nil, fmt.Errorf("approve baseline %s: %w", baselineID, err)
	}
	return updated, nil
}

// Get fetches a baseline by ID.
func (m *Manager) Get(ctx context.Context, baselineID string) (*ent.BehaviorBaseline, error) {
	found, err := m.client.BehaviorBaseline.Get(ctx, baselineID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrBaselineNotFound
		}
		return nil, fmt.Errorf("get baseline %s: %w", baselineID, err)
	}
	return found, nil
}

// ListFilters narrows List.
type ListFilters struct {
	AgentID      string
	AgentVersion string
	Environment  string
}

// List returns baselines matching the given filters, most recent first.
func (m *Manager) List(ctx context.Context, f ListFilters) ([]*ent.BehaviorBaseline, error) {
	query := m.client.BehaviorBaseline.Query()
	if f.AgentID != "" {
		query = query.Where(behaviorbaseline.AgentIDEQ(f.AgentID))
	}
	if f.AgentVersion != "" {
		query = query.Where(behaviorbaseline.AgentVersionEQ(f.AgentVersion))
	}
	if f.Environment != "" {
		query = query.Where(behaviorbaseline.EnvironmentEQ(f.Environment))
	}
	return query.Order(ent.Desc(behaviorbaseline.FieldCreatedAt)).All(ctx)
}

// GetActive returns the active baseline for a key, or nil if none is active.
func (m *Manager) GetActive(ctx context.Context, agentID, agentVersion, environment string) (*ent.BehaviorBaseline, error) {
	found, err := m.client.BehaviorBaseline.Query().
		Where(
			behaviorbaseline.AgentIDEQ(agentID),
			behaviorbaseline.AgentVersionEQ(agentVersion),
			behaviorbaseline.EnvironmentEQ(environment),
			behaviorbaseline.IsActiveEQ(true),
		).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active baseline: %w", err)
	}
	return found, nil
}
