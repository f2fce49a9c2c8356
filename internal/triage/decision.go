package triage

import (
	"context"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Outcome enumerates terminal decisions for a triage run.
type Outcome string

const (
	OutcomeAutoClosed      Outcome = "auto_closed"
	OutcomeAssignedToHuman Outcome = "assigned_to_human"
)

// Decision is the policy verdict plus the chosen assignee, when any.
type Decision struct {
	Outcome   Outcome
	Threshold float64

	// AssigneeID is set only for assigned_to_human with an eligible agent.
	AssigneeID       *string
	UnassignedReason string
}

// AgentSource lists users eligible for assignment.
type AgentSource interface {
	FindActiveAgents(ctx context.Context) ([]domain.User, error)
}

// WorkloadSource counts a user's tickets in the given statuses. The count
// is recomputed from the store on every decision, never cached.
type WorkloadSource interface {
	CountAssigned(ctx context.Context, userID string, statuses []domain.TicketStatus) (int, error)
}

// DecisionEngine applies the confidence-threshold policy and picks the
// least-loaded agent for the human path.
type DecisionEngine struct {
	agents   AgentSource
	workload WorkloadSource
}

// NewDecisionEngine constructs the engine.
func NewDecisionEngine(agents AgentSource, workload WorkloadSource) *DecisionEngine {
	return &DecisionEngine{agents: agents, workload: workload}
}

// Decide resolves the threshold for the category and chooses auto-close or
// human assignment. The boundary is inclusive: confidence equal to the
// threshold auto-closes.
func (e *DecisionEngine) Decide(ctx context.Context, cfg domain.TriageConfig, category domain.TicketCategory, confidence float64) (Decision, error) {
	threshold := cfg.ThresholdFor(category)

	if cfg.AutoCloseEnabled && confidence >= threshold {
		return Decision{Outcome: OutcomeAutoClosed, Threshold: threshold}, nil
	}

	decision := Decision{Outcome: OutcomeAssignedToHuman, Threshold: threshold}
	assigneeID, reason, err := e.pickAssignee(ctx)
	if err != nil {
		return Decision{}, WrapError(ErrPersistence, err)
	}
	decision.AssigneeID = assigneeID
	decision.UnassignedReason = reason
	return decision, nil
}

// pickAssignee selects the active agent or admin with the fewest tickets
// currently in triaged or waiting_human status. Ties keep the earlier
// entry in the directory's listing order.
func (e *DecisionEngine) pickAssignee(ctx context.Context) (*string, string, error) {
	agents, err := e.agents.FindActiveAgents(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(agents) == 0 {
		return nil, "no active agents available", nil
	}

	var best *domain.User
	bestLoad := 0
	for i := range agents {
		agent := &agents[i]
		if !agent.CanBeAssigned() {
			continue
		}
		load, err := e.workload.CountAssigned(ctx, agent.ID, domain.PendingStatuses)
		if err != nil {
			return nil, "", err
		}
		if best == nil || load < bestLoad {
			best = agent
			bestLoad = load
		}
	}
	if best == nil {
		return nil, "no active agents available", nil
	}
	return &best.ID, "", nil
}
