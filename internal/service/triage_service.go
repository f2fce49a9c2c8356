package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/audit"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// maxClassifierInput bounds the text handed to the classifier and retriever.
const maxClassifierInput = 4000

// TriageService orchestrates the classify, retrieve, draft, decide pipeline
// for one ticket under one trace id, and owns the resulting suggestion and
// audit records.
type TriageService struct {
	tickets     repository.TicketRepository
	suggestions repository.SuggestionRepository
	configs     repository.TriageConfigRepository
	auditLog    *audit.Logger
	classifier  triage.Classifier
	retriever   triage.Retriever
	composer    triage.Composer
	decisions   *triage.DecisionEngine
	dispatcher  events.Dispatcher
	locks       *triage.RunLocks
	metrics     *observability.Metrics
	logger      *zap.Logger

	// systemUserID is the provisioned system actor, created at startup.
	systemUserID string
}

// TriageDependencies bundles collaborators for the orchestrator.
type TriageDependencies struct {
	TicketRepo     repository.TicketRepository
	SuggestionRepo repository.SuggestionRepository
	ConfigRepo     repository.TriageConfigRepository
	AuditLogger    *audit.Logger
	Classifier     triage.Classifier
	Retriever      triage.Retriever
	Composer       triage.Composer
	Decisions      *triage.DecisionEngine
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	SystemUserID   string
}

// TriageResult is returned to callers of a synchronous run.
type TriageResult struct {
	Classification triage.Classification
	Articles       []domain.KnowledgeArticle
	Draft          triage.Draft
	Decision       triage.Decision
	Suggestion     *domain.TriageSuggestion
	TraceID        string
}

// NewTriageService constructs the orchestrator.
func NewTriageService(deps TriageDependencies) *TriageService {
	return &TriageService{
		tickets:      deps.TicketRepo,
		suggestions:  deps.SuggestionRepo,
		configs:      deps.ConfigRepo,
		auditLog:     deps.AuditLogger,
		classifier:   deps.Classifier,
		retriever:    deps.Retriever,
		composer:     deps.Composer,
		decisions:    deps.Decisions,
		dispatcher:   deps.Dispatcher,
		locks:        triage.NewRunLocks(),
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		systemUserID: deps.SystemUserID,
	}
}

// Run satisfies the queue runner contract.
func (s *TriageService) Run(ctx context.Context, ticketID, traceID string) error {
	_, err := s.TriageTicket(ctx, ticketID, traceID)
	return err
}

// TriageTicket executes one full pipeline pass. A trace id is generated
// when not supplied. Runs for the same ticket are serialized by a
// per-ticket lock, so a manual trigger and a queued run cannot interleave.
// Resolved and closed tickets are rejected up front: triage never moves a
// ticket backward, that path goes through ReopenTicket.
func (s *TriageService) TriageTicket(ctx context.Context, ticketID, traceID string) (*TriageResult, error) {
	if traceID == "" {
		traceID = uuid.NewString()
	}

	release := s.locks.Acquire(ticketID)
	defer release()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("cannot triage a settled ticket", map[string]any{
			"ticket_id": ticketID,
			"status":    string(ticket.Status),
		})
	}

	start := time.Now()
	result, err := s.runPipeline(ctx, ticket, traceID, start)
	if err != nil {
		s.metrics.RecordTriageRun("failed", time.Since(start))
		s.recordFailure(ctx, ticketID, traceID, err)
		return nil, triage.ToDomainError(err)
	}
	s.metrics.RecordTriageRun(string(result.Decision.Outcome), time.Since(start))
	return result, nil
}

func (s *TriageService) runPipeline(ctx context.Context, ticket *domain.Ticket, traceID string, start time.Time) (*TriageResult, error) {
	// read fresh each run, never cached across runs
	cfg, err := s.configs.GetOrCreateDefault(ctx)
	if err != nil {
		return nil, triage.WrapError(triage.ErrConfig, err)
	}

	if _, err := s.auditLog.Record(ctx, ticket.ID, traceID, domain.ActorSystem, &s.systemUserID,
		domain.AuditTriageStarted, map[string]any{
			"status": string(ticket.Status),
		}); err != nil {
		return nil, triage.WrapError(triage.ErrPersistence, err)
	}

	text := ticketText(ticket)

	classification, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return nil, triage.WrapError(triage.ErrClassification, err)
	}
	classification.Confidence = domain.ClampConfidence(classification.Confidence)
	if _, err := s.auditLog.Record(ctx, ticket.ID, traceID, domain.ActorSystem, &s.systemUserID,
		domain.AuditTicketClassified, map[string]any{
			"category":   string(classification.Category),
			"confidence": classification.Confidence,
		}); err != nil {
		return nil, triage.WrapError(triage.ErrPersistence, err)
	}

	articles, err := s.retriever.Retrieve(ctx, text, classification.Category, triage.DefaultRetrievalLimit)
	if err != nil {
		return nil, triage.WrapError(triage.ErrRetrieval, err)
	}
	articleIDs := make([]string, len(articles))
	for i, article := range articles {
		articleIDs[i] = article.ID
	}
	if _, err := s.auditLog.Record(ctx, ticket.ID, traceID, domain.ActorSystem, &s.systemUserID,
		domain.AuditKBRetrieved, map[string]any{
			"article_ids": articleIDs,
			"count":       len(articleIDs),
		}); err != nil {
		return nil, triage.WrapError(triage.ErrPersistence, err)
	}

	draft, err := s.composer.Compose(classification.Category, articles)
	if err != nil {
		return nil, triage.WrapError(triage.ErrDraft, err)
	}
	if _, err := s.auditLog.Record(ctx, ticket.ID, traceID, domain.ActorSystem, &s.systemUserID,
		domain.AuditDraftGenerated, map[string]any{
			"citations": draft.Citations,
		}); err != nil {
		return nil, triage.WrapError(triage.ErrPersistence, err)
	}

	decision, err := s.decisions.Decide(ctx, cfg, classification.Category, classification.Confidence)
	if err != nil {
		return nil, err
	}

	suggestion := &domain.TriageSuggestion{
		TicketID:          ticket.ID,
		TraceID:           traceID,
		PredictedCategory: classification.Category,
		ArticleIDs:        draft.Citations,
		DraftReply:        draft.Reply,
		Confidence:        classification.Confidence,
		AutoClosed:        decision.Outcome == triage.OutcomeAutoClosed,
		ModelProvider:     s.classifier.Provider(),
		ModelName:         s.classifier.Model(),
		PromptVersion:     triage.PromptVersion,
		LatencyMS:         time.Since(start).Milliseconds(),
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, triage.WrapError(triage.ErrPersistence, err)
	}

	if err := s.applyDecision(ctx, ticket, suggestion, decision, traceID); err != nil {
		return nil, err
	}

	s.publishTriaged(ctx, ticket, suggestion, decision, traceID)

	return &TriageResult{
		Classification: classification,
		Articles:       articles,
		Draft:          draft,
		Decision:       decision,
		Suggestion:     suggestion,
		TraceID:        traceID,
	}, nil
}

// applyDecision mutates the ticket: the draft becomes an externally visible
// reply on both paths, then the ticket either auto-resolves or moves to
// waiting_human with the least-loaded agent attached.
func (s *TriageService) applyDecision(ctx context.Context, ticket *domain.Ticket, suggestion *domain.TriageSuggestion, decision triage.Decision, traceID string) error {
	reply := &domain.TicketReply{
		TicketID:   ticket.ID,
		AuthorKind: domain.ActorSystem,
		AuthorID:   &s.systemUserID,
		Body:       suggestion.DraftReply,
		Internal:   false,
	}
	if err := s.tickets.AddReply(ctx, reply); err != nil {
		return triage.WrapError(triage.ErrPersistence, err)
	}

	ticket.Category = suggestion.PredictedCategory
	ticket.SuggestionID = &suggestion.ID

	if decision.Outcome == triage.OutcomeAutoClosed {
		now := time.Now()
		ticket.Status = domain.TicketStatusResolved
		ticket.ResolvedAt = &now
	} else {
		ticket.Status = domain.TicketStatusWaitingHuman
		ticket.AssigneeID = decision.AssigneeID
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return triage.WrapError(triage.ErrPersistence, err)
	}

	action := domain.AuditAssignedToHuman
	metadata := map[string]any{
		"confidence": suggestion.Confidence,
		"threshold":  decision.Threshold,
	}
	if decision.Outcome == triage.OutcomeAutoClosed {
		action = domain.AuditTicketAutoClosed
		metadata["suggestion_id"] = suggestion.ID
	} else if decision.AssigneeID != nil {
		metadata["assignee_id"] = *decision.AssigneeID
	} else {
		metadata["unassigned_reason"] = decision.UnassignedReason
	}
	if _, err := s.auditLog.Record(ctx, ticket.ID, traceID, domain.ActorSystem, &s.systemUserID,
		action, metadata); err != nil {
		return triage.WrapError(triage.ErrPersistence, err)
	}
	return nil
}

// recordFailure emits the single terminal TRIAGE_FAILED event. The failed
// ticket keeps its prior status; operators detect failures through the
// audit trail.
func (s *TriageService) recordFailure(ctx context.Context, ticketID, traceID string, runErr error) {
	kind := triage.KindOf(runErr)
	if _, err := s.auditLog.Record(ctx, ticketID, traceID, domain.ActorSystem, &s.systemUserID,
		domain.AuditTriageFailed, map[string]any{
			"kind":  string(kind),
			"error": runErr.Error(),
		}); err != nil {
		s.logger.Error("failed to record TRIAGE_FAILED", zap.Error(err), zap.String("trace_id", traceID))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTriageFailed,
		TicketID: ticketID,
		Actor:    events.Actor{Kind: domain.ActorSystem, ID: &s.systemUserID},
		Payload: events.TriageFailedPayload{
			TraceID: traceID,
			Kind:    string(kind),
			Message: runErr.Error(),
		},
	})
}

func (s *TriageService) publishTriaged(ctx context.Context, ticket *domain.Ticket, suggestion *domain.TriageSuggestion, decision triage.Decision, traceID string) {
	eventType := events.EventTicketTriaged
	if decision.Outcome == triage.OutcomeAutoClosed {
		eventType = events.EventTicketAutoResolved
	}
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Actor:    events.Actor{Kind: domain.ActorSystem, ID: &s.systemUserID},
		Payload: events.TicketTriagedPayload{
			TraceID:      traceID,
			Category:     suggestion.PredictedCategory,
			Confidence:   suggestion.Confidence,
			Outcome:      string(decision.Outcome),
			SuggestionID: suggestion.ID,
			AssigneeID:   decision.AssigneeID,
		},
	})
}

// GetSuggestion returns the latest suggestion for a ticket, nil when the
// ticket has never been triaged.
func (s *TriageService) GetSuggestion(ctx context.Context, ticketID string) (*domain.TriageSuggestion, error) {
	suggestion, err := s.suggestions.GetLatestByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return suggestion, nil
}

// AcceptSuggestion marks the suggestion accepted and appends its draft as
// an externally visible reply authored by the accepting agent.
func (s *TriageService) AcceptSuggestion(ctx context.Context, suggestionID, actorID string) (*domain.TriageSuggestion, error) {
	suggestion, err := s.loadUndecided(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	accepted := true
	suggestion.Accepted = &accepted
	suggestion.DecidedByID = &actorID
	suggestion.DecidedAt = &now
	if err := s.suggestions.Update(ctx, suggestion); err != nil {
		return nil, apperrors.MapError(err)
	}

	reply := &domain.TicketReply{
		TicketID:   suggestion.TicketID,
		AuthorKind: domain.ActorAgent,
		AuthorID:   &actorID,
		Body:       suggestion.DraftReply,
		Internal:   false,
	}
	if err := s.tickets.AddReply(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}

	if _, err := s.auditLog.Record(ctx, suggestion.TicketID, suggestion.TraceID, domain.ActorAgent, &actorID,
		domain.AuditSuggestionAccepted, map[string]any{
			"suggestion_id": suggestion.ID,
		}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventSuggestionAccepted,
		TicketID: suggestion.TicketID,
		Actor:    events.Actor{Kind: domain.ActorAgent, ID: &actorID},
		Payload: events.SuggestionDecidedPayload{
			SuggestionID: suggestion.ID,
			Accepted:     true,
		},
	})
	return suggestion, nil
}

// RejectSuggestion marks the suggestion rejected with the actor's reason.
// The ticket itself is left untouched.
func (s *TriageService) RejectSuggestion(ctx context.Context, suggestionID, actorID, reason string) (*domain.TriageSuggestion, error) {
	suggestion, err := s.loadUndecided(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	accepted := false
	suggestion.Accepted = &accepted
	suggestion.DecidedByID = &actorID
	suggestion.DecidedAt = &now
	if reason != "" {
		suggestion.RejectReason = &reason
	}
	if err := s.suggestions.Update(ctx, suggestion); err != nil {
		return nil, apperrors.MapError(err)
	}

	if _, err := s.auditLog.Record(ctx, suggestion.TicketID, suggestion.TraceID, domain.ActorAgent, &actorID,
		domain.AuditSuggestionRejected, map[string]any{
			"suggestion_id": suggestion.ID,
			"reason":        reason,
		}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventSuggestionRejected,
		TicketID: suggestion.TicketID,
		Actor:    events.Actor{Kind: domain.ActorAgent, ID: &actorID},
		Payload: events.SuggestionDecidedPayload{
			SuggestionID: suggestion.ID,
			Accepted:     false,
			Reason:       suggestion.RejectReason,
		},
	})
	return suggestion, nil
}

func (s *TriageService) loadUndecided(ctx context.Context, suggestionID string) (*domain.TriageSuggestion, error) {
	suggestion, err := s.suggestions.GetByID(ctx, suggestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("suggestion", map[string]any{"suggestion_id": suggestionID})
		}
		return nil, apperrors.MapError(err)
	}
	if suggestion.Accepted != nil {
		return nil, apperrors.NewConflict("suggestion already decided", map[string]any{"suggestion_id": suggestionID})
	}
	return suggestion, nil
}

func (s *TriageService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func ticketText(ticket *domain.Ticket) string {
	text := ticket.Title + "\n\n" + ticket.Description
	if len(text) <= maxClassifierInput {
		return text
	}
	// back up to a rune boundary so the cut never splits a multi-byte rune
	cut := maxClassifierInput
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
