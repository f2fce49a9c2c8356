package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/audit"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/queue"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 10000
	maxReplyLength       = 10000
	replyPreviewLength   = 120
)

// TicketService owns the ticket lifecycle outside the triage pipeline:
// creation, replies, manual close, and reopening.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	configs    repository.TriageConfigRepository
	auditLog   *audit.Logger
	dispatcher events.Dispatcher
	triageJobs queue.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	ConfigRepo  repository.TriageConfigRepository
	AuditLogger *audit.Logger
	Dispatcher  events.Dispatcher
	TriageJobs  queue.Dispatcher
	Logger      *zap.Logger
}

// CreateTicketInput carries the requester-supplied fields.
type CreateTicketInput struct {
	RequesterID string
	Title       string
	Description string
}

// NewTicketService constructs the ticket service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		configs:    deps.ConfigRepo,
		auditLog:   deps.AuditLogger,
		dispatcher: deps.Dispatcher,
		triageJobs: deps.TriageJobs,
		logger:     deps.Logger,
	}
}

// CreateTicket persists a new open ticket and hands it to the triage
// dispatcher under a fresh trace id. Dispatch failures are logged but do
// not fail creation; the ticket can be triaged manually later.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if err := validateTicketInput(input); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, input.RequesterID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("requester", map[string]any{"requester_id": input.RequesterID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		ExternalKey: newExternalKey(),
		RequesterID: input.RequesterID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    domain.CategoryOther,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	traceID := uuid.NewString()
	if _, err := s.auditLog.Record(ctx, ticket.ID, traceID, domain.ActorUser, &input.RequesterID,
		domain.AuditTicketCreated, map[string]any{
			"external_key": ticket.ExternalKey,
		}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Kind: domain.ActorUser, ID: &input.RequesterID},
		Payload: events.TicketCreatedPayload{
			RequesterID: input.RequesterID,
			Title:       ticket.Title,
			TraceID:     traceID,
		},
	})

	if s.triageJobs != nil {
		if err := s.triageJobs.Dispatch(ctx, ticket.ID, traceID); err != nil {
			s.logger.Error("failed to dispatch triage run",
				zap.String("ticket_id", ticket.ID),
				zap.String("trace_id", traceID),
				zap.Error(err))
		}
	}
	return ticket, nil
}

// GetTicket returns the ticket with its replies.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, []domain.TicketReply, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	replies, err := s.tickets.ListReplies(ctx, id)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, replies, nil
}

// ListTickets applies the filter and returns matching tickets. With
// breachingSLA set, the listing narrows to unresolved tickets older than
// the configured SLA window.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter, breachingSLA bool) ([]domain.Ticket, error) {
	if breachingSLA {
		cfg, err := s.configs.GetOrCreateDefault(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		cutoff := time.Now().Add(-time.Duration(cfg.SLAHours) * time.Hour)
		filter.BreachingBefore = &cutoff
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AddReply appends a reply authored by the given actor.
func (s *TicketService) AddReply(ctx context.Context, ticketID string, actorKind domain.ActorKind, actorID *string, body string, internal bool) (*domain.TicketReply, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("reply body is required", nil)
	}
	if len(body) > maxReplyLength {
		return nil, apperrors.NewValidationError("reply body too long", map[string]any{"max": maxReplyLength})
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("cannot reply to a closed ticket", map[string]any{"ticket_id": ticketID})
	}

	reply := &domain.TicketReply{
		TicketID:   ticketID,
		AuthorKind: actorKind,
		AuthorID:   actorID,
		Body:       body,
		Internal:   internal,
	}
	if err := s.tickets.AddReply(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketReplyAdded,
		TicketID: ticketID,
		Actor:    events.Actor{Kind: actorKind, ID: actorID},
		Payload: events.TicketReplyAddedPayload{
			ReplyID:     reply.ID,
			AuthorKind:  actorKind,
			Internal:    internal,
			BodyPreview: preview(body),
		},
	})
	return reply, nil
}

// CloseTicket moves the ticket to closed when the transition is allowed.
func (s *TicketService) CloseTicket(ctx context.Context, ticketID string, actorKind domain.ActorKind, actorID *string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(ticket.Status, domain.TicketStatusClosed) {
		return nil, apperrors.NewConflict("cannot close ticket", map[string]any{
			"ticket_id": ticketID,
			"status":    string(ticket.Status),
		})
	}

	now := time.Now()
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := s.auditLog.Record(ctx, ticket.ID, uuid.NewString(), actorKind, actorID,
		domain.AuditTicketClosed, nil); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ReopenTicket returns a resolved or closed ticket to the human queue. The
// resolution stamps are cleared so a later auto-close sets them afresh.
func (s *TicketService) ReopenTicket(ctx context.Context, ticketID string, actorKind domain.ActorKind, actorID *string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.CanReopen(ticket.Status) {
		return nil, apperrors.NewConflict("only resolved or closed tickets can be reopened", map[string]any{
			"ticket_id": ticketID,
			"status":    string(ticket.Status),
		})
	}

	previous := ticket.Status
	ticket.Status = domain.TicketStatusWaitingHuman
	ticket.ResolvedAt = nil
	ticket.ClosedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := s.auditLog.Record(ctx, ticket.ID, uuid.NewString(), actorKind, actorID,
		domain.AuditTicketReopened, map[string]any{
			"previous_status": string(previous),
		}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		Actor:    events.Actor{Kind: actorKind, ID: actorID},
	})
	return ticket, nil
}

// TriggerTriage dispatches a manual triage run for the ticket.
func (s *TicketService) TriggerTriage(ctx context.Context, ticketID string) (string, error) {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return "", err
	}
	if s.triageJobs == nil {
		return "", apperrors.NewInternalError(errors.New("triage dispatcher not configured"))
	}
	traceID := uuid.NewString()
	if err := s.triageJobs.Dispatch(ctx, ticketID, traceID); err != nil {
		return "", apperrors.MapError(err)
	}
	return traceID, nil
}

func (s *TicketService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
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

func validateTicketInput(input CreateTicketInput) error {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if input.RequesterID == "" {
		return apperrors.NewValidationError("requester_id is required", nil)
	}
	if title == "" {
		return apperrors.NewValidationError("title is required", nil)
	}
	if len(title) > maxTitleLength {
		return apperrors.NewValidationError("title too long", map[string]any{"max": maxTitleLength})
	}
	if description == "" {
		return apperrors.NewValidationError("description is required", nil)
	}
	if len(description) > maxDescriptionLength {
		return apperrors.NewValidationError("description too long", map[string]any{"max": maxDescriptionLength})
	}
	return nil
}

func newExternalKey() string {
	return fmt.Sprintf("TCK-%s", strings.ToUpper(uuid.NewString()[:8]))
}

func preview(body string) string {
	if len(body) <= replyPreviewLength {
		return body
	}
	return body[:replyPreviewLength] + "…"
}
