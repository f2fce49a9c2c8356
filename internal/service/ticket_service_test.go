package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/audit"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) FindActiveAgents(ctx context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0)
	for _, user := range r.users {
		if user.CanBeAssigned() {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) EnsureSystemUser(ctx context.Context) (*domain.User, error) {
	system := &domain.User{ID: systemID, Role: domain.RoleSystem, Active: true}
	r.users[systemID] = system
	return system, nil
}

type fakeJobDispatcher struct {
	ticketIDs []string
	traceIDs  []string
	err       error
}

func (d *fakeJobDispatcher) Dispatch(ctx context.Context, ticketID, traceID string) error {
	if d.err != nil {
		return d.err
	}
	d.ticketIDs = append(d.ticketIDs, ticketID)
	d.traceIDs = append(d.traceIDs, traceID)
	return nil
}

type ticketFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	auditStore *fakeAuditStore
	jobs       *fakeJobDispatcher
}

func newTicketFixture(t *testing.T, tickets ...*domain.Ticket) *ticketFixture {
	t.Helper()

	requester := &domain.User{ID: "requester-1", Role: domain.RoleUser, Active: true}
	ticketRepo := newFakeTicketRepo(tickets...)
	auditStore := &fakeAuditStore{}
	jobs := &fakeJobDispatcher{}
	logger := zap.NewNop()

	svc := NewTicketService(TicketDependencies{
		TicketRepo:  ticketRepo,
		UserRepo:    newFakeUserRepo(requester),
		ConfigRepo:  &fakeConfigRepo{cfg: domain.DefaultTriageConfig()},
		AuditLogger: audit.NewLogger(auditStore, nil, logger),
		Dispatcher:  events.NewInMemoryDispatcher(logger),
		TriageJobs:  jobs,
		Logger:      logger,
	})
	return &ticketFixture{service: svc, tickets: ticketRepo, auditStore: auditStore, jobs: jobs}
}

func TestCreateTicketDispatchesTriage(t *testing.T) {
	fx := newTicketFixture(t)

	ticket, err := fx.service.CreateTicket(context.Background(), CreateTicketInput{
		RequesterID: "requester-1",
		Title:       "  Refund please  ",
		Description: "I was double charged",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want open", ticket.Status)
	}
	if ticket.Title != "Refund please" {
		t.Fatalf("title = %q, want trimmed", ticket.Title)
	}
	if !strings.HasPrefix(ticket.ExternalKey, "TCK-") {
		t.Fatalf("external key = %q, want TCK- prefix", ticket.ExternalKey)
	}
	if ticket.Category != domain.CategoryOther {
		t.Fatalf("category = %q, want other before triage", ticket.Category)
	}

	if len(fx.jobs.ticketIDs) != 1 || fx.jobs.ticketIDs[0] != ticket.ID {
		t.Fatalf("dispatched = %v, want [%s]", fx.jobs.ticketIDs, ticket.ID)
	}
	if fx.jobs.traceIDs[0] == "" {
		t.Fatal("dispatch without trace id")
	}

	actions := fx.auditStore.actions()
	if len(actions) != 1 || actions[0] != domain.AuditTicketCreated {
		t.Fatalf("audit = %v, want [TICKET_CREATED]", actions)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	fx := newTicketFixture(t)

	cases := []CreateTicketInput{
		{RequesterID: "", Title: "t", Description: "d"},
		{RequesterID: "requester-1", Title: "", Description: "d"},
		{RequesterID: "requester-1", Title: "t", Description: ""},
		{RequesterID: "requester-1", Title: strings.Repeat("x", maxTitleLength+1), Description: "d"},
	}
	for i, input := range cases {
		if _, err := fx.service.CreateTicket(context.Background(), input); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestCreateTicketUnknownRequester(t *testing.T) {
	fx := newTicketFixture(t)

	_, err := fx.service.CreateTicket(context.Background(), CreateTicketInput{
		RequesterID: "nobody",
		Title:       "t",
		Description: "d",
	})
	if !apperrors.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateTicketSurvivesDispatchFailure(t *testing.T) {
	fx := newTicketFixture(t)
	fx.jobs.err = fmt.Errorf("queue offline")

	ticket, err := fx.service.CreateTicket(context.Background(), CreateTicketInput{
		RequesterID: "requester-1",
		Title:       "t",
		Description: "d",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.ID == "" {
		t.Fatal("ticket not persisted")
	}
}

func TestAddReplyRejectsClosedTicket(t *testing.T) {
	closed := openTicket("t1")
	closed.Status = domain.TicketStatusClosed
	fx := newTicketFixture(t, closed)

	actorID := "requester-1"
	_, err := fx.service.AddReply(context.Background(), "t1", domain.ActorUser, &actorID, "hello?", false)
	if err == nil {
		t.Fatal("expected conflict on closed ticket")
	}
}

func TestCloseTicketTransitions(t *testing.T) {
	waiting := openTicket("t1")
	waiting.Status = domain.TicketStatusWaitingHuman
	fx := newTicketFixture(t, waiting)

	actorID := "agent-1"
	ticket, err := fx.service.CloseTicket(context.Background(), "t1", domain.ActorAgent, &actorID)
	if err != nil {
		t.Fatalf("CloseTicket: %v", err)
	}
	if ticket.Status != domain.TicketStatusClosed || ticket.ClosedAt == nil {
		t.Fatalf("status = %q closedAt = %v", ticket.Status, ticket.ClosedAt)
	}

	// open -> closed is not a legal forward move
	fx2 := newTicketFixture(t, openTicket("t2"))
	if _, err := fx2.service.CloseTicket(context.Background(), "t2", domain.ActorAgent, &actorID); err == nil {
		t.Fatal("expected conflict closing an open ticket")
	}
}

func TestReopenTicket(t *testing.T) {
	now := time.Now()
	resolved := openTicket("t1")
	resolved.Status = domain.TicketStatusResolved
	resolved.ResolvedAt = &now
	fx := newTicketFixture(t, resolved)

	actorID := "requester-1"
	ticket, err := fx.service.ReopenTicket(context.Background(), "t1", domain.ActorUser, &actorID)
	if err != nil {
		t.Fatalf("ReopenTicket: %v", err)
	}
	if ticket.Status != domain.TicketStatusWaitingHuman {
		t.Fatalf("status = %q, want waiting_human", ticket.Status)
	}
	if ticket.ResolvedAt != nil || ticket.ClosedAt != nil {
		t.Fatal("resolution stamps must clear on reopen")
	}

	actions := fx.auditStore.actions()
	if actions[len(actions)-1] != domain.AuditTicketReopened {
		t.Fatalf("last audit = %q, want TICKET_REOPENED", actions[len(actions)-1])
	}
}

func TestReopenRejectsActiveTicket(t *testing.T) {
	fx := newTicketFixture(t, openTicket("t1"))

	actorID := "requester-1"
	if _, err := fx.service.ReopenTicket(context.Background(), "t1", domain.ActorUser, &actorID); err == nil {
		t.Fatal("expected conflict reopening an open ticket")
	}
}

func TestTriggerTriageDispatchesWithFreshTrace(t *testing.T) {
	fx := newTicketFixture(t, openTicket("t1"))

	traceID, err := fx.service.TriggerTriage(context.Background(), "t1")
	if err != nil {
		t.Fatalf("TriggerTriage: %v", err)
	}
	if traceID == "" {
		t.Fatal("empty trace id")
	}
	if len(fx.jobs.ticketIDs) != 1 || fx.jobs.ticketIDs[0] != "t1" {
		t.Fatalf("dispatched = %v, want [t1]", fx.jobs.ticketIDs)
	}
}

func TestListTicketsSLAFilterUsesConfiguredWindow(t *testing.T) {
	fx := newTicketFixture(t, openTicket("t1"))

	if _, err := fx.service.ListTickets(context.Background(), repository.TicketFilter{}, false); err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if fx.tickets.lastFilter.BreachingBefore != nil {
		t.Fatal("cutoff must stay unset without the SLA flag")
	}

	before := time.Now()
	if _, err := fx.service.ListTickets(context.Background(), repository.TicketFilter{}, true); err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	cutoff := fx.tickets.lastFilter.BreachingBefore
	if cutoff == nil {
		t.Fatal("expected an SLA cutoff on the filter")
	}
	want := before.Add(-24 * time.Hour)
	if cutoff.Before(want.Add(-time.Minute)) || cutoff.After(want.Add(time.Minute)) {
		t.Fatalf("cutoff = %v, want about %v", cutoff, want)
	}
}
