package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/audit"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

const systemID = "system-user"

// fakeTicketRepo keeps tickets in memory and copies on read so tests see
// exactly what was persisted via Update.
type fakeTicketRepo struct {
	tickets    map[string]*domain.Ticket
	replies    []domain.TicketReply
	loads      map[string]int
	lastFilter repository.TicketFilter
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: map[string]*domain.Ticket{}, loads: map[string]int{}}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("ticket-%d", len(r.tickets)+1)
	}
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.lastFilter = filter
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) AddReply(ctx context.Context, reply *domain.TicketReply) error {
	if reply.ID == "" {
		reply.ID = fmt.Sprintf("reply-%d", len(r.replies)+1)
	}
	r.replies = append(r.replies, *reply)
	return nil
}

func (r *fakeTicketRepo) ListReplies(ctx context.Context, ticketID string) ([]domain.TicketReply, error) {
	out := make([]domain.TicketReply, 0)
	for _, reply := range r.replies {
		if reply.TicketID == ticketID {
			out = append(out, reply)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) CountAssigned(ctx context.Context, userID string, statuses []domain.TicketStatus) (int, error) {
	return r.loads[userID], nil
}

type fakeSuggestionRepo struct {
	suggestions map[string]*domain.TriageSuggestion
	order       []string
}

func newFakeSuggestionRepo() *fakeSuggestionRepo {
	return &fakeSuggestionRepo{suggestions: map[string]*domain.TriageSuggestion{}}
}

func (r *fakeSuggestionRepo) Create(ctx context.Context, suggestion *domain.TriageSuggestion) error {
	if suggestion.ID == "" {
		suggestion.ID = fmt.Sprintf("sugg-%d", len(r.suggestions)+1)
	}
	copied := *suggestion
	r.suggestions[suggestion.ID] = &copied
	r.order = append(r.order, suggestion.ID)
	return nil
}

func (r *fakeSuggestionRepo) Update(ctx context.Context, suggestion *domain.TriageSuggestion) error {
	if _, ok := r.suggestions[suggestion.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *suggestion
	r.suggestions[suggestion.ID] = &copied
	return nil
}

func (r *fakeSuggestionRepo) GetByID(ctx context.Context, id string) (*domain.TriageSuggestion, error) {
	suggestion, ok := r.suggestions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *suggestion
	return &copied, nil
}

func (r *fakeSuggestionRepo) GetLatestByTicket(ctx context.Context, ticketID string) (*domain.TriageSuggestion, error) {
	for i := len(r.order) - 1; i >= 0; i-- {
		if s := r.suggestions[r.order[i]]; s.TicketID == ticketID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeConfigRepo struct {
	cfg domain.TriageConfig
	err error
}

func (r *fakeConfigRepo) GetOrCreateDefault(ctx context.Context) (domain.TriageConfig, error) {
	return r.cfg, r.err
}

func (r *fakeConfigRepo) Update(ctx context.Context, cfg *domain.TriageConfig) error {
	r.cfg = *cfg
	return nil
}

// fakeAuditStore records events in append order.
type fakeAuditStore struct {
	events []domain.AuditEvent
	err    error
}

func (s *fakeAuditStore) Append(ctx context.Context, event *domain.AuditEvent) error {
	if s.err != nil {
		return s.err
	}
	event.ID = fmt.Sprintf("audit-%d", len(s.events)+1)
	s.events = append(s.events, *event)
	return nil
}

func (s *fakeAuditStore) actions() []domain.AuditAction {
	out := make([]domain.AuditAction, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.Action)
	}
	return out
}

type fakeAgentDirectory struct {
	agents []domain.User
}

func (d *fakeAgentDirectory) FindActiveAgents(ctx context.Context) ([]domain.User, error) {
	return d.agents, nil
}

type stubClassifier struct {
	result triage.Classification
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (triage.Classification, error) {
	return s.result, s.err
}

func (s *stubClassifier) Provider() string { return "rules" }
func (s *stubClassifier) Model() string    { return "stub" }

type stubRetriever struct {
	articles []domain.KnowledgeArticle
	err      error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, category domain.TicketCategory, limit int) ([]domain.KnowledgeArticle, error) {
	if s.err != nil {
		return nil, triage.WrapError(triage.ErrRetrieval, s.err)
	}
	return s.articles, nil
}

type triageFixture struct {
	service     *TriageService
	tickets     *fakeTicketRepo
	suggestions *fakeSuggestionRepo
	auditStore  *fakeAuditStore
	configs     *fakeConfigRepo
}

func newTriageFixture(t *testing.T, ticket *domain.Ticket, classifier triage.Classifier, retriever triage.Retriever, agents []domain.User) *triageFixture {
	t.Helper()

	ticketRepo := newFakeTicketRepo(ticket)
	suggestionRepo := newFakeSuggestionRepo()
	configRepo := &fakeConfigRepo{cfg: domain.DefaultTriageConfig()}
	auditStore := &fakeAuditStore{}
	logger := zap.NewNop()

	svc := NewTriageService(TriageDependencies{
		TicketRepo:     ticketRepo,
		SuggestionRepo: suggestionRepo,
		ConfigRepo:     configRepo,
		AuditLogger:    audit.NewLogger(auditStore, nil, logger),
		Classifier:     classifier,
		Retriever:      retriever,
		Composer:       triage.NewTemplateComposer(),
		Decisions:      triage.NewDecisionEngine(&fakeAgentDirectory{agents: agents}, ticketRepo),
		Dispatcher:     events.NewInMemoryDispatcher(logger),
		Logger:         logger,
		SystemUserID:   systemID,
	})
	return &triageFixture{
		service:     svc,
		tickets:     ticketRepo,
		suggestions: suggestionRepo,
		auditStore:  auditStore,
		configs:     configRepo,
	}
}

func openTicket(id string) *domain.Ticket {
	return &domain.Ticket{
		ID:          id,
		ExternalKey: "TCK-TEST",
		RequesterID: "requester-1",
		Title:       "I want a refund",
		Description: "I was charged twice for my subscription",
		Category:    domain.CategoryOther,
		Status:      domain.TicketStatusOpen,
	}
}

func TestTriageTicketAutoClosePath(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryBilling, Confidence: 0.9}},
		&stubRetriever{articles: []domain.KnowledgeArticle{{ID: "a1", Title: "Refund policy"}}},
		nil,
	)

	result, err := fx.service.TriageTicket(context.Background(), "t1", "trace-1")
	if err != nil {
		t.Fatalf("TriageTicket: %v", err)
	}
	if result.Decision.Outcome != triage.OutcomeAutoClosed {
		t.Fatalf("outcome = %q, want auto_closed", result.Decision.Outcome)
	}

	wantActions := []domain.AuditAction{
		domain.AuditTriageStarted,
		domain.AuditTicketClassified,
		domain.AuditKBRetrieved,
		domain.AuditDraftGenerated,
		domain.AuditTicketAutoClosed,
	}
	gotActions := fx.auditStore.actions()
	if len(gotActions) != len(wantActions) {
		t.Fatalf("audit actions = %v, want %v", gotActions, wantActions)
	}
	for i := range wantActions {
		if gotActions[i] != wantActions[i] {
			t.Fatalf("audit[%d] = %q, want %q", i, gotActions[i], wantActions[i])
		}
	}
	for _, event := range fx.auditStore.events {
		if event.TraceID != "trace-1" {
			t.Fatalf("event %s trace = %q, want trace-1", event.Action, event.TraceID)
		}
		if event.ActorKind != domain.ActorSystem {
			t.Fatalf("event %s actor = %q, want system", event.Action, event.ActorKind)
		}
	}

	ticket, _ := fx.tickets.GetByID(context.Background(), "t1")
	if ticket.Status != domain.TicketStatusResolved {
		t.Fatalf("status = %q, want resolved", ticket.Status)
	}
	if ticket.ResolvedAt == nil {
		t.Fatal("ResolvedAt not set")
	}
	if ticket.Category != domain.CategoryBilling {
		t.Fatalf("category = %q, want billing", ticket.Category)
	}
	if ticket.SuggestionID == nil || *ticket.SuggestionID != result.Suggestion.ID {
		t.Fatalf("SuggestionID = %v, want %q", ticket.SuggestionID, result.Suggestion.ID)
	}

	replies, _ := fx.tickets.ListReplies(context.Background(), "t1")
	if len(replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replies))
	}
	if replies[0].AuthorKind != domain.ActorSystem || replies[0].Internal {
		t.Fatalf("reply author = %q internal=%v, want visible system reply", replies[0].AuthorKind, replies[0].Internal)
	}
	if !result.Suggestion.AutoClosed {
		t.Fatal("suggestion not flagged auto_closed")
	}
}

func TestTriageTicketAssignsLeastLoadedAgent(t *testing.T) {
	agents := []domain.User{
		{ID: "agent-busy", Role: domain.RoleAgent, Active: true},
		{ID: "agent-idle", Role: domain.RoleAgent, Active: true},
	}
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryTechnical, Confidence: 0.4}},
		&stubRetriever{},
		agents,
	)
	fx.tickets.loads["agent-busy"] = 5
	fx.tickets.loads["agent-idle"] = 1

	result, err := fx.service.TriageTicket(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("TriageTicket: %v", err)
	}
	if result.TraceID == "" {
		t.Fatal("expected a generated trace id")
	}
	if result.Decision.Outcome != triage.OutcomeAssignedToHuman {
		t.Fatalf("outcome = %q, want assigned_to_human", result.Decision.Outcome)
	}

	ticket, _ := fx.tickets.GetByID(context.Background(), "t1")
	if ticket.Status != domain.TicketStatusWaitingHuman {
		t.Fatalf("status = %q, want waiting_human", ticket.Status)
	}
	if ticket.AssigneeID == nil || *ticket.AssigneeID != "agent-idle" {
		t.Fatalf("assignee = %v, want agent-idle", ticket.AssigneeID)
	}

	last := fx.auditStore.events[len(fx.auditStore.events)-1]
	if last.Action != domain.AuditAssignedToHuman {
		t.Fatalf("last action = %q, want ASSIGNED_TO_HUMAN", last.Action)
	}
	if last.Metadata["assignee_id"] != "agent-idle" {
		t.Fatalf("assignee metadata = %v, want agent-idle", last.Metadata["assignee_id"])
	}
}

func TestTriageTicketNoAgentsStillAssignsToHumanQueue(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryOther, Confidence: 0.3}},
		&stubRetriever{},
		nil,
	)

	result, err := fx.service.TriageTicket(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("TriageTicket: %v", err)
	}
	if result.Decision.AssigneeID != nil {
		t.Fatalf("assignee = %v, want nil", result.Decision.AssigneeID)
	}

	ticket, _ := fx.tickets.GetByID(context.Background(), "t1")
	if ticket.Status != domain.TicketStatusWaitingHuman {
		t.Fatalf("status = %q, want waiting_human", ticket.Status)
	}
	if ticket.AssigneeID != nil {
		t.Fatalf("assignee = %v, want nil", ticket.AssigneeID)
	}

	last := fx.auditStore.events[len(fx.auditStore.events)-1]
	if last.Metadata["unassigned_reason"] == "" {
		t.Fatal("expected unassigned_reason metadata")
	}
}

func TestTriageTicketClassifierFailure(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{err: errors.New("backend unavailable")},
		&stubRetriever{},
		nil,
	)

	_, err := fx.service.TriageTicket(context.Background(), "t1", "trace-9")
	if err == nil {
		t.Fatal("expected error")
	}

	gotActions := fx.auditStore.actions()
	want := []domain.AuditAction{domain.AuditTriageStarted, domain.AuditTriageFailed}
	if len(gotActions) != len(want) || gotActions[0] != want[0] || gotActions[1] != want[1] {
		t.Fatalf("audit actions = %v, want %v", gotActions, want)
	}

	failed := fx.auditStore.events[1]
	if failed.Metadata["kind"] != string(triage.ErrClassification) {
		t.Fatalf("failure kind = %v, want %v", failed.Metadata["kind"], triage.ErrClassification)
	}

	if len(fx.suggestions.suggestions) != 0 {
		t.Fatalf("suggestions persisted = %d, want 0", len(fx.suggestions.suggestions))
	}
	ticket, _ := fx.tickets.GetByID(context.Background(), "t1")
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want untouched open", ticket.Status)
	}
}

func TestTriageTicketRetrieverFailureKeepsKind(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryBilling, Confidence: 0.9}},
		&stubRetriever{err: errors.New("search offline")},
		nil,
	)

	_, err := fx.service.TriageTicket(context.Background(), "t1", "")
	if err == nil {
		t.Fatal("expected error")
	}
	failed := fx.auditStore.events[len(fx.auditStore.events)-1]
	if failed.Action != domain.AuditTriageFailed {
		t.Fatalf("last action = %q, want TRIAGE_FAILED", failed.Action)
	}
	if failed.Metadata["kind"] != string(triage.ErrRetrieval) {
		t.Fatalf("failure kind = %v, want %v", failed.Metadata["kind"], triage.ErrRetrieval)
	}
}

func TestTriageTicketUnknownTicket(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryBilling, Confidence: 0.9}},
		&stubRetriever{},
		nil,
	)

	_, err := fx.service.TriageTicket(context.Background(), "missing", "")
	if err == nil {
		t.Fatal("expected error for unknown ticket")
	}
}

func TestTriageTicketRejectsSettledTickets(t *testing.T) {
	cases := []struct {
		name       string
		status     domain.TicketStatus
		confidence float64
	}{
		{"resolved ticket stays resolved", domain.TicketStatusResolved, 0.4},
		{"closed ticket stays closed", domain.TicketStatusClosed, 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stamp := time.Now().Add(-time.Hour)
			ticket := openTicket("t1")
			ticket.Status = tc.status
			ticket.ResolvedAt = &stamp
			if tc.status == domain.TicketStatusClosed {
				ticket.ClosedAt = &stamp
			}

			fx := newTriageFixture(t, ticket,
				&stubClassifier{result: triage.Classification{Category: domain.CategoryBilling, Confidence: tc.confidence}},
				&stubRetriever{},
				nil,
			)

			_, err := fx.service.TriageTicket(context.Background(), "t1", "trace-1")
			var domainErr *apperrors.DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
				t.Fatalf("err = %v, want CONFLICT", err)
			}

			stored, getErr := fx.tickets.GetByID(context.Background(), "t1")
			if getErr != nil {
				t.Fatalf("GetByID: %v", getErr)
			}
			if stored.Status != tc.status {
				t.Fatalf("status = %s, want %s untouched", stored.Status, tc.status)
			}
			if stored.ResolvedAt == nil || !stored.ResolvedAt.Equal(stamp) {
				t.Fatalf("ResolvedAt = %v, want original stamp", stored.ResolvedAt)
			}
			if len(fx.auditStore.events) != 0 {
				t.Fatalf("audit events = %d, want none", len(fx.auditStore.events))
			}
			if len(fx.suggestions.order) != 0 {
				t.Fatalf("suggestions = %d, want none", len(fx.suggestions.order))
			}
		})
	}
}

func TestGetSuggestionReturnsNilWhenNeverTriaged(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryBilling, Confidence: 0.9}},
		&stubRetriever{},
		nil,
	)

	suggestion, err := fx.service.GetSuggestion(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetSuggestion: %v", err)
	}
	if suggestion != nil {
		t.Fatalf("suggestion = %+v, want nil", suggestion)
	}
}

func TestAcceptSuggestion(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryTechnical, Confidence: 0.4}},
		&stubRetriever{},
		[]domain.User{{ID: "agent-1", Role: domain.RoleAgent, Active: true}},
	)

	result, err := fx.service.TriageTicket(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("TriageTicket: %v", err)
	}

	accepted, err := fx.service.AcceptSuggestion(context.Background(), result.Suggestion.ID, "agent-1")
	if err != nil {
		t.Fatalf("AcceptSuggestion: %v", err)
	}
	if accepted.Accepted == nil || !*accepted.Accepted {
		t.Fatalf("Accepted = %v, want true", accepted.Accepted)
	}
	if accepted.DecidedByID == nil || *accepted.DecidedByID != "agent-1" {
		t.Fatalf("DecidedByID = %v, want agent-1", accepted.DecidedByID)
	}

	// draft reply appended a second time, now authored by the agent
	replies, _ := fx.tickets.ListReplies(context.Background(), "t1")
	if len(replies) != 2 {
		t.Fatalf("replies = %d, want 2", len(replies))
	}
	agentReply := replies[1]
	if agentReply.AuthorKind != domain.ActorAgent || agentReply.Internal {
		t.Fatalf("reply author = %q internal=%v, want visible agent reply", agentReply.AuthorKind, agentReply.Internal)
	}
	if agentReply.Body != result.Suggestion.DraftReply {
		t.Fatal("accepted reply body differs from the draft")
	}

	last := fx.auditStore.events[len(fx.auditStore.events)-1]
	if last.Action != domain.AuditSuggestionAccepted {
		t.Fatalf("last action = %q, want SUGGESTION_ACCEPTED", last.Action)
	}
	if last.ActorKind != domain.ActorAgent {
		t.Fatalf("actor = %q, want agent", last.ActorKind)
	}

	// a decided suggestion cannot be decided again
	if _, err := fx.service.AcceptSuggestion(context.Background(), result.Suggestion.ID, "agent-1"); err == nil {
		t.Fatal("expected conflict on second accept")
	}
}

func TestRejectSuggestionLeavesTicketUntouched(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryTechnical, Confidence: 0.4}},
		&stubRetriever{},
		[]domain.User{{ID: "agent-1", Role: domain.RoleAgent, Active: true}},
	)

	result, err := fx.service.TriageTicket(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("TriageTicket: %v", err)
	}
	before, _ := fx.tickets.GetByID(context.Background(), "t1")

	rejected, err := fx.service.RejectSuggestion(context.Background(), result.Suggestion.ID, "agent-1", "draft misses the point")
	if err != nil {
		t.Fatalf("RejectSuggestion: %v", err)
	}
	if rejected.Accepted == nil || *rejected.Accepted {
		t.Fatalf("Accepted = %v, want false", rejected.Accepted)
	}
	if rejected.RejectReason == nil || *rejected.RejectReason != "draft misses the point" {
		t.Fatalf("RejectReason = %v", rejected.RejectReason)
	}

	after, _ := fx.tickets.GetByID(context.Background(), "t1")
	if after.Status != before.Status || !equalPtr(after.AssigneeID, before.AssigneeID) {
		t.Fatal("reject must not change the ticket")
	}

	last := fx.auditStore.events[len(fx.auditStore.events)-1]
	if last.Action != domain.AuditSuggestionRejected {
		t.Fatalf("last action = %q, want SUGGESTION_REJECTED", last.Action)
	}
	if last.Metadata["reason"] != "draft misses the point" {
		t.Fatalf("reason metadata = %v", last.Metadata["reason"])
	}
}

func TestTriageConfigReadFreshEachRun(t *testing.T) {
	fx := newTriageFixture(t, openTicket("t1"),
		&stubClassifier{result: triage.Classification{Category: domain.CategoryBilling, Confidence: 0.8}},
		&stubRetriever{},
		[]domain.User{{ID: "agent-1", Role: domain.RoleAgent, Active: true}},
	)

	// 0.8 >= 0.75 auto-closes under the default config
	result, err := fx.service.TriageTicket(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("TriageTicket: %v", err)
	}
	if result.Decision.Outcome != triage.OutcomeAutoClosed {
		t.Fatalf("outcome = %q, want auto_closed", result.Decision.Outcome)
	}

	// raise the threshold and rerun: the new value must be picked up
	ticket, _ := fx.tickets.GetByID(context.Background(), "t1")
	ticket.Status = domain.TicketStatusOpen
	ticket.ResolvedAt = nil
	_ = fx.tickets.Update(context.Background(), ticket)
	fx.configs.cfg.ConfidenceThreshold = 0.85

	result, err = fx.service.TriageTicket(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("TriageTicket: %v", err)
	}
	if result.Decision.Outcome != triage.OutcomeAssignedToHuman {
		t.Fatalf("outcome = %q, want assigned_to_human after threshold raise", result.Decision.Outcome)
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestTicketTextCutsOnRuneBoundary(t *testing.T) {
	// 17 bytes of prefix put the byte cap in the middle of a two-byte rune
	ticket := &domain.Ticket{
		Title:       "payment failed!",
		Description: strings.Repeat("é", maxClassifierInput),
	}

	text := ticketText(ticket)
	if len(text) != maxClassifierInput-1 {
		t.Fatalf("len = %d, want %d after backing up to the rune boundary", len(text), maxClassifierInput-1)
	}
	if !utf8.ValidString(text) {
		t.Fatal("truncation split a multi-byte rune")
	}
}

func TestTicketTextShortInputUntouched(t *testing.T) {
	ticket := openTicket("t1")
	want := ticket.Title + "\n\n" + ticket.Description
	if got := ticketText(ticket); got != want {
		t.Fatalf("text = %q, want title and description joined", got)
	}
}
