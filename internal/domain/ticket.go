package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "open"
	TicketStatusTriaged      TicketStatus = "triaged"
	TicketStatusWaitingHuman TicketStatus = "waiting_human"
	TicketStatusResolved     TicketStatus = "resolved"
	TicketStatusClosed       TicketStatus = "closed"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	ExternalKey  string
	RequesterID  string
	AssigneeID   *string
	SuggestionID *string
	Title        string
	Description  string
	Category     TicketCategory
	Status       TicketStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
}

// PendingStatuses are the states counted as an agent's open workload.
var PendingStatuses = []TicketStatus{TicketStatusTriaged, TicketStatusWaitingHuman}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:         {TicketStatusTriaged, TicketStatusWaitingHuman, TicketStatusResolved},
	TicketStatusTriaged:      {TicketStatusWaitingHuman, TicketStatusResolved, TicketStatusClosed},
	TicketStatusWaitingHuman: {TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:     {TicketStatusClosed},
	TicketStatusClosed:       {},
}

// CanTransition reports whether the forward move from current to next is
// allowed. Reopening is not a forward move; see CanReopen.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CanReopen reports whether a ticket in the given status may be reopened.
// Reopened tickets always land on waiting_human.
func CanReopen(current TicketStatus) bool {
	return current == TicketStatusResolved || current == TicketStatusClosed
}
