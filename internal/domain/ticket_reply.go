package domain

import "time"

// TicketReply captures one entry in a ticket's conversation thread.
type TicketReply struct {
	ID         string
	TicketID   string
	AuthorKind ActorKind
	AuthorID   *string
	Body       string
	Internal   bool
	CreatedAt  time.Time
}
