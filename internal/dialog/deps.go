package dialog

import (
	"context"

	"academy-agent/internal/domain"
)

// LeadStore is the durable identity-profile contract consumed by turn
// handlers. Counter increments must be atomic adds on the store side.
type LeadStore interface {
	GetStats(ctx context.Context, email string) (domain.ProfileStats, error)
	IncrementCounter(ctx context.Context, email string, registered bool) error
	UpsertLead(ctx context.Context, update domain.LeadUpdate) error
	AppendHistory(ctx context.Context, email, role, text string) error
}

// Retriever returns the top-k knowledge-base passages for a query. An empty
// index yields an empty slice, not an error.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Generator produces an answer for an instruction plus a bounded recent
// message window. Output is a sequence of typed segments.
type Generator interface {
	Generate(ctx context.Context, instruction string, messages []domain.ChatMessage) ([]domain.Segment, error)
}

// SessionStore checkpoints per-thread session state between turns.
type SessionStore interface {
	Load(ctx context.Context, threadID string) (domain.Session, bool, error)
	Save(ctx context.Context, sess domain.Session) error
}

// Handler executes exactly one turn: it reads the session (whose last
// message is the inbound user utterance) and returns a state delta carrying
// exactly one outbound reply.
type Handler interface {
	Handle(ctx context.Context, sess *domain.Session) (Delta, error)
}
