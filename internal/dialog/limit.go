package dialog

import (
	"context"
	"errors"

	"academy-agent/internal/domain"
)

// LimitHandler is the idempotent terminal step: once a thread lands here the
// router keeps it here, whatever the user sends.
type LimitHandler struct {
	leads LeadStore
}

func NewLimitHandler(leads LeadStore) (*LimitHandler, error) {
	if leads == nil {
		return nil, errors.New("dialog: lead store must not be nil")
	}
	return &LimitHandler{leads: leads}, nil
}

func (h *LimitHandler) Handle(ctx context.Context, sess *domain.Session) (Delta, error) {
	appendHistory(ctx, h.leads, sess.Email, domain.RoleUser, sess.LastUserText())
	appendHistory(ctx, h.leads, sess.Email, domain.RoleBot, msgLimitExhausted)

	return Delta{
		Reply: msgLimitExhausted,
		Mode:  modePtr(domain.ModeLimitReached),
	}, nil
}
