package dialog

import (
	"context"
	"errors"
	"log/slog"

	"academy-agent/internal/domain"
	"academy-agent/internal/validate"
)

// EmailConfig toggles the optional deliverability probe, which adds latency
// and an external DNS dependency.
type EmailConfig struct {
	CheckDeliverability bool
}

// EmailCollector gates the funnel: the very first message on a thread gets
// the greeting, every later one is validated as an email address.
type EmailCollector struct {
	leads LeadStore
	cfg   EmailConfig
}

func NewEmailCollector(leads LeadStore, cfg EmailConfig) (*EmailCollector, error) {
	if leads == nil {
		return nil, errors.New("dialog: lead store must not be nil")
	}
	return &EmailCollector{leads: leads, cfg: cfg}, nil
}

func (h *EmailCollector) Handle(ctx context.Context, sess *domain.Session) (Delta, error) {
	// Only the just-merged inbound message: first contact on this thread.
	if len(sess.Messages) <= 1 {
		return Delta{Reply: msgGreeting}, nil
	}

	raw := sess.LastUserText()
	email, err := validate.Email(ctx, raw, validate.EmailOptions{
		CheckDeliverability: h.cfg.CheckDeliverability,
	})
	if err != nil {
		// No state change: the user simply resends.
		return Delta{Reply: msgEmailInvalid}, nil
	}

	if err := h.leads.UpsertLead(ctx, domain.LeadUpdate{Email: email}); err != nil {
		slog.Error("email: lead upsert failed", "thread_id", sess.ThreadID, "err", err)
		return Delta{Reply: msgEmailSaveErr}, nil
	}
	appendHistory(ctx, h.leads, email, domain.RoleUser, raw)
	appendHistory(ctx, h.leads, email, domain.RoleBot, msgEmailThanks)

	return Delta{Email: email, Reply: msgEmailThanks}, nil
}
