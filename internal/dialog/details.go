package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"academy-agent/internal/domain"
	"academy-agent/internal/validate"
)

// detailFieldCount is the exact arity of a detail submission:
// name, school, city, phone.
const detailFieldCount = 4

// DetailsConfig tunes detail collection. PreservePending keeps the question
// that triggered the interruption restorable after registration. Region is
// the default phone dialing region (ISO 3166-1 alpha-2).
type DetailsConfig struct {
	PreservePending bool
	Region          string
}

// DefaultDetailsConfig preserves the in-flight question and assumes Indian
// national dialing.
func DefaultDetailsConfig() DetailsConfig {
	return DetailsConfig{PreservePending: true, Region: "IN"}
}

// DetailsPrompter interrupts the chat once the guest quota is crossed and
// asks for the exact comma-separated contact format.
type DetailsPrompter struct {
	leads LeadStore
	cfg   DetailsConfig
}

func NewDetailsPrompter(leads LeadStore, cfg DetailsConfig) (*DetailsPrompter, error) {
	if leads == nil {
		return nil, errors.New("dialog: lead store must not be nil")
	}
	return &DetailsPrompter{leads: leads, cfg: cfg}, nil
}

func (h *DetailsPrompter) Handle(ctx context.Context, sess *domain.Session) (Delta, error) {
	question := sess.LastUserText()
	appendHistory(ctx, h.leads, sess.Email, domain.RoleUser, question)
	appendHistory(ctx, h.leads, sess.Email, domain.RoleBot, msgDetailsPrompt)

	d := Delta{
		Reply: msgDetailsPrompt,
		Mode:  modePtr(domain.ModeCollectingDetails),
	}
	if h.cfg.PreservePending {
		d.PendingQuestion = strPtr(question)
	}
	return d, nil
}

// DetailsProcessor parses a detail submission. Partial data is never
// accepted silently: wrong arity and invalid phone produce distinct
// corrective replies and leave the thread in collecting_details mode.
type DetailsProcessor struct {
	leads LeadStore
	cfg   DetailsConfig
}

func NewDetailsProcessor(leads LeadStore, cfg DetailsConfig) (*DetailsProcessor, error) {
	if leads == nil {
		return nil, errors.New("dialog: lead store must not be nil")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = DefaultDetailsConfig().Region
	}
	return &DetailsProcessor{leads: leads, cfg: cfg}, nil
}

func (h *DetailsProcessor) Handle(ctx context.Context, sess *domain.Session) (Delta, error) {
	raw := sess.LastUserText()
	appendHistory(ctx, h.leads, sess.Email, domain.RoleUser, raw)

	name, school, city, phoneRaw, ok := splitDetails(raw)
	if !ok {
		appendHistory(ctx, h.leads, sess.Email, domain.RoleBot, msgDetailsFormat)
		return Delta{Reply: msgDetailsFormat}, nil
	}

	phone, err := validate.Phone(phoneRaw, h.cfg.Region)
	if err != nil {
		appendHistory(ctx, h.leads, sess.Email, domain.RoleBot, msgDetailsPhone)
		return Delta{Reply: msgDetailsPhone}, nil
	}

	err = h.leads.UpsertLead(ctx, domain.LeadUpdate{
		Email:          sess.Email,
		Name:           name,
		School:         school,
		City:           city,
		Phone:          phone,
		MarkRegistered: true,
	})
	if err != nil {
		slog.Error("details: lead upsert failed", "email", sess.Email, "err", err)
		appendHistory(ctx, h.leads, sess.Email, domain.RoleBot, msgDetailsSaveErr)
		return Delta{Reply: msgDetailsSaveErr}, nil
	}
	appendHistory(ctx, h.leads, sess.Email, domain.RoleBot, msgDetailsThanks)

	return Delta{Reply: msgDetailsThanks, Mode: modePtr(domain.ModeChatting)}, nil
}

// splitDetails requires exactly four non-empty comma-separated fields.
func splitDetails(raw string) (name, school, city, phone string, ok bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != detailFieldCount {
		return "", "", "", "", false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return "", "", "", "", false
		}
	}
	return parts[0], parts[1], parts[2], parts[3], true
}

func appendHistory(ctx context.Context, leads LeadStore, email, role, text string) {
	if email == "" || text == "" {
		return
	}
	if err := leads.AppendHistory(ctx, email, role, text); err != nil {
		slog.Warn("dialog: history append failed", "email", email, "err", err)
	}
}
