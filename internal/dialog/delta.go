package dialog

import "academy-agent/internal/domain"

// Delta is the explicit state change a handler returns. Merge semantics:
//   - Reply is appended to the session message log as the bot turn.
//   - Email overwrites only when non-empty (emails are never un-set).
//   - Mode and PendingQuestion overwrite only when present; a present empty
//     PendingQuestion clears the slot.
type Delta struct {
	Reply           string
	Email           string
	Mode            *domain.Mode
	PendingQuestion *string
}

// Apply merges the delta into the session.
func (d Delta) Apply(sess *domain.Session) {
	if d.Email != "" {
		sess.Email = d.Email
	}
	if d.Mode != nil {
		sess.Mode = *d.Mode
	}
	if d.PendingQuestion != nil {
		sess.PendingQuestion = *d.PendingQuestion
	}
	if d.Reply != "" {
		sess.Append(domain.RoleBot, d.Reply)
	}
}

func modePtr(m domain.Mode) *domain.Mode { return &m }

func strPtr(s string) *string { return &s }
