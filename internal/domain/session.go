package domain

// Mode is the interruption state of one conversation thread.
type Mode string

const (
	ModeChatting          Mode = "chatting"
	ModeCollectingDetails Mode = "collecting_details"
	ModeLimitReached      Mode = "limit_reached"
)

// Session is the per-thread conversational cursor threaded through every
// turn. The durable long-term record is the Profile referenced by Email.
type Session struct {
	ThreadID        string        `json:"thread_id"`
	Email           string        `json:"email,omitempty"`
	Mode            Mode          `json:"mode"`
	PendingQuestion string        `json:"pending_question,omitempty"`
	Messages        []ChatMessage `json:"messages"`
}

// NewSession returns a fresh session for a thread in normal chat mode.
func NewSession(threadID string) Session {
	return Session{ThreadID: threadID, Mode: ModeChatting}
}

// Append adds one message to the in-session log.
func (s *Session) Append(role, text string) {
	s.Messages = append(s.Messages, ChatMessage{Role: role, Text: text})
}

// LastUserText returns the text of the most recent user message, or "".
func (s *Session) LastUserText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Text
		}
	}
	return ""
}

// Clone returns a deep copy so cached sessions never alias a caller's slice.
func (s Session) Clone() Session {
	out := s
	out.Messages = append([]ChatMessage(nil), s.Messages...)
	return out
}
