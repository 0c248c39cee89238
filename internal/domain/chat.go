package domain

// Message roles as persisted in chat history and session logs.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ChatMessage is the provider-agnostic chat message shape shared by the
// dialog core, the generator integration, and durable chat history.
type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
