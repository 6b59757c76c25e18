package chat

import "time"

// Message roles. A message belongs to exactly one chat and is append-only.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message persists individual turns for history and audit.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Turn is a role-tagged history entry as submitted by the client.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
