package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one immutable transcript entry.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func newTurn(role Role, text string, now time.Time) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: now,
	}
}

// session is the model-side context: the instruction fixed at creation and the
// exchanges the model has actually seen.
type session struct {
	system  string
	history []ChatMessage
}

func newSession(system string) *session {
	return &session{system: system}
}

func (s *session) request(message string, temperature float32) LLMRequest {
	messages := make([]ChatMessage, 0, len(s.history)+1)
	messages = append(messages, s.history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})
	return LLMRequest{
		System:      []string{s.system},
		Messages:    messages,
		Temperature: temperature,
	}
}

func (s *session) record(message, reply string) {
	s.history = append(s.history,
		ChatMessage{Role: ChatRoleUser, Content: message},
		ChatMessage{Role: ChatRoleAssistant, Content: reply},
	)
}
