package advisor

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Conversation is an append-only chat log. Answers are appended when they
// arrive, so concurrent questions may interleave.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

// NewConversation keeps at most limit messages (0 for unbounded), dropping the oldest.
func NewConversation(limit int) *Conversation {
	return &Conversation{limit: limit}
}

func (c *Conversation) Append(role Role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Text: text, At: time.Now().UTC()})
	if c.limit > 0 && len(c.messages) > c.limit {
		c.messages = append([]Message(nil), c.messages[len(c.messages)-c.limit:]...)
	}
}

func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
