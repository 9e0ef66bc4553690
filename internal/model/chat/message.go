package chat

import "time"

// Sender distinguishes the two transcript authors. Only assistant content is
// run through the markdown renderer; user content stays literal text.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "assistant"
)

// Message is one immutable transcript entry. HTML carries the rendered
// fragment (markdown-rendered for the assistant, escaped literal for users)
// and is derived from Content exactly once, at append time.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"createdAt"`
}
