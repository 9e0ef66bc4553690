package chat

import "time"

// Session captures a transient anonymous conversation. Disease is the
// optional diagnosis context the chat panel was opened with.
type Session struct {
	ID        string    `json:"id"`
	Disease   string    `json:"disease,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
