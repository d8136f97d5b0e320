// Package wizard implements the scripted signup conversation embedded in the
// marketing site's chat widget: a linear four-state flow that collects an age
// and an email, validates each answer, and hands the result to the newsletter
// service. It is a fixed form wizard, not a dialogue engine.
package wizard

import "time"

// State identifies the wizard's position in the signup flow. States only
// advance forward; the only way back to greeting is a full session reset.
type State string

const (
	StateGreeting        State = "greeting"
	StateAgeCollection   State = "age_collection"
	StateEmailCollection State = "email_collection"
	StateConfirmation    State = "confirmation"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the ephemeral per-widget conversation state. Age is set exactly
// once, immediately before entering email_collection; Email exactly once,
// immediately before entering confirmation.
type Session struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Age        int       `json:"age,omitempty"`
	Email      string    `json:"email,omitempty"`
	Transcript []Message `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *Session) append(role Role, content string) {
	s.Transcript = append(s.Transcript, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}
