package domain

import "time"

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberBounced      SubscriberStatus = "bounced"
)

// Valid reports whether s is one of the known statuses.
func (s SubscriberStatus) Valid() bool {
	switch s {
	case SubscriberActive, SubscriberUnsubscribed, SubscriberBounced:
		return true
	}
	return false
}

// Subscriber represents a single newsletter signup, keyed by email.
// At most one row exists per email; re-subscribing reuses the row.
type Subscriber struct {
	ID        string           `json:"id" db:"id"`
	Email     string           `json:"email" db:"email"`
	EmailHash string           `json:"-" db:"email_hash"`
	Age       int              `json:"age" db:"age"`
	Source    string           `json:"source" db:"source"`
	Status    SubscriberStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// SubscriberStats holds subscriber counts grouped by status.
// Total always equals Active + Unsubscribed + Bounced.
type SubscriberStats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Unsubscribed int `json:"unsubscribed"`
	Bounced      int `json:"bounced"`
}
