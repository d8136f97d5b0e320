package newsletter

import (
	"context"

	"github.com/signalweekly/newsletter/internal/domain"
)

// Repository defines the data access contract for subscribers.
// Implementations must be safe for concurrent use; the upsert is expected
// to be atomic on the email key (insert-or-update-on-conflict) because the
// service performs no locking of its own.
type Repository interface {
	// Upsert inserts a subscriber, or updates age/status/updated_at when a
	// row with the same email already exists. Fails if Email is empty.
	Upsert(ctx context.Context, sub *domain.Subscriber) error

	// GetByEmail returns the subscriber for the given (normalized) email.
	// Returns ErrNotFound if no row exists.
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)

	// List returns subscribers matching the filter, ordered by created_at DESC.
	List(ctx context.Context, filter ListFilter) ([]domain.Subscriber, error)

	// Stats returns subscriber counts grouped by status plus the total.
	Stats(ctx context.Context) (domain.SubscriberStats, error)

	// Delete removes the row for the given email. Deleting an absent email
	// is a no-op, not an error.
	Delete(ctx context.Context, email string) error
}

// ListFilter controls filtering and pagination for subscriber lists.
// An empty Status means all statuses. Limit <= 0 falls back to the default.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
