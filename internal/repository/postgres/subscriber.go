// Package postgres implements the service repository interfaces against
// PostgreSQL via database/sql and lib/pq.
package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/signalweekly/newsletter/internal/domain"
	"github.com/signalweekly/newsletter/internal/service/newsletter"
)

// SubscriberRepo implements newsletter.Repository against PostgreSQL.
// The upsert relies on the unique constraint on subscribers.email; the
// database serializes conflicting writes on the same key.
type SubscriberRepo struct{ db *sql.DB }

// NewSubscriberRepo creates a Postgres-backed subscriber repository.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

// HashEmail creates a SHA256 hash of an email address, used to reference
// a subscriber in logs and exports without exposing the raw address.
func HashEmail(email string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(h[:])
}

func (r *SubscriberRepo) Upsert(ctx context.Context, sub *domain.Subscriber) error {
	if sub.Email == "" {
		return fmt.Errorf("email is required for upsert")
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	sub.EmailHash = HashEmail(sub.Email)
	if sub.Status == "" {
		sub.Status = domain.SubscriberActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, email, email_hash, age, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			age = EXCLUDED.age,
			status = EXCLUDED.status,
			updated_at = NOW()
	`, sub.ID, sub.Email, sub.EmailHash, sub.Age, sub.Source, sub.Status)
	if err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}
	return nil
}

func (r *SubscriberRepo) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	sub := &domain.Subscriber{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, email_hash, age, COALESCE(source,''), status, created_at, updated_at
		FROM subscribers
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&sub.ID, &sub.Email, &sub.EmailHash, &sub.Age, &sub.Source,
		&sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newsletter.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return sub, nil
}

func (r *SubscriberRepo) List(ctx context.Context, f newsletter.ListFilter) ([]domain.Subscriber, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT id, email, email_hash, age, COALESCE(source,''), status, created_at, updated_at
		FROM subscribers`
	args := []interface{}{}
	idx := 1
	if f.Status != "" {
		q += fmt.Sprintf(" WHERE status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(
			&sub.ID, &sub.Email, &sub.EmailHash, &sub.Age, &sub.Source,
			&sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *SubscriberRepo) Stats(ctx context.Context) (domain.SubscriberStats, error) {
	var st domain.SubscriberStats
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM subscribers GROUP BY status
	`)
	if err != nil {
		return st, fmt.Errorf("subscriber stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return st, fmt.Errorf("scan stats: %w", err)
		}
		st.Total += n
		switch domain.SubscriberStatus(status) {
		case domain.SubscriberActive:
			st.Active = n
		case domain.SubscriberUnsubscribed:
			st.Unsubscribed = n
		case domain.SubscriberBounced:
			st.Bounced = n
		}
	}
	return st, rows.Err()
}

func (r *SubscriberRepo) Delete(ctx context.Context, email string) error {
	// Deleting an absent email is deliberately not an error.
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM subscribers WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return nil
}
