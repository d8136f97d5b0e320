package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/signalweekly/newsletter/internal/domain"
	"github.com/signalweekly/newsletter/internal/pkg/logger"
)

// Signup source tags. Anything else is accepted as a free-form tag.
const (
	SourceWebsite = "website"
	SourceHero    = "hero"
	SourceChat    = "chat"
)

// Age bounds for a valid signup.
const (
	MinAge = 13
	MaxAge = 150
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether email looks like a deliverable address:
// non-whitespace local part, non-whitespace domain, dot, non-whitespace TLD.
func ValidateEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	return emailPattern.MatchString(email)
}

// NormalizeEmail lowercases and trims an address so that lookups and the
// unique constraint agree on a single canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// WelcomeMailer sends the post-signup welcome email. Implementations must
// tolerate being called concurrently.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, sub *domain.Subscriber) error
}

// Service implements newsletter subscription business logic. A nil
// repository degrades reads to empty results and writes to
// ErrStoreUnavailable, so the server can boot without a database for
// local front-end work.
type Service struct {
	repo   Repository
	mailer WelcomeMailer
}

// NewService creates a newsletter service backed by the given repository.
// repo may be nil when no connection string is configured.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetMailer attaches an optional welcome mailer. Must be called before the
// service starts handling requests.
func (s *Service) SetMailer(m WelcomeMailer) { s.mailer = m }

// Subscribe validates the request and creates or reactivates a subscriber.
// An existing row with status active fails with ErrAlreadySubscribed and is
// not mutated; unsubscribed and bounced rows are silently reactivated.
func (s *Service) Subscribe(ctx context.Context, email string, age int, source string) (*domain.Subscriber, error) {
	email = NormalizeEmail(email)
	if !ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}
	if age < MinAge || age > MaxAge {
		return nil, ErrInvalidAge
	}
	if source == "" {
		source = SourceWebsite
	}
	if s.repo == nil {
		return nil, ErrStoreUnavailable
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	}
	if existing != nil && existing.Status == domain.SubscriberActive {
		return nil, ErrAlreadySubscribed
	}

	sub := &domain.Subscriber{
		ID:     uuid.New().String(),
		Email:  email,
		Age:    age,
		Source: source,
		Status: domain.SubscriberActive,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("upsert subscriber: %w", err)
	}

	logger.Info("subscriber created", "email", sub.Email, "source", sub.Source)

	if s.mailer != nil {
		// Welcome mail is best-effort and must not delay the signup response.
		go s.sendWelcome(sub)
	}
	return sub, nil
}

func (s *Service) sendWelcome(sub *domain.Subscriber) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.mailer.SendWelcome(ctx, sub); err != nil {
		log.Printf("[newsletter.Service] welcome mail failed: %v", err)
	}
}

// Stats returns subscriber counts by status. With no repository configured
// all counts are zero.
func (s *Service) Stats(ctx context.Context) (domain.SubscriberStats, error) {
	if s.repo == nil {
		return domain.SubscriberStats{}, nil
	}
	return s.repo.Stats(ctx)
}

// List returns subscribers matching the filter, newest first. With no
// repository configured the result is empty.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Subscriber, error) {
	if s.repo == nil {
		return nil, nil
	}
	if f.Status != "" && !domain.SubscriberStatus(f.Status).Valid() {
		return nil, fmt.Errorf("unknown status %q", f.Status)
	}
	return s.repo.List(ctx, f)
}

// Delete removes a subscriber by email. Idempotent: deleting an absent
// email succeeds.
func (s *Service) Delete(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !ValidateEmail(email) {
		return ErrInvalidEmail
	}
	if s.repo == nil {
		return ErrStoreUnavailable
	}
	if err := s.repo.Delete(ctx, email); err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	logger.Info("subscriber deleted", "email", email)
	return nil
}
