package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/signalweekly/newsletter/internal/domain"
	"github.com/signalweekly/newsletter/internal/pkg/logger"
	"github.com/signalweekly/newsletter/internal/service/newsletter"
)

// Sentinel errors for the wizard layer.
var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrSessionComplete = errors.New("session is complete; close the widget to start over")
)

// Assistant copy, one message per transition or validation failure.
// Validation problems are conversational messages, never errors: the chat is
// the error channel for anything the visitor typed.
const (
	msgGreeting = "👋 Hi there! I'm Signal Weekly's AI assistant. I'd love to help you stay updated with the latest AI insights. What's your name?"
	msgAskAge   = "Nice to meet you! 🎯 To personalize your newsletter experience, how old are you? (Please enter a number between 13 and 150)"
	msgBadAge   = "Please enter a valid age between 13 and 150. 📅"
	msgBadEmail = "That doesn't look like a valid email. Please try again. 📬"

	msgSubscribed = "🎉 Perfect! You're all set. Check your email for our latest insights. Welcome to the Signal Weekly community!"
	msgDuplicate  = "It looks like this email is already subscribed. Thanks for your interest in Signal Weekly!"
	msgFailure    = "Oops! Something went wrong. Please try again later."
)

// Subscriber is the slice of the newsletter service the wizard needs.
type Subscriber interface {
	Subscribe(ctx context.Context, email string, age int, source string) (*domain.Subscriber, error)
}

// Controller drives wizard sessions. A session is single-threaded by
// construction (one widget, one visitor); the controller itself is safe for
// concurrent use across sessions as long as the store is.
type Controller struct {
	svc   Subscriber
	store SessionStore
}

// NewController creates a wizard controller using the given subscription
// service and session store.
func NewController(svc Subscriber, store SessionStore) *Controller {
	return &Controller{svc: svc, store: store}
}

// Open creates a fresh session in the greeting state. The greeting is
// already on the transcript when the session is returned.
func (c *Controller) Open(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.New().String(),
		State:     StateGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.append(RoleAssistant, msgGreeting)
	if err := c.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Get returns the current session state and transcript.
func (c *Controller) Get(ctx context.Context, id string) (*Session, error) {
	return c.store.Get(ctx, id)
}

// HandleMessage processes one visitor reply. The reply is appended to the
// transcript, then dispatched to the handler for the current state. The
// returned messages are the assistant messages this reply produced. Blank
// replies are ignored without touching the session.
func (c *Controller) HandleMessage(ctx context.Context, id, content string) (*Session, []Message, error) {
	content = strings.TrimSpace(content)

	s, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.State == StateConfirmation {
		return s, nil, ErrSessionComplete
	}
	if content == "" {
		return s, nil, nil
	}

	s.append(RoleUser, content)
	before := len(s.Transcript)

	switch s.State {
	case StateGreeting:
		c.handleGreeting(s)
	case StateAgeCollection:
		c.handleAge(s, content)
	case StateEmailCollection:
		c.handleEmail(ctx, s, content)
	}

	s.UpdatedAt = time.Now().UTC()
	if err := c.store.Save(ctx, s); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}
	return s, s.Transcript[before:], nil
}

// handleGreeting advances on any non-empty reply; the name itself is not kept.
func (c *Controller) handleGreeting(s *Session) {
	s.State = StateAgeCollection
	s.append(RoleAssistant, msgAskAge)
}

func (c *Controller) handleAge(s *Session, content string) {
	age, err := strconv.Atoi(content)
	if err != nil || age < newsletter.MinAge || age > newsletter.MaxAge {
		s.append(RoleAssistant, msgBadAge)
		return
	}
	s.Age = age
	s.State = StateEmailCollection
	s.append(RoleAssistant, fmt.Sprintf(
		"Great! %d is perfect. 📧 Now, what's your email address? I'll use it to send you weekly AI insights.", age))
}

// handleEmail validates the address, moves to confirmation the moment the
// subscribe call is issued, and reports the settled outcome as a follow-up
// assistant message. An invalid address never reaches the store.
func (c *Controller) handleEmail(ctx context.Context, s *Session, content string) {
	email := newsletter.NormalizeEmail(content)
	if !newsletter.ValidateEmail(email) {
		s.append(RoleAssistant, msgBadEmail)
		return
	}
	s.Email = email
	s.State = StateConfirmation

	_, err := c.svc.Subscribe(ctx, email, s.Age, newsletter.SourceChat)
	switch {
	case err == nil:
		s.append(RoleAssistant, msgSubscribed)
	case errors.Is(err, newsletter.ErrAlreadySubscribed):
		s.append(RoleAssistant, msgDuplicate)
	default:
		logger.Error("wizard subscribe failed", "email", email, "error", err.Error())
		s.append(RoleAssistant, msgFailure)
	}
}

// Close discards the session. Closing an already-discarded session is fine;
// the widget re-opens with a fresh greeting either way. A subscribe that is
// still in flight when the widget closes completes on its own.
func (c *Controller) Close(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}
