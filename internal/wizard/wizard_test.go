package wizard_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/signalweekly/newsletter/internal/domain"
	"github.com/signalweekly/newsletter/internal/service/newsletter"
	"github.com/signalweekly/newsletter/internal/wizard"
)

// stubService records subscribe calls and returns a scripted result.
type stubService struct {
	mu    sync.Mutex
	calls []subscribeCall
	err   error
}

type subscribeCall struct {
	email  string
	age    int
	source string
}

func (s *stubService) Subscribe(_ context.Context, email string, age int, source string) (*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, subscribeCall{email: email, age: age, source: source})
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Subscriber{Email: email, Age: age, Source: source, Status: domain.SubscriberActive}, nil
}

func newTestController(svc *stubService) *wizard.Controller {
	return wizard.NewController(svc, wizard.NewMemoryStore())
}

func TestOpenStartsWithGreeting(t *testing.T) {
	c := newTestController(&stubService{})
	s, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.State != wizard.StateGreeting {
		t.Fatalf("expected greeting, got %s", s.State)
	}
	if len(s.Transcript) != 1 || s.Transcript[0].Role != wizard.RoleAssistant {
		t.Fatalf("expected one assistant message, got %+v", s.Transcript)
	}
}

func TestGreetingAdvancesOnAnyReply(t *testing.T) {
	c := newTestController(&stubService{})
	ctx := context.Background()
	s, _ := c.Open(ctx)

	s, msgs, err := c.HandleMessage(ctx, s.ID, "Alex")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if s.State != wizard.StateAgeCollection {
		t.Fatalf("expected age_collection, got %s", s.State)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one assistant reply, got %d", len(msgs))
	}
}

func TestBlankReplyIsIgnored(t *testing.T) {
	c := newTestController(&stubService{})
	ctx := context.Background()
	s, _ := c.Open(ctx)

	got, msgs, err := c.HandleMessage(ctx, s.ID, "   ")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got.State != wizard.StateGreeting || len(got.Transcript) != 1 || msgs != nil {
		t.Fatalf("blank reply must not change the session: %+v", got)
	}
}

func TestInvalidAgeStaysPut(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not a number", "twelve"},
		{"below minimum", "12"},
		{"above maximum", "151"},
		{"negative", "-5"},
		{"decimal", "25.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			c := newTestController(svc)
			ctx := context.Background()
			s, _ := c.Open(ctx)
			s, _, _ = c.HandleMessage(ctx, s.ID, "hi")

			before := len(s.Transcript)
			s, msgs, err := c.HandleMessage(ctx, s.ID, tt.reply)
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if s.State != wizard.StateAgeCollection {
				t.Fatalf("state advanced on invalid age: %s", s.State)
			}
			// One user message plus exactly one error message.
			if len(s.Transcript) != before+2 || len(msgs) != 1 {
				t.Fatalf("expected a single error reply, transcript %d → %d", before, len(s.Transcript))
			}
			if len(svc.calls) != 0 {
				t.Fatal("invalid input must not reach the service")
			}
		})
	}
}

func TestInvalidEmailStaysPutAndSkipsStore(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no at sign", "nope"},
		{"no tld", "a@b"},
		{"space in local", "a b@c.com"},
		{"trailing dot only", "a@b."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			c := newTestController(svc)
			ctx := context.Background()
			s, _ := c.Open(ctx)
			c.HandleMessage(ctx, s.ID, "hi")
			c.HandleMessage(ctx, s.ID, "25")

			s, msgs, err := c.HandleMessage(ctx, s.ID, tt.reply)
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if s.State != wizard.StateEmailCollection {
				t.Fatalf("state advanced on invalid email: %s", s.State)
			}
			if len(msgs) != 1 {
				t.Fatalf("expected one error reply, got %d", len(msgs))
			}
			if len(svc.calls) != 0 {
				t.Fatal("invalid email must not reach the service")
			}
		})
	}
}

func TestFullFlowSubscribes(t *testing.T) {
	svc := &stubService{}
	c := newTestController(svc)
	ctx := context.Background()

	s, _ := c.Open(ctx)
	c.HandleMessage(ctx, s.ID, "Alex")
	c.HandleMessage(ctx, s.ID, "25")
	s, msgs, err := c.HandleMessage(ctx, s.ID, "a@b.com")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if s.State != wizard.StateConfirmation {
		t.Fatalf("expected confirmation, got %s", s.State)
	}
	if len(svc.calls) != 1 {
		t.Fatalf("expected one subscribe call, got %d", len(svc.calls))
	}
	call := svc.calls[0]
	if call.email != "a@b.com" || call.age != 25 || call.source != newsletter.SourceChat {
		t.Fatalf("unexpected subscribe call: %+v", call)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one outcome message, got %d", len(msgs))
	}
}

func TestDuplicateOutcomeMessage(t *testing.T) {
	svc := &stubService{err: newsletter.ErrAlreadySubscribed}
	c := newTestController(svc)
	ctx := context.Background()

	s, _ := c.Open(ctx)
	c.HandleMessage(ctx, s.ID, "hi")
	c.HandleMessage(ctx, s.ID, "30")
	s, msgs, err := c.HandleMessage(ctx, s.ID, "dupe@b.com")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if s.State != wizard.StateConfirmation {
		t.Fatalf("expected confirmation, got %s", s.State)
	}
	if len(msgs) != 1 || msgs[0].Role != wizard.RoleAssistant {
		t.Fatalf("expected one assistant outcome message, got %+v", msgs)
	}
}

func TestStoreFailureOutcomeMessage(t *testing.T) {
	svc := &stubService{err: errors.New("connection refused")}
	c := newTestController(svc)
	ctx := context.Background()

	s, _ := c.Open(ctx)
	c.HandleMessage(ctx, s.ID, "hi")
	c.HandleMessage(ctx, s.ID, "30")
	_, msgs, err := c.HandleMessage(ctx, s.ID, "a@b.com")
	if err != nil {
		t.Fatalf("infra failure must surface in-band, not as an error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one outcome message, got %d", len(msgs))
	}
}

func TestConfirmationRejectsInput(t *testing.T) {
	svc := &stubService{}
	c := newTestController(svc)
	ctx := context.Background()

	s, _ := c.Open(ctx)
	c.HandleMessage(ctx, s.ID, "hi")
	c.HandleMessage(ctx, s.ID, "25")
	c.HandleMessage(ctx, s.ID, "a@b.com")

	if _, _, err := c.HandleMessage(ctx, s.ID, "hello again"); err != wizard.ErrSessionComplete {
		t.Fatalf("expected ErrSessionComplete, got %v", err)
	}
}

func TestCloseResets(t *testing.T) {
	c := newTestController(&stubService{})
	ctx := context.Background()

	s, _ := c.Open(ctx)
	if err := c.Close(ctx, s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := c.Get(ctx, s.ID); err != wizard.ErrSessionNotFound {
		t.Fatalf("expected session gone, got %v", err)
	}
	// Closing twice is fine.
	if err := c.Close(ctx, s.ID); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestUnknownSession(t *testing.T) {
	c := newTestController(&stubService{})
	if _, _, err := c.HandleMessage(context.Background(), "nope", "hi"); err != wizard.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
