package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/signalweekly/newsletter/internal/domain"
)

type stubSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (s *stubSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

func newTestMailer(ses *stubSES) *Mailer {
	return &Mailer{
		client:    ses,
		templates: NewTemplateService(),
		fromName:  "Signal Weekly",
		fromEmail: "hello@signalweekly.io",
	}
}

func TestSendWelcome(t *testing.T) {
	ses := &stubSES{}
	m := newTestMailer(ses)

	sub := &domain.Subscriber{Email: "a@b.com", Age: 25, Source: "chat", Status: domain.SubscriberActive}
	if err := m.SendWelcome(context.Background(), sub); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(ses.inputs) != 1 {
		t.Fatalf("expected one SES call, got %d", len(ses.inputs))
	}
	in := ses.inputs[0]
	if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "a@b.com" {
		t.Fatalf("unexpected destination: %v", got)
	}
	if got := *in.FromEmailAddress; got != "Signal Weekly <hello@signalweekly.io>" {
		t.Fatalf("unexpected from: %q", got)
	}
	if html := *in.Content.Simple.Body.Html.Data; !strings.Contains(html, "a@b.com") {
		t.Fatalf("rendered body missing subscriber email: %q", html)
	}
}

func TestSendWelcomeSESFailure(t *testing.T) {
	ses := &stubSES{err: errors.New("throttled")}
	m := newTestMailer(ses)

	err := m.SendWelcome(context.Background(), &domain.Subscriber{Email: "a@b.com"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestTemplateRenderCaches(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render("Hello {{ email }}", map[string]interface{}{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello a@b.com" {
		t.Fatalf("unexpected output: %q", out)
	}

	// Second render hits the cache; output must be identical.
	out2, err := ts.Render("Hello {{ email }}", map[string]interface{}{"email": "a@b.com"})
	if err != nil || out2 != out {
		t.Fatalf("cached render diverged: %q vs %q (%v)", out2, out, err)
	}
}

func TestTemplateRenderParseError(t *testing.T) {
	ts := NewTemplateService()
	if _, err := ts.Render("{% broken", nil); err == nil {
		t.Fatal("expected parse error")
	}
}
