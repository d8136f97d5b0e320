package export

import (
	"strings"
	"testing"
	"time"

	"github.com/signalweekly/newsletter/internal/domain"
)

func TestSubscribersCSV(t *testing.T) {
	created := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	subs := []domain.Subscriber{
		{Email: "a@b.com", Age: 25, Source: "chat", Status: domain.SubscriberActive, CreatedAt: created},
		{Email: "c@d.com", Age: 0, Source: "hero", Status: domain.SubscriberUnsubscribed, CreatedAt: created.Add(time.Hour)},
	}

	got := SubscribersCSV(subs)
	want := `Email,Age,Source,Status,Joined Date
"a@b.com","25","chat","active","2026-08-30T09:15:00.000Z"
"c@d.com","","hero","unsubscribed","2026-08-30T10:15:00.000Z"`
	if got != want {
		t.Fatalf("csv mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestSubscribersCSVEmpty(t *testing.T) {
	got := SubscribersCSV(nil)
	if got != "Email,Age,Source,Status,Joined Date" {
		t.Fatalf("expected header only, got %q", got)
	}
}

func TestSubscribersCSVPreservesOrder(t *testing.T) {
	now := time.Now()
	subs := []domain.Subscriber{
		{Email: "z@z.com", Age: 40, Status: domain.SubscriberActive, CreatedAt: now},
		{Email: "a@a.com", Age: 30, Status: domain.SubscriberActive, CreatedAt: now},
	}
	got := SubscribersCSV(subs)
	if strings.Index(got, "z@z.com") > strings.Index(got, "a@a.com") {
		t.Fatal("rows must stay in the supplied order")
	}
}

func TestSubscribersCSVSanitizesCells(t *testing.T) {
	subs := []domain.Subscriber{
		{Email: `a"b@c.com`, Age: 25, Source: "we,ird", Status: domain.SubscriberActive},
	}
	got := SubscribersCSV(subs)
	if strings.Contains(got, `a"b`) {
		t.Fatalf("quote not stripped: %q", got)
	}
	if strings.Contains(got, `we,ird`) {
		t.Fatalf("comma not replaced: %q", got)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
	if got := Filename(now); got != "signal-weekly-subscribers-2026-08-31.csv" {
		t.Fatalf("unexpected filename: %q", got)
	}
}
