package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalweekly/newsletter/internal/domain"
	"github.com/signalweekly/newsletter/internal/service/newsletter"
)

func subscriberColumns() []string {
	return []string{"id", "email", "email_hash", "age", "source", "status", "created_at", "updated_at"}
}

func TestUpsertInsertOrUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriberRepo(db)

	mock.ExpectExec("INSERT INTO subscribers").
		WithArgs(sqlmock.AnyArg(), "a@b.com", HashEmail("a@b.com"), 25, "chat", "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	sub := &domain.Subscriber{Email: "A@B.com ", Age: 25, Source: "chat", Status: domain.SubscriberActive}
	require.NoError(t, repo.Upsert(context.Background(), sub))
	assert.Equal(t, "a@b.com", sub.Email)
	assert.NotEmpty(t, sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRequiresEmail(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriberRepo(db)
	err = repo.Upsert(context.Background(), &domain.Subscriber{Age: 25})
	assert.Error(t, err)
}

func TestGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriberRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM subscribers").
		WithArgs("ghost@b.com").
		WillReturnRows(sqlmock.NewRows(subscriberColumns()))

	_, err = repo.GetByEmail(context.Background(), "ghost@b.com")
	assert.ErrorIs(t, err, newsletter.ErrNotFound)
}

func TestGetByEmailNormalizes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriberRepo(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM subscribers").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(subscriberColumns()).
			AddRow("id-1", "a@b.com", HashEmail("a@b.com"), 25, "hero", "active", now, now))

	sub, err := repo.GetByEmail(context.Background(), "  A@B.com")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", sub.Email)
	assert.Equal(t, domain.SubscriberActive, sub.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDefaultsAndFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriberRepo(db)
	now := time.Now()

	// No status filter: limit defaults to 50.
	mock.ExpectQuery("SELECT (.+) FROM subscribers ORDER BY created_at DESC").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(subscriberColumns()).
			AddRow("id-1", "a@b.com", "h1", 25, "chat", "active", now, now).
			AddRow("id-2", "c@d.com", "h2", 30, "hero", "unsubscribed", now.Add(-time.Hour), now))

	subs, err := repo.List(context.Background(), newsletter.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	// Status filter becomes the first bind argument.
	mock.ExpectQuery("SELECT (.+) FROM subscribers WHERE status =").
		WithArgs("active", 10, 20).
		WillReturnRows(sqlmock.NewRows(subscriberColumns()).
			AddRow("id-1", "a@b.com", "h1", 25, "chat", "active", now, now))

	subs, err = repo.List(context.Background(), newsletter.ListFilter{Status: "active", Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsGroupsByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriberRepo(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM subscribers GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("active", 7).
			AddRow("unsubscribed", 2).
			AddRow("bounced", 1))

	st, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberStats{Total: 10, Active: 7, Unsubscribed: 2, Bounced: 1}, st)
	assert.Equal(t, st.Total, st.Active+st.Unsubscribed+st.Bounced)
}

func TestDeleteIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriberRepo(db)

	// Zero rows affected still succeeds.
	mock.ExpectExec("DELETE FROM subscribers WHERE email =").
		WithArgs("ghost@b.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "ghost@b.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHashEmailCanonical(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"uppercase matches lowercase", "TEST@EXAMPLE.COM"},
		{"surrounding spaces trimmed", "  test@example.com  "},
	}
	want := HashEmail("test@example.com")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashEmail(tt.email); got != want {
				t.Errorf("HashEmail(%q) = %q, want %q", tt.email, got, want)
			}
		})
	}
}
