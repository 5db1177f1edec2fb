package event

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplan-app/dayplan/internal/test_utils"
)

func setupEventRepo(t *testing.T) (*RepositoryImpl, *sql.DB) {
	t.Helper()
	db := test_utils.SetupTestDB(t)
	return NewRepository(db), db
}

func insertUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (id, username, display_name, email, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, "user-"+id, "User "+id, id+"@example.com", time.Now().UTC().Format(time.RFC3339),
	)
	require.NoError(t, err)
}

func TestStoreAndGetEvent(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	ctx := context.Background()

	reminder := 30
	stored, err := repo.StoreEvent(ctx, Event{
		Title:           "Dentist",
		Description:     "Bring paperwork",
		StartTime:       time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2025, 7, 14, 11, 0, 0, 0, time.UTC),
		OwnerID:         "owner",
		ReminderMinutes: &reminder,
	})
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)

	fetched, err := repo.GetEvent(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dentist", fetched.Title)
	assert.Equal(t, "Bring paperwork", fetched.Description)
	assert.True(t, fetched.StartTime.Equal(stored.StartTime))
	assert.True(t, fetched.EndTime.Equal(stored.EndTime))
	assert.Equal(t, "owner", fetched.OwnerID)
	require.NotNil(t, fetched.ReminderMinutes)
	assert.Equal(t, 30, *fetched.ReminderMinutes)
}

func TestGetEventNotFound(t *testing.T) {
	repo, _ := setupEventRepo(t)

	_, err := repo.GetEvent(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNullEndTimeNormalizesToStart(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	start := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	_, err := db.Exec(
		`INSERT INTO events (id, title, start_time, end_time, is_all_day, created_by) VALUES ($1, $2, $3, NULL, $4, $5)`,
		"legacy", "No end", start.Format(time.RFC3339), false, "owner",
	)
	require.NoError(t, err)

	fetched, err := repo.GetEvent(context.Background(), "legacy")
	require.NoError(t, err)
	assert.True(t, fetched.EndTime.Equal(fetched.StartTime))
}

func TestGetOwnedEventsOrderedByStart(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	insertUser(t, db, "other")
	ctx := context.Background()
	base := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	_, err := repo.StoreEvent(ctx, Event{Title: "Second", StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour), OwnerID: "owner"})
	require.NoError(t, err)
	_, err = repo.StoreEvent(ctx, Event{Title: "First", StartTime: base, EndTime: base.Add(time.Hour), OwnerID: "owner"})
	require.NoError(t, err)
	_, err = repo.StoreEvent(ctx, Event{Title: "Foreign", StartTime: base, EndTime: base, OwnerID: "other"})
	require.NoError(t, err)

	events, err := repo.GetOwnedEvents(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "First", events[0].Title)
	assert.Equal(t, "Second", events[1].Title)
}

func TestParticipantEventsRequireAcceptance(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	insertUser(t, db, "guest")
	ctx := context.Background()
	start := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	stored, err := repo.StoreEvent(ctx, Event{Title: "Party", StartTime: start, EndTime: start, OwnerID: "owner"})
	require.NoError(t, err)
	require.NoError(t, repo.AddParticipants(ctx, stored.ID, []string{"guest"}))

	events, err := repo.GetParticipantEvents(ctx, "guest")
	require.NoError(t, err)
	assert.Empty(t, events, "pending invitations must not surface")

	require.NoError(t, repo.SetParticipationStatus(ctx, stored.ID, "guest", ParticipationAccepted))

	events, err = repo.GetParticipantEvents(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Party", events[0].Title)

	require.NoError(t, repo.SetParticipationStatus(ctx, stored.ID, "guest", ParticipationDeclined))

	events, err = repo.GetParticipantEvents(ctx, "guest")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateEventScopedToOwner(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	insertUser(t, db, "intruder")
	ctx := context.Background()
	start := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	stored, err := repo.StoreEvent(ctx, Event{Title: "Original", StartTime: start, EndTime: start, OwnerID: "owner"})
	require.NoError(t, err)

	stored.Title = "Renamed"
	updated, err := repo.UpdateEvent(ctx, "owner", stored)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	stored.Title = "Hijacked"
	_, err = repo.UpdateEvent(ctx, "intruder", stored)
	assert.ErrorIs(t, err, ErrNotFound)

	fetched, err := repo.GetEvent(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fetched.Title)
}

func TestUpdateEventClearsReminder(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	ctx := context.Background()
	start := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	reminder := 10
	stored, err := repo.StoreEvent(ctx, Event{Title: "Reminded", StartTime: start, EndTime: start, OwnerID: "owner", ReminderMinutes: &reminder})
	require.NoError(t, err)

	stored.ReminderMinutes = nil
	updated, err := repo.UpdateEvent(ctx, "owner", stored)
	require.NoError(t, err)
	assert.Nil(t, updated.ReminderMinutes)
}

func TestDeleteEventCascadesParticipants(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	insertUser(t, db, "guest")
	ctx := context.Background()
	start := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	stored, err := repo.StoreEvent(ctx, Event{Title: "Ephemeral", StartTime: start, EndTime: start, OwnerID: "owner"})
	require.NoError(t, err)
	require.NoError(t, repo.AddParticipants(ctx, stored.ID, []string{"guest"}))

	require.NoError(t, repo.DeleteEvent(ctx, stored.ID))

	_, err = repo.GetEvent(ctx, stored.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM event_participants WHERE event_id = $1`, stored.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestGetOwner(t *testing.T) {
	repo, db := setupEventRepo(t)
	insertUser(t, db, "owner")
	ctx := context.Background()
	start := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	stored, err := repo.StoreEvent(ctx, Event{Title: "Whose", StartTime: start, EndTime: start, OwnerID: "owner"})
	require.NoError(t, err)

	owner, err := repo.GetOwner(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", owner)

	_, err = repo.GetOwner(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
