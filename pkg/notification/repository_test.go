package notification

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplan-app/dayplan/internal/test_utils"
)

func setupNotificationRepo(t *testing.T) (*RepoImpl, *sql.DB) {
	t.Helper()
	db := test_utils.SetupTestDB(t)
	insertTestUser(t, db, "alice")
	insertTestUser(t, db, "bob")
	return NewRepository(db), db
}

func insertTestUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (id, username, display_name, email, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, "user-"+id, "User "+id, id+"@example.com", time.Now().UTC().Format(time.RFC3339),
	)
	require.NoError(t, err)
}

func TestCreateAndList(t *testing.T) {
	repo, _ := setupNotificationRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, Notification{
		UserId:            "alice",
		Title:             "New invitation",
		Message:           "Bob invited you",
		Type:              TypeInvitation,
		RelatedEntityType: relatedEntityEvent,
		RelatedEntityId:   "event-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)

	listed, err := repo.ListForUser(ctx, "alice", false, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "New invitation", listed[0].Title)
	assert.Equal(t, TypeInvitation, listed[0].Type)
	assert.Equal(t, "event-1", listed[0].RelatedEntityId)
	assert.False(t, listed[0].IsRead)

	foreign, err := repo.ListForUser(ctx, "bob", false, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, foreign)
}

func TestReminderRowsCarryEventReminderType(t *testing.T) {
	repo, db := setupNotificationRepo(t)
	ctx := context.Background()
	scheduledAt := time.Now().UTC().Add(time.Hour)

	created, err := repo.Create(ctx, Notification{
		UserId:      "alice",
		Title:       "Upcoming event",
		Type:        TypeReminder,
		ScheduledAt: &scheduledAt,
	})
	require.NoError(t, err)

	var stored string
	err = db.QueryRow(`SELECT type FROM notifications WHERE id = $1`, created.Id).Scan(&stored)
	require.NoError(t, err)
	assert.Equal(t, "event_reminder", stored)
}

func TestUnsentRemindersAreHidden(t *testing.T) {
	repo, _ := setupNotificationRepo(t)
	ctx := context.Background()
	scheduledAt := time.Now().UTC().Add(time.Hour)

	created, err := repo.Create(ctx, Notification{
		UserId:      "alice",
		Title:       "Upcoming event",
		Type:        TypeReminder,
		ScheduledAt: &scheduledAt,
	})
	require.NoError(t, err)

	listed, err := repo.ListForUser(ctx, "alice", false, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed, "a scheduled reminder is invisible until delivered")

	require.NoError(t, repo.MarkSent(ctx, created.Id, time.Now().UTC()))

	listed, err = repo.ListForUser(ctx, "alice", false, 10, 0)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestMarkReadIsScopedToOwner(t *testing.T) {
	repo, _ := setupNotificationRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, Notification{UserId: "alice", Title: "Hello"})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.MarkRead(ctx, "bob", created.Id), ErrNotificationNotFound)
	require.NoError(t, repo.MarkRead(ctx, "alice", created.Id))

	listed, err := repo.ListForUser(ctx, "alice", true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed, "unread filter excludes read notifications")
}

func TestMarkAllRead(t *testing.T) {
	repo, _ := setupNotificationRepo(t)
	ctx := context.Background()

	for range 3 {
		_, err := repo.Create(ctx, Notification{UserId: "alice", Title: "Hello"})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, Notification{UserId: "bob", Title: "Hello"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkAllRead(ctx, "alice"))

	unread, err := repo.ListForUser(ctx, "alice", true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	bobUnread, err := repo.ListForUser(ctx, "bob", true, 10, 0)
	require.NoError(t, err)
	assert.Len(t, bobUnread, 1, "other users' notifications stay unread")
}

func TestFindDueReminders(t *testing.T) {
	repo, _ := setupNotificationRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	due, err := repo.Create(ctx, Notification{UserId: "alice", Title: "Due", Type: TypeReminder, ScheduledAt: &past})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Notification{UserId: "alice", Title: "Later", Type: TypeReminder, ScheduledAt: &future})
	require.NoError(t, err)

	found, err := repo.FindDueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.Id, found[0].Id)

	require.NoError(t, repo.MarkSent(ctx, due.Id, now))

	found, err = repo.FindDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, found, "sent reminders are never picked up again")
}

func TestDeleteForEvent(t *testing.T) {
	repo, _ := setupNotificationRepo(t)
	ctx := context.Background()
	scheduledAt := time.Now().UTC().Add(time.Hour)

	_, err := repo.Create(ctx, Notification{
		UserId: "alice", Title: "Invitation", Type: TypeInvitation,
		RelatedEntityType: relatedEntityEvent, RelatedEntityId: "event-1",
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Notification{
		UserId: "alice", Title: "Reminder", Type: TypeReminder,
		RelatedEntityType: relatedEntityEvent, RelatedEntityId: "event-1",
		ScheduledAt: &scheduledAt,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteForEvent(ctx, "event-1", TypeReminder))

	listed, err := repo.ListForUser(ctx, "alice", false, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, TypeInvitation, listed[0].Type)

	require.NoError(t, repo.DeleteForEvent(ctx, "event-1"))

	listed, err = repo.ListForUser(ctx, "alice", false, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
