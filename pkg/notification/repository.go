package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListForUser(ctx context.Context, userId string, onlyUnread bool, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, userId, id string) error
	MarkAllRead(ctx context.Context, userId string) error
	FindDueReminders(ctx context.Context, now time.Time) ([]Notification, error)
	MarkSent(ctx context.Context, id string, now time.Time) error
	DeleteForEvent(ctx context.Context, eventId string, types ...Type) error
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const notificationColumns = "id, user_id, title, message, type, related_entity_type, related_entity_id, is_read, scheduled_at, sent_at, created_at"

func scanNotification(row interface{ Scan(...any) error }) (Notification, error) {
	var n Notification
	var nType string
	var relatedType, relatedId sql.NullString
	var scheduledAt, sentAt sql.NullString
	var createdAt string

	err := row.Scan(&n.Id, &n.UserId, &n.Title, &n.Message, &nType,
		&relatedType, &relatedId, &n.IsRead, &scheduledAt, &sentAt, &createdAt)
	if err != nil {
		return Notification{}, err
	}

	n.Type = Type(nType)
	n.RelatedEntityType = relatedType.String
	n.RelatedEntityId = relatedId.String
	if n.ScheduledAt, err = parseNullTime(scheduledAt); err != nil {
		return Notification{}, fmt.Errorf("could not parse scheduled_at: %w", err)
	}
	if n.SentAt, err = parseNullTime(sentAt); err != nil {
		return Notification{}, fmt.Errorf("could not parse sent_at: %w", err)
	}
	if n.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Notification{}, fmt.Errorf("could not parse created_at: %w", err)
	}
	return n, nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func (r *RepoImpl) Create(ctx context.Context, n Notification) (Notification, error) {
	n.Id = uuid.NewString()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Type == "" {
		n.Type = TypeGeneral
	}

	query := `INSERT INTO notifications (id, user_id, title, message, type, related_entity_type, related_entity_id, is_read, scheduled_at, sent_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		n.Id,
		n.UserId,
		n.Title,
		n.Message,
		string(n.Type),
		nullable(n.RelatedEntityType),
		nullable(n.RelatedEntityId),
		n.IsRead,
		formatNullTime(n.ScheduledAt),
		formatNullTime(n.SentAt),
		n.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		log.Errorf("could not store notification: %v", err)
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}
	return n, nil
}

// ListForUser returns the user's visible notifications, newest first.
// Unsent reminders (scheduled but not yet due) are excluded.
func (r *RepoImpl) ListForUser(ctx context.Context, userId string, onlyUnread bool, limit, offset int) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
				WHERE user_id = $1 AND (scheduled_at IS NULL OR sent_at IS NOT NULL)`
	if onlyUnread {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userId, limit, offset)
	if err != nil {
		log.Errorf("could not list notifications: %v", err)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *RepoImpl) MarkRead(ctx context.Context, userId, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *RepoImpl) MarkAllRead(ctx context.Context, userId string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userId)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// FindDueReminders returns scheduled notifications whose time has come and
// that were not delivered yet.
func (r *RepoImpl) FindDueReminders(ctx context.Context, now time.Time) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
				WHERE scheduled_at IS NOT NULL AND sent_at IS NULL AND scheduled_at <= $1
				ORDER BY scheduled_at`
	rows, err := r.db.QueryContext(ctx, query, now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to find due reminders: %w", err)
	}
	defer rows.Close()

	var due []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read reminder: %w", err)
		}
		due = append(due, n)
	}
	return due, rows.Err()
}

func (r *RepoImpl) MarkSent(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET sent_at = $1 WHERE id = $2`, now.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// DeleteForEvent removes notifications tied to an event, optionally narrowed
// to specific types. Used when the event is deleted or its reminder changes.
func (r *RepoImpl) DeleteForEvent(ctx context.Context, eventId string, types ...Type) error {
	query := `DELETE FROM notifications WHERE related_entity_type = $1 AND related_entity_id = $2`
	args := []any{relatedEntityEvent, eventId}
	if len(types) > 0 {
		query += ` AND type IN (`
		for i, t := range types {
			if i > 0 {
				query += ", "
			}
			query += fmt.Sprintf("$%d", len(args)+1)
			args = append(args, string(t))
		}
		query += `)`
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
