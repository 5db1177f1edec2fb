package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetCredentials(ctx context.Context, email string) (User, string, error)
	UpdateUser(ctx context.Context, id string, user User) (User, error)
	ListOthers(ctx context.Context, excludeId string) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	FindIdsByEmails(ctx context.Context, emails []string) (map[string]string, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const userColumns = "id, username, display_name, email, photo_url, timezone, created_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.Id, &u.Username, &u.DisplayName, &u.Email, &u.PhotoUrl, &u.Timezone, &createdAt)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return User{}, fmt.Errorf("could not parse created_at: %w", err)
	}
	return u, nil
}

func (r *RepoImpl) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	user.Id = uuid.NewString()
	user.CreatedAt = time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO users (id, username, display_name, email, password_hash, photo_url, timezone, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		user.Id,
		user.Username,
		user.DisplayName,
		user.Email,
		passwordHash,
		user.PhotoUrl,
		user.Timezone,
		user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (r *RepoImpl) GetUser(ctx context.Context, id string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return u, nil
}

func (r *RepoImpl) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user by email: %v", err)
		return User{}, err
	}
	return u, nil
}

func (r *RepoImpl) GetCredentials(ctx context.Context, email string) (User, string, error) {
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1`
	var u User
	var createdAt, hash string
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&u.Id, &u.Username, &u.DisplayName, &u.Email, &u.PhotoUrl, &u.Timezone, &createdAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get credentials: %v", err)
		return User{}, "", err
	}
	u.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return User{}, "", fmt.Errorf("could not parse created_at: %w", err)
	}
	return u, hash, nil
}

func (r *RepoImpl) UpdateUser(ctx context.Context, id string, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, photo_url = $2, timezone = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query,
		user.DisplayName,
		user.PhotoUrl,
		user.Timezone,
		id,
	)
	if err != nil {
		return User{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if rowsAffected == 0 {
		log.Infof("no rows affected updating user %s", id)
		return User{}, ErrUserNotFound
	}
	return r.GetUser(ctx, id)
}

func (r *RepoImpl) ListOthers(ctx context.Context, excludeId string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id != $1 ORDER BY display_name, username`
	rows, err := r.db.QueryContext(ctx, query, excludeId)
	if err != nil {
		log.Errorf("failed to list users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0, 10)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			log.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *RepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	query := `SELECT COUNT(1) FROM users WHERE username = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		log.Errorf("failed to check username availability: %v", err)
		return false, err
	}
	return count == 0, nil
}

// FindIdsByEmails resolves registered users for a set of invitee emails.
// Unknown emails are simply absent from the result.
func (r *RepoImpl) FindIdsByEmails(ctx context.Context, emails []string) (map[string]string, error) {
	result := make(map[string]string, len(emails))
	if len(emails) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(emails))
	args := make([]any, len(emails))
	for i, email := range emails {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = email
	}

	query := `SELECT email, id FROM users WHERE email IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to resolve invitee emails: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email, id string
		if err := rows.Scan(&email, &id); err != nil {
			return nil, err
		}
		result[email] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
