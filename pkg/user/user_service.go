package user

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

const storagePath = "storage/user_photos"

// friendsTimeout caps how long the friends listing may take. A slow or failing
// lookup must not block event creation, so callers get an empty, degraded
// result instead of an error.
const friendsTimeout = 10 * time.Second

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateCurrentUser(ctx context.Context, user User) (User, error)
	ListFriends(ctx context.Context) ([]User, bool, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	ResolveInvitees(ctx context.Context, emails []string) (map[string]string, error)
	StoreUserPhoto(ctx context.Context, photo []byte) error
	GetUserPhoto(ctx context.Context, id string) ([]byte, error)
	GetCurrentUserPhoto(ctx context.Context) ([]byte, error)
	DeleteUserPhoto(ctx context.Context) error
}

type ServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetUser(ctx, userId)
}

func (s *ServiceImpl) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *ServiceImpl) UpdateCurrentUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.UpdateUser(ctx, userId, user)
}

// ListFriends returns every other registered user, for the invitation picker.
// The second return value reports a degraded result: when the lookup fails or
// exceeds friendsTimeout the caller gets an empty list and may proceed without
// friends rather than failing the event-creation flow.
func (s *ServiceImpl) ListFriends(ctx context.Context) ([]User, bool, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get current user: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, friendsTimeout)
	defer cancel()

	friends, err := s.repo.ListOthers(ctx, userId)
	if err != nil {
		log.Warnf("friends lookup degraded: %v", err)
		return []User{}, true, nil
	}
	return friends, false, nil
}

func (s *ServiceImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return s.repo.IsUsernameAvailable(ctx, username)
}

func (s *ServiceImpl) ResolveInvitees(ctx context.Context, emails []string) (map[string]string, error) {
	return s.repo.FindIdsByEmails(ctx, emails)
}

func (s *ServiceImpl) StoreUserPhoto(ctx context.Context, photo []byte) error {
	userId, err := CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return err
	}
	return os.WriteFile(photoPath(userId), photo, 0644)
}

func (s *ServiceImpl) GetUserPhoto(_ context.Context, id string) ([]byte, error) {
	expectedFile := photoPath(id)
	if _, err := os.Stat(expectedFile); os.IsNotExist(err) {
		return nil, nil
	}
	return os.ReadFile(expectedFile)
}

func (s *ServiceImpl) GetCurrentUserPhoto(ctx context.Context) ([]byte, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.GetUserPhoto(ctx, userId)
}

func (s *ServiceImpl) DeleteUserPhoto(ctx context.Context) error {
	userId, err := CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	expectedFile := photoPath(userId)
	if _, err := os.Stat(expectedFile); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(expectedFile)
}

func photoPath(userId string) string {
	return filepath.Join(storagePath, userId+".jpg")
}
