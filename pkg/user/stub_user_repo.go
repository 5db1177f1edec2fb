package user

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RepoStub is an in-memory Repo for tests.
type RepoStub struct {
	mu     sync.RWMutex
	users  map[string]User
	hashes map[string]string // user id -> password hash
	// ListErr forces ListOthers to fail, for degraded-path tests.
	ListErr error
}

func NewRepoStub() *RepoStub {
	return &RepoStub{
		users:  make(map[string]User),
		hashes: make(map[string]string),
	}
}

func (r *RepoStub) CreateUser(_ context.Context, user User, passwordHash string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	r.users[user.Id] = user
	r.hashes[user.Id] = passwordHash
	return user, nil
}

func (r *RepoStub) GetUser(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *RepoStub) GetUserByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *RepoStub) GetCredentials(ctx context.Context, email string) (User, string, error) {
	u, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return u, r.hashes[u.Id], nil
}

func (r *RepoStub) UpdateUser(_ context.Context, id string, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	existing.DisplayName = user.DisplayName
	existing.PhotoUrl = user.PhotoUrl
	existing.Timezone = user.Timezone
	r.users[id] = existing
	return existing, nil
}

func (r *RepoStub) ListOthers(_ context.Context, excludeId string) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.ListErr != nil {
		return nil, r.ListErr
	}
	result := make([]User, 0, len(r.users))
	for id, u := range r.users {
		if id != excludeId {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *RepoStub) IsUsernameAvailable(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return false, nil
		}
	}
	return true, nil
}

func (r *RepoStub) FindIdsByEmails(_ context.Context, emails []string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]string, len(emails))
	for _, email := range emails {
		for _, u := range r.users {
			if u.Email == email {
				result[email] = u.Id
			}
		}
	}
	return result, nil
}
