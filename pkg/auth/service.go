package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dayplan-app/dayplan/internal/config"
	"github.com/dayplan-app/dayplan/pkg/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const minPasswordLength = 8

type Signup struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
	Timezone    string
}

type Service interface {
	Signup(ctx context.Context, signup Signup) (user.User, string, error)
	Login(ctx context.Context, email, password string) (user.User, string, error)
	ValidateToken(token string) (string, error)
}

type ServiceImpl struct {
	users  user.Repo
	secret []byte
	ttl    time.Duration
}

func NewService(users user.Repo, cfg config.Session) *ServiceImpl {
	return &ServiceImpl{
		users:  users,
		secret: []byte(cfg.Secret),
		ttl:    time.Duration(cfg.TTLHours) * time.Hour,
	}
}

// Signup registers a new user and logs them in. The password is stored as a
// bcrypt hash, never in clear.
func (s *ServiceImpl) Signup(ctx context.Context, signup Signup) (user.User, string, error) {
	username := strings.TrimSpace(signup.Username)
	email := strings.ToLower(strings.TrimSpace(signup.Email))
	if username == "" || email == "" {
		return user.User{}, "", fmt.Errorf("username and email are required")
	}
	if len(signup.Password) < minPasswordLength {
		return user.User{}, "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	available, err := s.users.IsUsernameAvailable(ctx, username)
	if err != nil {
		return user.User{}, "", fmt.Errorf("failed to check username: %w", err)
	}
	if !available {
		return user.User{}, "", ErrUsernameTaken
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(signup.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := strings.TrimSpace(signup.DisplayName)
	if displayName == "" {
		displayName = username
	}
	created, err := s.users.CreateUser(ctx, user.User{
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		Timezone:    signup.Timezone,
	}, string(hash))
	if err != nil {
		return user.User{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(created.Id)
	if err != nil {
		return user.User{}, "", err
	}
	return created, token, nil
}

// Login verifies the password and answers a fresh session token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, hash, err := s.users.GetCredentials(ctx, email)
	if errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, "", ErrInvalidCredentials
	} else if err != nil {
		return user.User{}, "", fmt.Errorf("failed to load credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return user.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u.Id)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

// ValidateToken checks signature and expiry and answers the user id the token
// was issued for.
func (s *ServiceImpl) ValidateToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *ServiceImpl) issueToken(userId string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userId,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
