package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/dayplan-app/dayplan/internal/config"
	"github.com/dayplan-app/dayplan/pkg/user"
)

// stateTTL bounds how long an OAuth round-trip may take.
const stateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("invalid oauth state")

// GoogleAuth runs the sign-in-with-Google flow. The state parameter is a
// short-lived signed token, so no server-side nonce storage is needed.
type GoogleAuth struct {
	users       user.Repo
	sessions    *ServiceImpl
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(users user.Repo, sessions *ServiceImpl, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/auth/google/callback",
		Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
	}
	return &GoogleAuth{users: users, sessions: sessions, oauthConfig: oauthConfig}
}

// LoginURL builds the Google consent URL. finalUrl is where the callback
// sends the browser afterwards.
func (g *GoogleAuth) LoginURL(finalUrl string) (string, error) {
	state, err := g.signState(finalUrl)
	if err != nil {
		return "", err
	}
	return g.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// HandleCallback exchanges the authorization code, resolves the Google
// profile to a local account (creating one on first sign-in) and answers a
// session token plus the final redirect target.
func (g *GoogleAuth) HandleCallback(ctx context.Context, code, state string) (string, string, error) {
	finalUrl, err := g.verifyState(state)
	if err != nil {
		return "", "", err
	}

	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", finalUrl, fmt.Errorf("unable to exchange code for token: %w", err)
	}

	info, err := g.fetchUserinfo(ctx, token)
	if err != nil {
		return "", finalUrl, err
	}

	u, err := g.findOrCreateUser(ctx, info)
	if err != nil {
		return "", finalUrl, err
	}

	sessionToken, err := g.sessions.issueToken(u.Id)
	if err != nil {
		return "", finalUrl, err
	}
	return sessionToken, finalUrl, nil
}

func (g *GoogleAuth) fetchUserinfo(ctx context.Context, token *oauth2.Token) (*googleoauth.Userinfo, error) {
	service, err := googleoauth.NewService(ctx, option.WithTokenSource(g.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Google oauth service: %w", err)
	}
	info, err := service.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google user info: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("google account has no email address")
	}
	return info, nil
}

func (g *GoogleAuth) findOrCreateUser(ctx context.Context, info *googleoauth.Userinfo) (user.User, error) {
	email := strings.ToLower(info.Email)

	existing, err := g.users.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	displayName := info.Name
	if displayName == "" {
		displayName = email
	}
	created, err := g.users.CreateUser(ctx, user.User{
		Username:    email,
		DisplayName: displayName,
		Email:       email,
		PhotoUrl:    info.Picture,
	}, "")
	if err != nil {
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	log.Infof("created account %s from Google sign-in", created.Id)
	return created, nil
}

type stateClaims struct {
	FinalUrl string `json:"finalUrl"`
	jwt.RegisteredClaims
}

func (g *GoogleAuth) signState(finalUrl string) (string, error) {
	now := time.Now()
	claims := stateClaims{
		FinalUrl: finalUrl,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.sessions.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}
	return state, nil
}

func (g *GoogleAuth) verifyState(state string) (string, error) {
	parsed, err := jwt.ParseWithClaims(state, &stateClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.sessions.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidState
	}
	claims, ok := parsed.Claims.(*stateClaims)
	if !ok {
		return "", ErrInvalidState
	}
	return claims.FinalUrl, nil
}
