package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/rest"
)

type Handler struct {
	auth   Service
	google *GoogleAuth
}

func NewHandler(auth Service, google *GoogleAuth) *Handler {
	return &Handler{auth: auth, google: google}
}

type SignupDTO struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Timezone    string `json:"timezone"`
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionDTO struct {
	Token       string `json:"token"`
	UserId      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	u, token, err := h.auth.Signup(r.Context(), Signup{
		Username:    dto.Username,
		DisplayName: dto.DisplayName,
		Email:       dto.Email,
		Password:    dto.Password,
		Timezone:    dto.Timezone,
	})
	switch {
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		rest.WriteError(w, http.StatusConflict, err.Error(), "")
		return
	case err != nil:
		rest.WriteError(w, http.StatusBadRequest, "Could not sign up", err.Error())
		return
	}

	rest.WriteJSON(w, http.StatusCreated, SessionDTO{Token: token, UserId: u.Id, DisplayName: u.DisplayName})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	u, token, err := h.auth.Login(r.Context(), dto.Email, dto.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		rest.WriteError(w, http.StatusUnauthorized, "Invalid email or password", "")
		return
	} else if err != nil {
		log.Errorf("login failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not log in", "")
		return
	}

	rest.WriteJSON(w, http.StatusOK, SessionDTO{Token: token, UserId: u.Id, DisplayName: u.DisplayName})
}

// Logout is a no-op on the server: sessions are stateless tokens the client
// discards. The endpoint exists so clients have a uniform auth surface.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	finalUrl := r.URL.Query().Get("finalUrl")

	redirectUrl, err := h.google.LoginURL(finalUrl)
	if err != nil {
		log.Errorf("failed to build Google auth URL: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: redirectUrl})
}

func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	state := r.FormValue("state")

	token, finalUrl, err := h.google.HandleCallback(r.Context(), code, state)
	if errors.Is(err, ErrInvalidState) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid oauth state", "")
		return
	}
	if finalUrl == "" {
		finalUrl = "/"
	}
	if err != nil {
		log.Errorf("Google sign-in failed: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	http.Redirect(w, r, finalUrl+"?token="+url.QueryEscape(token), http.StatusFound)
}
