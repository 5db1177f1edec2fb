package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/rest"
)

type UserDTO struct {
	Id          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoUrl    string `json:"photoUrl,omitempty"`
	Timezone    string `json:"timezone"`
}

type FriendsDTO struct {
	Friends  []UserDTO `json:"friends"`
	Degraded bool      `json:"degraded"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{userService: userService}
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, userToDTO(currentUser))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Updating user")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if len(dto.DisplayName) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Display name is required", "")
		return
	}

	updated, err := h.userService.UpdateCurrentUser(r.Context(), dtoToUser(dto))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, userToDTO(updated))
}

// ListFriends returns all other users for the invitation picker. A degraded
// lookup still answers 200 with an empty list so the caller can proceed.
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing friends")

	friends, degraded, err := h.userService.ListFriends(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]UserDTO, 0, len(friends))
	for _, f := range friends {
		dtos = append(dtos, userToDTO(f))
	}
	rest.WriteJSON(w, http.StatusOK, FriendsDTO{Friends: dtos, Degraded: degraded})
}

func (h *Handler) IsUsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if len(username) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Username is required", "")
		return
	}

	isAvailable, err := h.userService.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]bool{"available": isAvailable})
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	log.Trace("Uploading user photo")

	// Hard limit of 3MB on the request body
	r.Body = http.MaxBytesReader(w, r.Body, 3<<20)
	if err := r.ParseMultipartForm(3 << 20); err != nil {
		log.Debugf("File is too large: %v", err)
		rest.WriteError(w, http.StatusBadRequest, "Image is too large",
			"Maximum size is 3MB. Please try again with a smaller image.")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	log.Debugf("Uploaded file: %s (%d bytes)", header.Filename, header.Size)

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.userService.StoreUserPhoto(r.Context(), fileBytes); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting user photo")

	var photo []byte
	var err error
	if userId := mux.Vars(r)["userId"]; userId != "" {
		photo, err = h.userService.GetUserPhoto(r.Context(), userId)
	} else {
		photo, err = h.userService.GetCurrentUserPhoto(r.Context())
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if photo == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(photo); err != nil {
		log.Errorf("failed to write photo response: %v", err)
	}
}

func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	log.Trace("Deleting user photo")

	if err := h.userService.DeleteUserPhoto(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userToDTO(u User) UserDTO {
	return UserDTO{
		Id:          u.Id,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		PhotoUrl:    u.PhotoUrl,
		Timezone:    u.Timezone,
	}
}

func dtoToUser(dto UserDTO) User {
	return User{
		Id:          dto.Id,
		Username:    dto.Username,
		DisplayName: dto.DisplayName,
		Email:       dto.Email,
		PhotoUrl:    dto.PhotoUrl,
		Timezone:    dto.Timezone,
	}
}
