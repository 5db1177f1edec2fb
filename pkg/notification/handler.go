package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/rest"
)

type Handler struct {
	notifications Service
}

func NewHandler(notifications Service) *Handler {
	return &Handler{notifications: notifications}
}

type NotificationDTO struct {
	Id              string `json:"id"`
	Title           string `json:"title"`
	Message         string `json:"message"`
	Type            string `json:"type"`
	RelatedEntityId string `json:"relatedEntityId,omitempty"`
	IsRead          bool   `json:"isRead"`
	CreatedAt       string `json:"createdAt"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	onlyUnread := query.Get("unread") == "true"
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	notifications, err := h.notifications.List(r.Context(), onlyUnread, limit, offset)
	if err != nil {
		log.Errorf("could not list notifications: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not list notifications", "")
		return
	}

	dtos := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		dtos = append(dtos, toDTO(n))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["notificationId"]

	err := h.notifications.MarkRead(r.Context(), id)
	if errors.Is(err, ErrNotificationNotFound) {
		rest.WriteError(w, http.StatusNotFound, "Notification not found", "")
		return
	} else if err != nil {
		log.Errorf("could not mark notification read: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not update notification", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkAllRead(r.Context()); err != nil {
		log.Errorf("could not mark notifications read: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not update notifications", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toDTO(n Notification) NotificationDTO {
	return NotificationDTO{
		Id:              n.Id,
		Title:           n.Title,
		Message:         n.Message,
		Type:            string(n.Type),
		RelatedEntityId: n.RelatedEntityId,
		IsRead:          n.IsRead,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339),
	}
}
