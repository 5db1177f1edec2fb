package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Auth
	r.HandleFunc("/api/auth/signup", deps.AuthHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", deps.AuthHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", deps.AuthHandler.Logout).Methods("POST")
	r.HandleFunc("/api/auth/google/login", deps.AuthHandler.GoogleLogin).Methods("GET")
	r.HandleFunc("/api/auth/google/callback", deps.AuthHandler.GoogleCallback).Methods("GET")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current/photo", deps.UserHandler.UploadPhoto).Methods("PUT")
	r.HandleFunc("/api/user/current/photo", deps.UserHandler.GetPhoto).Methods("GET")
	r.HandleFunc("/api/user/current/photo", deps.UserHandler.DeletePhoto).Methods("DELETE")
	r.HandleFunc("/api/user/friends", deps.UserHandler.ListFriends).Methods("GET")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user/{userId}/photo", deps.UserHandler.GetPhoto).Methods("GET")

	// Events
	r.HandleFunc("/api/event", deps.EventHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/event/{eventId}/participation", deps.EventHandler.RespondToInvitation).Methods("PATCH")

	// Calendar views
	r.HandleFunc("/api/calendar/grid", deps.CalendarHandler.GetGrid).Queries("month", "{month}").Methods("GET")
	r.HandleFunc("/api/calendar/day", deps.CalendarHandler.GetDay).Queries("date", "{date}").Methods("GET")
	r.HandleFunc("/api/calendar/export", deps.CalendarHandler.Export).Queries("from", "{from}", "to", "{to}").Methods("GET")

	// Notifications
	r.HandleFunc("/api/notification", deps.NotificationHandler.List).Methods("GET")
	r.HandleFunc("/api/notification/read-all", deps.NotificationHandler.MarkAllRead).Methods("PATCH")
	r.HandleFunc("/api/notification/{notificationId}/read", deps.NotificationHandler.MarkRead).Methods("PATCH")
}
