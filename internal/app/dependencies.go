package app

import (
	"database/sql"

	"github.com/dayplan-app/dayplan/internal/config"
	"github.com/dayplan-app/dayplan/internal/event_bus"
	"github.com/dayplan-app/dayplan/internal/utils"
	"github.com/dayplan-app/dayplan/pkg/auth"
	"github.com/dayplan-app/dayplan/pkg/calendar"
	"github.com/dayplan-app/dayplan/pkg/event"
	"github.com/dayplan-app/dayplan/pkg/invitation"
	"github.com/dayplan-app/dayplan/pkg/notification"
	"github.com/dayplan-app/dayplan/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus   *event_bus.EventBus
	Clock utils.Clock

	UserRepo    user.Repo
	UserService user.Service
	UserHandler *user.Handler

	AuthService auth.Service
	GoogleAuth  *auth.GoogleAuth
	AuthHandler *auth.Handler

	InvitationSender invitation.Sender

	EventRepo    event.Repository
	EventService event.Service
	EventHandler *event.Handler

	CalendarHandler *calendar.Handler

	NotificationRepo    notification.Repo
	NotificationService *notification.ServiceImpl
	NotificationHandler *notification.Handler
	ReminderScheduler   *notification.Scheduler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserRepo = user.NewUserRepo(db)
	deps.UserService = user.NewUserService(deps.UserRepo)
	deps.UserHandler = user.NewHandler(deps.UserService)

	authService := auth.NewService(deps.UserRepo, cfg.Session)
	deps.AuthService = authService
	deps.GoogleAuth = auth.NewGoogleAuth(deps.UserRepo, authService, cfg)
	deps.AuthHandler = auth.NewHandler(deps.AuthService, deps.GoogleAuth)

	deps.InvitationSender = invitation.NewHTTPSender(cfg.Invitations.SenderURL)

	deps.EventRepo = event.NewRepository(db)
	deps.EventService = event.NewService(deps.EventRepo, deps.InvitationSender, deps.UserService, deps.Bus)
	deps.EventHandler = event.NewHandler(deps.EventService)

	deps.CalendarHandler = calendar.NewHandler(deps.EventService)

	deps.NotificationRepo = notification.NewRepository(db)
	deps.NotificationService = notification.NewService(deps.NotificationRepo)
	deps.NotificationService.SubscribeToEvents(deps.Bus)
	deps.NotificationHandler = notification.NewHandler(deps.NotificationService)
	deps.ReminderScheduler = notification.NewScheduler(deps.NotificationRepo, deps.Clock)

	return deps
}
