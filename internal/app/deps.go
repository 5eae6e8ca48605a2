package app

import (
	"log/slog"
	"time"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/config"
	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/drinks"
	"github.com/prostly/backend/internal/friends"
	"github.com/prostly/backend/internal/handlers"
	"github.com/prostly/backend/internal/middleware"
	"github.com/prostly/backend/internal/notifications"
	"github.com/prostly/backend/internal/push"
	"github.com/prostly/backend/internal/realtime"
	"github.com/prostly/backend/internal/repositories"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The document store publishes every change to the realtime hub.
func buildDependencies(store docstore.Store, hub *realtime.Hub, cfg config.Config, logger *slog.Logger) handlers.Dependencies {
	accounts := repositories.NewDocAccountRepository(store)
	profiles := repositories.NewDocProfileRepository(store)
	friendships := repositories.NewDocFriendshipRepository(store)
	notifs := repositories.NewDocNotificationRepository(store)
	drinkRepo := repositories.NewDocDrinkRepository(store)
	sessions := repositories.NewDocSessionStore(store)

	manager := auth.NewManager([]byte(cfg.JWTSecret), cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL, sessions)

	var pusher push.Sender = push.NoopSender{}
	if sender := push.NewHTTPSender(cfg.PushEndpoint, cfg.PushToken, cfg.PushTimeout); sender != nil {
		pusher = sender
	} else {
		logger.Info("push endpoint not configured, using noop sender")
	}

	friendService := friends.NewService(profiles, friendships, notifs, pusher)
	notificationService := notifications.NewService(notifs, profiles)
	drinkService := drinks.NewService(drinkRepo, profiles, friendService)

	limiter := middleware.NewIPRateLimiter(cfg.AuthRatePerMinute, time.Minute, cfg.AuthRateBurst, 10*time.Minute)

	return handlers.Dependencies{
		Accounts:      accounts,
		Profiles:      profiles,
		Sessions:      manager,
		Friends:       friendService,
		Notifications: notificationService,
		Drinks:        drinkService,
		Hub:           hub,
		Verifier:      manager,
		Limiter:       limiter,
	}
}
