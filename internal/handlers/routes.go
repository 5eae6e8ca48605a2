package handlers

import (
	"net/http"

	"github.com/prostly/backend/internal/middleware"
	"github.com/prostly/backend/internal/realtime"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts      AccountStore
	Profiles      ProfileStore
	Sessions      SessionManager
	Friends       FriendService
	Notifications NotificationService
	Drinks        DrinkService
	Hub           *realtime.Hub
	Verifier      middleware.TokenVerifier
	Limiter       RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Everything
// except health and the auth endpoints sits behind bearer authentication.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Accounts: deps.Accounts, Profiles: deps.Profiles, Sessions: deps.Sessions, Limiter: deps.Limiter}
	friendsH := FriendHandler{Friends: deps.Friends, Limiter: deps.Limiter}
	notifsH := NotificationHandler{Notifications: deps.Notifications, Friends: deps.Friends}
	drinksH := DrinkHandler{Drinks: deps.Drinks}
	profileH := ProfileHandler{Profiles: deps.Profiles}
	realtimeH := &RealtimeHandler{Hub: deps.Hub}

	authenticated := middleware.Authenticate(deps.Verifier)
	protect := func(fn http.HandlerFunc) http.Handler {
		return authenticated(fn)
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", authH.Login)
	mux.HandleFunc("/api/v1/auth/signup", authH.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", authH.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", authH.Logout)

	mux.Handle("/api/v1/profile", protect(profileH.Me))
	mux.Handle("/api/v1/profile/notifications", protect(notifsH.Settings))
	mux.Handle("/api/v1/users/search", protect(friendsH.Search))
	mux.Handle("/api/v1/friends", protect(friendsH.List))
	mux.Handle("/api/v1/friends/request", protect(friendsH.Request))
	mux.Handle("/api/v1/friends/respond", protect(friendsH.Respond))
	mux.Handle("/api/v1/friends/requests", protect(friendsH.Pending))
	mux.Handle("/api/v1/notifications", protect(notifsH.List))
	mux.Handle("/api/v1/notifications/read", protect(notifsH.MarkRead))
	mux.Handle("/api/v1/notifications/broadcast", protect(notifsH.Broadcast))
	mux.Handle("/api/v1/drinks", protect(drinksDispatch(drinksH)))
	mux.Handle("/api/v1/drinks/history", protect(drinksH.History))
	mux.Handle("/api/v1/drinks/feed", protect(drinksH.Feed))
	mux.Handle("/api/v1/realtime", protect(realtimeH.Connect))
}

// drinksDispatch splits /api/v1/drinks by method: POST shares a drink, GET
// returns the actor's history.
func drinksDispatch(h DrinkHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.Share(w, r)
		case http.MethodGet:
			h.History(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}
