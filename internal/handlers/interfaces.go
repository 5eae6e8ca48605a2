package handlers

import (
	"context"

	"github.com/prostly/backend/internal/drinks"
	"github.com/prostly/backend/internal/friends"
	"github.com/prostly/backend/internal/models"
)

// AccountStore captures the persistence operations required by the auth handlers.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
}

// ProfileStore captures the profile operations the auth handlers need for the
// lazy profile bootstrap.
type ProfileStore interface {
	Create(ctx context.Context, profile models.UserProfile) error
	FindByUser(ctx context.Context, userID string) (models.UserProfile, error)
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// FriendService captures the friendship workflow operations the handlers expose.
type FriendService interface {
	SendRequest(ctx context.Context, actor, targetUserID string) (models.Friendship, error)
	Respond(ctx context.Context, actor, friendshipID, decision string) (models.Friendship, error)
	Friends(ctx context.Context, actor string) ([]models.UserProfile, error)
	PendingIncoming(ctx context.Context, actor string) ([]friends.PendingRequest, error)
	SearchUsers(ctx context.Context, actor, term string) ([]models.UserProfile, error)
	NotifyFriends(ctx context.Context, actor, title, body string) (friends.FanOutResult, error)
}

// NotificationService captures the notification read path.
type NotificationService interface {
	List(ctx context.Context, actor string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, actor, notificationID string) error
	UpdateSettings(ctx context.Context, actor string, enabled bool) (models.UserProfile, error)
}

// DrinkService captures the drink-sharing workflow.
type DrinkService interface {
	Share(ctx context.Context, actor, drinkName, drinkEmoji string) (drinks.ShareResult, error)
	History(ctx context.Context, actor string, limit int) ([]models.DrinkPost, error)
	Feed(ctx context.Context, actor string, limit int) ([]models.DrinkPost, error)
}
