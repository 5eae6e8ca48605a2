package models

import "time"

// Account represents the credential record behind a login.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserProfile is the social-facing record for an account. It is created
// lazily on first login and only ever mutated by the notification toggle.
type UserProfile struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	NotificationsEnabled bool      `json:"pushNotificationsEnabled"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Friendship represents the invitation workflow between two users. The
// requester is always RequesterID; the relationship itself is directionless.
type Friendship struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requesterId"`
	RecipientID string     `json:"recipientId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipDeclined = "declined"
)

// Terminal reports whether the friendship reached a state with no further
// transitions.
func (f Friendship) Terminal() bool {
	return f.Status == FriendshipAccepted || f.Status == FriendshipDeclined
}

// Counterparty returns the other side of the friendship relative to userID.
func (f Friendship) Counterparty(userID string) string {
	if f.RequesterID == userID {
		return f.RecipientID
	}
	return f.RequesterID
}

// Notification is a fan-out record addressed to a single recipient. Append
// only, except for the read flag.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Type        string    `json:"type"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	NotificationTypeFriend         = "friend_notification"
	NotificationTypeFriendRequest  = "friend_request"
	NotificationTypeFriendAccepted = "friend_accepted"
)

// DrinkPost records a shared drink. Immutable after creation.
type DrinkPost struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	DrinkName  string    `json:"drinkName"`
	DrinkEmoji string    `json:"drinkEmoji"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
