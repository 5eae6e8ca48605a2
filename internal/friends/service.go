// Package friends implements the friendship workflow: the request/respond
// state machine over friendship documents, the derived friend and pending
// views, user search, and notification fan-out to the friend set.
package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/models"
	"github.com/prostly/backend/internal/push"
	"github.com/prostly/backend/internal/repositories"
)

var (
	// ErrSelfRequest indicates a user tried to befriend themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")
	// ErrFriendshipExists indicates a pending or accepted friendship already
	// links the pair in either orientation.
	ErrFriendshipExists = errors.New("friendship already exists")
	// ErrNotPending indicates the friendship already reached a terminal state.
	ErrNotPending = errors.New("friend request is not pending")
	// ErrNotRecipient indicates the responder is not the addressed party.
	ErrNotRecipient = errors.New("only the request recipient may respond")
	// ErrInvalidDecision indicates the response is neither accepted nor declined.
	ErrInvalidDecision = errors.New("decision must be accepted or declined")
	// ErrNoRecipients indicates a fan-out found no friends with notifications enabled.
	ErrNoRecipients = errors.New("no friends to notify")
)

// ProfileStore captures the profile lookups the workflow needs.
type ProfileStore interface {
	FindByUser(ctx context.Context, userID string) (models.UserProfile, error)
	FindByUsers(ctx context.Context, userIDs []string) ([]models.UserProfile, error)
	Search(ctx context.Context, term, excludeUserID string, limit int) ([]models.UserProfile, error)
}

// FriendshipStore captures persistence for friendship documents.
type FriendshipStore interface {
	Create(ctx context.Context, friendship models.Friendship) error
	FindByID(ctx context.Context, id string) (models.Friendship, error)
	FindBetween(ctx context.Context, userA, userB string) ([]models.Friendship, error)
	ListAcceptedFor(ctx context.Context, userID string) ([]models.Friendship, error)
	ListPendingFor(ctx context.Context, userID string) ([]models.Friendship, error)
	UpdateStatus(ctx context.Context, id, status string, respondedAt time.Time) error
}

// NotificationStore captures the append side of notification documents.
type NotificationStore interface {
	Create(ctx context.Context, notification models.Notification) error
}

// FanOutResult reports how a notification fan-out went. Partial success is
// the normal case; individual recipient failures are counted, not propagated.
type FanOutResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

// PendingRequest joins a pending friendship with the requester's profile for
// display.
type PendingRequest struct {
	Friendship models.Friendship  `json:"friendship"`
	Sender     models.UserProfile `json:"sender"`
}

// Service coordinates the friendship workflow. All operations take the actor
// explicitly; there is no ambient session state.
type Service struct {
	profiles      ProfileStore
	friendships   FriendshipStore
	notifications NotificationStore
	push          push.Sender

	// NowFunc overrides the time source for tests.
	NowFunc func() time.Time
}

// NewService wires the workflow over its collaborators. The push sender may
// be a noop.
func NewService(profiles ProfileStore, friendships FriendshipStore, notifications NotificationStore, sender push.Sender) *Service {
	if sender == nil {
		sender = push.NoopSender{}
	}
	return &Service{
		profiles:      profiles,
		friendships:   friendships,
		notifications: notifications,
		push:          sender,
	}
}

// SendRequest transitions the pair (actor, target) from none to pending. A
// prior pending or accepted friendship in either orientation is a conflict; a
// declined one is terminal and does not block a fresh request. The existence
// check and the insert are not atomic, so two simultaneous requests can still
// both land; the derived views tolerate the duplicate.
func (s *Service) SendRequest(ctx context.Context, actor, targetUserID string) (models.Friendship, error) {
	if targetUserID == actor {
		return models.Friendship{}, ErrSelfRequest
	}

	requester, err := s.profiles.FindByUser(ctx, actor)
	if err != nil {
		return models.Friendship{}, fmt.Errorf("resolve requester profile: %w", err)
	}
	if _, err := s.profiles.FindByUser(ctx, targetUserID); err != nil {
		return models.Friendship{}, fmt.Errorf("resolve target profile: %w", err)
	}

	existing, err := s.friendships.FindBetween(ctx, actor, targetUserID)
	if err != nil {
		return models.Friendship{}, err
	}
	for _, f := range existing {
		if f.Status == models.FriendshipPending || f.Status == models.FriendshipAccepted {
			return models.Friendship{}, ErrFriendshipExists
		}
	}

	friendship := models.Friendship{
		ID:          uuid.NewString(),
		RequesterID: actor,
		RecipientID: targetUserID,
		Status:      models.FriendshipPending,
		CreatedAt:   s.now(),
	}
	if err := s.friendships.Create(ctx, friendship); err != nil {
		return models.Friendship{}, err
	}

	s.notifyUser(ctx, targetUserID, models.Notification{
		SenderID:   actor,
		SenderName: requester.Username,
		Title:      "Neue Freundschaftsanfrage",
		Body:       fmt.Sprintf("%s möchte mit dir befreundet sein", requester.Username),
		Type:       models.NotificationTypeFriendRequest,
	})

	return friendship, nil
}

// Respond transitions a pending friendship to accepted or declined. Only the
// addressed recipient may respond, and terminal states admit no further
// transitions.
func (s *Service) Respond(ctx context.Context, actor, friendshipID, decision string) (models.Friendship, error) {
	if decision != models.FriendshipAccepted && decision != models.FriendshipDeclined {
		return models.Friendship{}, ErrInvalidDecision
	}

	friendship, err := s.friendships.FindByID(ctx, friendshipID)
	if err != nil {
		return models.Friendship{}, err
	}
	if friendship.RecipientID != actor {
		return models.Friendship{}, ErrNotRecipient
	}
	if friendship.Status != models.FriendshipPending {
		return models.Friendship{}, ErrNotPending
	}

	respondedAt := s.now()
	if err := s.friendships.UpdateStatus(ctx, friendshipID, decision, respondedAt); err != nil {
		return models.Friendship{}, err
	}

	friendship.Status = decision
	friendship.RespondedAt = &respondedAt

	if decision == models.FriendshipAccepted {
		if recipient, err := s.profiles.FindByUser(ctx, actor); err == nil {
			s.notifyUser(ctx, friendship.RequesterID, models.Notification{
				SenderID:   actor,
				SenderName: recipient.Username,
				Title:      "Freundschaftsanfrage angenommen",
				Body:       fmt.Sprintf("%s hat deine Anfrage angenommen", recipient.Username),
				Type:       models.NotificationTypeFriendAccepted,
			})
		}
	}

	return friendship, nil
}

// Friends derives the actor's friend list: the counterparties of every
// accepted friendship touching the actor, joined to their profiles. The view
// is recomputed on every call; nothing is materialized.
func (s *Service) Friends(ctx context.Context, actor string) ([]models.UserProfile, error) {
	accepted, err := s.friendships.ListAcceptedFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(accepted))
	ids := make([]string, 0, len(accepted))
	for _, f := range accepted {
		other := f.Counterparty(actor)
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}

	return s.profiles.FindByUsers(ctx, ids)
}

// PendingIncoming returns the pending requests addressed to the actor, each
// joined with the requester's profile. Requests whose sender profile is
// missing are dropped from the view.
func (s *Service) PendingIncoming(ctx context.Context, actor string) ([]PendingRequest, error) {
	pending, err := s.friendships.ListPendingFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	senderIDs := make([]string, 0, len(pending))
	for _, f := range pending {
		senderIDs = append(senderIDs, f.RequesterID)
	}

	senders, err := s.profiles.FindByUsers(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]models.UserProfile, len(senders))
	for _, p := range senders {
		byUser[p.UserID] = p
	}

	out := make([]PendingRequest, 0, len(pending))
	for _, f := range pending {
		sender, ok := byUser[f.RequesterID]
		if !ok {
			continue
		}
		out = append(out, PendingRequest{Friendship: f, Sender: sender})
	}
	return out, nil
}

// searchLimit caps user search results.
const searchLimit = 10

// SearchUsers returns profiles matching the term, excluding the actor.
func (s *Service) SearchUsers(ctx context.Context, actor, term string) ([]models.UserProfile, error) {
	if term == "" {
		return nil, nil
	}
	return s.profiles.Search(ctx, term, actor, searchLimit)
}

// NotifyFriends creates one notification document per friend with
// notifications enabled and reports the counts. One recipient's failure never
// aborts the others. Calling twice creates a second batch of documents; the
// operation is deliberately not idempotent. A single best-effort push send
// follows the document writes and cannot affect the result.
func (s *Service) NotifyFriends(ctx context.Context, actor, title, body string) (FanOutResult, error) {
	ctx, span := logging.StartSpan(ctx, "friends.notify")
	defer span.End()

	sender, err := s.profiles.FindByUser(ctx, actor)
	if err != nil {
		return FanOutResult{}, fmt.Errorf("resolve sender profile: %w", err)
	}

	friendProfiles, err := s.Friends(ctx, actor)
	if err != nil {
		return FanOutResult{}, err
	}

	recipients := make([]models.UserProfile, 0, len(friendProfiles))
	for _, p := range friendProfiles {
		if p.NotificationsEnabled {
			recipients = append(recipients, p)
		}
	}
	if len(recipients) == 0 {
		return FanOutResult{}, ErrNoRecipients
	}

	logger := logging.FromContext(ctx)
	result := FanOutResult{}
	recipientIDs := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		result.Attempted++
		notification := models.Notification{
			ID:          uuid.NewString(),
			RecipientID: recipient.UserID,
			SenderID:    actor,
			SenderName:  sender.Username,
			Title:       title,
			Body:        body,
			Type:        models.NotificationTypeFriend,
			Read:        false,
			CreatedAt:   s.now(),
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			logger.Warn("notification fan-out recipient failed", "recipientId", recipient.UserID, "error", err)
			continue
		}
		result.Succeeded++
		recipientIDs = append(recipientIDs, recipient.UserID)
	}

	// Push delivery is a second, independently failable path. Its outcome is
	// logged and never changes the fan-out result.
	if len(recipientIDs) > 0 {
		if err := s.push.SendPush(ctx, title, body, recipientIDs, map[string]string{
			"sender": sender.Username,
			"type":   models.NotificationTypeFriend,
		}); err != nil {
			logger.Warn("push delivery failed", "recipients", len(recipientIDs), "error", err)
		}
	}

	return result, nil
}

// notifyUser writes a single best-effort notification, respecting the
// recipient's notification preference. Failures are logged and swallowed.
func (s *Service) notifyUser(ctx context.Context, recipientID string, notification models.Notification) {
	logger := logging.FromContext(ctx)

	recipient, err := s.profiles.FindByUser(ctx, recipientID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("notify user profile lookup failed", "recipientId", recipientID, "error", err)
		}
		return
	}
	if !recipient.NotificationsEnabled {
		return
	}

	notification.ID = uuid.NewString()
	notification.RecipientID = recipientID
	notification.CreatedAt = s.now()
	if err := s.notifications.Create(ctx, notification); err != nil {
		logger.Warn("notify user failed", "recipientId", recipientID, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}
