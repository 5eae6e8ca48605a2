// Package drinks implements the drink-sharing workflow: recording status
// posts and fanning a templated notification out to the author's friends.
package drinks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prostly/backend/internal/friends"
	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/models"
)

// Store captures persistence for drink posts.
type Store interface {
	Create(ctx context.Context, post models.DrinkPost) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.DrinkPost, error)
	ListByUsers(ctx context.Context, userIDs []string, limit int) ([]models.DrinkPost, error)
}

// ProfileStore resolves the author's display name.
type ProfileStore interface {
	FindByUser(ctx context.Context, userID string) (models.UserProfile, error)
}

// FriendGraph is the slice of the friendship workflow the drink workflow
// consumes: the derived friend list and the notification fan-out.
type FriendGraph interface {
	Friends(ctx context.Context, actor string) ([]models.UserProfile, error)
	NotifyFriends(ctx context.Context, actor, title, body string) (friends.FanOutResult, error)
}

const (
	defaultHistoryLimit = 50
	defaultFeedLimit    = 100
)

// ShareResult pairs the created post with the fan-out outcome.
type ShareResult struct {
	Post   models.DrinkPost
	FanOut friends.FanOutResult
}

// Service coordinates drink posts and their notifications.
type Service struct {
	posts    Store
	profiles ProfileStore
	graph    FriendGraph

	// NowFunc overrides the time source for tests.
	NowFunc func() time.Time
}

// NewService wires the drink workflow over its collaborators.
func NewService(posts Store, profiles ProfileStore, graph FriendGraph) *Service {
	return &Service{posts: posts, profiles: profiles, graph: graph}
}

// Share records a drink post for the actor and then notifies their friends
// with a templated message. The post is created first and survives regardless
// of how the fan-out goes; a post with zero delivered notifications is valid.
func (s *Service) Share(ctx context.Context, actor, drinkName, drinkEmoji string) (ShareResult, error) {
	ctx, span := logging.StartSpan(ctx, "drinks.share")
	defer span.End()

	profile, err := s.profiles.FindByUser(ctx, actor)
	if err != nil {
		return ShareResult{}, fmt.Errorf("resolve author profile: %w", err)
	}

	post := models.DrinkPost{
		ID:         uuid.NewString(),
		UserID:     actor,
		UserName:   profile.Username,
		DrinkName:  drinkName,
		DrinkEmoji: drinkEmoji,
		CreatedAt:  s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return ShareResult{}, err
	}

	title := "🍻 Prost!"
	body := fmt.Sprintf("%s trinkt gerade %s %s!", profile.Username, drinkEmoji, drinkName)

	fanOut, err := s.graph.NotifyFriends(ctx, actor, title, body)
	if err != nil && !errors.Is(err, friends.ErrNoRecipients) {
		logging.FromContext(ctx).Warn("drink fan-out failed", "postId", post.ID, "error", err)
	}

	return ShareResult{Post: post, FanOut: fanOut}, nil
}

// History returns the actor's own posts, newest first, bounded.
func (s *Service) History(ctx context.Context, actor string, limit int) ([]models.DrinkPost, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.posts.ListByUser(ctx, actor, limit)
}

// Feed returns posts by the actor and their friends, newest first, bounded.
// A point-in-time snapshot; there is no pagination cursor beyond the limit.
func (s *Service) Feed(ctx context.Context, actor string, limit int) ([]models.DrinkPost, error) {
	if limit <= 0 || limit > defaultFeedLimit {
		limit = defaultFeedLimit
	}

	friendProfiles, err := s.graph.Friends(ctx, actor)
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(friendProfiles)+1)
	authors = append(authors, actor)
	for _, p := range friendProfiles {
		authors = append(authors, p.UserID)
	}

	return s.posts.ListByUsers(ctx, authors, limit)
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}
