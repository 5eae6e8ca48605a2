package repositories

import (
	"context"
	"time"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/models"
)

// FriendshipRepository defines data access for friend requests and
// relationships.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship models.Friendship) error
	FindByID(ctx context.Context, id string) (models.Friendship, error)
	FindBetween(ctx context.Context, userA, userB string) ([]models.Friendship, error)
	ListAcceptedFor(ctx context.Context, userID string) ([]models.Friendship, error)
	ListPendingFor(ctx context.Context, userID string) ([]models.Friendship, error)
	UpdateStatus(ctx context.Context, id, status string, respondedAt time.Time) error
}

// DocFriendshipRepository stores friendships in the document store.
type DocFriendshipRepository struct {
	friendships docstore.Collection
}

// NewDocFriendshipRepository constructs a friendship repository over the store.
func NewDocFriendshipRepository(store docstore.Store) *DocFriendshipRepository {
	return &DocFriendshipRepository{friendships: store.Collection(CollectionFriendships)}
}

// Create persists a new friendship document.
func (r *DocFriendshipRepository) Create(ctx context.Context, friendship models.Friendship) error {
	fields := map[string]any{
		"requester_id": friendship.RequesterID,
		"recipient_id": friendship.RecipientID,
		"status":       friendship.Status,
		"created_at":   friendship.CreatedAt,
	}
	if friendship.RespondedAt != nil {
		fields["responded_at"] = *friendship.RespondedAt
	}
	return mapStoreErr(r.friendships.Create(ctx, friendship.ID, fields), "insert friendship")
}

// FindByID fetches a friendship by its document id.
func (r *DocFriendshipRepository) FindByID(ctx context.Context, id string) (models.Friendship, error) {
	doc, err := r.friendships.Get(ctx, id)
	if err != nil {
		return models.Friendship{}, mapStoreErr(err, "select friendship")
	}
	return decodeFriendship(doc)
}

// FindBetween returns every friendship document linking the two users, in
// either orientation. There should be at most one, but the check-then-act
// create makes duplicates possible under a race, so callers get the full list.
func (r *DocFriendshipRepository) FindBetween(ctx context.Context, userA, userB string) ([]models.Friendship, error) {
	forward, err := r.list(ctx, docstore.Query{Filters: []docstore.Filter{
		docstore.Equal("requester_id", userA),
		docstore.Equal("recipient_id", userB),
	}})
	if err != nil {
		return nil, err
	}

	reverse, err := r.list(ctx, docstore.Query{Filters: []docstore.Filter{
		docstore.Equal("requester_id", userB),
		docstore.Equal("recipient_id", userA),
	}})
	if err != nil {
		return nil, err
	}

	return append(forward, reverse...), nil
}

// ListAcceptedFor returns accepted friendships where the user appears on
// either side.
func (r *DocFriendshipRepository) ListAcceptedFor(ctx context.Context, userID string) ([]models.Friendship, error) {
	asRequester, err := r.list(ctx, docstore.Query{Filters: []docstore.Filter{
		docstore.Equal("requester_id", userID),
		docstore.Equal("status", models.FriendshipAccepted),
	}})
	if err != nil {
		return nil, err
	}

	asRecipient, err := r.list(ctx, docstore.Query{Filters: []docstore.Filter{
		docstore.Equal("recipient_id", userID),
		docstore.Equal("status", models.FriendshipAccepted),
	}})
	if err != nil {
		return nil, err
	}

	return append(asRequester, asRecipient...), nil
}

// ListPendingFor returns pending friendships addressed to the user.
func (r *DocFriendshipRepository) ListPendingFor(ctx context.Context, userID string) ([]models.Friendship, error) {
	return r.list(ctx, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Equal("recipient_id", userID),
			docstore.Equal("status", models.FriendshipPending),
		},
		OrderNewestFirst: true,
	})
}

// UpdateStatus transitions a friendship to a terminal status.
func (r *DocFriendshipRepository) UpdateStatus(ctx context.Context, id, status string, respondedAt time.Time) error {
	err := r.friendships.Update(ctx, id, map[string]any{
		"status":       status,
		"responded_at": respondedAt,
	})
	return mapStoreErr(err, "update friendship status")
}

func (r *DocFriendshipRepository) list(ctx context.Context, q docstore.Query) ([]models.Friendship, error) {
	docs, err := r.friendships.List(ctx, q)
	if err != nil {
		return nil, mapStoreErr(err, "query friendships")
	}

	out := make([]models.Friendship, 0, len(docs))
	for _, doc := range docs {
		friendship, err := decodeFriendship(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, friendship)
	}
	return out, nil
}

func decodeFriendship(doc docstore.Document) (models.Friendship, error) {
	requester, err := stringField(doc, "requester_id")
	if err != nil {
		return models.Friendship{}, err
	}
	recipient, err := stringField(doc, "recipient_id")
	if err != nil {
		return models.Friendship{}, err
	}
	status, err := stringField(doc, "status")
	if err != nil {
		return models.Friendship{}, err
	}
	createdAt, err := timeField(doc, "created_at")
	if err != nil {
		return models.Friendship{}, err
	}

	friendship := models.Friendship{
		ID:          doc.ID,
		RequesterID: requester,
		RecipientID: recipient,
		Status:      status,
		CreatedAt:   createdAt,
	}

	if _, ok := doc.Fields["responded_at"]; ok {
		respondedAt, err := timeField(doc, "responded_at")
		if err != nil {
			return models.Friendship{}, err
		}
		friendship.RespondedAt = &respondedAt
	}

	return friendship, nil
}
