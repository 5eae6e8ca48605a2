package repositories

import (
	"context"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/models"
)

// DrinkRepository defines data access for drink posts.
type DrinkRepository interface {
	Create(ctx context.Context, post models.DrinkPost) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.DrinkPost, error)
	ListByUsers(ctx context.Context, userIDs []string, limit int) ([]models.DrinkPost, error)
}

// DocDrinkRepository stores drink posts in the document store.
type DocDrinkRepository struct {
	drinks docstore.Collection
}

// NewDocDrinkRepository constructs a drink repository over the store.
func NewDocDrinkRepository(store docstore.Store) *DocDrinkRepository {
	return &DocDrinkRepository{drinks: store.Collection(CollectionDrinks)}
}

// Create persists a new drink post. Posts are immutable afterwards.
func (r *DocDrinkRepository) Create(ctx context.Context, post models.DrinkPost) error {
	err := r.drinks.Create(ctx, post.ID, map[string]any{
		"user_id":     post.UserID,
		"user_name":   post.UserName,
		"drink_name":  post.DrinkName,
		"drink_emoji": post.DrinkEmoji,
		"created_at":  post.CreatedAt,
	})
	return mapStoreErr(err, "insert drink post")
}

// ListByUser returns the author's posts, newest first.
func (r *DocDrinkRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.DrinkPost, error) {
	return r.list(ctx, docstore.Query{
		Filters:          []docstore.Filter{docstore.Equal("user_id", userID)},
		OrderNewestFirst: true,
		Limit:            limit,
	})
}

// ListByUsers returns posts authored by any of the given users, newest first.
func (r *DocDrinkRepository) ListByUsers(ctx context.Context, userIDs []string, limit int) ([]models.DrinkPost, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, docstore.Query{
		Filters:          []docstore.Filter{docstore.In("user_id", userIDs...)},
		OrderNewestFirst: true,
		Limit:            limit,
	})
}

func (r *DocDrinkRepository) list(ctx context.Context, q docstore.Query) ([]models.DrinkPost, error) {
	docs, err := r.drinks.List(ctx, q)
	if err != nil {
		return nil, mapStoreErr(err, "query drink posts")
	}

	out := make([]models.DrinkPost, 0, len(docs))
	for _, doc := range docs {
		post, err := decodeDrinkPost(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, nil
}

func decodeDrinkPost(doc docstore.Document) (models.DrinkPost, error) {
	userID, err := stringField(doc, "user_id")
	if err != nil {
		return models.DrinkPost{}, err
	}
	userName, err := stringField(doc, "user_name")
	if err != nil {
		return models.DrinkPost{}, err
	}
	name, err := stringField(doc, "drink_name")
	if err != nil {
		return models.DrinkPost{}, err
	}
	emoji, err := stringField(doc, "drink_emoji")
	if err != nil {
		return models.DrinkPost{}, err
	}
	createdAt, err := timeField(doc, "created_at")
	if err != nil {
		return models.DrinkPost{}, err
	}
	return models.DrinkPost{
		ID:         doc.ID,
		UserID:     userID,
		UserName:   userName,
		DrinkName:  name,
		DrinkEmoji: emoji,
		CreatedAt:  createdAt,
	}, nil
}
