package repositories

import (
	"context"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/models"
)

// NotificationRepository defines data access for notification documents.
type NotificationRepository interface {
	Create(ctx context.Context, notification models.Notification) error
	FindByID(ctx context.Context, id string) (models.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// DocNotificationRepository stores notifications in the document store.
type DocNotificationRepository struct {
	notifications docstore.Collection
}

// NewDocNotificationRepository constructs a notification repository over the store.
func NewDocNotificationRepository(store docstore.Store) *DocNotificationRepository {
	return &DocNotificationRepository{notifications: store.Collection(CollectionNotifications)}
}

// Create persists a new notification document.
func (r *DocNotificationRepository) Create(ctx context.Context, notification models.Notification) error {
	err := r.notifications.Create(ctx, notification.ID, map[string]any{
		"recipient_id": notification.RecipientID,
		"sender_id":    notification.SenderID,
		"sender_name":  notification.SenderName,
		"title":        notification.Title,
		"body":         notification.Body,
		"type":         notification.Type,
		"read":         notification.Read,
		"created_at":   notification.CreatedAt,
	})
	return mapStoreErr(err, "insert notification")
}

// FindByID fetches a notification by its document id.
func (r *DocNotificationRepository) FindByID(ctx context.Context, id string) (models.Notification, error) {
	doc, err := r.notifications.Get(ctx, id)
	if err != nil {
		return models.Notification{}, mapStoreErr(err, "select notification")
	}
	return decodeNotification(doc)
}

// ListForRecipient returns the recipient's notifications, newest first.
func (r *DocNotificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	docs, err := r.notifications.List(ctx, docstore.Query{
		Filters:          []docstore.Filter{docstore.Equal("recipient_id", recipientID)},
		OrderNewestFirst: true,
		Limit:            limit,
	})
	if err != nil {
		return nil, mapStoreErr(err, "query notifications")
	}

	out := make([]models.Notification, 0, len(docs))
	for _, doc := range docs {
		notification, err := decodeNotification(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, notification)
	}
	return out, nil
}

// MarkRead flips the read flag. The only mutation notifications ever see.
func (r *DocNotificationRepository) MarkRead(ctx context.Context, id string) error {
	return mapStoreErr(r.notifications.Update(ctx, id, map[string]any{"read": true}), "update notification read")
}

func decodeNotification(doc docstore.Document) (models.Notification, error) {
	recipient, err := stringField(doc, "recipient_id")
	if err != nil {
		return models.Notification{}, err
	}
	sender, err := stringField(doc, "sender_id")
	if err != nil {
		return models.Notification{}, err
	}
	senderName, err := stringField(doc, "sender_name")
	if err != nil {
		return models.Notification{}, err
	}
	title, err := stringField(doc, "title")
	if err != nil {
		return models.Notification{}, err
	}
	body, err := stringField(doc, "body")
	if err != nil {
		return models.Notification{}, err
	}
	kind, err := stringField(doc, "type")
	if err != nil {
		return models.Notification{}, err
	}
	read, err := boolField(doc, "read")
	if err != nil {
		return models.Notification{}, err
	}
	createdAt, err := timeField(doc, "created_at")
	if err != nil {
		return models.Notification{}, err
	}
	return models.Notification{
		ID:          doc.ID,
		RecipientID: recipient,
		SenderID:    sender,
		SenderName:  senderName,
		Title:       title,
		Body:        body,
		Type:        kind,
		Read:        read,
		CreatedAt:   createdAt,
	}, nil
}
