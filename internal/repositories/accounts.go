package repositories

import (
	"context"
	"strings"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/models"
)

// AccountRepository defines the data access contract for credential records.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	FindByID(ctx context.Context, id string) (models.Account, error)
}

// DocAccountRepository stores accounts in the document store.
type DocAccountRepository struct {
	accounts docstore.Collection
}

// NewDocAccountRepository constructs an account repository over the store.
func NewDocAccountRepository(store docstore.Store) *DocAccountRepository {
	return &DocAccountRepository{accounts: store.Collection(CollectionAccounts)}
}

// Create persists a new account. Email uniqueness is check-then-act at the
// caller; the store only enforces id uniqueness.
func (r *DocAccountRepository) Create(ctx context.Context, account models.Account) error {
	err := r.accounts.Create(ctx, account.ID, map[string]any{
		"email":         strings.ToLower(account.Email),
		"password_hash": account.PasswordHash,
		"name":          account.Name,
		"created_at":    account.CreatedAt,
		"updated_at":    account.UpdatedAt,
	})
	return mapStoreErr(err, "insert account")
}

// FindByEmail fetches an account by its (lowercased) email address.
func (r *DocAccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	docs, err := r.accounts.List(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Equal("email", strings.ToLower(email))},
		Limit:   1,
	})
	if err != nil {
		return models.Account{}, mapStoreErr(err, "select account by email")
	}
	if len(docs) == 0 {
		return models.Account{}, ErrNotFound
	}
	return decodeAccount(docs[0])
}

// FindByID fetches an account by its identifier.
func (r *DocAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	doc, err := r.accounts.Get(ctx, id)
	if err != nil {
		return models.Account{}, mapStoreErr(err, "select account")
	}
	return decodeAccount(doc)
}

func decodeAccount(doc docstore.Document) (models.Account, error) {
	email, err := stringField(doc, "email")
	if err != nil {
		return models.Account{}, err
	}
	hash, err := stringField(doc, "password_hash")
	if err != nil {
		return models.Account{}, err
	}
	name, err := stringField(doc, "name")
	if err != nil {
		return models.Account{}, err
	}
	createdAt, err := timeField(doc, "created_at")
	if err != nil {
		return models.Account{}, err
	}
	updatedAt, err := timeField(doc, "updated_at")
	if err != nil {
		return models.Account{}, err
	}
	return models.Account{
		ID:           doc.ID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
