package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/NeatNerdPrime/bluedoc/internal/repo"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
)

// Repository reads principals (people and groups) from the host users table.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindUser loads a live principal by id. Unknown and soft-deleted rows yield (nil, nil).
func (r *Repository) FindUser(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, nil
	}
	var user models.User
	found, err := r.Take(ctx, &user, "id = ? AND deleted_at IS NULL", id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// FindGroup is FindUser restricted to groups.
func (r *Repository) FindGroup(ctx context.Context, id int64) (*models.User, error) {
	user, err := r.FindUser(ctx, id)
	if err != nil || !user.IsGroup() {
		return nil, err
	}
	return user, nil
}
