package memberships

import (
	"context"

	"gorm.io/gorm"

	"github.com/NeatNerdPrime/bluedoc/internal/repo"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
)

// Subject types stored in members.subject_type. Groups live in the users table, hence "User".
const (
	SubjectGroup      = models.PrincipalUser
	SubjectRepository = "Repository"
)

// Repository exposes read-only membership lookups.
type Repository struct {
	repo.Base
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Find returns the membership row or (nil, nil) when it does not exist.
func (r *Repository) Find(ctx context.Context, id int64) (*models.Member, error) {
	var member models.Member
	found, err := r.Take(ctx, &member, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &member, nil
}

// IsMember reports whether the user holds any role on the subject.
func (r *Repository) IsMember(ctx context.Context, userID int64, subjectType string, subjectID int64) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Member{}).
		Where("user_id = ? AND subject_type = ? AND subject_id = ?", userID, subjectType, subjectID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
