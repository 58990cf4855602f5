package directory

import (
	"context"
	"errors"

	"github.com/NeatNerdPrime/bluedoc/internal/memberships"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
)

// CanRead reports whether userID may read the target. Missing targets are unreadable.
func (d *Directory) CanRead(ctx context.Context, userID int64, ref notifications.TargetRef) (bool, error) {
	if userID <= 0 {
		return false, nil
	}
	target, err := d.LoadTarget(ctx, ref)
	if errors.Is(err, notifications.ErrTargetNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.canReadTarget(ctx, userID, target)
}

func (d *Directory) canReadTarget(ctx context.Context, userID int64, target notifications.Target) (bool, error) {
	switch t := target.(type) {
	case *notifications.RepositoryTarget:
		return d.canReadRepository(ctx, userID, &t.Repository)
	case *notifications.MemberTarget:
		if t.Repository != nil {
			return d.canReadRepository(ctx, userID, &t.Repository.Repository)
		}
		// groups are visible to everyone
		return t.Group != nil, nil
	case *notifications.DocTarget:
		return d.canReadRepository(ctx, userID, &t.Repository.Repository)
	case *notifications.IssueTarget:
		return d.canReadRepository(ctx, userID, &t.Repository.Repository)
	case *notifications.CommentTarget:
		if t.Parent == nil {
			return false, nil
		}
		return d.canReadTarget(ctx, userID, t.Parent)
	default:
		return false, nil
	}
}

// canReadRepository: public, owned, repository member, or member of the owning group.
func (d *Directory) canReadRepository(ctx context.Context, userID int64, r *models.Repository) (bool, error) {
	if r.IsPublic() || r.UserID == userID {
		return true, nil
	}
	ok, err := d.members.IsMember(ctx, userID, memberships.SubjectRepository, r.ID)
	if err != nil || ok {
		return ok, err
	}
	return d.members.IsMember(ctx, userID, memberships.SubjectGroup, r.UserID)
}
