// Package directory adapts the host application's tables to the lookups the notification dispatcher consumes.
package directory

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/NeatNerdPrime/bluedoc/internal/memberships"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/internal/repo"
	"github.com/NeatNerdPrime/bluedoc/internal/users"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
)

// Directory implements notifications.TargetLoader, notifications.UserDirectory and
// notifications.AbilityChecker over read-only host tables.
type Directory struct {
	base    repo.Base
	users   *users.Repository
	members *memberships.Repository
}

func New(db *gorm.DB) (*Directory, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "directory database required")
	}
	return &Directory{
		base:    repo.NewBase(db),
		users:   users.NewRepository(db),
		members: memberships.NewRepository(db),
	}, nil
}

func (d *Directory) FindUser(ctx context.Context, id int64) (*models.User, error) {
	return d.users.FindUser(ctx, id)
}

func notFound(kind enums.TargetKind, id int64) error {
	return fmt.Errorf("%w: %s %d", notifications.ErrTargetNotFound, kind, id)
}

func (d *Directory) repository(ctx context.Context, id int64) (*notifications.RepositoryTarget, error) {
	var r models.Repository
	found, err := d.base.Take(ctx, &r, "id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(enums.TargetRepository, id)
	}
	owner, err := d.users.FindUser(ctx, r.UserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, notFound(enums.TargetRepository, id)
	}
	return &notifications.RepositoryTarget{Repository: r, Owner: *owner}, nil
}

func (d *Directory) doc(ctx context.Context, id int64) (*notifications.DocTarget, error) {
	var doc models.Doc
	found, err := d.base.Take(ctx, &doc, "id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(enums.TargetDoc, id)
	}
	r, err := d.repository(ctx, doc.RepositoryID)
	if err != nil {
		return nil, err
	}
	return &notifications.DocTarget{Doc: doc, Repository: *r}, nil
}

func (d *Directory) issue(ctx context.Context, id int64) (*notifications.IssueTarget, error) {
	var issue models.Issue
	found, err := d.base.Take(ctx, &issue, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(enums.TargetIssue, id)
	}
	r, err := d.repository(ctx, issue.RepositoryID)
	if err != nil {
		return nil, err
	}
	return &notifications.IssueTarget{Issue: issue, Repository: *r}, nil
}

func (d *Directory) comment(ctx context.Context, id int64) (*notifications.CommentTarget, error) {
	var comment models.Comment
	found, err := d.base.Take(ctx, &comment, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(enums.TargetComment, id)
	}

	target := &notifications.CommentTarget{Comment: comment}
	switch enums.TargetKind(comment.CommentableType) {
	case enums.TargetDoc:
		target.Parent, err = d.doc(ctx, comment.CommentableID)
	case enums.TargetIssue:
		target.Parent, err = d.issue(ctx, comment.CommentableID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported commentable type "+comment.CommentableType)
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

func (d *Directory) member(ctx context.Context, id int64) (*notifications.MemberTarget, error) {
	member, err := d.members.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, notFound(enums.TargetMember, id)
	}

	target := &notifications.MemberTarget{Member: *member}
	switch member.SubjectType {
	case memberships.SubjectRepository:
		if target.Repository, err = d.repository(ctx, member.SubjectID); err != nil {
			return nil, err
		}
	case memberships.SubjectGroup:
		group, err := d.users.FindGroup(ctx, member.SubjectID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, notFound(enums.TargetMember, id)
		}
		target.Group = group
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported member subject type "+member.SubjectType)
	}
	return target, nil
}
