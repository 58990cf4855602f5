package notifications

import (
	"fmt"

	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
)

// TargetRef names a polymorphic notification target.
type TargetRef struct {
	Kind enums.TargetKind `json:"type"`
	ID   int64            `json:"id"`
}

func (r TargetRef) String() string {
	return fmt.Sprintf("%s-%d", r.Kind, r.ID)
}

// Target is a loaded host entity a notification can point at.
// Implementations are limited to the types in this file.
type Target interface {
	Ref() TargetRef
	isTarget()
}

// MemberTarget is a membership row. Exactly one of Group or Repository is set.
type MemberTarget struct {
	Member     models.Member
	Group      *models.User
	Repository *RepositoryTarget
}

// RepositoryTarget is a repository with its owner loaded.
type RepositoryTarget struct {
	Repository models.Repository
	Owner      models.User
}

// CommentTarget is a comment with the entity it was left on.
type CommentTarget struct {
	Comment models.Comment
	Parent  Target
}

type IssueTarget struct {
	Issue      models.Issue
	Repository RepositoryTarget
}

type DocTarget struct {
	Doc        models.Doc
	Repository RepositoryTarget
}

func (t *MemberTarget) Ref() TargetRef {
	return TargetRef{Kind: enums.TargetMember, ID: t.Member.ID}
}

func (t *RepositoryTarget) Ref() TargetRef {
	return TargetRef{Kind: enums.TargetRepository, ID: t.Repository.ID}
}

func (t *CommentTarget) Ref() TargetRef {
	return TargetRef{Kind: enums.TargetComment, ID: t.Comment.ID}
}

func (t *IssueTarget) Ref() TargetRef {
	return TargetRef{Kind: enums.TargetIssue, ID: t.Issue.ID}
}

func (t *DocTarget) Ref() TargetRef {
	return TargetRef{Kind: enums.TargetDoc, ID: t.Doc.ID}
}

func (*MemberTarget) isTarget()     {}
func (*RepositoryTarget) isTarget() {}
func (*CommentTarget) isTarget()    {}
func (*IssueTarget) isTarget()      {}
func (*DocTarget) isTarget()        {}

// FullName renders "<owner> / <repo>".
func (t *RepositoryTarget) FullName() string {
	name := t.Repository.Name
	if name == "" {
		name = t.Repository.Slug
	}
	return t.Owner.DisplayName() + " / " + name
}

// SubjectToken is the type token used in mail thread keys: "User" for groups, "Repository" otherwise.
func (t *MemberTarget) SubjectToken() (string, int64) {
	if t.Group != nil {
		return models.PrincipalUser, t.Group.ID
	}
	if t.Repository != nil {
		return string(enums.TargetRepository), t.Repository.Repository.ID
	}
	return t.Member.SubjectType, t.Member.SubjectID
}

// SubjectTitle is the bracketed name shown in add_member messages.
func (t *MemberTarget) SubjectTitle() string {
	switch {
	case t.Group != nil:
		return t.Group.DisplayName()
	case t.Repository != nil:
		return t.Repository.FullName()
	default:
		return ""
	}
}

// Title returns the human label of a target.
func Title(target Target) string {
	switch t := target.(type) {
	case *MemberTarget:
		return t.SubjectTitle()
	case *RepositoryTarget:
		return t.FullName()
	case *IssueTarget:
		return t.Issue.Title
	case *DocTarget:
		return t.Doc.Title
	case *CommentTarget:
		if t.Parent == nil {
			return ""
		}
		return Title(t.Parent)
	default:
		return ""
	}
}
