package models

import "time"

// The models below mirror tables owned by the host application. This service reads them and never writes.

// Principal type values stored in users.type.
const (
	PrincipalUser  = "User"
	PrincipalGroup = "Group"
)

// Repository privacy values.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

// User is either a person or a group; groups share the table and are told apart by Type.
type User struct {
	ID        int64      `gorm:"primaryKey"`
	Type      string     `gorm:"column:type;not null"`
	Slug      string     `gorm:"column:slug;not null"`
	Name      string     `gorm:"column:name"`
	Email     string     `gorm:"column:email"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (User) TableName() string { return "users" }

// DisplayName prefers the name and falls back to the slug.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Slug
}

func (u *User) IsGroup() bool {
	return u != nil && u.Type == PrincipalGroup
}

type Repository struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"column:user_id;not null"`
	Slug      string     `gorm:"column:slug;not null"`
	Name      string     `gorm:"column:name"`
	Privacy   string     `gorm:"column:privacy;not null"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

func (Repository) TableName() string { return "repositories" }

func (r *Repository) IsPublic() bool {
	return r != nil && r.Privacy != PrivacyPrivate
}

// Member links a user to a subject. SubjectType is "User" for groups (single-table inheritance) or "Repository".
type Member struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"column:user_id;not null"`
	SubjectType string `gorm:"column:subject_type;not null"`
	SubjectID   int64  `gorm:"column:subject_id;not null"`
	Role        string `gorm:"column:role"`
}

func (Member) TableName() string { return "members" }

type Comment struct {
	ID              int64  `gorm:"primaryKey"`
	CommentableType string `gorm:"column:commentable_type;not null"`
	CommentableID   int64  `gorm:"column:commentable_id;not null"`
	UserID          int64  `gorm:"column:user_id"`
	Body            string `gorm:"column:body"`
	BodyHTML        string `gorm:"column:body_html"`
}

func (Comment) TableName() string { return "comments" }

type Issue struct {
	ID           int64  `gorm:"primaryKey"`
	RepositoryID int64  `gorm:"column:repository_id;not null"`
	IID          int64  `gorm:"column:iid;not null"`
	Title        string `gorm:"column:title"`
	BodyHTML     string `gorm:"column:body_html"`
	Status       string `gorm:"column:status"`
}

func (Issue) TableName() string { return "issues" }

type Doc struct {
	ID           int64      `gorm:"primaryKey"`
	RepositoryID int64      `gorm:"column:repository_id;not null"`
	Slug         string     `gorm:"column:slug;not null"`
	Title        string     `gorm:"column:title"`
	Body         string     `gorm:"column:body"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

func (Doc) TableName() string { return "docs" }
