package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
)

// Notification is one durable notice for one recipient about one target.
type Notification struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	NotifyType enums.NotifyType  `gorm:"column:notify_type;type:text;not null" json:"notifyType"`
	ActorID    *int64            `gorm:"column:actor_id" json:"actorId,omitempty"`
	UserID     int64             `gorm:"column:user_id;not null;index:idx_notifications_user_target,priority:1" json:"userId"`
	TargetType enums.TargetKind  `gorm:"column:target_type;type:text;not null;index:idx_notifications_user_target,priority:2" json:"targetType"`
	TargetID   int64             `gorm:"column:target_id;not null;index:idx_notifications_user_target,priority:3" json:"targetId"`
	Meta       datatypes.JSONMap `gorm:"column:meta" json:"meta,omitempty"`
	ReadAt     *time.Time        `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns the id client side so sqlite and postgres behave the same.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// IsRead reports whether the notification has been marked read.
func (n *Notification) IsRead() bool {
	return n != nil && n.ReadAt != nil
}

// MetaString returns a meta value rendered as a string, or "" when absent.
func (n *Notification) MetaString(key string) string {
	if n == nil || n.Meta == nil {
		return ""
	}
	value, ok := n.Meta[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
