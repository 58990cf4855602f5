package notifications

import (
	"context"
	"time"

	"github.com/NeatNerdPrime/bluedoc/internal/mailer"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
)

// AbilityChecker answers whether a user may read a target.
type AbilityChecker interface {
	CanRead(ctx context.Context, userID int64, ref TargetRef) (bool, error)
}

// TargetLoader loads host entities. Missing entities return ErrTargetNotFound.
type TargetLoader interface {
	LoadTarget(ctx context.Context, ref TargetRef) (Target, error)
}

// URLBuilder returns the absolute canonical URL of a target.
type URLBuilder interface {
	CanonicalURL(target Target) string
}

// UserDirectory looks users up by id; an unknown id yields (nil, nil).
type UserDirectory interface {
	FindUser(ctx context.Context, id int64) (*models.User, error)
}

// Mailer accepts composed notification mail for asynchronous delivery.
type Mailer interface {
	Enqueue(ctx context.Context, msg mailer.Message) bool
}

// UnreadCache caches unread counts per user. Optional.
type UnreadCache interface {
	UnreadCount(ctx context.Context, userID int64) (int64, bool, error)
	StoreUnreadCount(ctx context.Context, userID, count int64, ttl time.Duration) error
	InvalidateUnread(ctx context.Context, userIDs ...int64) error
}
