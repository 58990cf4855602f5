package directory

import (
	"context"

	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
)

// LoadTarget loads the entity behind ref together with the parents its messages and URLs need.
// Missing or soft-deleted rows are reported as notifications.ErrTargetNotFound.
func (d *Directory) LoadTarget(ctx context.Context, ref notifications.TargetRef) (notifications.Target, error) {
	switch ref.Kind {
	case enums.TargetMember:
		return d.member(ctx, ref.ID)
	case enums.TargetRepository:
		return d.repository(ctx, ref.ID)
	case enums.TargetComment:
		return d.comment(ctx, ref.ID)
	case enums.TargetIssue:
		return d.issue(ctx, ref.ID)
	case enums.TargetDoc:
		return d.doc(ctx, ref.ID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported target type "+string(ref.Kind))
	}
}
