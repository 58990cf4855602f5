package notifications

import (
	"context"
	"errors"

	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
)

// Gate decides whether a recipient may be told about a target. It fails closed.
type Gate struct {
	ability AbilityChecker
	logg    *logger.Logger
}

func NewGate(ability AbilityChecker, logg *logger.Logger) (*Gate, error) {
	if ability == nil {
		return nil, errors.New("ability checker required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Gate{ability: ability, logg: logg}, nil
}

// MayNotify reports whether recipient can read ref. Checker errors deny.
func (g *Gate) MayNotify(ctx context.Context, recipient *models.User, ref TargetRef) bool {
	if recipient == nil {
		return false
	}
	ok, err := g.ability.CanRead(ctx, recipient.ID, ref)
	if err != nil {
		logCtx := g.logg.WithFields(ctx, map[string]any{
			"recipient_id": recipient.ID,
			"target":       ref.String(),
		})
		g.logg.WarnErr(logCtx, "ability check failed, denying notification", err)
		return false
	}
	return ok
}
