package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/go-playground/validator/v10"

	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
	"github.com/NeatNerdPrime/bluedoc/pkg/events"
	"github.com/NeatNerdPrime/bluedoc/pkg/idempotency"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/metrics"
)

const requestedConsumerName = "notification-requested"

// Consumer turns notification.requested events into TrackNotification calls.
type Consumer struct {
	svc          Service
	subscription *pubsub.Subscriber
	idempotency  idempotency.Guard
	validate     *validator.Validate
	metrics      *metrics.NotificationMetrics
	logg         *logger.Logger
}

func NewConsumer(svc Service, subscription *pubsub.Subscriber, guard idempotency.Guard, m *metrics.NotificationMetrics, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("events subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		idempotency:  guard,
		validate:     validator.New(),
		metrics:      m,
		logg:         logg,
	}, nil
}

// Run receives messages until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

const (
	resultAcked     = "acked"
	resultSkipped   = "skipped"
	resultDuplicate = "duplicate"
	resultPoison    = "poison"
	resultRetry     = "retry"
)

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes[events.AttributeEventType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != events.NotificationRequested {
		c.metrics.IncEvent(resultSkipped)
		c.logg.Debug(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}

	envelope, eventID, err := events.Decode(msg.Data)
	if err != nil {
		c.metrics.IncEvent(resultPoison)
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	var payload events.NotificationRequestedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.metrics.IncEvent(resultPoison)
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	if err := c.validate.Struct(payload); err != nil {
		c.metrics.IncEvent(resultPoison)
		c.logg.Error(logCtx, "invalid notification payload", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, requestedConsumerName, eventID)
	if err != nil {
		c.metrics.IncEvent(resultRetry)
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.metrics.IncEvent(resultDuplicate)
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(logCtx, payload); err != nil {
		if !retryable(err) {
			c.metrics.IncEvent(resultPoison)
			c.logg.Error(logCtx, "notification request cannot be processed", err)
			return processResult{ack: true}
		}
		c.metrics.IncEvent(resultRetry)
		c.logg.Error(c.logg.WithFields(logCtx, pkgerrors.Dump(err).Fields()), "notification request failed, will retry", err)
		if delErr := c.idempotency.Delete(ctx, requestedConsumerName, eventID); delErr != nil {
			c.logg.WarnErr(logCtx, "failed to release idempotency key", delErr)
		}
		return processResult{nack: true}
	}

	c.metrics.IncEvent(resultAcked)
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, payload events.NotificationRequestedPayload) error {
	ref := TargetRef{Kind: enums.TargetKind(payload.Target.Type), ID: payload.Target.ID}
	var actorID int64
	if payload.ActorID != nil {
		actorID = *payload.ActorID
	}
	for _, userID := range payload.UserIDs {
		_, err := c.svc.TrackNotification(ctx, payload.NotifyType, ref, TrackOptions{
			UserID:  userID,
			ActorID: actorID,
			Meta:    payload.Meta,
		})
		if err != nil {
			return fmt.Errorf("track notification for user %d: %w", userID, err)
		}
	}
	return nil
}

// retryable treats resolution and validation failures as permanent.
func retryable(err error) bool {
	return pkgerrors.Retryable(err)
}
