package mailer

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
)

// Transport delivers composed mail.
type Transport interface {
	Send(ctx context.Context, env Envelope) error
}

// PubSubTransport publishes raw mail to a topic consumed by the outbound mail relay.
type PubSubTransport struct {
	publish func(ctx context.Context, msg *pubsub.Message) error
}

func NewPubSubTransport(publisher *pubsub.Publisher) (*PubSubTransport, error) {
	if publisher == nil {
		return nil, errors.New("mail publisher required")
	}
	return &PubSubTransport{
		publish: func(ctx context.Context, msg *pubsub.Message) error {
			_, err := publisher.Publish(ctx, msg).Get(ctx)
			return err
		},
	}, nil
}

func (t *PubSubTransport) Send(ctx context.Context, env Envelope) error {
	return t.publish(ctx, &pubsub.Message{
		Data:       env.Raw,
		Attributes: envelopeAttributes(env),
	})
}

func envelopeAttributes(env Envelope) map[string]string {
	attrs := map[string]string{
		"to":         env.To,
		"message_id": env.MessageID,
	}
	if env.ThreadKey != "" {
		attrs["thread_key"] = env.ThreadKey
	}
	return attrs
}

// LogTransport only logs mail. Used when no mail topic is configured.
type LogTransport struct {
	logg *logger.Logger
}

func NewLogTransport(logg *logger.Logger) *LogTransport {
	return &LogTransport{logg: logg}
}

func (t *LogTransport) Send(ctx context.Context, env Envelope) error {
	logCtx := t.logg.WithFields(ctx, map[string]any{
		"to":         env.To,
		"message_id": env.MessageID,
		"thread_key": env.ThreadKey,
		"bytes":      len(env.Raw),
	})
	t.logg.Info(logCtx, "mail transport disabled, logging notification mail")
	return nil
}
