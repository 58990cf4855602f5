package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
)

const (
	kindSubscriptions = "subscriptions"
	kindTopics        = "topics"
)

// Client wraps the Pub/Sub v2 client with the notification subscription and mail topic.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoSubscription    = errors.New("pubsub events subscription is required")
)

// NewClient creates a Pub/Sub v2 client. With requireSubscription the events subscription must
// exist, and so must the mail topic when one is configured. The API process only publishes and passes false.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, requireSubscription bool, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: psClient, projectID: gcp.ProjectID, cfg: cfg}

	if requireSubscription {
		if err := c.verify(ctx); err != nil {
			_ = psClient.Close()
			return nil, err
		}
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id":   gcp.ProjectID,
			"subscription": cfg.EventsSubscription,
			"mail_topic":   cfg.MailTopic,
		}), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) verify(ctx context.Context) error {
	sub := c.resourceName(kindSubscriptions, c.cfg.EventsSubscription)
	if sub == "" {
		return errNoSubscription
	}
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: sub})
	if err := notFoundAware("subscription", sub, err); err != nil {
		return err
	}

	if topic := c.resourceName(kindTopics, c.cfg.MailTopic); topic != "" {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
		if err := notFoundAware("topic", topic, err); err != nil {
			return err
		}
	}
	return nil
}

// notFoundAware separates a missing resource (gRPC NotFound) from a transport failure.
func notFoundAware(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	default:
		return fmt.Errorf("checking %s %q: %w", kind, name, err)
	}
}

// resourceName expands a bare ID to projects/<project>/<kind>/<id>. Full resource names pass through.
func (c *Client) resourceName(kind, name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	if strings.TrimSpace(c.projectID) == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", c.projectID, kind, n)
}

// Subscription returns a Subscriber for an ID or full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(kindSubscriptions, name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

// EventsSubscription returns the subscriber for notification.requested events.
func (c *Client) EventsSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscription(c.cfg.EventsSubscription)
}

// Publisher returns a Publisher for an ID or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(kindTopics, name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// MailPublisher returns the publisher for composed notification mail, or nil when no topic is configured.
func (c *Client) MailPublisher() *pubsub.Publisher {
	if c == nil || strings.TrimSpace(c.cfg.MailTopic) == "" {
		return nil
	}
	return c.Publisher(c.cfg.MailTopic)
}

// Ping re-checks the events subscription (and mail topic) when one is configured.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	if strings.TrimSpace(c.cfg.EventsSubscription) == "" {
		return nil
	}
	return c.verify(ctx)
}

// Close releases the Pub/Sub client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
