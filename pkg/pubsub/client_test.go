package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "acme"}

	require.Equal(t, "projects/acme/subscriptions/notify-events", c.resourceName(kindSubscriptions, "notify-events"))
	require.Equal(t, "projects/other/subscriptions/x", c.resourceName(kindSubscriptions, "projects/other/subscriptions/x"))
	require.Equal(t, "", c.resourceName(kindSubscriptions, "  "))
	require.Equal(t, "projects/acme/topics/mail", c.resourceName(kindTopics, " mail "))
	require.Equal(t, "projects/other/topics/mail", c.resourceName(kindTopics, "projects/other/topics/mail"))
	// a subscription path is not accepted as a topic
	require.Equal(t, "projects/acme/topics/projects/other/subscriptions/x", c.resourceName(kindTopics, "projects/other/subscriptions/x"))

	require.Equal(t, "", (&Client{}).resourceName(kindTopics, "mail"))
}

func TestNotFoundAware(t *testing.T) {
	require.NoError(t, notFoundAware("topic", "t", nil))
	require.ErrorContains(t, notFoundAware("topic", "t", status.Error(codes.NotFound, "gone")), "does not exist")

	cause := status.Error(codes.Unavailable, "down")
	err := notFoundAware("subscription", "s", cause)
	require.True(t, errors.Is(err, cause))
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.Subscription("x"))
	require.Nil(t, c.EventsSubscription())
	require.Nil(t, c.Publisher("x"))
	require.Nil(t, c.MailPublisher())
	require.Error(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())

	noTopic := &Client{projectID: "acme"}
	require.Nil(t, noTopic.MailPublisher())
}
