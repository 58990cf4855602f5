package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeatNerdPrime/bluedoc/internal/mailer"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/render"
)

type capturingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *capturingMailer) Enqueue(_ context.Context, msg mailer.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return true
}

func newDirectoryService(t *testing.T) (notifications.Service, *capturingMailer) {
	t.Helper()
	conn := seedHost(t)
	d, err := New(conn)
	require.NoError(t, err)
	urls, err := NewURLs(testHost)
	require.NoError(t, err)
	resolver, err := notifications.NewResolver(d, urls, render.Simple{})
	require.NoError(t, err)
	gate, err := notifications.NewGate(d, logger.Nop())
	require.NoError(t, err)
	formatter, err := notifications.NewFormatter(testHost)
	require.NoError(t, err)

	mail := &capturingMailer{}
	svc, err := notifications.NewService(notifications.ServiceParams{
		Repo:      notifications.NewRepository(conn),
		Users:     d,
		Resolver:  resolver,
		Gate:      gate,
		Formatter: formatter,
		Mailer:    mail,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return svc, mail
}

func TestDispatchHonorsRepositoryPrivacy(t *testing.T) {
	svc, mail := newDirectoryService(t)
	ctx := context.Background()
	issue := ref(enums.TargetIssue, 40)

	// alice watches the issue but cannot read the private repository
	n, err := svc.TrackNotification(ctx, "new_issue", issue, notifications.TrackOptions{UserID: 1, ActorID: 3})
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = svc.TrackNotification(ctx, "new_issue", issue, notifications.TrackOptions{UserID: 2, ActorID: 3})
	require.NoError(t, err)
	require.NotNil(t, n)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "bob@example.com", mail.sent[0].To)
	assert.Equal(t, "Broken link has opened new issue.", mail.sent[0].Subject)
	assert.Contains(t, mail.sent[0].HTMLBody, "<strong>carol</strong> has opened new issue:")
	assert.Contains(t, mail.sent[0].HTMLBody, testHost+"/notifications/"+n.ID.String())

	rendered, err := svc.Render(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, testHost+"/acme/handbook/issues/3", rendered.URL)
}

func TestDispatchDocMention(t *testing.T) {
	svc, mail := newDirectoryService(t)
	ctx := context.Background()

	n, err := svc.TrackNotification(ctx, "mention", ref(enums.TargetDoc, 7), notifications.TrackOptions{UserID: 2, ActorID: 1})
	require.NoError(t, err)
	require.NotNil(t, n)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Guide content has mentioned you.", mail.sent[0].Subject)
	assert.Equal(t, "comment-Doc-7", mail.sent[0].ThreadKey)

	rendered, err := svc.Render(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, "Hello @bob", rendered.MentionExcerpt)
}
