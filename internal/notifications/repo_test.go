package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/NeatNerdPrime/bluedoc/internal/testdb"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	"github.com/NeatNerdPrime/bluedoc/pkg/pagination"
)

func seedNotification(t *testing.T, repo Repository, userID int64, kind enums.TargetKind, targetID int64, createdAt time.Time) *models.Notification {
	t.Helper()
	n := &models.Notification{
		NotifyType: enums.NotifyComment,
		UserID:     userID,
		TargetType: kind,
		TargetID:   targetID,
		CreatedAt:  createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func reload(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Notification {
	t.Helper()
	var n models.Notification
	require.NoError(t, conn.First(&n, "id = ?", id).Error)
	return n
}

func TestRepositoryCreateAssignsIDAndMeta(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	actor := int64(1)

	n := &models.Notification{
		NotifyType: enums.NotifyRepoImport,
		ActorID:    &actor,
		UserID:     2,
		TargetType: enums.TargetRepository,
		TargetID:   20,
		Meta:       datatypes.JSONMap{"status": "success"},
	}
	require.NoError(t, repo.Create(context.Background(), n))
	require.NotEqual(t, uuid.Nil, n.ID)

	stored := reload(t, conn, n.ID)
	assert.Equal(t, "success", stored.MetaString("status"))
	assert.Equal(t, actor, *stored.ActorID)
	assert.Nil(t, stored.ReadAt)
}

func TestRepositoryReadTargets(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	base := time.Now().UTC().Add(-time.Hour)

	first := seedNotification(t, repo, 2, enums.TargetDoc, 7, base)
	second := seedNotification(t, repo, 2, enums.TargetDoc, 7, base.Add(time.Second))
	otherDoc := seedNotification(t, repo, 2, enums.TargetDoc, 8, base)
	otherKind := seedNotification(t, repo, 2, enums.TargetIssue, 7, base)
	otherUser := seedNotification(t, repo, 3, enums.TargetDoc, 7, base)

	now := time.Now().UTC()
	count, err := repo.ReadTargets(context.Background(), 2, enums.TargetDoc, []int64{7}, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		assert.NotNil(t, reload(t, conn, id).ReadAt)
	}
	for _, id := range []uuid.UUID{otherDoc.ID, otherKind.ID, otherUser.ID} {
		assert.Nil(t, reload(t, conn, id).ReadAt)
	}

	firstReadAt := *reload(t, conn, first.ID).ReadAt
	count, err = repo.ReadTargets(context.Background(), 2, enums.TargetDoc, []int64{7}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count, "second call is a no-op")
	assert.True(t, firstReadAt.Equal(*reload(t, conn, first.ID).ReadAt), "read_at never moves")

	count, err = repo.ReadTargets(context.Background(), 2, enums.TargetDoc, nil, now)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepositoryListPaginates(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var created []*models.Notification
	for i := 0; i < 5; i++ {
		created = append(created, seedNotification(t, repo, 2, enums.TargetDoc, int64(i+1), base.Add(time.Duration(i)*time.Minute)))
	}
	seedNotification(t, repo, 3, enums.TargetDoc, 1, base)

	rows, err := repo.List(context.Background(), listNotificationsParams{UserID: 2, Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, created[4].ID, rows[0].ID, "newest first")

	last := rows[1]
	rows, err = repo.List(context.Background(), listNotificationsParams{
		UserID: 2,
		Limit:  10,
		Cursor: &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, created[2].ID, rows[0].ID)
	assert.Equal(t, created[0].ID, rows[2].ID)
}

func TestRepositoryListUnreadOnly(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	base := time.Now().UTC()

	read := seedNotification(t, repo, 2, enums.TargetDoc, 1, base)
	unread := seedNotification(t, repo, 2, enums.TargetDoc, 2, base)
	_, err := repo.MarkRead(context.Background(), 2, read.ID, base)
	require.NoError(t, err)

	rows, err := repo.List(context.Background(), listNotificationsParams{UserID: 2, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)

	count, err := repo.CountUnread(context.Background(), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRepositoryMarkRead(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	n := seedNotification(t, repo, 2, enums.TargetDoc, 1, time.Now().UTC())

	res, err := repo.MarkRead(context.Background(), 2, n.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, notificationMarkResult{Updated: true, Found: true}, res)

	res, err = repo.MarkRead(context.Background(), 2, n.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, notificationMarkResult{Updated: false, Found: true}, res)

	res, err = repo.MarkRead(context.Background(), 3, n.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, res.Found, "other users cannot see the notification")
}

func TestRepositoryMarkAllReadAndFind(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	base := time.Now().UTC()
	n := seedNotification(t, repo, 2, enums.TargetDoc, 1, base)
	seedNotification(t, repo, 2, enums.TargetIssue, 1, base)
	seedNotification(t, repo, 3, enums.TargetIssue, 1, base)

	count, err := repo.MarkAllRead(context.Background(), 2, base)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	unread, err := repo.CountUnread(context.Background(), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	found, err := repo.FindForUser(context.Background(), 2, n.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsRead())

	missing, err := repo.FindForUser(context.Background(), 3, n.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryWithTx(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	require.Same(t, repo, repo.WithTx(nil))

	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).Create(context.Background(), &models.Notification{
			NotifyType: enums.NotifyComment, UserID: 2, TargetType: enums.TargetDoc, TargetID: 1,
		})
	})
	require.NoError(t, err)
	count, err := repo.CountUnread(context.Background(), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
