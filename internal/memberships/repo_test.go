package memberships

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeatNerdPrime/bluedoc/internal/testdb"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
)

func TestMembershipLookups(t *testing.T) {
	conn := testdb.Open(t)
	testdb.Seed(t, conn,
		&models.Member{ID: 30, UserID: 2, SubjectType: SubjectGroup, SubjectID: 10, Role: "reader"},
		&models.Member{ID: 31, UserID: 3, SubjectType: SubjectRepository, SubjectID: 20, Role: "editor"},
	)
	repo := NewRepository(conn)
	ctx := context.Background()

	member, err := repo.Find(ctx, 31)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, "editor", member.Role)

	member, err = repo.Find(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, member)

	ok, err := repo.IsMember(ctx, 2, SubjectGroup, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMember(ctx, 2, SubjectRepository, 10)
	require.NoError(t, err)
	assert.False(t, ok, "subject type is part of the key")

	ok, err = repo.IsMember(ctx, 3, SubjectRepository, 20)
	require.NoError(t, err)
	assert.True(t, ok)
}
