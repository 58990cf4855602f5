package repo

import (
	"context"
	"testing"

	"github.com/NeatNerdPrime/bluedoc/internal/testdb"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
)

func TestBaseDBBindsContext(t *testing.T) {
	conn := testdb.Open(t)
	base := NewBase(conn)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	if got := base.DB(ctx).Statement.Context; got != ctx {
		t.Fatalf("expected context to flow through, got %v", got)
	}
	if base.DB(nil) != conn {
		t.Fatal("expected nil context to return the raw connection")
	}
}

func TestBaseTake(t *testing.T) {
	conn := testdb.Open(t)
	testdb.Seed(t, conn, &models.User{ID: 1, Type: models.PrincipalUser, Slug: "alice", Email: "alice@example.com"})
	base := NewBase(conn)

	var user models.User
	found, err := base.Take(context.Background(), &user, "slug = ?", "alice")
	if err != nil || !found {
		t.Fatalf("expected alice, found=%v err=%v", found, err)
	}
	if user.ID != 1 {
		t.Fatalf("unexpected user %+v", user)
	}

	found, err = base.Take(context.Background(), &models.User{}, "slug = ?", "nobody")
	if err != nil || found {
		t.Fatalf("expected a clean miss, found=%v err=%v", found, err)
	}

	if _, err := base.Take(context.Background(), &models.User{}, "no_such_column = ?", 1); err == nil {
		t.Fatal("expected query errors to surface")
	}
}
