package directory

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/NeatNerdPrime/bluedoc/internal/testdb"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
)

const testHost = "https://bluedoc.test"

// seedHost writes a small host directory:
//
//	acme (group 10) owns private repo handbook (20) with doc guide (7) and issue #3 (40)
//	alice (1) owns public repo notes (21) with doc faq (8)
//	bob (2) is a member of acme, carol (3) a member of handbook, dave (4) is deleted
func seedHost(t *testing.T) *gorm.DB {
	t.Helper()
	conn := testdb.Open(t)
	deleted := time.Now().UTC().Add(-time.Hour)
	testdb.Seed(t, conn,
		&models.User{ID: 1, Type: models.PrincipalUser, Slug: "alice", Name: "Alice", Email: "alice@example.com"},
		&models.User{ID: 2, Type: models.PrincipalUser, Slug: "bob", Name: "Bob", Email: "bob@example.com"},
		&models.User{ID: 3, Type: models.PrincipalUser, Slug: "carol", Email: "carol@example.com"},
		&models.User{ID: 4, Type: models.PrincipalUser, Slug: "dave", DeletedAt: &deleted},
		&models.User{ID: 10, Type: models.PrincipalGroup, Slug: "acme", Name: "Acme"},

		&models.Repository{ID: 20, UserID: 10, Slug: "handbook", Name: "Handbook", Privacy: models.PrivacyPrivate},
		&models.Repository{ID: 21, UserID: 1, Slug: "notes", Name: "Notes", Privacy: models.PrivacyPublic},
		&models.Repository{ID: 22, UserID: 1, Slug: "old", Privacy: models.PrivacyPublic, DeletedAt: &deleted},

		&models.Member{ID: 30, UserID: 2, SubjectType: "User", SubjectID: 10, Role: "reader"},
		&models.Member{ID: 31, UserID: 3, SubjectType: "Repository", SubjectID: 20, Role: "editor"},
		&models.Member{ID: 32, UserID: 3, SubjectType: "Repository", SubjectID: 22, Role: "editor"},
		&models.Member{ID: 33, UserID: 3, SubjectType: "User", SubjectID: 1, Role: "reader"},

		&models.Doc{ID: 7, RepositoryID: 20, Slug: "guide", Title: "Guide", Body: "Hello @bob"},
		&models.Doc{ID: 8, RepositoryID: 21, Slug: "faq", Title: "FAQ"},
		&models.Doc{ID: 9, RepositoryID: 20, Slug: "gone", Title: "Gone", DeletedAt: &deleted},

		&models.Issue{ID: 40, RepositoryID: 20, IID: 3, Title: "Broken link"},

		&models.Comment{ID: 50, CommentableType: "Doc", CommentableID: 7, UserID: 1, BodyHTML: "<p>nice</p>"},
		&models.Comment{ID: 51, CommentableType: "Issue", CommentableID: 40, UserID: 1},
		&models.Comment{ID: 52, CommentableType: "Topic", CommentableID: 1, UserID: 1},
	)
	return conn
}

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := New(seedHost(t))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	return d
}
