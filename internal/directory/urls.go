package directory

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
)

// URLs builds absolute links to host pages.
type URLs struct {
	host string
}

func NewURLs(host string) (*URLs, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "app host required")
	}
	return &URLs{host: host}, nil
}

func (u *URLs) CanonicalURL(target notifications.Target) string {
	switch t := target.(type) {
	case *notifications.RepositoryTarget:
		return u.repository(t)
	case *notifications.MemberTarget:
		if t.Repository != nil {
			return u.repository(t.Repository)
		}
		if t.Group != nil {
			return u.join(t.Group.Slug)
		}
		return u.host
	case *notifications.DocTarget:
		return u.repository(&t.Repository) + "/" + url.PathEscape(t.Doc.Slug)
	case *notifications.IssueTarget:
		return fmt.Sprintf("%s/issues/%d", u.repository(&t.Repository), t.Issue.IID)
	case *notifications.CommentTarget:
		base := u.host
		if t.Parent != nil {
			base = u.CanonicalURL(t.Parent)
		}
		return fmt.Sprintf("%s#comment-%d", base, t.Comment.ID)
	default:
		return u.host
	}
}

func (u *URLs) repository(t *notifications.RepositoryTarget) string {
	return u.join(t.Owner.Slug, t.Repository.Slug)
}

func (u *URLs) join(segments ...string) string {
	var b strings.Builder
	b.WriteString(u.host)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
