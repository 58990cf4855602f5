package notifications

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
	"github.com/NeatNerdPrime/bluedoc/pkg/render"
)

// Resolved is a loaded target plus the presentational fields the formatter needs.
type Resolved struct {
	Target         Target
	Kind           enums.TargetKind
	URL            string
	Title          string
	MentionExcerpt string
}

// Resolver loads targets and derives their URL, title and mention excerpt.
type Resolver struct {
	loader   TargetLoader
	urls     URLBuilder
	renderer render.Renderer
}

func NewResolver(loader TargetLoader, urls URLBuilder, renderer render.Renderer) (*Resolver, error) {
	if loader == nil {
		return nil, errors.New("target loader required")
	}
	if urls == nil {
		return nil, errors.New("url builder required")
	}
	if renderer == nil {
		renderer = render.Simple{}
	}
	return &Resolver{loader: loader, urls: urls, renderer: renderer}, nil
}

// Resolve loads ref for notifyType. recipient may be nil; it is only used for doc mention excerpts.
func (r *Resolver) Resolve(ctx context.Context, notifyType enums.NotifyType, ref TargetRef, recipient *models.User) (*Resolved, error) {
	if !ref.Kind.IsValid() {
		return nil, &TargetResolutionError{
			Ref: ref,
			Err: pkgerrors.New(pkgerrors.CodeValidation, "unsupported target type "+string(ref.Kind)),
		}
	}
	if ref.ID <= 0 {
		return nil, &TargetResolutionError{Ref: ref, Err: pkgerrors.New(pkgerrors.CodeValidation, "target id required")}
	}

	target, err := r.loader.LoadTarget(ctx, ref)
	if err != nil {
		return nil, newResolutionError(ref, err)
	}
	if target == nil {
		return nil, newResolutionError(ref, ErrTargetNotFound)
	}
	if got := target.Ref(); got.Kind != ref.Kind {
		return nil, &TargetResolutionError{
			Ref: ref,
			Err: pkgerrors.New(pkgerrors.CodeValidation, "loader returned "+string(got.Kind)),
		}
	}

	return &Resolved{
		Target:         target,
		Kind:           ref.Kind,
		URL:            r.urls.CanonicalURL(target),
		Title:          Title(target),
		MentionExcerpt: r.mentionExcerpt(notifyType, target, recipient),
	}, nil
}

func (r *Resolver) mentionExcerpt(notifyType enums.NotifyType, target Target, recipient *models.User) string {
	if notifyType != enums.NotifyMention && notifyType != enums.NotifyComment {
		return ""
	}
	switch t := target.(type) {
	case *CommentTarget:
		return t.Comment.BodyHTML
	case *DocTarget:
		if notifyType != enums.NotifyMention || recipient == nil {
			return ""
		}
		lines := MentionLines(t.Doc.Body, recipient.Slug)
		if len(lines) == 0 {
			return ""
		}
		return r.renderer.SimpleFormat(strings.Join(lines, "\n\n"))
	default:
		return ""
	}
}

const slugChars = `A-Za-z0-9_\-`

// MentionLines returns the trimmed lines of body that mention @slug, in source order.
// "@bob" does not match "@bobby" or "alice@bob".
func MentionLines(body, slug string) []string {
	slug = strings.TrimSpace(slug)
	if slug == "" || body == "" {
		return nil
	}
	token := regexp.MustCompile(`(?:^|[^` + slugChars + `@.])@` + regexp.QuoteMeta(slug) + `(?:$|[^` + slugChars + `])`)

	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(normalized, "\n") {
		if token.MatchString(line) {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}
