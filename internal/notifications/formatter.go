package notifications

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
)

// Message is the rendered content of one notification.
type Message struct {
	Title         string
	Body          string
	MailMessageID string
}

// FormatInput carries everything a strategy may read.
type FormatInput struct {
	NotificationID uuid.UUID
	NotifyType     enums.NotifyType
	Resolved       *Resolved
	ActorName      string
	Meta           map[string]any
}

type strategyKey struct {
	notifyType enums.NotifyType
	kind       enums.TargetKind
}

type strategy func(f *Formatter, in FormatInput) (Message, error)

// strategies is the dispatch table for every supported (notify_type, target kind) pair.
var strategies = map[strategyKey]strategy{
	{enums.NotifyAddMember, enums.TargetMember}:      formatAddMember,
	{enums.NotifyRepoImport, enums.TargetRepository}: formatRepoImport,
	{enums.NotifyComment, enums.TargetComment}:       formatComment,
	{enums.NotifyMention, enums.TargetComment}:       formatCommentMention,
	{enums.NotifyMention, enums.TargetDoc}:           formatDocMention,
	{enums.NotifyIssueAssign, enums.TargetIssue}:     issueStrategy("has assigned to you.", "has assigned issue to you:"),
	{enums.NotifyNewIssue, enums.TargetIssue}:        issueStrategy("has opened new issue.", "has opened new issue:"),
	{enums.NotifyCloseIssue, enums.TargetIssue}:      issueStrategy("has closed issue.", "has closed issue:"),
	{enums.NotifyReopenIssue, enums.TargetIssue}:     issueStrategy("has reopened issue.", "has reopened issue:"),
}

// Formatter renders notification messages. host is the absolute base URL used for detail links.
type Formatter struct {
	host  string
	table map[strategyKey]strategy
}

// NewFormatter fails when an allow-listed notify type has no strategy.
func NewFormatter(host string) (*Formatter, error) {
	return newFormatter(host, strategies)
}

// MustNewFormatter is NewFormatter for process startup.
func MustNewFormatter(host string) *Formatter {
	f, err := NewFormatter(host)
	if err != nil {
		panic(err)
	}
	return f
}

func newFormatter(host string, table map[strategyKey]strategy) (*Formatter, error) {
	if missing := missingStrategies(table); len(missing) > 0 {
		return nil, fmt.Errorf("no message strategy registered for notify types: %s", strings.Join(missing, ", "))
	}
	return &Formatter{host: strings.TrimRight(strings.TrimSpace(host), "/"), table: table}, nil
}

func missingStrategies(table map[strategyKey]strategy) []string {
	covered := map[enums.NotifyType]bool{}
	for key := range table {
		covered[key.notifyType] = true
	}
	var missing []string
	for _, nt := range enums.NotifyTypes() {
		if !covered[nt] {
			missing = append(missing, string(nt))
		}
	}
	sort.Strings(missing)
	return missing
}

// Supports reports whether a strategy exists for the pair.
func (f *Formatter) Supports(notifyType enums.NotifyType, kind enums.TargetKind) bool {
	_, ok := f.table[strategyKey{notifyType: notifyType, kind: kind}]
	return ok
}

// Format renders the message for in. Unsupported pairs return a validation error.
func (f *Formatter) Format(in FormatInput) (Message, error) {
	if in.Resolved == nil || in.Resolved.Target == nil {
		return Message{}, pkgerrors.New(pkgerrors.CodeValidation, "resolved target required")
	}
	fn, ok := f.table[strategyKey{notifyType: in.NotifyType, kind: in.Resolved.Kind}]
	if !ok {
		return Message{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("notify type %s does not apply to %s targets", in.NotifyType, in.Resolved.Kind))
	}
	return fn(f, in)
}

// DetailURL is the in-app link for a stored notification.
func (f *Formatter) DetailURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/notifications/%s", f.host, id)
}

func formatAddMember(_ *Formatter, in FormatInput) (Message, error) {
	member, ok := in.Resolved.Target.(*MemberTarget)
	if !ok {
		return Message{}, unexpectedTarget(in)
	}
	token, subjectID := member.SubjectToken()
	title := fmt.Sprintf("%s has added you as a member of [%s]", in.ActorName, member.SubjectTitle())
	return Message{
		Title:         title,
		Body:          html.EscapeString(title),
		MailMessageID: threadKey(enums.NotifyAddMember, token, subjectID),
	}, nil
}

func formatRepoImport(_ *Formatter, in FormatInput) (Message, error) {
	repo, ok := in.Resolved.Target.(*RepositoryTarget)
	if !ok {
		return Message{}, unexpectedTarget(in)
	}
	title := fmt.Sprintf("Repository [%s] has been imported %s.", repo.FullName(), metaString(in.Meta, "status"))
	return Message{
		Title:         title,
		Body:          html.EscapeString(title),
		MailMessageID: threadKey(enums.NotifyRepoImport, string(enums.TargetRepository), repo.Repository.ID),
	}, nil
}

func formatComment(_ *Formatter, in FormatInput) (Message, error) {
	comment, ok := in.Resolved.Target.(*CommentTarget)
	if !ok {
		return Message{}, unexpectedTarget(in)
	}
	parent := in.Resolved.Title
	body := fmt.Sprintf(`<p><a style="font-weight:bold; color: #333" href="%s">%s</a></p><p><strong>%s</strong> said:</p> %s`,
		html.EscapeString(in.Resolved.URL),
		html.EscapeString(parent),
		html.EscapeString(in.ActorName),
		comment.Comment.BodyHTML,
	)
	return Message{
		Title:         parent + " got a comment.",
		Body:          body,
		MailMessageID: commentThreadKey(comment),
	}, nil
}

func formatCommentMention(_ *Formatter, in FormatInput) (Message, error) {
	comment, ok := in.Resolved.Target.(*CommentTarget)
	if !ok {
		return Message{}, unexpectedTarget(in)
	}
	body := fmt.Sprintf(`<p><strong>%s</strong> mentioned you:</p><div>%s</div>`,
		html.EscapeString(in.ActorName),
		in.Resolved.MentionExcerpt,
	)
	return Message{
		Title:         in.Resolved.Title + " got a comment.",
		Body:          body,
		MailMessageID: commentThreadKey(comment),
	}, nil
}

func formatDocMention(_ *Formatter, in FormatInput) (Message, error) {
	doc, ok := in.Resolved.Target.(*DocTarget)
	if !ok {
		return Message{}, unexpectedTarget(in)
	}
	body := fmt.Sprintf(`<p><strong>%s</strong> has mentioned you in [%s].</p><div>%s</div>`,
		html.EscapeString(in.ActorName),
		html.EscapeString(doc.Doc.Title),
		in.Resolved.MentionExcerpt,
	)
	// mentions share the comment thread of their document
	return Message{
		Title:         doc.Doc.Title + " content has mentioned you.",
		Body:          body,
		MailMessageID: threadKey(enums.NotifyComment, string(enums.TargetDoc), doc.Doc.ID),
	}, nil
}

func issueStrategy(titleSuffix, verb string) strategy {
	return func(f *Formatter, in FormatInput) (Message, error) {
		issue, ok := in.Resolved.Target.(*IssueTarget)
		if !ok {
			return Message{}, unexpectedTarget(in)
		}
		body := fmt.Sprintf(`<p><strong>%s</strong> %s</p><a href="%s">%s</a>`,
			html.EscapeString(in.ActorName),
			verb,
			html.EscapeString(f.DetailURL(in.NotificationID)),
			html.EscapeString(issue.Issue.Title),
		)
		return Message{
			Title:         issue.Issue.Title + " " + titleSuffix,
			Body:          body,
			MailMessageID: threadKey(in.NotifyType, string(enums.TargetIssue), issue.Issue.ID),
		}, nil
	}
}

func commentThreadKey(comment *CommentTarget) string {
	return threadKey(enums.NotifyComment, comment.Comment.CommentableType, comment.Comment.CommentableID)
}

func threadKey(notifyType enums.NotifyType, token string, id int64) string {
	return fmt.Sprintf("%s-%s-%d", notifyType, token, id)
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	value, ok := meta[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func unexpectedTarget(in FormatInput) error {
	return pkgerrors.New(pkgerrors.CodeInternal,
		fmt.Sprintf("strategy %s/%s received %T", in.NotifyType, in.Resolved.Kind, in.Resolved.Target))
}
