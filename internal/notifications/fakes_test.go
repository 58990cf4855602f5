package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/NeatNerdPrime/bluedoc/internal/mailer"
	"github.com/NeatNerdPrime/bluedoc/internal/testdb"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/metrics"
	"github.com/NeatNerdPrime/bluedoc/pkg/render"
)

const testHost = "https://bluedoc.test"

// world is a small fixed directory shared by the tests in this package.
type world struct {
	alice, bob, carol *models.User
	group             *models.User
	repo              *RepositoryTarget
	groupMember       *MemberTarget
	repoMember        *MemberTarget
	doc               *DocTarget
	otherDoc          *DocTarget
	issue             *IssueTarget
	docComment        *CommentTarget
	issueComment      *CommentTarget
}

func newWorld() *world {
	w := &world{
		alice: &models.User{ID: 1, Type: models.PrincipalUser, Slug: "alice", Name: "Alice", Email: "alice@example.com"},
		bob:   &models.User{ID: 2, Type: models.PrincipalUser, Slug: "bob", Name: "Bob", Email: "bob@example.com"},
		carol: &models.User{ID: 3, Type: models.PrincipalUser, Slug: "carol", Name: "Carol", Email: "carol@example.com"},
		group: &models.User{ID: 10, Type: models.PrincipalGroup, Slug: "acme", Name: "Acme"},
	}
	w.repo = &RepositoryTarget{
		Repository: models.Repository{ID: 20, UserID: 10, Slug: "handbook", Name: "Handbook", Privacy: models.PrivacyPrivate},
		Owner:      *w.group,
	}
	w.groupMember = &MemberTarget{
		Member: models.Member{ID: 30, UserID: 2, SubjectType: models.PrincipalUser, SubjectID: 10, Role: "reader"},
		Group:  w.group,
	}
	w.repoMember = &MemberTarget{
		Member:     models.Member{ID: 31, UserID: 2, SubjectType: "Repository", SubjectID: 20, Role: "editor"},
		Repository: w.repo,
	}
	w.doc = &DocTarget{
		Doc:        models.Doc{ID: 7, RepositoryID: 20, Slug: "guide", Title: "Guide", Body: "Hello @bob\nunrelated @bobby line\n\n  @bob hello  "},
		Repository: *w.repo,
	}
	w.otherDoc = &DocTarget{
		Doc:        models.Doc{ID: 8, RepositoryID: 20, Slug: "faq", Title: "FAQ", Body: "nothing here"},
		Repository: *w.repo,
	}
	w.issue = &IssueTarget{
		Issue:      models.Issue{ID: 40, RepositoryID: 20, IID: 3, Title: "Broken link", BodyHTML: "<p>it is broken</p>"},
		Repository: *w.repo,
	}
	w.docComment = &CommentTarget{
		Comment: models.Comment{ID: 50, CommentableType: "Doc", CommentableID: 7, UserID: 1, BodyHTML: "<p>nice work @bob</p>"},
		Parent:  w.doc,
	}
	w.issueComment = &CommentTarget{
		Comment: models.Comment{ID: 51, CommentableType: "Issue", CommentableID: 40, UserID: 1, BodyHTML: "<p>fixed?</p>"},
		Parent:  w.issue,
	}
	return w
}

func (w *world) targets() []Target {
	return []Target{w.repo, w.groupMember, w.repoMember, w.doc, w.otherDoc, w.issue, w.docComment, w.issueComment}
}

func (w *world) users() []*models.User {
	return []*models.User{w.alice, w.bob, w.carol, w.group}
}

type fakeLoader struct {
	targets map[TargetRef]Target
	err     error
	calls   int
}

func newFakeLoader(targets ...Target) *fakeLoader {
	l := &fakeLoader{targets: map[TargetRef]Target{}}
	for _, t := range targets {
		l.targets[t.Ref()] = t
	}
	return l
}

func (l *fakeLoader) LoadTarget(_ context.Context, ref TargetRef) (Target, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	t, ok := l.targets[ref]
	if !ok {
		return nil, ErrTargetNotFound
	}
	return t, nil
}

type fakeURLs struct{}

func (fakeURLs) CanonicalURL(target Target) string {
	ref := target.Ref()
	return fmt.Sprintf("%s/%s/%d", testHost, ref.Kind, ref.ID)
}

// fakeAbility allows everything except the denied (user, ref) pairs.
type fakeAbility struct {
	denied map[int64]map[TargetRef]bool
	err    error
}

func (a *fakeAbility) deny(userID int64, ref TargetRef) {
	if a.denied == nil {
		a.denied = map[int64]map[TargetRef]bool{}
	}
	if a.denied[userID] == nil {
		a.denied[userID] = map[TargetRef]bool{}
	}
	a.denied[userID][ref] = true
}

func (a *fakeAbility) CanRead(_ context.Context, userID int64, ref TargetRef) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return !a.denied[userID][ref], nil
}

type fakeUsers struct {
	byID map[int64]*models.User
	err  error
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindUser(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *fakeMailer) Enqueue(_ context.Context, msg mailer.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return true
}

func (m *fakeMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

type fakeCache struct {
	counts      map[int64]int64
	invalidated []int64
	readErr     error
}

func (c *fakeCache) UnreadCount(_ context.Context, userID int64) (int64, bool, error) {
	if c.readErr != nil {
		return 0, false, c.readErr
	}
	v, ok := c.counts[userID]
	return v, ok, nil
}

func (c *fakeCache) StoreUnreadCount(_ context.Context, userID, count int64, _ time.Duration) error {
	if c.counts == nil {
		c.counts = map[int64]int64{}
	}
	c.counts[userID] = count
	return nil
}

func (c *fakeCache) InvalidateUnread(_ context.Context, userIDs ...int64) error {
	for _, id := range userIDs {
		delete(c.counts, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type harness struct {
	world   *world
	repo    Repository
	loader  *fakeLoader
	ability *fakeAbility
	users   *fakeUsers
	mailer  *fakeMailer
	cache   *fakeCache
	reg     *prometheus.Registry
	metrics *metrics.NotificationMetrics
	svc     Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	w := newWorld()
	reg := prometheus.NewRegistry()
	h := &harness{
		world:   w,
		repo:    NewRepository(testdb.Open(t)),
		loader:  newFakeLoader(w.targets()...),
		ability: &fakeAbility{},
		users:   newFakeUsers(w.users()...),
		mailer:  &fakeMailer{},
		cache:   &fakeCache{},
		reg:     reg,
		metrics: metrics.NewNotificationMetrics(reg),
	}

	resolver, err := NewResolver(h.loader, fakeURLs{}, render.Simple{})
	require.NoError(t, err)
	gate, err := NewGate(h.ability, logger.Nop())
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:      h.repo,
		Users:     h.users,
		Resolver:  resolver,
		Gate:      gate,
		Formatter: MustNewFormatter(testHost),
		Mailer:    h.mailer,
		Cache:     h.cache,
		Metrics:   h.metrics,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) list(t *testing.T, userID int64) []models.Notification {
	t.Helper()
	res, err := h.svc.List(context.Background(), ListParams{UserID: userID, Limit: 100})
	require.NoError(t, err)
	return res.Items
}

// counter reads one labelled counter from the harness registry; absent series read as zero.
func (h *harness) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := h.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabels(m *dto.Metric, labels map[string]string) bool {
	for _, lp := range m.GetLabel() {
		if labels[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

func (h *harness) dispatched(t *testing.T, notifyType, outcome string) float64 {
	return h.counter(t, "notifications_dispatch_total", map[string]string{"notify_type": notifyType, "outcome": outcome})
}

func refOf(kind enums.TargetKind, id int64) TargetRef {
	return TargetRef{Kind: kind, ID: id}
}

var errBoom = errors.New("boom")
