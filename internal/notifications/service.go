package notifications

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/NeatNerdPrime/bluedoc/internal/mailer"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/metrics"
	"github.com/NeatNerdPrime/bluedoc/pkg/pagination"
)

const unreadCacheTTL = 5 * time.Minute

// Service records notifications and manages their read state.
type Service interface {
	TrackNotification(ctx context.Context, notifyType string, ref TargetRef, opts TrackOptions) (*models.Notification, error)
	ReadTargets(ctx context.Context, user *models.User, kind enums.TargetKind, targetIDs []int64) (int64, error)
	Render(ctx context.Context, n *models.Notification) (*Rendered, error)
	Get(ctx context.Context, userID int64, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID int64, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// TrackOptions names the recipient and actor of one notification.
// User wins over UserID and Actor over ActorID when both are set.
type TrackOptions struct {
	User    *models.User
	UserID  int64
	Actor   *models.User
	ActorID int64
	Meta    map[string]any
}

// Rendered is the presentable form of a stored notification.
type Rendered struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	MailMessageID  string `json:"mailMessageId"`
	URL            string `json:"url"`
	MentionExcerpt string `json:"mentionExcerpt"`
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     int64
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// ServiceParams wires a Service. Cache and Metrics are optional.
type ServiceParams struct {
	Repo      Repository
	Users     UserDirectory
	Resolver  *Resolver
	Gate      *Gate
	Formatter *Formatter
	Mailer    Mailer
	Cache     UnreadCache
	Metrics   *metrics.NotificationMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	users     UserDirectory
	resolver  *Resolver
	gate      *Gate
	formatter *Formatter
	mailer    Mailer
	cache     UnreadCache
	metrics   *metrics.NotificationMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	case p.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	case p.Resolver == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "target resolver required")
	case p.Gate == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "permission gate required")
	case p.Formatter == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "message formatter required")
	case p.Mailer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	case p.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      p.Repo,
		users:     p.Users,
		resolver:  p.Resolver,
		gate:      p.Gate,
		formatter: p.Formatter,
		mailer:    p.Mailer,
		cache:     p.Cache,
		metrics:   p.Metrics,
		logg:      p.Logger,
		now:       now,
	}, nil
}

// TrackNotification records one notification and enqueues its mail.
// Unknown types, missing recipients, self-notifications and denied targets return (nil, nil).
func (s *service) TrackNotification(ctx context.Context, notifyType string, ref TargetRef, opts TrackOptions) (*models.Notification, error) {
	started := s.now()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"notify_type": notifyType,
		"target":      ref.String(),
	})

	nt, err := enums.ParseNotifyType(notifyType)
	if err != nil {
		s.metrics.IncDispatch(notifyType, metrics.OutcomeUnknownType)
		s.logg.Info(logCtx, "ignoring unknown notify type")
		return nil, nil
	}
	defer func() { s.metrics.ObserveDispatch(string(nt), s.now().Sub(started)) }()

	recipient, err := s.lookupUser(ctx, opts.User, opts.UserID)
	if err != nil {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeError)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification recipient")
	}
	if recipient == nil {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeNoRecipient)
		s.logg.Debug(logCtx, "notification recipient not found")
		return nil, nil
	}
	logCtx = s.logg.WithField(logCtx, "recipient_id", recipient.ID)

	actor, actorID, err := s.lookupActor(ctx, opts)
	if err != nil {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeError)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification actor")
	}
	if actorID != nil && *actorID == recipient.ID {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeSelf)
		s.logg.Debug(logCtx, "skipping self notification")
		return nil, nil
	}

	resolved, err := s.resolver.Resolve(ctx, nt, ref, recipient)
	if err != nil {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeError)
		s.logg.WarnErr(logCtx, "notification target resolution failed", err)
		return nil, err
	}
	if !s.formatter.Supports(nt, resolved.Kind) {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeError)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notify type "+string(nt)+" does not apply to "+string(resolved.Kind)+" targets")
	}

	if !s.gate.MayNotify(ctx, recipient, ref) {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeDenied)
		s.logg.Debug(logCtx, "recipient cannot read target, skipping notification")
		return nil, nil
	}

	record := &models.Notification{
		NotifyType: nt,
		ActorID:    actorID,
		UserID:     recipient.ID,
		TargetType: ref.Kind,
		TargetID:   ref.ID,
	}
	if len(opts.Meta) > 0 {
		record.Meta = datatypes.JSONMap(opts.Meta)
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.metrics.IncDispatch(string(nt), metrics.OutcomeError)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	s.metrics.IncDispatch(string(nt), metrics.OutcomeCreated)
	s.invalidateUnread(logCtx, recipient.ID)

	logCtx = s.logg.WithField(logCtx, "notification_id", record.ID.String())
	s.sendMail(logCtx, record, resolved, recipient, actor)
	s.logg.Info(logCtx, "notification tracked")
	return record, nil
}

func (s *service) sendMail(ctx context.Context, record *models.Notification, resolved *Resolved, recipient, actor *models.User) {
	msg, err := s.formatter.Format(FormatInput{
		NotificationID: record.ID,
		NotifyType:     record.NotifyType,
		Resolved:       resolved,
		ActorName:      actor.DisplayName(),
		Meta:           record.Meta,
	})
	if err != nil {
		s.logg.Error(ctx, "format notification mail", err)
		return
	}
	s.mailer.Enqueue(ctx, mailer.Message{
		NotificationID: record.ID,
		To:             recipient.Email,
		ToName:         recipient.DisplayName(),
		Subject:        msg.Title,
		HTMLBody:       msg.Body,
		ThreadKey:      msg.MailMessageID,
	})
}

func (s *service) lookupUser(ctx context.Context, user *models.User, id int64) (*models.User, error) {
	if user != nil {
		return user, nil
	}
	if id <= 0 {
		return nil, nil
	}
	return s.users.FindUser(ctx, id)
}

// lookupActor keeps the actor id even when the user row is gone so self checks still hold.
func (s *service) lookupActor(ctx context.Context, opts TrackOptions) (*models.User, *int64, error) {
	if opts.Actor != nil {
		id := opts.Actor.ID
		return opts.Actor, &id, nil
	}
	if opts.ActorID <= 0 {
		return nil, nil, nil
	}
	actor, err := s.users.FindUser(ctx, opts.ActorID)
	if err != nil {
		return nil, nil, err
	}
	id := opts.ActorID
	return actor, &id, nil
}

// ReadTargets marks the user's notifications on the given targets read. A nil user or no ids is a no-op.
func (s *service) ReadTargets(ctx context.Context, user *models.User, kind enums.TargetKind, targetIDs []int64) (int64, error) {
	if user == nil || len(targetIDs) == 0 {
		return 0, nil
	}
	if !kind.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unsupported target type "+string(kind))
	}
	count, err := s.repo.ReadTargets(ctx, user.ID, kind, targetIDs, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark targets read")
	}
	if count > 0 {
		s.invalidateUnread(ctx, user.ID)
	}
	return count, nil
}

// Render re-resolves a stored notification into its title, body and links.
func (s *service) Render(ctx context.Context, n *models.Notification) (*Rendered, error) {
	if n == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification required")
	}
	recipient, err := s.users.FindUser(ctx, n.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification recipient")
	}
	var actor *models.User
	if n.ActorID != nil {
		if actor, err = s.users.FindUser(ctx, *n.ActorID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification actor")
		}
	}

	ref := TargetRef{Kind: n.TargetType, ID: n.TargetID}
	resolved, err := s.resolver.Resolve(ctx, n.NotifyType, ref, recipient)
	if err != nil {
		return nil, err
	}
	msg, err := s.formatter.Format(FormatInput{
		NotificationID: n.ID,
		NotifyType:     n.NotifyType,
		Resolved:       resolved,
		ActorName:      actor.DisplayName(),
		Meta:           n.Meta,
	})
	if err != nil {
		return nil, err
	}
	return &Rendered{
		Title:          msg.Title,
		Body:           msg.Body,
		MailMessageID:  msg.MailMessageID,
		URL:            resolved.URL,
		MentionExcerpt: resolved.MentionExcerpt,
	}, nil
}

func (s *service) Get(ctx context.Context, userID int64, id uuid.UUID) (*models.Notification, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	n, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	if n == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return n, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	page := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	items := page.Items
	if items == nil {
		items = []models.Notification{}
	}
	return &ListResult{Items: items, Cursor: page.NextCursor}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if s.cache != nil {
		if count, ok, err := s.cache.UnreadCount(ctx, userID); err == nil && ok {
			return count, nil
		} else if err != nil {
			s.logg.WarnErr(ctx, "unread count cache read failed", err)
		}
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	if s.cache != nil {
		if err := s.cache.StoreUnreadCount(ctx, userID, count, unreadCacheTTL); err != nil {
			s.logg.WarnErr(ctx, "unread count cache write failed", err)
		}
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID int64, id uuid.UUID) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, id, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if result.Updated {
		s.invalidateUnread(ctx, userID)
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	if count > 0 {
		s.invalidateUnread(ctx, userID)
	}
	return count, nil
}

func (s *service) invalidateUnread(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUnread(ctx, userID); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "user_id", strconv.FormatInt(userID, 10)), "unread count cache invalidation failed", err)
	}
}

// IsResolutionError reports whether err came from target resolution.
func IsResolutionError(err error) bool {
	var target *TargetResolutionError
	return errors.As(err, &target)
}
