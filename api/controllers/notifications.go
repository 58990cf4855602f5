package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NeatNerdPrime/bluedoc/api/middleware"
	"github.com/NeatNerdPrime/bluedoc/api/responses"
	"github.com/NeatNerdPrime/bluedoc/api/validators"
	"github.com/NeatNerdPrime/bluedoc/internal/notifications"
	"github.com/NeatNerdPrime/bluedoc/pkg/db/models"
	"github.com/NeatNerdPrime/bluedoc/pkg/enums"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
	"github.com/NeatNerdPrime/bluedoc/pkg/pagination"
)

// notificationDetail pairs the stored row with its rendered form. Rendered is omitted when the target is gone.
type notificationDetail struct {
	Notification *models.Notification   `json:"notification"`
	Rendered     *notifications.Rendered `json:"rendered,omitempty"`
}

type readTargetsRequest struct {
	TargetType string  `json:"targetType" validate:"required"`
	TargetIDs  []int64 `json:"targetIds" validate:"required,min=1,max=100,dive,gt=0"`
}

type trackTargetRequest struct {
	Type string `json:"type" validate:"required"`
	ID   int64  `json:"id" validate:"required,gt=0"`
}

type trackNotificationRequest struct {
	NotifyType string             `json:"notifyType" validate:"required,max=64"`
	UserID     int64              `json:"userId" validate:"required,gt=0"`
	ActorID    *int64             `json:"actorId,omitempty" validate:"omitempty,gt=0"`
	Target     trackTargetRequest `json:"target"`
	Meta       map[string]any     `json:"meta,omitempty"`
}

func requireService(w http.ResponseWriter, r *http.Request, svc notifications.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (int64, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID <= 0 {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "user context missing"))
		return 0, false
	}
	return userID, true
}

func notificationIDParam(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "notificationId"))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
		return uuid.Nil, false
	}
	return id, true
}

// ListNotifications returns the current user's notifications, newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireService(w, r, svc, logg) {
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := notifications.ListParams{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if unread := strings.TrimSpace(r.URL.Query().Get("unreadOnly")); unread != "" {
			value, err := strconv.ParseBool(unread)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unreadOnly value"))
				return
			}
			params.UnreadOnly = value
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func UnreadNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireService(w, r, svc, logg) {
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		count, err := svc.UnreadCount(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"unread": count})
	}
}

// GetNotification returns one notification with its title, body and link.
func GetNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireService(w, r, svc, logg) {
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := notificationIDParam(w, r, logg)
		if !ok {
			return
		}

		n, err := svc.Get(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail := notificationDetail{Notification: n}
		rendered, err := svc.Render(r.Context(), n)
		switch {
		case err == nil:
			detail.Rendered = rendered
		case notifications.IsResolutionError(err) && !pkgerrors.Retryable(err):
			if logg != nil {
				logg.WarnErr(r.Context(), "notification target no longer renders", err)
			}
		default:
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireService(w, r, svc, logg) {
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := notificationIDParam(w, r, logg)
		if !ok {
			return
		}

		if err := svc.MarkRead(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireService(w, r, svc, logg) {
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		count, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

// ReadNotificationTargets marks the current user's notifications on the given targets read.
func ReadNotificationTargets(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireService(w, r, svc, logg) {
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		var body readTargetsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseTargetKind(body.TargetType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid targetType"))
			return
		}

		count, err := svc.ReadTargets(r.Context(), &models.User{ID: userID}, kind, body.TargetIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

// TrackNotification is the internal entry point for host services that dispatch synchronously.
func TrackNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireService(w, r, svc, logg) {
			return
		}
		var body trackNotificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := notifications.TrackOptions{UserID: body.UserID, Meta: body.Meta}
		if body.ActorID != nil {
			opts.ActorID = *body.ActorID
		}
		ref := notifications.TargetRef{Kind: enums.TargetKind(body.Target.Type), ID: body.Target.ID}
		n, err := svc.TrackNotification(r.Context(), validators.SanitizeString(body.NotifyType, 64), ref, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if n == nil {
			responses.WriteSuccess(w, map[string]any{"tracked": false})
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"tracked": true, "notification": n})
	}
}
