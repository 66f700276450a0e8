package dashboard

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

const defaultLimit = 50

// Handler serves the read-only JSON routes under /api. Responses and errors
// are rendered by cerr's chi middleware.
type Handler struct {
	service *Service
	dir     lifecycle.Directory
}

func NewHandler(service *Service, dir lifecycle.Directory) *Handler {
	return &Handler{service: service, dir: dir}
}

func (h *Handler) Mount(r chi.Router) {
	r.Get("/dashboard/{id}", h.getDashboard)
	r.Get("/users/{id}/notifications", h.listNotifications)
	r.Get("/users/{id}/activity", h.listActivity)
}

type NotificationsResponse struct {
	Notifications []*notification.Notification `json:"notifications"`
	Total         int                          `json:"total"`
}

type ActivityResponse struct {
	Entries []*activity.Entry `json:"entries"`
	Total   int               `json:"total"`
}

// authorize lets users read their own data; admins may read anyone's.
func (h *Handler) authorize(ctx context.Context, userID string) error {
	a, err := lifecycle.ResolveActor(ctx, h.dir)
	if err != nil {
		return err
	}
	if a.ID != userID && !a.Admin {
		return lifecycle.PermissionDenied("cannot read another user's data")
	}
	return nil
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "id")
	if err := h.authorize(ctx, userID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	d, err := h.service.Build(ctx, userID)
	cerr.Respond(ctx, d, err)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "id")
	if err := h.authorize(ctx, userID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	list, total, err := h.service.notifications.List(ctx, notification.ListFilter{
		UserID:     userID,
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	cerr.Respond(ctx, &NotificationsResponse{Notifications: list, Total: total}, err)
}

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "id")
	if err := h.authorize(ctx, userID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	entries, total, err := h.service.activities.List(ctx, activity.ListFilter{
		UserID: userID,
		Type:   activity.Type(r.URL.Query().Get("type")),
		Limit:  limit,
		Offset: offset,
	})
	cerr.Respond(ctx, &ActivityResponse{Entries: entries, Total: total}, err)
}

func page(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit, offset = defaultLimit, 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, cerr.NewViolation("limit", "must be a positive integer", err)
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, cerr.NewViolation("offset", "must not be negative", err)
		}
	}
	return limit, offset, nil
}
