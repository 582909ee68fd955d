// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/intake/internal/domain/model"
)

// NotificationDependencies defines the interface for notification reads.
type NotificationDependencies interface {
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

// NotificationsHandler handles notification requests.
type NotificationsHandler struct {
	deps NotificationDependencies
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(deps NotificationDependencies) *NotificationsHandler {
	return &NotificationsHandler{deps: deps}
}

// HandleNotifications handles /notifications/ requests:
//
//	GET  /notifications/{user_id}   list a user's notifications
//	POST /notifications/{id}/read   mark one as read
func (h *NotificationsHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/notifications/")
	if strings.HasSuffix(rest, "/read") {
		h.handleMarkRead(w, r, strings.TrimSuffix(rest, "/read"))
		return
	}
	h.handleList(w, r, rest)
}

func (h *NotificationsHandler) handleList(w http.ResponseWriter, r *http.Request, userID string) {
	const op = "api.list_notifications"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	ns, err := h.deps.ListNotifications(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (h *NotificationsHandler) handleMarkRead(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.mark_notification_read"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.MarkNotificationRead(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
