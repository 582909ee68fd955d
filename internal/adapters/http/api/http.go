// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/intake/internal/domain/apperr"
	"github.com/okian/intake/internal/domain/gate"
	"github.com/okian/intake/internal/domain/matching"
	"github.com/okian/intake/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CheckEligibility(ctx context.Context, studentID, targetID string) (gate.Report, error)
	Apply(ctx context.Context, studentID, targetID string) (model.Application, error)
	SelectAdmission(ctx context.Context, studentID, applicationID string) (model.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationID string, status model.ApplicationStatus, reviewer string) (model.Application, error)
	MatchJobs(ctx context.Context, studentID string) ([]matching.Match, error)
	GetApplication(ctx context.Context, applicationID string, enrich bool) (model.Application, error)
	ListApplications(ctx context.Context, studentID string) ([]model.Application, error)
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	eligibilityHandler   *EligibilityHandler
	applicationsHandler  *ApplicationsHandler
	matchesHandler       *MatchesHandler
	notificationsHandler *NotificationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		eligibilityHandler:   NewEligibilityHandler(deps),
		applicationsHandler:  NewApplicationsHandler(deps),
		matchesHandler:       NewMatchesHandler(deps),
		notificationsHandler: NewNotificationsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/eligibility", MetricsMiddleware(s.eligibilityHandler.HandleCheck, "eligibility"))
	mux.HandleFunc("/applications", MetricsMiddleware(s.applicationsHandler.HandleApplications, "applications"))
	mux.HandleFunc("/applications/", MetricsMiddleware(s.applicationsHandler.HandleApplication, "application"))
	mux.HandleFunc("/matches/", MetricsMiddleware(s.matchesHandler.HandleGetMatches, "matches"))
	mux.HandleFunc("/notifications/", MetricsMiddleware(s.notificationsHandler.HandleNotifications, "notifications"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain error kinds to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, apperr.ErrAlreadyApplied):
		writeError(w, http.StatusConflict, "already_applied", err)
	case errors.Is(err, apperr.ErrCapExceeded):
		writeError(w, http.StatusConflict, "cap_exceeded", err)
	case errors.Is(err, apperr.ErrTargetUnavailable):
		writeError(w, http.StatusConflict, "target_unavailable", err)
	case errors.Is(err, apperr.ErrNotQualified):
		writeError(w, http.StatusUnprocessableEntity, "not_qualified", err)
	case errors.Is(err, apperr.ErrInvalidSelection):
		writeError(w, http.StatusConflict, "invalid_selection", err)
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, apperr.ErrStoreConflict):
		writeError(w, http.StatusConflict, "write_conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// pathParam extracts the single path segment after prefix, or "" when
// the remainder is empty or nested.
func pathParam(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
