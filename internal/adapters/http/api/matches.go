// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/intake/internal/domain/matching"
)

// MatchDependencies defines the interface for job matching.
type MatchDependencies interface {
	MatchJobs(ctx context.Context, studentID string) ([]matching.Match, error)
}

// MatchesHandler handles job match requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// HandleGetMatches handles GET /matches/{student_id} requests. Scores
// are computed per request, never cached.
func (h *MatchesHandler) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matches"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	studentID := pathParam(r.URL.Path, "/matches/")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	matches, err := h.deps.MatchJobs(r.Context(), studentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}
