// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/intake/internal/domain/gate"
)

// EligibilityDependencies defines the interface for eligibility checks.
type EligibilityDependencies interface {
	CheckEligibility(ctx context.Context, studentID, targetID string) (gate.Report, error)
}

// EligibilityHandler handles eligibility check requests.
type EligibilityHandler struct {
	deps EligibilityDependencies
}

// NewEligibilityHandler creates a new eligibility handler.
func NewEligibilityHandler(deps EligibilityDependencies) *EligibilityHandler {
	return &EligibilityHandler{deps: deps}
}

type eligibilityResponse struct {
	Eligible bool        `json:"eligible"`
	Report   gate.Report `json:"report"`
}

// HandleCheck handles GET /eligibility?student_id=&target_id= requests.
// The check is read-only and safe to repeat.
func (h *EligibilityHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_eligibility"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	studentID := r.URL.Query().Get("student_id")
	targetID := r.URL.Query().Get("target_id")
	if studentID == "" || targetID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	report, err := h.deps.CheckEligibility(r.Context(), studentID, targetID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibilityResponse{
		Eligible: report.Eligible(),
		Report:   report,
	})
}
