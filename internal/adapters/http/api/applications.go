// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/intake/internal/domain/model"
)

// ApplicationDependencies defines the interface for application operations.
type ApplicationDependencies interface {
	Apply(ctx context.Context, studentID, targetID string) (model.Application, error)
	SelectAdmission(ctx context.Context, studentID, applicationID string) (model.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationID string, status model.ApplicationStatus, reviewer string) (model.Application, error)
	GetApplication(ctx context.Context, applicationID string, enrich bool) (model.Application, error)
	ListApplications(ctx context.Context, studentID string) ([]model.Application, error)
}

// ApplicationsHandler handles application submission and lifecycle requests.
type ApplicationsHandler struct {
	deps ApplicationDependencies
}

// NewApplicationsHandler creates a new applications handler.
func NewApplicationsHandler(deps ApplicationDependencies) *ApplicationsHandler {
	return &ApplicationsHandler{deps: deps}
}

// applyRequest mirrors the POST /applications body.
type applyRequest struct {
	StudentID string `json:"student_id"`
	TargetID  string `json:"target_id"`
}

func (a applyRequest) validate() error {
	switch {
	case strings.TrimSpace(a.StudentID) == "":
		return errors.New("missing student_id")
	case strings.TrimSpace(a.TargetID) == "":
		return errors.New("missing target_id")
	}
	return nil
}

type selectRequest struct {
	StudentID string `json:"student_id"`
}

type statusRequest struct {
	Status   string `json:"status"`
	Reviewer string `json:"reviewer"`
}

// HandleApplications handles /applications requests:
//
//	POST /applications            submit an application
//	GET  /applications?student_id list a student's applications
func (h *ApplicationsHandler) HandleApplications(w http.ResponseWriter, r *http.Request) {
	const op = "api.applications"
	switch r.Method {
	case http.MethodPost:
		var req applyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		app, err := h.deps.Apply(r.Context(), req.StudentID, req.TargetID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, app)
	case http.MethodGet:
		studentID := r.URL.Query().Get("student_id")
		if studentID == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		apps, err := h.deps.ListApplications(r.Context(), studentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apps)
	default:
		http.NotFound(w, r)
	}
}

// HandleApplication handles /applications/{id} requests:
//
//	GET  /applications/{id}?enrich=true  read, optionally with fresh target data
//	POST /applications/{id}/select       student confirms an admitted offer
//	POST /applications/{id}/status       staff transitions the status
func (h *ApplicationsHandler) HandleApplication(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/applications/")
	switch {
	case strings.HasSuffix(rest, "/select"):
		h.handleSelect(w, r, strings.TrimSuffix(rest, "/select"))
	case strings.HasSuffix(rest, "/status"):
		h.handleStatus(w, r, strings.TrimSuffix(rest, "/status"))
	default:
		h.handleGet(w, r, rest)
	}
}

func (h *ApplicationsHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_application"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	enrich := r.URL.Query().Get("enrich") == "true"
	app, err := h.deps.GetApplication(r.Context(), id, enrich)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationsHandler) handleSelect(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.select_admission"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if id == "" || strings.TrimSpace(req.StudentID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	app, err := h.deps.SelectAdmission(r.Context(), req.StudentID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationsHandler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.update_status"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if id == "" || strings.TrimSpace(req.Status) == "" || strings.TrimSpace(req.Reviewer) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	app, err := h.deps.UpdateApplicationStatus(r.Context(), id, model.ApplicationStatus(req.Status), req.Reviewer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
