package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/celia-console/internal/logfmt"
	"github.com/jonathan/celia-console/internal/types"
)

// JobDetailResponse is a full job record plus its parsed log entries.
type JobDetailResponse struct {
	types.Job
	Entries []types.LogEntry `json:"entries"`
}

// HealthResponse reports process health and the backend offline
// indicator for the UI.
type HealthResponse struct {
	Status        string `json:"status"`
	BackendOnline bool   `json:"backend_online"`
}

// handleListJobs returns all jobs, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.console.Jobs())
}

// handleCreateJob dispatches a new job, remote or simulated.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req types.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		verr := &ErrValidation{Message: err.Error()}
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	resp, err := s.console.CreateJob(r.Context(), req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusAccepted, resp)
}

// handleGetJob returns one job with parsed log entries.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := s.console.Job(id)
	if !ok {
		nf := &ErrJobNotFound{JobID: id}
		s.errorResponse(w, HTTPStatus(nf), nf.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, JobDetailResponse{
		Job:     job,
		Entries: logfmt.Parse(job.Logs),
	})
}

// handleDeleteJob removes a job. Always succeeds locally.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	s.console.DeleteJob(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports liveness and the backend reachability indicator.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		BackendOnline: s.console.Online(),
	})
}
