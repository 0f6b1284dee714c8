package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/celia-console/internal/logfmt"
)

// streamPollInterval is how often the log stream re-reads the store.
const streamPollInterval = 500 * time.Millisecond

// SSEWriter helps write Server-Sent Events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one SSE event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event.
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event.
func (s *SSEWriter) WriteComplete(jobID, status string) {
	s.WriteEvent("complete", map[string]string{ //nolint:errcheck
		"job_id": jobID,
		"status": status,
	})
}

// handleStreamLogs streams a job's classified log entries as SSE. It
// replays everything parsed so far, then keeps polling the store until
// the job reaches a terminal status, disappears, or the client leaves.
// Logs are append-only, so the entry count is a stable cursor.
func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.console.Job(id); !ok {
		nf := &ErrJobNotFound{JobID: id}
		s.errorResponse(w, HTTPStatus(nf), nf.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	sent := 0
	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		job, ok := s.console.Job(id)
		if !ok {
			sse.WriteError("job deleted")
			return
		}

		entries := logfmt.Parse(job.Logs)
		for ; sent < len(entries); sent++ {
			if err := sse.WriteEvent("log", entries[sent]); err != nil {
				return
			}
		}

		if job.Status.Terminal() {
			sse.WriteComplete(job.ID, string(job.Status))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
