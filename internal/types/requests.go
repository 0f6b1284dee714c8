// Package types provides type definitions for structured data used throughout the agent console.
package types

import (
	"github.com/go-playground/validator/v10"
)

// CreateJobRequest represents the request to dispatch a new agent job.
type CreateJobRequest struct {
	Task      string `json:"task" validate:"required,min=1"`
	RepoURL   string `json:"repo_url,omitempty" validate:"omitempty,url"`
	Persona   string `json:"persona,omitempty"`
	UseSearch bool   `json:"use_search,omitempty"`
}

// CreateJobResponse represents the response to a job creation request.
type CreateJobResponse struct {
	JobID     string `json:"job_id"`
	Simulated bool   `json:"simulated"`
}

// Validate validates the CreateJobRequest using the validator.
func (r *CreateJobRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
