// Package types provides type definitions for structured data used throughout the agent console.
package types

// SimulationStep is one step of a model-generated execution trace.
type SimulationStep struct {
	Thought string    `json:"thought"`
	Action  string    `json:"action"`
	Type    EntryType `json:"type"`
}

// SimulationPlan is the structured document the generative model must
// return when the console fabricates an offline execution trace.
type SimulationPlan struct {
	Steps []SimulationStep `json:"steps"`
	Files []FileArtifact   `json:"files"`
}
