package simulation

import "fmt"

// SimulationError reports a failed attempt to fabricate an execution
// trace: the model call errored or its reply did not match the plan
// schema. The affected job keeps running; the error only ever reaches
// the user as a log line.
type SimulationError struct {
	Reason string
	Cause  error
}

func (e *SimulationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("simulation failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("simulation failed: %s", e.Reason)
}

func (e *SimulationError) Unwrap() error {
	return e.Cause
}
