package simulation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/celia-console/internal/types"
)

// planSchema is the contract the model's reply must satisfy before the
// engine will replay it.
const planSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["steps", "files"],
  "properties": {
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["thought", "action", "type"],
        "properties": {
          "thought": {"type": "string"},
          "action": {"type": "string"},
          "type": {
            "type": "string",
            "enum": ["info", "error", "success", "git", "brain", "plan", "process", "search", "map"]
          }
        }
      }
    },
    "files": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "path"],
        "properties": {
          "name": {"type": "string"},
          "path": {"type": "string"},
          "size": {"type": "integer"}
        }
      }
    }
  }
}`

// parsePlan validates the model's raw reply against the plan schema and
// decodes it. Any deviation is a *SimulationError.
func parsePlan(raw string) (*types.SimulationPlan, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(planSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, &SimulationError{Reason: "model reply is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		detail := ""
		if errs := result.Errors(); len(errs) > 0 {
			detail = errs[0].String()
		}
		return nil, &SimulationError{Reason: fmt.Sprintf("model reply does not match plan schema: %s", detail)}
	}

	var plan types.SimulationPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, &SimulationError{Reason: "failed to decode plan", Cause: err}
	}
	return &plan, nil
}
