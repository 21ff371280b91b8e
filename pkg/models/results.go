package models

// StepResult is the outcome of one executed node.
type StepResult struct {
	ID      string         `json:"id"`
	StepID  string         `json:"stepId"`
	Inputs  map[string]any `json:"inputs,omitempty"`
	Outputs map[string]any `json:"outputs"`
}

// Success reports the "success" flag of the outputs.
func (r StepResult) Success() bool {
	ok, _ := r.Outputs["success"].(bool)

	return ok
}

// AutomationResults is the outcome of one automation run. As returned by an execution
// harness, Steps[0] echoes the trigger; normalized results drop that entry.
type AutomationResults struct {
	Trigger StepResult   `json:"trigger"`
	Steps   []StepResult `json:"steps"`
}
