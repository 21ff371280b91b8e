package models

import (
	"encoding/json"
	"fmt"
)

// AutomationActionStepID is the kind tag of an action step.
type AutomationActionStepID string

const (
	ActionCreateRow     AutomationActionStepID = "CREATE_ROW"
	ActionUpdateRow     AutomationActionStepID = "UPDATE_ROW"
	ActionDeleteRow     AutomationActionStepID = "DELETE_ROW"
	ActionSendEmailSMTP AutomationActionStepID = "SEND_EMAIL_SMTP"
	ActionExecuteQuery  AutomationActionStepID = "EXECUTE_QUERY"
	ActionQueryRows     AutomationActionStepID = "QUERY_ROWS"
	ActionLoop          AutomationActionStepID = "LOOP"
	ActionServerLog     AutomationActionStepID = "SERVER_LOG"
	ActionBranch        AutomationActionStepID = "BRANCH"
)

// AutomationStep is one action node of an automation definition.
type AutomationStep struct {
	StepSchema

	ID     string                 `json:"id"     validate:"required"`
	StepID AutomationActionStepID `json:"stepId" validate:"required"`
	Inputs StepInputs             `json:"inputs"`
}

// StepInputs is implemented by the typed inputs of every action step kind.
type StepInputs interface {
	ActionStepID() AutomationActionStepID
}

var stepInputDecoders = map[AutomationActionStepID]func([]byte) (StepInputs, error){
	ActionCreateRow:     decodeStepInputs[CreateRowStepInputs],
	ActionUpdateRow:     decodeStepInputs[UpdateRowStepInputs],
	ActionDeleteRow:     decodeStepInputs[DeleteRowStepInputs],
	ActionSendEmailSMTP: decodeStepInputs[SmtpEmailStepInputs],
	ActionExecuteQuery:  decodeStepInputs[ExecuteQueryStepInputs],
	ActionQueryRows:     decodeStepInputs[QueryRowsStepInputs],
	ActionLoop:          decodeStepInputs[LoopStepInputs],
	ActionServerLog:     decodeStepInputs[ServerLogStepInputs],
	ActionBranch:        decodeStepInputs[BranchStepInputs],
}

// DecodeStepInputs decodes raw JSON inputs into the typed inputs of the given step kind.
func DecodeStepInputs(stepID AutomationActionStepID, data []byte) (StepInputs, error) {
	decode, ok := stepInputDecoders[stepID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepKind, stepID)
	}

	return decode(data)
}

// ActionStepIDs returns every known action step kind.
func ActionStepIDs() []AutomationActionStepID {
	return []AutomationActionStepID{
		ActionCreateRow,
		ActionUpdateRow,
		ActionDeleteRow,
		ActionSendEmailSMTP,
		ActionExecuteQuery,
		ActionQueryRows,
		ActionLoop,
		ActionServerLog,
		ActionBranch,
	}
}

func decodeStepInputs[T StepInputs](data []byte) (StepInputs, error) {
	var inputs T

	if err := unmarshalOptional(data, &inputs); err != nil {
		return nil, err
	}

	return inputs, nil
}

func unmarshalOptional(data []byte, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	return json.Unmarshal(data, v)
}

// UnmarshalJSON resolves the concrete inputs type from the step kind.
func (s *AutomationStep) UnmarshalJSON(data []byte) error {
	type plain AutomationStep

	var raw struct {
		plain

		Inputs json.RawMessage `json:"inputs"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	inputs, err := DecodeStepInputs(raw.StepID, raw.Inputs)
	if err != nil {
		return fmt.Errorf("step %s: %w", raw.ID, err)
	}

	*s = AutomationStep(raw.plain)
	s.Inputs = inputs

	return nil
}
