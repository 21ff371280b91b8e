package models

import (
	"encoding/json"
	"fmt"
)

// AutomationTriggerStepID is the kind tag of a trigger.
type AutomationTriggerStepID string

const (
	TriggerRowSaved   AutomationTriggerStepID = "ROW_SAVED"
	TriggerRowUpdated AutomationTriggerStepID = "ROW_UPDATED"
	TriggerRowDeleted AutomationTriggerStepID = "ROW_DELETED"
	TriggerApp        AutomationTriggerStepID = "APP"
	TriggerCron       AutomationTriggerStepID = "CRON"
	TriggerWebhook    AutomationTriggerStepID = "WEBHOOK"
)

// AutomationTrigger is the single trigger node of an automation definition.
type AutomationTrigger struct {
	StepSchema

	ID     string                  `json:"id"     validate:"required"`
	StepID AutomationTriggerStepID `json:"stepId" validate:"required"`
	Inputs TriggerInputs           `json:"inputs"`
}

// TriggerInputs is implemented by the typed configuration of every trigger kind.
type TriggerInputs interface {
	TriggerStepID() AutomationTriggerStepID
}

// TriggerOutputs is implemented by the simulated payload of every trigger kind.
type TriggerOutputs interface {
	OutputsOf() AutomationTriggerStepID
}

type RowCreatedTriggerInputs struct {
	TableID string `json:"tableId"`
}

func (RowCreatedTriggerInputs) TriggerStepID() AutomationTriggerStepID { return TriggerRowSaved }

type RowCreatedTriggerOutputs struct {
	Row      Row    `json:"row"`
	ID       string `json:"id,omitempty"`
	Revision string `json:"revision,omitempty"`
}

func (RowCreatedTriggerOutputs) OutputsOf() AutomationTriggerStepID { return TriggerRowSaved }

type RowUpdatedTriggerInputs struct {
	TableID string `json:"tableId"`
}

func (RowUpdatedTriggerInputs) TriggerStepID() AutomationTriggerStepID { return TriggerRowUpdated }

type RowUpdatedTriggerOutputs struct {
	Row      Row    `json:"row"`
	OldRow   Row    `json:"oldRow,omitempty"`
	ID       string `json:"id,omitempty"`
	Revision string `json:"revision,omitempty"`
}

func (RowUpdatedTriggerOutputs) OutputsOf() AutomationTriggerStepID { return TriggerRowUpdated }

type RowDeletedTriggerInputs struct {
	TableID string `json:"tableId"`
}

func (RowDeletedTriggerInputs) TriggerStepID() AutomationTriggerStepID { return TriggerRowDeleted }

type RowDeletedTriggerOutputs struct {
	Row Row `json:"row"`
}

func (RowDeletedTriggerOutputs) OutputsOf() AutomationTriggerStepID { return TriggerRowDeleted }

// AppActionTriggerInputs declares the fields an app action passes, name to type.
type AppActionTriggerInputs struct {
	Fields map[string]string `json:"fields,omitempty"`
}

func (AppActionTriggerInputs) TriggerStepID() AutomationTriggerStepID { return TriggerApp }

type AppActionTriggerOutputs struct {
	Fields map[string]any `json:"fields"`
}

func (AppActionTriggerOutputs) OutputsOf() AutomationTriggerStepID { return TriggerApp }

type CronTriggerInputs struct {
	Cron string `json:"cron"`
}

func (CronTriggerInputs) TriggerStepID() AutomationTriggerStepID { return TriggerCron }

type CronTriggerOutputs struct {
	Timestamp int64 `json:"timestamp"`
}

func (CronTriggerOutputs) OutputsOf() AutomationTriggerStepID { return TriggerCron }

type WebhookTriggerInputs struct {
	SchemaURL  string `json:"schemaUrl,omitempty"`
	TriggerURL string `json:"triggerUrl,omitempty"`
}

func (WebhookTriggerInputs) TriggerStepID() AutomationTriggerStepID { return TriggerWebhook }

type WebhookTriggerOutputs struct {
	Body map[string]any `json:"body"`
}

func (WebhookTriggerOutputs) OutputsOf() AutomationTriggerStepID { return TriggerWebhook }

type triggerCodec struct {
	inputs  func([]byte) (TriggerInputs, error)
	outputs func([]byte) (TriggerOutputs, error)
}

var triggerCodecs = map[AutomationTriggerStepID]triggerCodec{
	TriggerRowSaved: {
		decodeTriggerInputs[RowCreatedTriggerInputs],
		decodeTriggerOutputs[RowCreatedTriggerOutputs],
	},
	TriggerRowUpdated: {
		decodeTriggerInputs[RowUpdatedTriggerInputs],
		decodeTriggerOutputs[RowUpdatedTriggerOutputs],
	},
	TriggerRowDeleted: {
		decodeTriggerInputs[RowDeletedTriggerInputs],
		decodeTriggerOutputs[RowDeletedTriggerOutputs],
	},
	TriggerApp: {
		decodeTriggerInputs[AppActionTriggerInputs],
		decodeTriggerOutputs[AppActionTriggerOutputs],
	},
	TriggerCron: {
		decodeTriggerInputs[CronTriggerInputs],
		decodeTriggerOutputs[CronTriggerOutputs],
	},
	TriggerWebhook: {
		decodeTriggerInputs[WebhookTriggerInputs],
		decodeTriggerOutputs[WebhookTriggerOutputs],
	},
}

// TriggerStepIDs returns every known trigger kind.
func TriggerStepIDs() []AutomationTriggerStepID {
	return []AutomationTriggerStepID{
		TriggerRowSaved,
		TriggerRowUpdated,
		TriggerRowDeleted,
		TriggerApp,
		TriggerCron,
		TriggerWebhook,
	}
}

// DecodeTriggerInputs decodes raw JSON into the typed inputs of the given trigger kind.
func DecodeTriggerInputs(stepID AutomationTriggerStepID, data []byte) (TriggerInputs, error) {
	codec, ok := triggerCodecs[stepID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTriggerKind, stepID)
	}

	return codec.inputs(data)
}

// DecodeTriggerOutputs decodes raw JSON into the typed outputs of the given trigger kind.
func DecodeTriggerOutputs(stepID AutomationTriggerStepID, data []byte) (TriggerOutputs, error) {
	codec, ok := triggerCodecs[stepID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTriggerKind, stepID)
	}

	return codec.outputs(data)
}

func decodeTriggerInputs[T TriggerInputs](data []byte) (TriggerInputs, error) {
	var inputs T

	if err := unmarshalOptional(data, &inputs); err != nil {
		return nil, err
	}

	return inputs, nil
}

func decodeTriggerOutputs[T TriggerOutputs](data []byte) (TriggerOutputs, error) {
	var outputs T

	if err := unmarshalOptional(data, &outputs); err != nil {
		return nil, err
	}

	return outputs, nil
}

// UnmarshalJSON resolves the concrete inputs type from the trigger kind.
func (t *AutomationTrigger) UnmarshalJSON(data []byte) error {
	type plain AutomationTrigger

	var raw struct {
		plain

		Inputs json.RawMessage `json:"inputs"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	inputs, err := DecodeTriggerInputs(raw.StepID, raw.Inputs)
	if err != nil {
		return fmt.Errorf("trigger %s: %w", raw.ID, err)
	}

	*t = AutomationTrigger(raw.plain)
	t.Inputs = inputs

	return nil
}
