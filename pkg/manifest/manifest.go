// Package manifest reads automations described in YAML and replays them through the
// automation builder.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/autoflow/pkg/builder"
	"github.com/dukex/autoflow/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest indicates a manifest that does not describe a buildable automation.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is one automation: a trigger with its simulated outputs, and ordered steps.
type Manifest struct {
	Name    string  `yaml:"name"`
	Trigger Trigger `yaml:"trigger"`
	Steps   []Step  `yaml:"steps"`
}

type Trigger struct {
	Type    string         `yaml:"type"`
	Inputs  map[string]any `yaml:"inputs"`
	Outputs map[string]any `yaml:"outputs"`
}

// Step is an action step, or a BRANCH step when Branches is set.
type Step struct {
	Type     string         `yaml:"type"`
	Inputs   map[string]any `yaml:"inputs"`
	Branches []Branch       `yaml:"branches"`
}

type Branch struct {
	Name      string         `yaml:"name"`
	Condition map[string]any `yaml:"condition"`
	Steps     []Step         `yaml:"steps"`
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	file, err := os.Open(path) // #nosec G304 -- manifest path is given by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Decode(file)
}

// Parse decodes a manifest from YAML bytes.
func Parse(data []byte) (*Manifest, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one manifest. Unknown fields are rejected.
func Decode(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return &m, nil
}

// Build returns a builder configured from the manifest.
func (m *Manifest) Build(cfg builder.Config, harness builder.Harness, opts ...builder.Option) (*builder.AutomationBuilder, error) {
	if m.Name != "" {
		opts = append(opts, builder.WithName(m.Name))
	}

	b := builder.New(cfg, harness, opts...)
	if err := m.Apply(b); err != nil {
		return nil, err
	}

	return b, nil
}

// Apply sets the trigger and appends the steps of the manifest to b. Nothing is added to
// b when the manifest is invalid.
func (m *Manifest) Apply(b *builder.AutomationBuilder) error {
	if m.Trigger.Type == "" {
		return fmt.Errorf("%w: trigger type is required", ErrInvalidManifest)
	}

	stepID := models.AutomationTriggerStepID(m.Trigger.Type)

	inputs, err := decodeAs(m.Trigger.Inputs, func(data []byte) (models.TriggerInputs, error) {
		return models.DecodeTriggerInputs(stepID, data)
	})
	if err != nil {
		return fmt.Errorf("%w: trigger inputs: %w", ErrInvalidManifest, err)
	}

	outputs, err := decodeAs(m.Trigger.Outputs, func(data []byte) (models.TriggerOutputs, error) {
		return models.DecodeTriggerOutputs(stepID, data)
	})
	if err != nil {
		return fmt.Errorf("%w: trigger outputs: %w", ErrInvalidManifest, err)
	}

	steps, err := resolveSteps(m.Steps, "steps")
	if err != nil {
		return err
	}

	b.Trigger(inputs, outputs)
	addSteps(b.Steps, steps)

	return b.Err()
}

// resolved is a step with decoded inputs, or a branch with resolved paths.
type resolved struct {
	inputs   models.StepInputs
	branches []resolvedBranch
}

type resolvedBranch struct {
	name      string
	condition models.SearchFilters
	steps     []resolved
}

func resolveSteps(steps []Step, path string) ([]resolved, error) {
	out := make([]resolved, 0, len(steps))

	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)

		if len(step.Branches) > 0 || step.Type == string(models.ActionBranch) {
			if step.Type != "" && step.Type != string(models.ActionBranch) {
				return nil, fmt.Errorf("%w: %s: branches given for a %s step", ErrInvalidManifest, at, step.Type)
			}

			branches, err := resolveBranches(step.Branches, at)
			if err != nil {
				return nil, err
			}

			out = append(out, resolved{branches: branches})

			continue
		}

		if step.Type == "" {
			return nil, fmt.Errorf("%w: %s: type is required", ErrInvalidManifest, at)
		}

		stepID := models.AutomationActionStepID(step.Type)

		inputs, err := decodeAs(step.Inputs, func(data []byte) (models.StepInputs, error) {
			return models.DecodeStepInputs(stepID, data)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, at, err)
		}

		out = append(out, resolved{inputs: inputs})
	}

	return out, nil
}

func resolveBranches(branches []Branch, path string) ([]resolvedBranch, error) {
	out := make([]resolvedBranch, 0, len(branches))

	for i, branch := range branches {
		at := fmt.Sprintf("%s.branches[%d]", path, i)

		if branch.Name == "" {
			return nil, fmt.Errorf("%w: %s: name is required", ErrInvalidManifest, at)
		}

		condition, err := decodeAs(branch.Condition, func(data []byte) (models.SearchFilters, error) {
			var filters models.SearchFilters
			if len(data) == 0 {
				return filters, nil
			}

			return filters, json.Unmarshal(data, &filters)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: condition: %w", ErrInvalidManifest, at, err)
		}

		steps, err := resolveSteps(branch.Steps, at+".steps")
		if err != nil {
			return nil, err
		}

		out = append(out, resolvedBranch{name: branch.Name, condition: condition, steps: steps})
	}

	return out, nil
}

func addSteps[B any](s *builder.Steps[B], steps []resolved) {
	for _, step := range steps {
		if step.inputs != nil {
			s.Step(step.inputs)

			continue
		}

		definitions := make([]builder.BranchDefinition, 0, len(step.branches))
		for _, branch := range step.branches {
			children := branch.steps
			definitions = append(definitions, builder.On(branch.name, branch.condition, func(child *builder.StepBuilder) {
				addSteps(child.Steps, children)
			}))
		}

		s.Branch(definitions...)
	}
}

// decodeAs passes the JSON form of a YAML mapping to decode. A missing mapping decodes
// from empty input.
func decodeAs[T any](value map[string]any, decode func([]byte) (T, error)) (T, error) {
	if value == nil {
		return decode(nil)
	}

	data, err := json.Marshal(value)
	if err != nil {
		var zero T

		return zero, err
	}

	return decode(data)
}
