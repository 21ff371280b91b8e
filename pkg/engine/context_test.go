package engine

import (
	"testing"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContext_Resolve(t *testing.T) {
	c := newRunContext(map[string]any{"row": map[string]any{"name": "Ada", "age": 36.0}})
	c.record("create", map[string]any{"id": "ro_1", "tags": []any{"a", "b"}})

	testCases := []struct {
		name  string
		value any
		want  any
	}{
		{"plain text", "hello", "hello"},
		{"typed binding", "{{ trigger.row.age }}", 36.0},
		{"text binding", "age {{trigger.row.age}}!", "age 36!"},
		{"index binding", "{{ steps[1].id }}", "ro_1"},
		{"dotted index", "{{ steps.0.row.name }}", "Ada"},
		{"by identity", "{{ stepsById.create.tags }}", []any{"a", "b"}},
		{"missing", "{{ trigger.nope }}", nil},
		{"missing in text", "[{{ trigger.nope }}]", "[]"},
		{"nested", map[string]any{"list": []any{"{{ trigger.row.name }}"}}, map[string]any{"list": []any{"Ada"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.resolve(tc.value))
		})
	}
}

func TestRunContext_Loop(t *testing.T) {
	c := newRunContext(map[string]any{})

	c.setLoopItem("first", 0)
	assert.Equal(t, "first", c.lookup("loop.currentItem"))
	assert.EqualValues(t, 0, c.lookup("loop.index"))

	c.clearLoop()
	assert.Nil(t, c.lookup("loop.currentItem"))
}

func TestRunContext_ResolveInputs(t *testing.T) {
	c := newRunContext(map[string]any{"row": map[string]any{"_id": "ro_9"}})

	resolved, err := c.resolveInputs(models.DeleteRowStepInputs{TableID: "table_1", ID: "{{ trigger.row._id }}"})
	require.NoError(t, err)
	assert.Equal(t, models.DeleteRowStepInputs{TableID: "table_1", ID: "ro_9"}, resolved)
}

func TestLoopItems(t *testing.T) {
	items, err := loopItems(models.LoopArray, `["a", 1]`)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", 1.0}, items)

	items, err = loopItems(models.LoopString, "x, y")
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, items)

	_, err = loopItems(models.LoopArray, "not a list")
	assert.ErrorIs(t, err, ErrInvalidLoopBinding)

	_, err = loopItems(models.LoopArray, nil)
	assert.ErrorIs(t, err, ErrInvalidLoopBinding)
}
