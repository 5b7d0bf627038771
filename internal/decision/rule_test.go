package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/conform/pkg/schema"
)

func testEngines(t *testing.T) Engines {
	t.Helper()
	engines, err := DefaultEngines()
	require.NoError(t, err)
	return engines
}

func reviewTable(t *testing.T) *Table {
	t.Helper()
	spec := &TableSpec{
		Driver: ".recommendation",
		Domain: []string{"approve", "reject", "escalate"},
		Cases: map[string]CaseSpec{
			"approve": {
				Operation: "payload.store",
				Args: map[string]Binding{
					"collection": {Literal: "approved"},
					"document":   {Expr: "."},
				},
			},
			"reject": {
				Operation: "payload.log",
				Args: map[string]Binding{
					"level":   {Literal: "info"},
					"message": {Literal: "payload rejected"},
				},
			},
		},
		Default: &CaseSpec{
			Operation: "payload.flag",
			Args: map[string]Binding{
				"reason":   {Literal: "unhandled recommendation"},
				"severity": {Literal: "high"},
			},
		},
	}

	table, err := NewTable(spec, testEngines(t))
	require.NoError(t, err)
	return table
}

func TestSelect_MatchesCase(t *testing.T) {
	table := reviewTable(t)
	payload := map[string]any{"recommendation": "approve", "score": 90.0}

	sel, err := table.Select(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "payload.store", sel.Operation)
	assert.Equal(t, "approved", sel.Args["collection"])

	// The "." binding carries the whole validated payload.
	doc, ok := sel.Args["document"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "approve", doc["recommendation"])
}

func TestSelect_DomainValueWithoutCaseFallsToDefault(t *testing.T) {
	table := reviewTable(t)
	payload := map[string]any{"recommendation": "escalate"}

	sel, err := table.Select(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "payload.flag", sel.Operation)
	assert.Equal(t, "high", sel.Args["severity"])
}

func TestSelect_OutOfDomainValueFallsToDefault(t *testing.T) {
	table := reviewTable(t)

	for _, payload := range []map[string]any{
		{"recommendation": "maybe"},
		{"recommendation": 7.0},
		{},
	} {
		sel, err := table.Select(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, "payload.flag", sel.Operation)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	table := reviewTable(t)
	payload := map[string]any{"recommendation": "reject"}

	first, err := table.Select(context.Background(), payload)
	require.NoError(t, err)
	second, err := table.Select(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSelect_GuardPassSelectsCase(t *testing.T) {
	spec := &TableSpec{
		Driver: ".recommendation",
		Cases: map[string]CaseSpec{
			"approve": {
				Operation: "payload.store",
				When:      "payload.score >= 80",
				Args:      map[string]Binding{"collection": {Literal: "approved"}},
			},
		},
		Default: &CaseSpec{Operation: "payload.flag"},
	}
	table, err := NewTable(spec, testEngines(t))
	require.NoError(t, err)

	sel, err := table.Select(context.Background(),
		map[string]any{"recommendation": "approve", "score": 90.0})
	require.NoError(t, err)
	assert.Equal(t, "payload.store", sel.Operation)
}

func TestSelect_GuardFailFallsToDefault(t *testing.T) {
	spec := &TableSpec{
		Driver: ".recommendation",
		Cases: map[string]CaseSpec{
			"approve": {
				Operation: "payload.store",
				When:      "payload.score >= 80",
			},
		},
		Default: &CaseSpec{Operation: "payload.flag"},
	}
	table, err := NewTable(spec, testEngines(t))
	require.NoError(t, err)

	sel, err := table.Select(context.Background(),
		map[string]any{"recommendation": "approve", "score": 10.0})
	require.NoError(t, err)
	assert.Equal(t, "payload.flag", sel.Operation)
}

func TestSelect_CELGuard(t *testing.T) {
	spec := &TableSpec{
		Driver: ".recommendation",
		Cases: map[string]CaseSpec{
			"approve": {
				Operation: "payload.store",
				When:      `cel:payload.score >= 80.0 && driver == "approve"`,
			},
		},
		Default: &CaseSpec{Operation: "payload.flag"},
	}
	table, err := NewTable(spec, testEngines(t))
	require.NoError(t, err)

	sel, err := table.Select(context.Background(),
		map[string]any{"recommendation": "approve", "score": 90.0})
	require.NoError(t, err)
	assert.Equal(t, "payload.store", sel.Operation)
}

func TestSelect_NonBooleanGuardIsError(t *testing.T) {
	spec := &TableSpec{
		Driver: ".recommendation",
		Cases: map[string]CaseSpec{
			"approve": {Operation: "payload.store", When: "payload.score"},
		},
		Default: &CaseSpec{Operation: "payload.flag"},
	}
	table, err := NewTable(spec, testEngines(t))
	require.NoError(t, err)

	_, err = table.Select(context.Background(),
		map[string]any{"recommendation": "approve", "score": 90.0})
	require.Error(t, err)

	var cErr *schema.ConformError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, schema.ErrCodeBuild, cErr.Code)
}

func TestSelect_ExprBindingsAgainstPayload(t *testing.T) {
	spec := &TableSpec{
		Driver: ".recommendation",
		Cases: map[string]CaseSpec{
			"reject": {
				Operation: "payload.log",
				Args: map[string]Binding{
					"level":   {Literal: "warn"},
					"message": {Expr: ".summary"},
				},
			},
		},
		Default: &CaseSpec{Operation: "payload.flag"},
	}
	table, err := NewTable(spec, testEngines(t))
	require.NoError(t, err)

	sel, err := table.Select(context.Background(),
		map[string]any{"recommendation": "reject", "summary": "low score"})
	require.NoError(t, err)
	assert.Equal(t, "warn", sel.Args["level"])
	assert.Equal(t, "low score", sel.Args["message"])
}

func TestNewTable_BuildFailures(t *testing.T) {
	engines := testEngines(t)
	def := &CaseSpec{Operation: "payload.flag"}

	tests := []struct {
		name string
		spec *TableSpec
	}{
		{"nil spec", nil},
		{"missing driver", &TableSpec{Default: def}},
		{"missing default", &TableSpec{Driver: "."}},
		{"default without operation", &TableSpec{Driver: ".", Default: &CaseSpec{}}},
		{"duplicate domain value", &TableSpec{
			Driver: ".", Domain: []string{"a", "a"}, Default: def,
		}},
		{"case without operation", &TableSpec{
			Driver: ".", Cases: map[string]CaseSpec{"a": {}}, Default: def,
		}},
		{"case outside domain", &TableSpec{
			Driver: ".", Domain: []string{"a"},
			Cases:   map[string]CaseSpec{"b": {Operation: "payload.log"}},
			Default: def,
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.spec, engines)
			require.Error(t, err)

			var cErr *schema.ConformError
			require.True(t, errors.As(err, &cErr))
			assert.Equal(t, schema.ErrCodeBuild, cErr.Code)
		})
	}
}

func TestNewTable_MissingEngines(t *testing.T) {
	spec := &TableSpec{Driver: ".", Default: &CaseSpec{Operation: "payload.flag"}}
	_, err := NewTable(spec, Engines{})
	assert.Error(t, err)
}

func TestNewTable_EmptyDomainAllowsAnyCaseKey(t *testing.T) {
	spec := &TableSpec{
		Driver:  ".kind",
		Cases:   map[string]CaseSpec{"anything": {Operation: "payload.log", Args: map[string]Binding{"level": {Literal: "info"}, "message": {Literal: "ok"}}}},
		Default: &CaseSpec{Operation: "payload.flag"},
	}
	_, err := NewTable(spec, testEngines(t))
	assert.NoError(t, err)
}

func TestSelect_EmptyBindingIsError(t *testing.T) {
	spec := &TableSpec{
		Driver: ".kind",
		Cases: map[string]CaseSpec{
			"a": {Operation: "payload.log", Args: map[string]Binding{"message": {}}},
		},
		Default: &CaseSpec{Operation: "payload.flag"},
	}
	table, err := NewTable(spec, testEngines(t))
	require.NoError(t, err)

	_, err = table.Select(context.Background(), map[string]any{"kind": "a"})
	require.Error(t, err)

	var cErr *schema.ConformError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, schema.ErrCodeBuild, cErr.Code)
}
