package expressions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/conform/pkg/schema"
)

func TestCELEngine_Name(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	assert.Equal(t, "cel", e.Name())
}

func TestCELEngine_BooleanGuard(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"payload": map[string]any{"score": 85.0},
		"driver":  "approve",
	}

	out, evalErr := e.Evaluate(context.Background(), `payload.score >= 80.0 && driver == "approve"`, data)
	require.NoError(t, evalErr)
	assert.Equal(t, true, out)
}

func TestCELEngine_StringFunctions(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"payload": map[string]any{"id": "p-123"},
	}

	out, evalErr := e.Evaluate(context.Background(), `payload.id.startsWith("p-")`, data)
	require.NoError(t, evalErr)
	assert.Equal(t, true, out)
}

func TestCELEngine_MissingDataDefaults(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	// No payload or driver supplied: the activation falls back to zero
	// values instead of failing.
	out, evalErr := e.Evaluate(context.Background(), `driver == ""`, map[string]any{})
	require.NoError(t, evalErr)
	assert.Equal(t, true, out)
}

func TestCELEngine_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, evalErr := e.Evaluate(context.Background(), `payload..score`, map[string]any{})
	require.Error(t, evalErr)

	var cErr *schema.ConformError
	require.True(t, errors.As(evalErr, &cErr))
	assert.Equal(t, schema.ErrCodeBuild, cErr.Code)
}

func TestCELEngine_UnknownVariableIsCompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, evalErr := e.Evaluate(context.Background(), `nonexistent > 1`, map[string]any{})
	require.Error(t, evalErr)

	var cErr *schema.ConformError
	require.True(t, errors.As(evalErr, &cErr))
	assert.Equal(t, schema.ErrCodeBuild, cErr.Code)
}

func TestCELEngine_EmptyExpression(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, evalErr := e.Evaluate(context.Background(), "", map[string]any{})
	assert.Error(t, evalErr)
}

func TestCELEngine_CacheReuse(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, evalErr := e.Evaluate(context.Background(), `1 < 2`, map[string]any{})
	require.NoError(t, evalErr)
	assert.Len(t, e.cache, 1)

	_, evalErr = e.Evaluate(context.Background(), `1 < 2`, map[string]any{})
	require.NoError(t, evalErr)
	assert.Len(t, e.cache, 1)
}
