package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sk31337/oca/bindings/go/condition"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		expr       string
		references []string
		err        bool
	}{
		{expr: "${age} > 18", references: []string{"age"}},
		{expr: "${age} >= 18 && ${country} in ['DE', 'PL']", references: []string{"age", "country"}},
		{expr: "${a} == ${a}", references: []string{"a"}},
		{expr: "${flag}", references: []string{"flag"}},
		{expr: "size(data) > 1", references: nil},
		{expr: "${} > 1", err: true},
		{expr: "${age} >", err: true},
		{expr: "'text'", err: true},
		{expr: "unknown > 1", err: true},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			c, err := condition.Compile(tc.expr)
			if tc.err {
				require.ErrorIs(t, err, condition.ErrInvalidCondition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.references, c.References())
			assert.Equal(t, tc.expr, c.String())
		})
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		record map[string]any
		met    bool
		err    bool
	}{
		{name: "above", expr: "${age} > 18", record: map[string]any{"age": float64(20)}, met: true},
		{name: "equal", expr: "${age} > 18", record: map[string]any{"age": float64(18)}},
		{name: "strings", expr: "${country}.startsWith('P')", record: map[string]any{"country": "PL"}, met: true},
		{name: "lists", expr: "'b' in ${tags}", record: map[string]any{"tags": []any{"a", "b"}}, met: true},
		{name: "null check", expr: "${nickname} == null", record: map[string]any{}, met: true},
		{name: "missing attribute", expr: "${age} > 18", record: map[string]any{}, err: true},
		{name: "wrong type", expr: "${age} > 18", record: map[string]any{"age": "old"}, err: true},
		{name: "not a boolean", expr: "${flag}", record: map[string]any{"flag": "yes"}, err: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := condition.Compile(tc.expr)
			require.NoError(t, err)
			met, err := c.Eval(t.Context(), tc.record)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.met, met)
		})
	}
}
