// Package condition evaluates attribute conditions against data records.
//
// A condition is a boolean CEL expression. Attributes of the record are written
// as ${name}, for example
//
//	${age} > 18 && ${country} in ["DE", "PL"]
//
// and the whole record is available as the map variable data.
package condition

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Variable is the name the record is bound to in an expression.
const Variable = "data"

var ErrInvalidCondition = errors.New("invalid condition")

var placeholder = regexp.MustCompile(`\$\{([^}]*)\}`)

var baseEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		ext.Lists(),
		ext.Math(),
		cel.OptionalTypes(),
		cel.CrossTypeNumericComparisons(true),
		cel.Variable(Variable, cel.MapType(cel.StringType, cel.DynType)),
	)
})

// Condition is a compiled expression. It is safe for concurrent use.
type Condition struct {
	expr       string
	references []string
	program    cel.Program
}

// Compile parses and type checks expr.
func Compile(expr string) (*Condition, error) {
	var references []string
	var bad error
	rewritten := placeholder.ReplaceAllStringFunc(expr, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if name == "" {
			bad = fmt.Errorf("%w: empty attribute reference in %q", ErrInvalidCondition, expr)
		}
		references = append(references, name)
		return Variable + "[" + strconv.Quote(name) + "]"
	})
	if bad != nil {
		return nil, bad
	}

	env, err := baseEnv()
	if err != nil {
		return nil, fmt.Errorf("creating condition environment: %w", err)
	}
	ast, issues := env.Compile(rewritten)
	if issues.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCondition, expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q yields %s, not a boolean", ErrInvalidCondition, expr, out)
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCondition, expr, err)
	}

	slices.Sort(references)
	return &Condition{
		expr:       expr,
		references: slices.Compact(references),
		program:    program,
	}, nil
}

// References returns the sorted attributes written as ${name}.
func (c *Condition) References() []string { return slices.Clone(c.references) }

func (c *Condition) String() string { return c.expr }

// Eval reports whether the record satisfies the condition.
// Referenced attributes missing from the record are null.
func (c *Condition) Eval(ctx context.Context, record map[string]any) (bool, error) {
	data := make(map[string]any, len(record)+len(c.references))
	for k, v := range record {
		data[k] = v
	}
	for _, name := range c.references {
		if _, ok := data[name]; !ok {
			data[name] = nil
		}
	}

	val, _, err := c.program.ContextEval(ctx, map[string]any{Variable: data})
	if err != nil {
		return false, fmt.Errorf("evaluating %q: %w", c.expr, err)
	}
	met, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaluating %q: result %v is not a boolean", c.expr, val.Value())
	}
	return met, nil
}
