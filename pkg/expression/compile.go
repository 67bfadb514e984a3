package expression

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Compile compiles each rule against OrphanEnv. Rules must evaluate to a bool.
func Compile(rules []string) ([]CompiledExpression, error) {
	compiled := make([]CompiledExpression, 0, len(rules))

	for _, rule := range rules {
		program, err := expr.Compile(rule, expr.Env(&OrphanEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile expression %q: %w", rule, err)
		}

		compiled = append(compiled, CompiledExpression{
			Program: program,
			Text:    rule,
		})
	}

	return compiled, nil
}
