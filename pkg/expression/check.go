package expression

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// MatchAny returns the text of the first rule env matches.
func MatchAny(env *OrphanEnv, expressions []CompiledExpression) (bool, string, error) {
	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %w", err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("expression %q returned %T, not bool", expression.Text, result)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}
