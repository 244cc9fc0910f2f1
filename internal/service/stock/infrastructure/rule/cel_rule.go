// internal/service/stock/infrastructure/rule/cel_rule.go
package rule

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultExpression 是低库存判定的默认规则。
const DefaultExpression = "quantity <= reorder_level"

// CELReorderRule 是 port.ReorderRule 的 CEL 实现。
// 判定条件以表达式形式下发，运营侧可以在不改代码的情况下调整规则，
// 例如 "quantity <= reorder_level * 2" 提前预警。
type CELReorderRule struct {
	program cel.Program
}

// NewCELReorderRule 编译给定表达式，expr 为空时使用默认规则。
func NewCELReorderRule(expr string) (*CELReorderRule, error) {
	if expr == "" {
		expr = DefaultExpression
	}

	env, err := cel.NewEnv(
		cel.Variable("quantity", cel.IntType),
		cel.Variable("reorder_level", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid low-stock rule %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("low-stock rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program: %w", err)
	}
	return &CELReorderRule{program: program}, nil
}

// IsLow 评估一行库存是否命中低库存规则。
func (r *CELReorderRule) IsLow(quantity, reorderLevel int) (bool, error) {
	out, _, err := r.program.Eval(map[string]interface{}{
		"quantity":      int64(quantity),
		"reorder_level": int64(reorderLevel),
	})
	if err != nil {
		return false, err
	}
	hit, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected result type from low-stock rule: %T", out.Value())
	}
	return hit, nil
}
