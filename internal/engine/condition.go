package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"dynaform/internal/logging"
	"dynaform/internal/model"
)

var expressionFunctions = map[string]function.Function{
	"lower":     stdlib.LowerFunc,
	"upper":     stdlib.UpperFunc,
	"trimspace": stdlib.TrimSpaceFunc,
	"length":    stdlib.LengthFunc,
	"contains":  stdlib.ContainsFunc,
}

func parseExpression(src string) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "condition", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, errors.New(diags.Error())
	}
	return expr, nil
}

// scope caches trigger responses for the life of one evaluation
type scope struct {
	sheet     *Sheet
	responses map[string][]string
	errs      map[string]error
}

func newScope(sheet *Sheet) *scope {
	return &scope{sheet: sheet, responses: make(map[string][]string), errs: make(map[string]error)}
}

func (s *scope) read(ctx context.Context, b *Binder, q *model.Question) ([]string, error) {
	if v, ok := s.responses[q.ID]; ok {
		return v, nil
	}
	if err, ok := s.errs[q.ID]; ok {
		return nil, err
	}
	v, err := b.Read(ctx, q, s.sheet)
	if err != nil {
		s.errs[q.ID] = err
		return nil, err
	}
	s.responses[q.ID] = v
	return v, nil
}

// forget drops cached responses after a write
func (s *scope) forget(questionID string) {
	delete(s.responses, questionID)
	delete(s.errs, questionID)
}

// Evaluator decides whether questions are active on an answer sheet.
type Evaluator struct {
	binder *Binder
}

// NewEvaluator creates an evaluator reading responses through binder
func NewEvaluator(binder *Binder) *Evaluator {
	return &Evaluator{binder: binder}
}

// IsActive reports whether every condition toggling q holds on sheet.
// A question without conditions is always active.
func (e *Evaluator) IsActive(ctx context.Context, form *Form, q *model.Question, sheet *Sheet) bool {
	return e.isActive(ctx, form, q, newScope(sheet))
}

func (e *Evaluator) isActive(ctx context.Context, form *Form, q *model.Question, sc *scope) bool {
	for _, c := range form.Conditions(q.ID) {
		if !e.holds(ctx, form, c, sc) {
			return false
		}
	}
	return true
}

// IsRequired reports whether q is required, statically or through its
// required-when condition.
func (e *Evaluator) IsRequired(ctx context.Context, form *Form, q *model.Question, sheet *Sheet) bool {
	return e.isRequired(ctx, form, q, newScope(sheet))
}

func (e *Evaluator) isRequired(ctx context.Context, form *Form, q *model.Question, sc *scope) bool {
	if q.Required {
		return true
	}
	if q.RequiredWhen == nil {
		return false
	}
	return e.holds(ctx, form, q.RequiredWhen, sc)
}

// holds evaluates one condition. Failures count as false and are logged.
func (e *Evaluator) holds(ctx context.Context, form *Form, c *model.Condition, sc *scope) bool {
	ok, err := e.evaluate(ctx, form, c, sc)
	mode := string(c.Mode)
	if mode == "" {
		mode = string(model.ConditionMatch)
	}
	switch {
	case err != nil:
		conditionEvaluations.WithLabelValues(mode, "error").Inc()
		logging.FromContext(ctx).Warn("condition evaluation failed",
			"condition", c.ID, "trigger", c.TriggerID, "error", err)
		return false
	case ok:
		conditionEvaluations.WithLabelValues(mode, "true").Inc()
	default:
		conditionEvaluations.WithLabelValues(mode, "false").Inc()
	}
	return ok
}

func (e *Evaluator) evaluate(ctx context.Context, form *Form, c *model.Condition, sc *scope) (bool, error) {
	trigger := form.Question(c.TriggerID)
	if trigger == nil {
		return false, fmt.Errorf("unknown trigger question %q", c.TriggerID)
	}
	responses, err := sc.read(ctx, e.binder, trigger)
	if err != nil {
		return false, err
	}
	if !c.IsExpression() {
		return MatchAccepted(c.Expression, responses), nil
	}
	expr, ok := form.exprs[c]
	if !ok {
		return false, fmt.Errorf("condition %q was not compiled", c.ID)
	}
	return evalExpression(expr, responses)
}

// MatchAccepted reports whether any response is in the accepted set of
// expression, or whether both the accepted set and the responses are empty.
func MatchAccepted(expression string, responses []string) bool {
	accepted := AcceptedValues(expression)
	present := make([]string, 0, len(responses))
	for _, r := range responses {
		if n := normalize(r); n != "" {
			present = append(present, n)
		}
	}
	if len(accepted) == 0 {
		return len(present) == 0
	}
	for _, r := range present {
		for _, a := range accepted {
			if r == a {
				return true
			}
		}
	}
	return false
}

// AcceptedValues splits a match expression on ';' or ',' into normalized
// accepted values.
func AcceptedValues(expression string) []string {
	fields := strings.FieldsFunc(expression, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := normalize(f); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func evalExpression(expr hcl.Expression, responses []string) (bool, error) {
	vals := make([]cty.Value, 0, len(responses))
	answered := false
	for _, r := range responses {
		vals = append(vals, cty.StringVal(r))
		if strings.TrimSpace(r) != "" {
			answered = true
		}
	}
	list := cty.ListValEmpty(cty.String)
	if len(vals) > 0 {
		list = cty.ListVal(vals)
	}
	first := ""
	if len(responses) > 0 {
		first = responses[0]
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"response":  cty.StringVal(first),
			"responses": list,
			"answered":  cty.BoolVal(answered),
		},
		Functions: expressionFunctions,
	}
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, errors.New(diags.Error())
	}
	v, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("expression is not boolean: %w", err)
	}
	if v.IsNull() || !v.IsKnown() {
		return false, nil
	}
	return v.True(), nil
}
