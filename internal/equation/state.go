package equation

import (
	"encoding/json"
	"slices"
	"strings"
)

// Display values standing in for a failed evaluation.
const (
	Undefined        = "Undefined"
	Infinity         = "Infinity"
	NegativeInfinity = "-Infinity"
)

// IsSentinel reports whether s is an error display value rather than a number.
func IsSentinel(s string) bool {
	return s == Undefined || s == Infinity || s == NegativeInfinity
}

// State is an immutable snapshot of the calculator. Every transition returns
// a new State; the slices of a State are never written after construction.
type State struct {
	operands   []string
	operators  []Operator
	pending    string
	equation   string
	result     string
	expression string
}

// Initial returns the state of a freshly constructed or cleared calculator.
func Initial() State {
	return State{pending: "0"}
}

// Operands returns a copy of the committed operand tokens.
func (s State) Operands() []string { return slices.Clone(s.operands) }

// Operators returns a copy of the committed operators.
func (s State) Operators() []Operator { return slices.Clone(s.operators) }

// Pending is the numeral currently being typed.
func (s State) Pending() string { return s.pending }

// EquationText is the rendered committed part of the expression.
func (s State) EquationText() string { return s.equation }

// LastResult is the result of the most recent evaluation, or "".
func (s State) LastResult() string { return s.result }

// LastExpression is the expression that produced LastResult.
func (s State) LastExpression() string { return s.expression }

// Display is the main display line.
func (s State) Display() string { return s.equation + s.pending }

// Failed reports whether the pending operand holds an error sentinel.
func (s State) Failed() bool { return IsSentinel(s.pending) }

// Equal reports whether two snapshots hold the same values.
func (s State) Equal(o State) bool {
	return s.pending == o.pending &&
		s.equation == o.equation &&
		s.result == o.result &&
		s.expression == o.expression &&
		slices.Equal(s.operands, o.operands) &&
		slices.Equal(s.operators, o.operators)
}

// render rebuilds the equation text from operands and operators.
func render(operands []string, operators []Operator) string {
	var b strings.Builder
	for i, operand := range operands {
		b.WriteString(operand)
		if i < len(operators) {
			b.WriteString(operators[i].Symbol())
		}
	}
	return b.String()
}

// Snapshot is the serialisable view of a State.
type Snapshot struct {
	Operands       []string `json:"operands"`
	Operators      []string `json:"operators"`
	Pending        string   `json:"pending"`
	Equation       string   `json:"equation"`
	Display        string   `json:"display"`
	LastResult     string   `json:"last_result"`
	LastExpression string   `json:"last_expression"`
	Failed         bool     `json:"failed"`
}

// Snapshot converts s into its serialisable form. Slices are never nil.
func (s State) Snapshot() Snapshot {
	ops := make([]string, len(s.operators))
	for i, op := range s.operators {
		ops[i] = op.Symbol()
	}
	operands := make([]string, len(s.operands))
	copy(operands, s.operands)

	return Snapshot{
		Operands:       operands,
		Operators:      ops,
		Pending:        s.pending,
		Equation:       s.equation,
		Display:        s.Display(),
		LastResult:     s.result,
		LastExpression: s.expression,
		Failed:         s.Failed(),
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}
