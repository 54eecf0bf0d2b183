package equation

import (
	"fmt"
	"strings"
)

// Operator is one of the five keypad operators.
type Operator int

const (
	Add Operator = iota
	Subtract
	Multiply
	Divide
	Percent
)

var operatorSymbols = [...]string{
	Add:      "+",
	Subtract: "-",
	Multiply: "x",
	Divide:   "/",
	Percent:  "%",
}

var operatorNames = [...]string{
	Add:      "add",
	Subtract: "subtract",
	Multiply: "multiply",
	Divide:   "divide",
	Percent:  "percent",
}

// Operators lists every operator in declaration order.
func Operators() []Operator {
	return []Operator{Add, Subtract, Multiply, Divide, Percent}
}

func (op Operator) valid() bool {
	return op >= Add && op <= Percent
}

// Symbol is the text the operator contributes to the equation.
func (op Operator) Symbol() string {
	if !op.valid() {
		return "?"
	}
	return operatorSymbols[op]
}

// String returns the lower-case operator name ("add", "divide", ...).
func (op Operator) String() string {
	if !op.valid() {
		return fmt.Sprintf("Operator(%d)", int(op))
	}
	return operatorNames[op]
}

// binds reports whether op is reduced in the first (multiplicative) pass.
func (op Operator) binds() bool {
	return op == Multiply || op == Divide || op == Percent
}

// ParseOperator accepts an operator name or symbol. "*" is accepted as an
// alias for Multiply.
func ParseOperator(s string) (Operator, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "*" {
		return Multiply, nil
	}
	for _, op := range Operators() {
		if s == op.Symbol() || s == op.String() {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: operator %q", ErrUnknownKey, s)
}
