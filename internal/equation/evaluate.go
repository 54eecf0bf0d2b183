package equation

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Evaluate computes the expression and leaves the result as the pending
// operand. Division by zero yields Undefined instead of a number.
func (s State) Evaluate() State {
	if s.pending == "" && len(s.operands) == 0 {
		return s
	}

	operands := slices.Clone(s.operands)
	if s.pending != "" {
		operands = append(operands, s.pending)
	}
	operators := slices.Clone(s.operators)
	if len(operators) >= len(operands) {
		operators = operators[:len(operators)-1]
	}

	if len(operands) == 0 {
		s.result = "0"
		return s
	}

	values := make([]float64, len(operands))
	for i, operand := range operands {
		values[i] = parseOperand(operand)
	}

	result := Undefined
	if v, ok := Reduce(values, operators); ok {
		result = FormatResult(v)
	}

	return State{
		pending:    result,
		result:     result,
		expression: render(operands, operators),
	}
}

// parseOperand converts an operand token to a number. Tokens that do not
// parse evaluate as zero.
func parseOperand(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Reduce applies operators to values with multiply, divide and percent
// binding tighter than add and subtract. len(operators) must be
// len(values)-1. It reports false on division by zero.
func Reduce(values []float64, operators []Operator) (float64, bool) {
	if len(values) == 0 {
		return 0, true
	}
	vals := slices.Clone(values)
	ops := slices.Clone(operators)
	if len(ops) > len(vals)-1 {
		ops = ops[:len(vals)-1]
	}

	for i := 0; i < len(ops); {
		if !ops[i].binds() {
			i++
			continue
		}

		a, b := vals[i], vals[i+1]
		var v float64
		switch ops[i] {
		case Multiply:
			v = a * b
		case Divide:
			if b == 0 {
				return 0, false
			}
			v = a / b
		case Percent:
			v = (a * b) / 100
		}

		// The collapsed value may feed the next operator, so i stays put.
		vals[i] = v
		vals = slices.Delete(vals, i+1, i+2)
		ops = slices.Delete(ops, i, i+1)
	}

	total := vals[0]
	for j, op := range ops {
		switch op {
		case Add:
			total += vals[j+1]
		case Subtract:
			total -= vals[j+1]
		}
	}
	return total, true
}

// FormatResult renders v for the display as the shortest decimal that reads
// back as v.
func FormatResult(v float64) string {
	switch {
	case math.IsNaN(v):
		return Undefined
	case math.IsInf(v, 1):
		return Infinity
	case math.IsInf(v, -1):
		return NegativeInfinity
	}

	if v == 0 {
		// drops the sign of negative zero
		v = 0
	}

	format := byte('f')
	if abs := math.Abs(v); abs >= 1e21 || (abs != 0 && abs < 1e-7) {
		format = 'g'
	}
	return strings.TrimSuffix(strconv.FormatFloat(v, format, -1, 64), ".0")
}
