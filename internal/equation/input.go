package equation

import (
	"slices"
	"strings"
)

// AppendDigit types d, which must be '0'-'9' or '.'; any other byte is ignored.
func (s State) AppendDigit(d byte) State {
	if d != '.' && (d < '0' || d > '9') {
		return s
	}

	cur := s.pending
	var next string

	switch {
	case IsSentinel(cur):
		next = string(d)
		if d == '.' {
			next = "0."
		}
	case d == '.' && strings.Contains(cur, "."):
		return s
	case cur == "0" && d != '.':
		next = string(d)
	case cur == "-0" && d != '.':
		next = "-" + string(d)
	case d == '.' && (cur == "" || cur == "-"):
		next = cur + "0."
	default:
		next = cur + string(d)
	}

	s.pending = next
	return s
}

// ToggleSign flips the sign of the pending operand.
func (s State) ToggleSign() State {
	cur := s.pending
	if cur == "" || cur == "0" || IsSentinel(cur) {
		return s
	}

	if rest, ok := strings.CutPrefix(cur, "-"); ok {
		s.pending = rest
	} else {
		s.pending = "-" + cur
	}
	if s.pending == "" && len(s.operands) == 0 {
		s.pending = "0"
	}
	return s
}

// canCommit reports whether the pending operand may be followed by an operator.
func (s State) canCommit() bool {
	return s.pending != "" && s.pending != "-" && !IsSentinel(s.pending)
}

// AppendOperator commits the pending operand followed by op. It is ignored
// when there is nothing to commit, which also rejects two adjacent operators.
func (s State) AppendOperator(op Operator) State {
	if !op.valid() || !s.canCommit() {
		return s
	}

	s.equation = s.equation + s.pending + op.Symbol()
	s.operands = append(slices.Clip(s.operands), s.pending)
	s.operators = append(slices.Clip(s.operators), op)
	s.pending = ""
	return s
}

// Backspace undoes the most recent keystroke: a character of the pending
// operand first, then the last operator together with its operand.
func (s State) Backspace() State {
	switch {
	case s.pending != "":
		if IsSentinel(s.pending) {
			s.pending = ""
		} else {
			s.pending = s.pending[:len(s.pending)-1]
		}
		if s.pending == "" && len(s.operands) == 0 {
			s.pending = "0"
		}

	case len(s.operators) > 0 && len(s.operands) > 0:
		operand := s.operands[len(s.operands)-1]
		op := s.operators[len(s.operators)-1]
		s.equation = s.equation[:len(s.equation)-len(op.Symbol())-len(operand)]
		s.operands = s.operands[:len(s.operands)-1]
		s.operators = s.operators[:len(s.operators)-1]
		s.pending = operand

	case len(s.operands) > 0:
		operand := s.operands[len(s.operands)-1]
		s.equation = s.equation[:len(s.equation)-len(operand)]
		s.operands = s.operands[:len(s.operands)-1]
		if len(s.operands) == 0 {
			s.pending = "0"
		}
	}

	if len(s.operands) == 0 {
		s.operands = nil
		s.operators = nil
	}
	return s
}

// Clear returns the initial state.
func (s State) Clear() State {
	return Initial()
}
