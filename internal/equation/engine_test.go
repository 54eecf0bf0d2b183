package equation

import (
	"encoding/json"
	"strings"
	"testing"
)

func mustKeys(t *testing.T, input string) []Key {
	t.Helper()
	keys, err := ParseKeys(input)
	if err != nil {
		t.Fatalf("parsing keys %q: %v", input, err)
	}
	return keys
}

func press(t *testing.T, input string) State {
	t.Helper()
	return New().PressAll(mustKeys(t, input))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		keys       string
		result     string
		expression string
	}{
		{keys: "6+4=", result: "10", expression: "6+4"},
		{keys: "5/0=", result: "Undefined", expression: "5/0"},
		{keys: "2+3x4=", result: "14", expression: "2+3x4"},
		// product/100 percent; the dangling % is dropped before evaluation.
		{keys: "10+10%=", result: "20", expression: "10+10"},
		{keys: "200+50%10=", result: "205", expression: "200+50%10"},
		{keys: "50%10=", result: "5", expression: "50%10"},
		{keys: "8-2x3/4=", result: "6.5", expression: "8-2x3/4"},
		{keys: "2x3x4=", result: "24", expression: "2x3x4"},
		{keys: "7/2=", result: "3.5", expression: "7/2"},
		{keys: "1/3=", result: "0.3333333333333333", expression: "1/3"},
		{keys: "0.1+0.2=", result: "0.30000000000000004", expression: "0.1+0.2"},
		{keys: "9007199254740993=", result: "9007199254740992", expression: "9007199254740993"},
		{keys: "123456789012345678=", result: "123456789012345680", expression: "123456789012345678"},
		{keys: "0.30000000000000004=", result: "0.30000000000000004", expression: "0.30000000000000004"},
		{keys: "6+=", result: "6", expression: "6"},
		{keys: "=", result: "0", expression: "0"},
		{keys: "5~x3=", result: "-15", expression: "-5x3"},
		{keys: "0x5~=", result: "0", expression: "0x-5"},
		{keys: "5/0+3=", result: "Undefined", expression: "5/0+3"},
		{keys: "1000000000x1000000000x1000=", result: "1e+21", expression: "1000000000x1000000000x1000"},
		{keys: "6+4=x2=", result: "20", expression: "10x2"},
	}

	for _, tc := range tests {
		t.Run(tc.keys, func(t *testing.T) {
			s := press(t, tc.keys)

			if s.LastResult() != tc.result {
				t.Fatalf("expected result %q, got %q", tc.result, s.LastResult())
			}
			if s.Pending() != tc.result {
				t.Fatalf("expected pending %q, got %q", tc.result, s.Pending())
			}
			if s.EquationText() != "" {
				t.Fatalf("expected empty equation, got %q", s.EquationText())
			}
			if s.LastExpression() != tc.expression {
				t.Fatalf("expected expression %q, got %q", tc.expression, s.LastExpression())
			}
			if len(s.Operands()) != 0 || len(s.Operators()) != 0 {
				t.Fatalf("expected empty token lists, got %v %v", s.Operands(), s.Operators())
			}
		})
	}
}

func TestEvaluateWithoutInputIsNoop(t *testing.T) {
	s := State{}.Evaluate()
	if !s.Equal(State{}) {
		t.Fatalf("expected evaluate on an empty state to be a no-op, got %+v", s.Snapshot())
	}
}

func TestSentinelIsReplacedByDigit(t *testing.T) {
	s := press(t, "5/0=")
	if !s.Failed() {
		t.Fatal("expected failed state after division by zero")
	}

	if got := s.AppendDigit('5').Pending(); got != "5" {
		t.Fatalf("expected pending %q, got %q", "5", got)
	}
	if got := s.AppendDigit('.').Pending(); got != "0." {
		t.Fatalf("expected pending %q, got %q", "0.", got)
	}
	if got := s.AppendOperator(Add); !got.Equal(s) {
		t.Fatalf("expected operator to be rejected, got %+v", got.Snapshot())
	}
	if got := s.ToggleSign(); !got.Equal(s) {
		t.Fatalf("expected sign toggle to be rejected, got %+v", got.Snapshot())
	}
	if got := s.Backspace().Pending(); got != "0" {
		t.Fatalf("expected backspace to reset pending to %q, got %q", "0", got)
	}
}

func TestOverflowRendersInfinity(t *testing.T) {
	s := State{pending: "1e308"}.AppendOperator(Multiply).AppendDigit('9').Evaluate()
	if s.LastResult() != Infinity {
		t.Fatalf("expected %q, got %q", Infinity, s.LastResult())
	}

	if got := s.AppendDigit('5').Pending(); got != "5" {
		t.Fatalf("expected digit to replace %q, got %q", Infinity, got)
	}

	s = State{pending: "-1e308"}.AppendOperator(Multiply).AppendDigit('9').Evaluate()
	if s.LastResult() != NegativeInfinity {
		t.Fatalf("expected %q, got %q", NegativeInfinity, s.LastResult())
	}
	if got := s.AppendDigit('5').Pending(); got != "5" {
		t.Fatalf("expected digit to replace %q, got %q", NegativeInfinity, got)
	}
	if got := s.AppendDigit('.').Display(); got != "0." {
		t.Fatalf("expected %q, got %q", "0.", got)
	}
}

func TestUnparsableOperandEvaluatesAsZero(t *testing.T) {
	s := press(t, "5~<")
	if s.Pending() != "-" {
		t.Fatalf("expected pending %q, got %q", "-", s.Pending())
	}

	s = s.Evaluate()
	if s.LastResult() != "0" {
		t.Fatalf("expected %q, got %q", "0", s.LastResult())
	}
}

func TestAppendDigit(t *testing.T) {
	tests := []struct {
		keys    string
		pending string
	}{
		{keys: "0", pending: "0"},
		{keys: "00", pending: "0"},
		{keys: "07", pending: "7"},
		{keys: "0.0", pending: "0.0"},
		{keys: "1..2", pending: "1.2"},
		{keys: "1.2.3", pending: "1.23"},
		{keys: ".5", pending: "0.5"},
		{keys: "5+.", pending: "0."},
		{keys: "5+0", pending: "0"},
		{keys: "5+07", pending: "7"},
		{keys: "123", pending: "123"},
		{keys: "6+4=5", pending: "105"},
	}

	for _, tc := range tests {
		t.Run(tc.keys, func(t *testing.T) {
			if got := press(t, tc.keys).Pending(); got != tc.pending {
				t.Fatalf("expected pending %q, got %q", tc.pending, got)
			}
		})
	}
}

func TestAppendDigitIgnoresOtherBytes(t *testing.T) {
	s := Initial().AppendDigit('a')
	if !s.Equal(Initial()) {
		t.Fatalf("expected no-op, got %+v", s.Snapshot())
	}
}

func TestAppendDigitReplacesNegativeZero(t *testing.T) {
	s := State{pending: "-0"}.AppendDigit('4')
	if s.Pending() != "-4" {
		t.Fatalf("expected %q, got %q", "-4", s.Pending())
	}
}

func TestToggleSign(t *testing.T) {
	tests := []struct {
		keys    string
		pending string
	}{
		{keys: "~", pending: "0"},
		{keys: "5~", pending: "-5"},
		{keys: "5~~", pending: "5"},
		{keys: "1.5~", pending: "-1.5"},
		{keys: "5+~", pending: ""},
		// a bare "-" flips back to "0" unless an operator is waiting
		{keys: "5~<~", pending: "0"},
		{keys: "5~<~<", pending: "0"},
		{keys: "5+3~<~", pending: ""},
		{keys: "5+3~<~<", pending: "5"},
	}

	for _, tc := range tests {
		t.Run(tc.keys, func(t *testing.T) {
			if got := press(t, tc.keys).Pending(); got != tc.pending {
				t.Fatalf("expected pending %q, got %q", tc.pending, got)
			}
		})
	}
}

func TestAppendOperator(t *testing.T) {
	tests := []struct {
		keys      string
		equation  string
		operators int
	}{
		{keys: "+", equation: "0+", operators: 1},
		{keys: "5+", equation: "5+", operators: 1},
		{keys: "5++", equation: "5+", operators: 1},
		{keys: "5+x", equation: "5+", operators: 1},
		{keys: "5+3x", equation: "5+3x", operators: 2},
		{keys: "5~-3~+", equation: "-5--3+", operators: 2},
		{keys: "6+4=-", equation: "10-", operators: 1},
	}

	for _, tc := range tests {
		t.Run(tc.keys, func(t *testing.T) {
			s := press(t, tc.keys)
			if s.EquationText() != tc.equation {
				t.Fatalf("expected equation %q, got %q", tc.equation, s.EquationText())
			}
			if len(s.Operators()) != tc.operators {
				t.Fatalf("expected %d operators, got %d", tc.operators, len(s.Operators()))
			}
			if s.Pending() != "" {
				t.Fatalf("expected empty pending, got %q", s.Pending())
			}
		})
	}
}

func TestAppendOperatorRejectsEmptyExpression(t *testing.T) {
	s := State{}.AppendOperator(Add)
	if !s.Equal(State{}) {
		t.Fatalf("expected no-op, got %+v", s.Snapshot())
	}

	s = State{pending: "-"}.AppendOperator(Add)
	if s.EquationText() != "" {
		t.Fatalf("expected bare minus to be rejected, got %q", s.EquationText())
	}
}

func TestBackspace(t *testing.T) {
	tests := []struct {
		keys     string
		equation string
		pending  string
	}{
		{keys: "12<", equation: "", pending: "1"},
		{keys: "1<", equation: "", pending: "0"},
		{keys: "5+<", equation: "", pending: "5"},
		{keys: "5+3<", equation: "5+", pending: ""},
		{keys: "5+3<<", equation: "", pending: "5"},
		{keys: "12+34x<", equation: "12+", pending: "34"},
		{keys: "5~<", equation: "", pending: "-"},
		{keys: "6+4=<", equation: "", pending: "1"},
	}

	for _, tc := range tests {
		t.Run(tc.keys, func(t *testing.T) {
			s := press(t, tc.keys)
			if s.EquationText() != tc.equation {
				t.Fatalf("expected equation %q, got %q", tc.equation, s.EquationText())
			}
			if s.Pending() != tc.pending {
				t.Fatalf("expected pending %q, got %q", tc.pending, s.Pending())
			}
		})
	}
}

func TestBackspaceOnInitialStateIsNoop(t *testing.T) {
	s := Initial()
	for i := 0; i < 3; i++ {
		s = s.Backspace()
		if !s.Equal(Initial()) {
			t.Fatalf("backspace %d changed the initial state: %+v", i+1, s.Snapshot())
		}
	}
}

func TestBackspacePopsTrailingOperand(t *testing.T) {
	s := State{operands: []string{"12"}, equation: "12"}.Backspace()
	if s.EquationText() != "" || len(s.Operands()) != 0 {
		t.Fatalf("expected operand to be popped, got %+v", s.Snapshot())
	}
	if s.Pending() != "0" {
		t.Fatalf("expected pending %q, got %q", "0", s.Pending())
	}
}

func TestOperatorThenBackspaceRoundTrips(t *testing.T) {
	prefixes := []string{"12.5", "3+4", "7~", "2x3-1.", "6+4=", "5/0=", "", "9+"}

	for _, prefix := range prefixes {
		for _, op := range Operators() {
			t.Run(prefix+op.Symbol(), func(t *testing.T) {
				before := press(t, prefix)
				after := before.AppendOperator(op)
				if after.Equal(before) {
					return
				}
				if got := after.Backspace(); !got.Equal(before) {
					t.Fatalf("expected %+v, got %+v", before.Snapshot(), got.Snapshot())
				}
			})
		}
	}
}

func TestClearAlwaysYieldsInitialState(t *testing.T) {
	histories := []string{"", "123", "5+3x", "6+4=", "5/0=", "1.5~x2<", "9+9+9+"}

	for _, h := range histories {
		t.Run(h, func(t *testing.T) {
			if s := press(t, h).Clear(); !s.Equal(Initial()) {
				t.Fatalf("expected initial state, got %+v", s.Snapshot())
			}
		})
	}
}

// TestInvariantsOverAllShortSequences exhaustively presses every sequence of
// up to five keys from a small alphabet.
func TestInvariantsOverAllShortSequences(t *testing.T) {
	alphabet := mustKeys(t, "0 5 . ~ < + x / % =")

	var walk func(s State, depth int, trail string)
	walk = func(s State, depth int, trail string) {
		if strings.Count(s.Pending(), ".") > 1 {
			t.Fatalf("%s: pending %q has two decimal points", trail, s.Pending())
		}
		if got := render(s.operands, s.operators); got != s.EquationText() {
			t.Fatalf("%s: equation %q does not match tokens %q", trail, s.EquationText(), got)
		}
		if n, m := len(s.operands), len(s.operators); m != n && m != n-1 {
			t.Fatalf("%s: %d operands with %d operators", trail, n, m)
		}
		if s.Display() == "" {
			t.Fatalf("%s: display is blank", trail)
		}
		if depth == 0 {
			return
		}
		for _, k := range alphabet {
			walk(Step(s, k), depth-1, trail+k.String())
		}
	}

	walk(Initial(), 5, "")
}

func TestSnapshotsAreNotShared(t *testing.T) {
	a := press(t, "1+2+")
	b := a.Backspace()
	c := b.AppendOperator(Multiply)

	if a.EquationText() != "1+2+" || !strings.HasSuffix(render(a.operands, a.operators), "+") {
		t.Fatalf("earlier snapshot was modified: %+v", a.Snapshot())
	}
	if c.EquationText() != "1+2x" {
		t.Fatalf("expected %q, got %q", "1+2x", c.EquationText())
	}
	if got := a.Operators()[1]; got != Add {
		t.Fatalf("expected earlier operator %v, got %v", Add, got)
	}
}

func TestEngineNotifiesObservers(t *testing.T) {
	e := New()

	var seen []string
	cancel := e.Subscribe(func(s State) {
		seen = append(seen, s.Display())
	})

	e.PressAll(mustKeys(t, "2+3="))
	cancel()
	e.Press(Clear)

	want := []string{"2", "2+", "2+3", "5"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	if !e.State().Equal(Initial()) {
		t.Fatalf("expected cleared engine, got %+v", e.State().Snapshot())
	}
}

func TestEngineCommandsMatchKeys(t *testing.T) {
	e := New()
	e.AppendDigit('9')
	e.ToggleSign()
	e.AppendOperator(Divide)
	e.AppendDigit('3')
	e.Backspace()
	e.AppendDigit('2')
	got := e.Evaluate()

	want := press(t, "9~/3<2=")
	if !got.Equal(want) {
		t.Fatalf("expected %+v, got %+v", want.Snapshot(), got.Snapshot())
	}
	if got.LastResult() != "-4.5" {
		t.Fatalf("expected %q, got %q", "-4.5", got.LastResult())
	}
}

func TestEnterNumber(t *testing.T) {
	tests := []string{"0", "7", "-12.5", "0.25", "1000000"}

	for _, literal := range tests {
		t.Run(literal, func(t *testing.T) {
			if got := New().EnterNumber(literal).Pending(); got != literal {
				t.Fatalf("expected pending %q, got %q", literal, got)
			}
		})
	}
}

func TestStateMarshalJSON(t *testing.T) {
	data, err := json.Marshal(press(t, "12+3x"))
	if err != nil {
		t.Fatalf("marshalling state: %v", err)
	}

	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshalling snapshot: %v", err)
	}

	if got.Equation != "12+3x" || got.Display != "12+3x" {
		t.Fatalf("unexpected equation/display: %+v", got)
	}
	if strings.Join(got.Operators, "") != "+x" {
		t.Fatalf("expected operators [+ x], got %v", got.Operators)
	}
	if strings.Join(got.Operands, ",") != "12,3" {
		t.Fatalf("expected operands [12 3], got %v", got.Operands)
	}
	if got.Failed {
		t.Fatal("did not expect failed state")
	}
}
