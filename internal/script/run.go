package script

import (
	"fmt"
	"strings"

	"go-chi-calculator/internal/equation"
)

// Frame is the calculator state right after one key.
type Frame struct {
	Step    int    `json:"step"` // 1-based step number
	Key     string `json:"key"`
	Display string `json:"display"`
	Result  string `json:"result"`
}

// Transcript is every frame of a run, in order.
type Transcript []Frame

// String renders one line per frame. The format is stable; golden files
// depend on it.
func (t Transcript) String() string {
	var b strings.Builder
	for _, f := range t {
		fmt.Fprintf(&b, "step %d: %s => %q (result %q)\n", f.Step, f.Key, f.Display, f.Result)
	}
	return b.String()
}

// Failure is one expectation that did not hold.
type Failure struct {
	Step  int    `json:"step"`
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d: %s: want %q, got %q", f.Step, f.Field, f.Want, f.Got)
}

// Result is the outcome of running a script.
type Result struct {
	Name       string         `json:"name"`
	Final      equation.State `json:"final"`
	Transcript Transcript     `json:"transcript"`
	Failures   []Failure      `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run presses every step of s on a fresh calculator. Steps of a script that
// did not come from Parse are parsed here; a step whose keys do not parse is
// reported as a failure and skipped.
func Run(s *Script) *Result {
	e := equation.New()
	res := &Result{Name: s.Name}

	var step int
	var key equation.Key
	e.Subscribe(func(st equation.State) {
		res.Transcript = append(res.Transcript, Frame{
			Step:    step,
			Key:     key.String(),
			Display: st.Display(),
			Result:  st.LastResult(),
		})
	})

	for i, st := range s.Steps {
		step = i + 1

		keys := st.keys
		if keys == nil {
			parsed, err := equation.ParseKeys(st.Keys)
			if err != nil {
				res.Failures = append(res.Failures, Failure{Step: step, Field: "keys", Want: st.Keys, Got: err.Error()})
				continue
			}
			keys = parsed
		}

		for _, k := range keys {
			key = k
			e.Press(k)
		}
		if st.Expect != nil {
			res.Failures = append(res.Failures, check(step, st.Expect, e.State())...)
		}
	}

	res.Final = e.State()
	return res
}

func check(step int, want *Expect, got equation.State) []Failure {
	fields := []struct {
		name string
		want *string
		got  string
	}{
		{"display", want.Display, got.Display()},
		{"pending", want.Pending, got.Pending()},
		{"equation", want.Equation, got.EquationText()},
		{"result", want.Result, got.LastResult()},
		{"expression", want.Expression, got.LastExpression()},
	}

	var failures []Failure
	for _, f := range fields {
		if f.want != nil && *f.want != f.got {
			failures = append(failures, Failure{Step: step, Field: f.name, Want: *f.want, Got: f.got})
		}
	}
	return failures
}
