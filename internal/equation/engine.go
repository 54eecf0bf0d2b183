// Package equation is the keypad calculator core: an equation builder that
// accepts one key at a time and evaluates with operator precedence.
package equation

// Observer is called with the new state after every key.
type Observer func(State)

// Engine owns the current State and applies keys to it. An Engine is not
// safe for concurrent use; callers serialise input.
type Engine struct {
	state     State
	observers map[int]Observer
	nextID    int
}

// New returns an engine in the initial state.
func New() *Engine {
	return &Engine{state: Initial()}
}

// State returns the current snapshot.
func (e *Engine) State() State {
	return e.state
}

// Subscribe registers fn to be called after every key. The returned func
// removes it.
func (e *Engine) Subscribe(fn Observer) (cancel func()) {
	if e.observers == nil {
		e.observers = make(map[int]Observer)
	}
	id := e.nextID
	e.nextID++
	e.observers[id] = fn

	return func() { delete(e.observers, id) }
}

func (e *Engine) set(s State) State {
	e.state = s
	for _, fn := range e.observers {
		fn(s)
	}
	return s
}

// AppendDigit types d; see State.AppendDigit.
func (e *Engine) AppendDigit(d byte) State { return e.set(e.state.AppendDigit(d)) }

// ToggleSign flips the sign of the pending operand.
func (e *Engine) ToggleSign() State { return e.set(e.state.ToggleSign()) }

// AppendOperator commits the pending operand followed by op.
func (e *Engine) AppendOperator(op Operator) State { return e.set(e.state.AppendOperator(op)) }

// Backspace undoes the most recent keystroke.
func (e *Engine) Backspace() State { return e.set(e.state.Backspace()) }

// Clear resets the engine to the initial state.
func (e *Engine) Clear() State { return e.set(e.state.Clear()) }

// Evaluate computes the expression; see State.Evaluate.
func (e *Engine) Evaluate() State { return e.set(e.state.Evaluate()) }

// Press applies a single key.
func (e *Engine) Press(k Key) State {
	return e.set(Step(e.state, k))
}

// PressAll applies keys in order and returns the final state.
func (e *Engine) PressAll(keys []Key) State {
	for _, k := range keys {
		e.Press(k)
	}
	return e.state
}

// Step is the pure transition function: the state that follows s when k is
// pressed.
func Step(s State, k Key) State {
	switch k.Kind {
	case KeyDigit:
		return s.AppendDigit(k.Digit)
	case KeyOperator:
		return s.AppendOperator(k.Operator)
	case KeySign:
		return s.ToggleSign()
	case KeyBackspace:
		return s.Backspace()
	case KeyClear:
		return s.Clear()
	case KeyEvaluate:
		return s.Evaluate()
	}
	return s
}

// EnterNumber types the digits of a plain decimal literal such as "-12.5",
// flipping the sign last as a keypad user would.
func (e *Engine) EnterNumber(literal string) State {
	negative := len(literal) > 0 && literal[0] == '-'
	if negative {
		literal = literal[1:]
	}
	for i := 0; i < len(literal); i++ {
		e.AppendDigit(literal[i])
	}
	if negative {
		e.ToggleSign()
	}
	return e.state
}
