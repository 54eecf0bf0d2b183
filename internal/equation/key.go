package equation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned when input does not name a calculator key.
var ErrUnknownKey = errors.New("unknown key")

// KeyKind identifies which button a Key represents.
type KeyKind int

const (
	KeyDigit KeyKind = iota
	KeyOperator
	KeySign
	KeyBackspace
	KeyClear
	KeyEvaluate
)

func (k KeyKind) String() string {
	switch k {
	case KeyDigit:
		return "digit"
	case KeyOperator:
		return "operator"
	case KeySign:
		return "sign"
	case KeyBackspace:
		return "backspace"
	case KeyClear:
		return "clear"
	case KeyEvaluate:
		return "evaluate"
	}
	return fmt.Sprintf("KeyKind(%d)", int(k))
}

// Key is a single button press.
type Key struct {
	Kind     KeyKind
	Digit    byte     // KeyDigit only: '0'-'9' or '.'
	Operator Operator // KeyOperator only
}

// Digit returns the key for '0'-'9' or '.'.
func Digit(d byte) Key { return Key{Kind: KeyDigit, Digit: d} }

// Op returns the key for an operator.
func Op(op Operator) Key { return Key{Kind: KeyOperator, Operator: op} }

var (
	Sign      = Key{Kind: KeySign}
	Backspace = Key{Kind: KeyBackspace}
	Clear     = Key{Kind: KeyClear}
	Evaluate  = Key{Kind: KeyEvaluate}
)

// String renders the canonical token for k; ParseKey(k.String()) == k.
func (k Key) String() string {
	switch k.Kind {
	case KeyDigit:
		return string(k.Digit)
	case KeyOperator:
		return k.Operator.Symbol()
	case KeySign:
		return "~"
	case KeyBackspace:
		return "<"
	case KeyClear:
		return "C"
	case KeyEvaluate:
		return "="
	}
	return "?"
}

var namedKeys = map[string]Key{
	"~":         Sign,
	"±":         Sign,
	"+/-":       Sign,
	"neg":       Sign,
	"<":         Backspace,
	"bs":        Backspace,
	"del":       Backspace,
	"backspace": Backspace,
	"c":         Clear,
	"ac":        Clear,
	"clear":     Clear,
	"=":         Evaluate,
	"eq":        Evaluate,
	"enter":     Evaluate,
}

// ParseKey parses a single key token.
func ParseKey(token string) (Key, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if k, ok := namedKeys[t]; ok {
		return k, nil
	}
	if len(t) == 1 && (t[0] == '.' || (t[0] >= '0' && t[0] <= '9')) {
		return Digit(t[0]), nil
	}
	if op, err := ParseOperator(t); err == nil {
		return Op(op), nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, token)
}

// ParseKeys parses a key sequence. Fields are separated by whitespace; a
// field is either a named key ("AC", "del", "+/-", "divide") or a run of
// single-character keys such as "12+3x4=".
func ParseKeys(input string) ([]Key, error) {
	var keys []Key
	for _, field := range strings.Fields(input) {
		if k, err := ParseKey(field); err == nil {
			keys = append(keys, k)
			continue
		}
		for _, r := range field {
			k, err := ParseKey(string(r))
			if err != nil {
				return nil, fmt.Errorf("in %q: %w", field, err)
			}
			keys = append(keys, k)
		}
	}
	return keys, nil
}
