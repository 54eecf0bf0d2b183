package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"go-chi-calculator/internal/equation"
)

// ErrInvalidScript is returned for scripts that decode but cannot be run.
var ErrInvalidScript = errors.New("invalid script")

// Script is a named sequence of key presses with expectations about the
// calculator state along the way.
type Script struct {
	// Name identifies the script in reports and golden files.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Steps are applied in order to one calculator.
	Steps []Step `yaml:"steps"`
}

// Step presses Keys and then checks Expect, if present.
type Step struct {
	// Keys uses the equation.ParseKeys syntax, e.g. "12+3x4=" or "AC 5 +/-".
	Keys string `yaml:"keys"`

	Expect *Expect `yaml:"expect,omitempty"`

	keys []equation.Key
}

// Expect lists the state fields to check after a step. Nil fields are not
// checked; a pointer to "" expects an empty value.
type Expect struct {
	Display    *string `yaml:"display,omitempty"`
	Pending    *string `yaml:"pending,omitempty"`
	Equation   *string `yaml:"equation,omitempty"`
	Result     *string `yaml:"result,omitempty"`
	Expression *string `yaml:"expression,omitempty"`
}

// Load reads and validates the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a script from YAML, rejecting unknown fields.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScript)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: steps list is required and must be non-empty", ErrInvalidScript)
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		keys, err := equation.ParseKeys(step.Keys)
		if err != nil {
			return fmt.Errorf("%w: steps[%d]: %w", ErrInvalidScript, i, err)
		}
		if len(keys) == 0 {
			return fmt.Errorf("%w: steps[%d]: keys is required", ErrInvalidScript, i)
		}
		step.keys = keys
	}
	return nil
}
