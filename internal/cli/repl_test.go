package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-chi-calculator/internal/equation"
)

func TestReplHandleLine(t *testing.T) {
	buf := &bytes.Buffer{}
	r := newRepl(equation.New(), buf, "text", false)

	assert.False(t, r.handleLine("2+3"))
	assert.False(t, r.handleLine("x4="))
	assert.False(t, r.handleLine("  "))
	assert.False(t, r.handleLine("1?"))
	assert.False(t, r.handleLine(":nope"))

	assert.Equal(t,
		"2+3\n"+
			"2+3x4 = 14\n"+
			"error: in \"1?\": unknown key: \"?\"\n"+
			"unknown command :nope. Type :help for help.\n",
		buf.String())
}

func TestReplKeepsStateAcrossLines(t *testing.T) {
	buf := &bytes.Buffer{}
	e := equation.New()
	r := newRepl(e, buf, "text", false)

	r.handleLine("9")
	r.handleLine("~")
	r.handleLine("+10=")

	assert.Equal(t, "1", e.State().LastResult())
}

func TestReplQuit(t *testing.T) {
	for _, line := range []string{":q", "quit", " :QUIT ", "exit"} {
		r := newRepl(equation.New(), &bytes.Buffer{}, "text", false)
		assert.True(t, r.handleLine(line), line)
	}
}

func TestReplSteps(t *testing.T) {
	buf := &bytes.Buffer{}
	r := newRepl(equation.New(), buf, "text", true)

	r.handleLine("1+")
	assert.Equal(t, "  1\n  1+\n1+\n", buf.String())
}

func TestReplJSONState(t *testing.T) {
	buf := &bytes.Buffer{}
	r := newRepl(equation.New(), buf, "json", false)

	r.handleLine("7x6=")

	var snap equation.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Equal(t, "42", snap.LastResult)
	assert.Equal(t, "7x6", snap.LastExpression)
}

func TestReplStateCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	r := newRepl(equation.New(), buf, "text", false)

	r.handleLine("5+")
	buf.Reset()
	r.handleLine(":state")

	assert.Contains(t, buf.String(), "display:    5+\n")
	assert.Contains(t, buf.String(), "equation:   5+\n")
}
