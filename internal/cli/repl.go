package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-chi-calculator/internal/equation"
	"go-chi-calculator/internal/observability"
)

const replPrompt = "calc> "

const replHelp = `Type keys and press enter, e.g. 12+3x4= or AC.
  :state   print the full calculator state
  :help    show this help
  :q       quit (also "quit" or Ctrl-D)`

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Steps   bool   // print the display after every key
	History string // history file, empty disables history
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive calculator",
		Long: `Start an interactive calculator. Each line is a key sequence applied to the
same calculator, and the display is printed after every line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Steps, "steps", false, "print the display after every key")
	cmd.Flags().StringVar(&opts.History, "history", "", "read and append line history to this file")

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if opts.History != "" {
		if f, err := os.Open(opts.History); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			f, err := os.Create(opts.History)
			if err != nil {
				observability.Logger.Warn("history not saved", zap.String("path", opts.History), zap.Error(err))
				return
			}
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}()
	}

	r := newRepl(equation.New(), cmd.OutOrStdout(), opts.Format, opts.Steps)
	for {
		line, err := ln.Prompt(replPrompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "reading input", err)
		}

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if r.handleLine(line) {
			return nil
		}
	}
}

// repl applies input lines to one engine and writes feedback to out.
type repl struct {
	engine *equation.Engine
	out    io.Writer
	json   bool
}

func newRepl(e *equation.Engine, out io.Writer, format string, steps bool) *repl {
	r := &repl{engine: e, out: out, json: format == "json"}
	if steps {
		e.Subscribe(func(s equation.State) {
			fmt.Fprintf(r.out, "  %s\n", s.Display())
		})
	}
	return r
}

// handleLine processes one line of input and reports whether to quit.
func (r *repl) handleLine(line string) (quit bool) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "":
		return false
	case ":q", ":quit", "quit", "exit":
		return true
	case ":help", "help":
		fmt.Fprintln(r.out, replHelp)
		return false
	case ":state":
		r.printState()
		return false
	}
	if strings.HasPrefix(cmd, ":") {
		fmt.Fprintf(r.out, "unknown command %s. Type :help for help.\n", cmd)
		return false
	}

	keys, err := equation.ParseKeys(line)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return false
	}
	if len(keys) == 0 {
		return false
	}

	s := r.engine.PressAll(keys)
	observability.Logger.Debug("line applied", zap.Int("keys", len(keys)), zap.String("display", s.Display()))

	if r.json {
		r.printState()
		return false
	}
	if keys[len(keys)-1].Kind == equation.KeyEvaluate && s.LastExpression() != "" {
		fmt.Fprintf(r.out, "%s = %s\n", s.LastExpression(), s.Display())
		return false
	}
	fmt.Fprintln(r.out, s.Display())
	return false
}

func (r *repl) printState() {
	s := r.engine.State()
	if !r.json {
		snap := s.Snapshot()
		fmt.Fprintf(r.out, "display:    %s\nequation:   %s\npending:    %s\nresult:     %s\nexpression: %s\n",
			snap.Display, snap.Equation, snap.Pending, snap.LastResult, snap.LastExpression)
		return
	}
	enc := json.NewEncoder(r.out)
	_ = enc.Encode(s)
}
