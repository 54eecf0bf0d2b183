package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-chi-calculator/internal/equation"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/script"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Steps bool // print the display after every key
}

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Keys  string            `json:"keys"`
	Steps script.Transcript `json:"steps,omitempty"`
	State equation.State    `json:"state"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <keys...>",
		Short: "Press a key sequence and print the display",
		Long: `Press a key sequence on a fresh calculator and print the final display.

Arguments are joined with spaces, so named keys can be given separately.

Examples:
  calc eval "12+3x4="
  calc eval 5 +/- x 2 =
  calc eval --steps "10+10%="`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Steps, "steps", false, "print the display after every key")

	return cmd
}

func runEval(opts *EvalOptions, input string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	keys, err := equation.ParseKeys(input)
	if err != nil {
		_ = formatter.Failure(err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid keys", err)
	}
	if len(keys) == 0 {
		_ = formatter.Failure("no keys provided", nil)
		return NewExitError(ExitCommandError, "no keys provided")
	}

	res := script.Run(&script.Script{
		Name:  "eval",
		Steps: []script.Step{{Keys: input}},
	})
	observability.Logger.Debug("keys evaluated",
		zap.Int("keys", len(keys)),
		zap.String("display", res.Final.Display()),
	)

	if formatter.JSON() {
		out := EvalResult{Keys: input, State: res.Final}
		if opts.Steps {
			out.Steps = res.Transcript
		}
		return formatter.Success(out)
	}

	w := cmd.OutOrStdout()
	if opts.Steps {
		for _, f := range res.Transcript {
			fmt.Fprintf(w, "%-2s %s\n", f.Key, f.Display)
		}
		return nil
	}
	return formatter.Success(res.Final.Display())
}
