package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"go-chi-calculator/internal/observability"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the calc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Four-function keypad calculator",
		Long: `A four-function keypad calculator with operator precedence.

Keys are typed the way they are pressed on a keypad: digits and ".",
the operators + - x / %, "~" to flip the sign, "<" for backspace,
"C" to clear and "=" to evaluate.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				if err := observability.InitLogger("debug"); err != nil {
					return WrapExitError(ExitCommandError, "initializing logger", err)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.SyncLogger()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log diagnostics to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))

	return cmd
}
