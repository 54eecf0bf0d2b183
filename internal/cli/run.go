package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/script"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Transcript bool // print every frame of every script
}

// ScriptReport is the outcome of one script file.
type ScriptReport struct {
	Path       string            `json:"path"`
	Name       string            `json:"name,omitempty"`
	Pass       bool              `json:"pass"`
	Error      string            `json:"error,omitempty"` // load error
	Failures   []script.Failure  `json:"failures,omitempty"`
	Transcript script.Transcript `json:"transcript,omitempty"`
}

// RunReport is the JSON payload of the run command.
type RunReport struct {
	Scripts []ScriptReport `json:"scripts"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
	Total   int            `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script.yaml...>",
		Short: "Run keystroke scripts and check their expectations",
		Long: `Run keystroke scripts and check the calculator state after each step.

Exit codes:
  0 - All scripts passed
  1 - One or more expectations failed
  2 - A script could not be loaded

Examples:
  calc run testdata/scripts/precedence.yaml
  calc run --format json scripts/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Transcript, "transcript", false, "print the display after every key")

	return cmd
}

func runScripts(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	report := RunReport{Scripts: make([]ScriptReport, 0, len(paths)), Total: len(paths)}

	loadErrors := 0
	for _, path := range paths {
		r := runScript(path, opts.Transcript)
		if r.Error != "" {
			loadErrors++
		}
		if r.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Scripts = append(report.Scripts, r)
	}

	if formatter.JSON() {
		if report.Failed > 0 {
			if err := formatter.Failure(fmt.Sprintf("%d of %d scripts failed", report.Failed, report.Total), report); err != nil {
				return err
			}
		} else if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), report)
	}

	switch {
	case loadErrors > 0:
		return NewExitError(ExitCommandError, fmt.Sprintf("%d script(s) could not be loaded", loadErrors))
	case report.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scripts failed", report.Failed, report.Total))
	}
	return nil
}

func runScript(path string, transcript bool) ScriptReport {
	s, err := script.Load(path)
	if err != nil {
		observability.Logger.Debug("script load failed", zap.String("path", path), zap.Error(err))
		return ScriptReport{Path: path, Error: err.Error()}
	}

	res := script.Run(s)
	observability.Logger.Debug("script finished",
		zap.String("path", path),
		zap.String("name", res.Name),
		zap.Int("frames", len(res.Transcript)),
		zap.Int("failures", len(res.Failures)),
	)

	r := ScriptReport{
		Path:     path,
		Name:     res.Name,
		Pass:     res.Passed(),
		Failures: res.Failures,
	}
	if transcript {
		r.Transcript = res.Transcript
	}
	return r
}

func writeRunText(w io.Writer, report RunReport) {
	for _, r := range report.Scripts {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "✗ %s\n  Load error: %s\n", r.Path, r.Error)
		case r.Pass:
			fmt.Fprintf(w, "✓ %s\n", r.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", r.Name)
			for _, f := range r.Failures {
				fmt.Fprintf(w, "  %s\n", f)
			}
		}
		for line := range strings.Lines(r.Transcript.String()) {
			fmt.Fprintf(w, "    %s", line)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
}
