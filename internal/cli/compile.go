package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tailbreeze/internal/compile"
	"tailbreeze/internal/config"
	"tailbreeze/internal/process"
	"tailbreeze/internal/tools"
	"tailbreeze/internal/tui"
)

var (
	compileMinify config.TriState
	compileOutput string
)

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Build the stylesheet once and exit",
		RunE:  runCompile,
	}

	cmd.Flags().Var(&compileMinify, "minify", "Minify output: auto, on or off (default from config)")
	cmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Override the output path")

	return cmd
}

type compileReport struct {
	OK       bool     `json:"ok"`
	ExitCode int      `json:"exit_code"`
	Output   string   `json:"output"`
	Stderr   []string `json:"stderr,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func runCompile(cmd *cobra.Command, _ []string) error {
	proj, err := loadProject(cmd, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	req := compile.RequestFromOptions(proj.opts, proj.env, proj.paths)
	if compileMinify != "" {
		req.Minify = compileMinify.Resolve(!proj.env.IsDevelopment())
	}
	if compileOutput != "" {
		req.Output = compileOutput
	}

	prov, err := proj.provisioner()
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	var status *tui.StatusWriter
	if !outputJSON && tui.IsTerminal(errOut) {
		status = tui.NewStatusWriter(errOut)
		status.Update("compiling " + req.Output)
	}
	res := compile.New(prov, process.ExecRunner{}, proj.logger).Compile(cmd.Context(), req)
	if status != nil {
		status.Stop()
	}

	report := compileReport{OK: res.OK, ExitCode: res.ExitCode, Output: req.Output}
	for _, line := range res.Output {
		if line.Stream == process.Stderr {
			report.Stderr = append(report.Stderr, line.Text)
		}
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
	}

	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		var hints []string
		if spec, err := tools.ParseVersion(req.Version); err == nil {
			hints = installHints(prov, spec, res.Err)
		}
		printCompileReport(cmd.OutOrStdout(), report, res.Err, hints)
	}

	if res.Err != nil {
		return errors.New("compile failed")
	}
	return nil
}

func printCompileReport(out io.Writer, report compileReport, err error, hints []string) {
	if report.OK {
		_, _ = color.New(color.FgGreen).Fprintf(out, "compiled %s\n", report.Output)
		return
	}

	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(out, color.RedString("tailwind exited with code %d", exitErr.Code))
	} else if err != nil {
		fmt.Fprintln(out, color.RedString("%v", err))
	}
	warn := color.New(color.FgYellow)
	for _, line := range report.Stderr {
		_, _ = warn.Fprintf(out, "  %s\n", line)
	}
	for _, hint := range hints {
		fmt.Fprintf(out, "  hint: %s\n", hint)
	}
}
