package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tailbreeze/internal/config"
	"tailbreeze/internal/paths"
)

var configShowTOML bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect, check or edit the tailbreeze configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigCheckCmd())
	cmd.AddCommand(newConfigEditCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE:  runConfigShow,
	}
	cmd.Flags().BoolVar(&configShowTOML, "toml", false, "Print TOML instead of YAML")
	return cmd
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and the project files it points at",
		RunE:  runConfigCheck,
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the project configuration in $EDITOR",
		RunE:  runConfigEdit,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	_, opts, err := resolveOptions()
	if err != nil {
		return err
	}

	var data []byte
	switch {
	case outputJSON:
		data, err = json.MarshalIndent(opts, "", "  ")
	case configShowTOML:
		data, err = opts.MarshalTOML()
	default:
		data, err = opts.Marshal()
	}
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	pp, opts, err := resolveOptions()
	if err != nil {
		return err
	}

	results := opts.Check(pp.Root)
	if outputJSON {
		if results == nil {
			results = []config.ValidationResult{}
		}
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		writeValidationResults(cmd.OutOrStdout(), pp.ConfigFile, results)
	}

	for _, r := range results {
		if r.Level == "error" {
			return errors.New("configuration is invalid")
		}
	}
	return nil
}

func writeValidationResults(out io.Writer, configPath string, results []config.ValidationResult) {
	fmt.Fprintf(out, "config: %s\n", configPath)
	if len(results) == 0 {
		fmt.Fprintln(out, color.GreenString("ok"))
		return
	}
	for _, r := range results {
		label := color.YellowString("warning")
		if r.Level == "error" {
			label = color.RedString("error")
		}
		fmt.Fprintf(out, "  %s: %s\n", label, r.Message)
	}
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pp, _, err := resolveOptions()
	if err != nil {
		return err
	}
	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := ensureConfigFileExists(pp); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	parts = append(parts, pp.ConfigFile)

	execCmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	execCmd.Stdout = cmd.OutOrStdout()
	execCmd.Stderr = cmd.ErrOrStderr()
	execCmd.Stdin = cmd.InOrStdin()
	execCmd.Dir = pp.Root

	if err := execCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

func ensureConfigFileExists(pp paths.ProjectPaths) error {
	if _, err := os.Stat(pp.ConfigFile); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(pp.ConfigFile), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}

	opts := config.Default()
	data, err := opts.Marshal()
	if strings.EqualFold(filepath.Ext(pp.ConfigFile), ".toml") {
		data, err = opts.MarshalTOML()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
