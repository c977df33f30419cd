package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tailbreeze/internal/process"
	"tailbreeze/internal/tools"
	"tailbreeze/internal/tui"
)

var (
	installPlain bool
	runVersion   string
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage cached Tailwind CLI binaries",
	}

	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsInstallCmd("install [version...]"))
	cmd.AddCommand(newToolsPathCmd())
	cmd.AddCommand(newToolsRunCmd())

	return cmd
}

func newInstallCmd() *cobra.Command {
	return newToolsInstallCmd("install [version...]")
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached CLI versions",
		RunE:  runToolsList,
	}
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	proj, err := loadProject(cmd, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	prov, err := proj.provisioner()
	if err != nil {
		return err
	}
	statuses, err := prov.Detect(cmd.Context())
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printStatusTable(cmd.OutOrStdout(), prov.Root(), statuses)
	return nil
}

func printStatusTable(out io.Writer, root string, statuses []tools.Status) {
	fmt.Fprintf(out, "cache: %s\n", root)
	if len(statuses) == 0 {
		fmt.Fprintln(out, "(no cached versions)")
		return
	}

	fmt.Fprintf(out, "%s %s %s %s\n",
		tui.HeaderStyle.Render(fmt.Sprintf("%-10s", "VERSION")),
		tui.HeaderStyle.Render(fmt.Sprintf("%-10s", "STATUS")),
		tui.HeaderStyle.Render(fmt.Sprintf("%-20s", "INSTALLED")),
		tui.HeaderStyle.Render("PATH"))
	for _, st := range statuses {
		status := "missing"
		if st.Installed {
			status = "installed"
		}
		fmt.Fprintf(out, "%-10s %s %-20s %s\n",
			st.Version,
			tui.StatusStyle(status).Render(fmt.Sprintf("%-10s", status)),
			tui.NonEmptyOrDash(st.InstalledAt),
			tui.NonEmptyOrDash(st.Path))
		if st.Error != "" {
			fmt.Fprintf(out, "  error: %s\n", st.Error)
		}
		for _, note := range st.Notes {
			fmt.Fprintf(out, "  note: %s\n", note)
		}
	}
}

func newToolsInstallCmd(use string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: "Download and verify Tailwind CLI versions (default: the configured version)",
		RunE:  runToolsInstall,
	}
	cmd.Flags().BoolVar(&installPlain, "plain", false, "Disable the interactive progress table")
	return cmd
}

type installResult struct {
	Version string   `json:"version"`
	Status  string   `json:"status"`
	Path    string   `json:"path,omitempty"`
	Error   string   `json:"error,omitempty"`
	Hints   []string `json:"hints,omitempty"`
}

var installColumns = []tui.Column{
	{Header: "VERSION", Width: 10},
	{Header: "STATUS", Width: 11},
	{Header: "DETAIL", Width: 60},
}

// phaseRelay forwards provisioner phases to whichever sender is attached.
type phaseRelay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (r *phaseRelay) attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

func (r *phaseRelay) phase(spec tools.VersionSpec, p tools.Phase) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		send(tui.StatusUpdate(spec.String(), string(p), ""))
	}
}

func runToolsInstall(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(cmd, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	raw := args
	if len(raw) == 0 {
		raw = []string{proj.opts.ToolVersion}
	}
	specs := make([]tools.VersionSpec, 0, len(raw))
	for _, r := range raw {
		spec, err := tools.ParseVersion(r)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	relay := &phaseRelay{}
	prov, err := proj.provisioner(tools.WithProgress(relay.phase))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var results []installResult
	work := func(send func(tea.Msg)) {
		relay.attach(send)
		results = installVersions(cmd.Context(), prov, specs, send)
	}

	switch tui.DetectMode(out, installPlain, outputJSON) {
	case tui.ModeTUI:
		model := tui.NewProgressModel("Installing", installColumns)
		for _, spec := range specs {
			model.AddRow(spec.String(), []string{spec.String(), "pending"})
		}
		if err := tui.RunWithWork(out, model, work); err != nil {
			return err
		}
	case tui.ModePlain:
		work(plainSender(out))
	case tui.ModeJSON:
		work(func(tea.Msg) {})
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
	}

	var errs []error
	for _, res := range results {
		if res.Error == "" {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %s", res.Version, res.Error))
		if !outputJSON {
			for _, hint := range res.Hints {
				fmt.Fprintf(cmd.ErrOrStderr(), "  hint: %s\n", hint)
			}
		}
	}
	return errors.Join(errs...)
}

// installVersions installs each spec in turn, reporting row updates through
// send.
func installVersions(ctx context.Context, prov *tools.Provisioner, specs []tools.VersionSpec, send func(tea.Msg)) []installResult {
	results := make([]installResult, 0, len(specs))
	for _, spec := range specs {
		key := spec.String()
		if prov.IsInstalled(ctx, spec) {
			path, _ := prov.LocalPath(spec)
			send(tui.StatusUpdate(key, "cached", path))
			results = append(results, installResult{Version: key, Status: "cached", Path: path})
			continue
		}

		send(tui.StatusUpdate(key, "resolving", ""))
		path, err := prov.EnsureInstalled(ctx, spec)
		if err != nil {
			send(tui.StatusUpdate(key, "failed", err.Error()))
			results = append(results, installResult{
				Version: key,
				Status:  "failed",
				Error:   err.Error(),
				Hints:   installHints(prov, spec, err),
			})
			continue
		}
		send(tui.StatusUpdate(key, "installed", path))
		results = append(results, installResult{Version: key, Status: "installed", Path: path})
	}
	return results
}

// plainSender prints one line per row update.
func plainSender(out io.Writer) func(tea.Msg) {
	var mu sync.Mutex
	return func(msg tea.Msg) {
		update, ok := msg.(tui.RowUpdateMsg)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		line := fmt.Sprintf("%-10s %s", update.Key, update.Fields["STATUS"])
		if detail := update.Fields["DETAIL"]; detail != "" {
			line += "  " + detail
		}
		fmt.Fprintln(out, line)
	}
}

// installHints returns manual remedies when err is an install failure.
func installHints(prov *tools.Provisioner, spec tools.VersionSpec, err error) []string {
	if !errors.Is(err, tools.ErrInstallationFailed) {
		return nil
	}
	target, pathErr := prov.LocalPath(spec)
	if pathErr != nil {
		target = prov.Root()
	}
	return tools.InstallHints(err, target)
}

func newToolsPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path [version]",
		Short: "Print where the CLI for a version is cached",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject(cmd, false)
			if err != nil {
				return err
			}
			defer proj.Close()

			spec, err := proj.toolVersion(args)
			if err != nil {
				return err
			}
			prov, err := proj.provisioner()
			if err != nil {
				return err
			}
			path, err := prov.LocalPath(spec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if !prov.IsInstalled(cmd.Context(), spec) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not installed; run `tailbreeze install %s`\n", spec, spec)
			}
			return nil
		},
	}
}

func newToolsRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -- [tailwind args...]",
		Short: "Run the Tailwind CLI with arbitrary arguments, installing it if needed",
		RunE:  runToolsRun,
	}
	cmd.Flags().StringVar(&runVersion, "version", "", "CLI version (default: the configured version)")
	return cmd
}

func runToolsRun(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(cmd, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	var versionArgs []string
	if runVersion != "" {
		versionArgs = []string{runVersion}
	}
	spec, err := proj.toolVersion(versionArgs)
	if err != nil {
		return err
	}
	prov, err := proj.provisioner()
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var mu sync.Mutex
	sink := func(l process.Line) {
		mu.Lock()
		defer mu.Unlock()
		if l.Stream == process.Stderr {
			fmt.Fprintln(errOut, l.Text)
			return
		}
		fmt.Fprintln(out, l.Text)
	}

	code, err := prov.Execute(cmd.Context(), spec, args, process.RunOptions{Dir: proj.paths.Root, Sink: sink})
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("tailwindcss %s exited with code %d", strings.Join(args, " "), code)
	}
	return nil
}
