package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tailbreeze/internal/paths"
	"tailbreeze/internal/tools"
)

var cleanDryRun bool

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove logs, compiled output or cached CLI versions",
	}

	cmd.PersistentFlags().BoolVar(&cleanDryRun, "dry-run", false, "List what would be removed without deleting")

	cmd.AddCommand(newCleanLogsCmd())
	cmd.AddCommand(newCleanOutputCmd())
	cmd.AddCommand(newCleanToolsCmd())

	return cmd
}

func newCleanLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Remove all log files",
		RunE:  runCleanLogs,
	}
}

func newCleanOutputCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "output",
		Short: "Remove the compiled stylesheet",
		RunE:  runCleanOutput,
	}
}

func newCleanToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools [version...]",
		Short: "Remove cached CLI versions (all when none are named)",
		RunE:  runCleanTools,
	}
}

type cleanResult struct {
	Removed    int   `json:"removed"`
	FreedBytes int64 `json:"freed_bytes"`
	Skipped    int   `json:"skipped"`
	DryRun     bool  `json:"dry_run"`
}

func runCleanLogs(cmd *cobra.Command, _ []string) error {
	pp, err := resolveCleanPaths()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result := cleanResult{DryRun: cleanDryRun}
	removeGlob(pp.LogsDir, out, &result)
	return writeCleanResult(out, "logs", result)
}

func runCleanOutput(cmd *cobra.Command, _ []string) error {
	pp, err := resolveCleanPaths()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result := cleanResult{DryRun: cleanDryRun}
	removeSingleFile(pp.Output, out, &result)
	return writeCleanResult(out, "output", result)
}

func runCleanTools(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(cmd, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	prov, err := proj.provisioner()
	if err != nil {
		return err
	}

	var specs []tools.VersionSpec
	if len(args) == 0 {
		statuses, err := prov.Detect(cmd.Context())
		if err != nil {
			return err
		}
		for _, st := range statuses {
			if spec, err := tools.ParseVersion(st.Version); err == nil {
				specs = append(specs, spec)
			}
		}
	}
	for _, a := range args {
		spec, err := tools.ParseVersion(a)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	out := cmd.OutOrStdout()
	result := cleanResult{DryRun: cleanDryRun}
	for _, spec := range specs {
		dir := filepath.Join(prov.Root(), spec.String())
		if cleanDryRun {
			size, err := dirSize(dir)
			if err != nil || size == 0 {
				result.Skipped++
				continue
			}
			fmt.Fprintf(out, "would remove %s (%s)\n", dir, formatSize(size))
			result.Removed++
			result.FreedBytes += size
			continue
		}

		freed, err := prov.Remove(cmd.Context(), spec)
		if err != nil {
			if !outputJSON {
				fmt.Fprintf(out, "error removing %s: %v\n", dir, err)
			}
			result.Skipped++
			continue
		}
		if freed == 0 {
			result.Skipped++
			continue
		}
		result.Removed++
		result.FreedBytes += freed
		if !outputJSON {
			fmt.Fprintf(out, "removed %s (%s)\n", dir, formatSize(freed))
		}
	}
	return writeCleanResult(out, "tools", result)
}

func resolveCleanPaths() (paths.ProjectPaths, error) {
	pp, _, err := resolveOptions()
	if err != nil {
		return pp, err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return pp, fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return pp, fmt.Errorf("project directory does not exist: %s", pp.Root)
	}
	return pp, nil
}

func globFiles(root string) ([]string, error) {
	exists, err := paths.DirExists(root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var matches []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}

func dirSize(dir string) (int64, error) {
	files, err := globFiles(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			total += info.Size()
		}
	}
	return total, nil
}

func removeGlob(root string, out io.Writer, result *cleanResult) {
	files, err := globFiles(root)
	if err != nil {
		return
	}
	for _, path := range files {
		removeFileEntry(path, out, result)
	}
}

func removeSingleFile(path string, out io.Writer, result *cleanResult) {
	exists, err := paths.FileExists(path)
	if err != nil || !exists {
		return
	}
	removeFileEntry(path, out, result)
}

func removeFileEntry(path string, out io.Writer, result *cleanResult) {
	info, err := os.Stat(path)
	if err != nil {
		result.Skipped++
		return
	}
	size := info.Size()

	if cleanDryRun {
		fmt.Fprintf(out, "would remove %s (%s)\n", path, formatSize(size))
		result.Removed++
		result.FreedBytes += size
		return
	}

	if err := os.Remove(path); err != nil {
		if !outputJSON {
			fmt.Fprintf(out, "error removing %s: %v\n", path, err)
		}
		result.Skipped++
		return
	}

	result.Removed++
	result.FreedBytes += size
	if !outputJSON {
		fmt.Fprintf(out, "removed %s (%s)\n", path, formatSize(size))
	}
}

func writeCleanResult(out io.Writer, label string, result cleanResult) error {
	if outputJSON {
		return json.NewEncoder(out).Encode(result)
	}

	action := "complete"
	if cleanDryRun {
		action = "(dry run)"
	}
	fmt.Fprintf(out, "\nClean %s %s: %d removed, %s freed, %d skipped\n",
		label, action, result.Removed, formatSize(result.FreedBytes), result.Skipped)
	return nil
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
