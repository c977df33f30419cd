package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X tailbreeze/internal/cli.Version=...".
var Version = "dev"

var (
	projectDir string
	configFile string
	envName    string
	logLevel   string
	outputJSON bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tailbreeze",
		Short:         "Provision, run and serve the Tailwind CSS CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&projectDir, "project", "", "Path to project directory")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to tailbreeze.yaml or tailbreeze.toml")
	cmd.PersistentFlags().StringVar(&envName, "env", "", "Environment name (overrides TAILBREEZE_ENV)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides TAILBREEZE_LOG_LEVEL)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCompileCmd())
	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
