package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"tailbreeze/internal/tools"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tailbreeze version and the default Tailwind release lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			releases := tools.DefaultReleases()
			info := map[string]string{
				"version":  Version,
				"go":       runtime.Version(),
				"platform": runtime.GOOS + "/" + runtime.GOARCH,
				"v3":       releases.MajorLines[3],
				"v4":       releases.MajorLines[4],
			}
			if outputJSON {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tailbreeze %s (%s, %s)\n", info["version"], info["platform"], info["go"])
			fmt.Fprintf(cmd.OutOrStdout(), "tailwind lines: v3 -> %s, v4 -> %s\n", info["v3"], info["v4"])
			return nil
		},
	}
}
