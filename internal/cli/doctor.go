package cli

import (
	"fmt"

	"github.com/agentx-labs/agentdir/internal/branding"
	"github.com/agentx-labs/agentdir/internal/config"
	"github.com/agentx-labs/agentdir/internal/doctor"
	"github.com/spf13/cobra"
)

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create missing directories and tighten permissions")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for " + branding.DisplayName(),
	Long: `Run diagnostic checks on the home directory, the agent store, the service
registry and the references from agents to functions and other agents.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report := doctor.Run(cmd.Context(), cmd.OutOrStdout(), doctor.Options{
			HomeDir:      config.Dir(),
			StoreDriver:  settings.Store.Driver,
			StorePath:    settings.Store.Path,
			RegistryPath: settings.Registry.Path,
			Fix:          doctorFix,
		}, logger)

		if !report.OK() {
			return fmt.Errorf("%d check(s) failed", report.Failures)
		}
		if report.Warnings > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d warning(s)\n", report.Warnings)
		}
		return nil
	},
}
