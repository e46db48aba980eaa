package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/campusportal/admission/internal/interfaces/cli/admin"
	"github.com/campusportal/admission/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "admission",
		Short: "Admission - rate limiting and abuse detection for the campus portal",
		Long:  `Admission enforces per-endpoint sliding-window quotas for the campus portal, records abuse alerts, and provides administrative commands to inspect alerts and reset limits.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		admin.NewAlertsCommand(),
		admin.NewLimitsCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
