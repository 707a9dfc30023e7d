package cmd

import (
	"fmt"
	"os"

	"freelancer-hub/config"
	"freelancer-hub/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "freelancer-hub",
	Short: "Freelancer Hub - clients, projects, invoices and a client portal",
	Long: `Freelancer Hub is the backend for a freelancer's business: clients,
projects and milestones, invoices with Stripe payment, contracts, time
tracking, a client portal and automated payment reminders.

Run "serve" for the HTTP API. The batch commands run the same jobs the
cron endpoints trigger.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadFile(configFile)
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Optional YAML config file")
}
