package cmd

import (
	"encoding/json"
	"os"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/database"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/infra/mailer"
	"freelancer-hub/internal/jobs"
	"freelancer-hub/internal/logger"

	"github.com/spf13/cobra"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Send due payment reminders once",
	Long: `Mark overdue invoices, then send every reminder that is due today
according to each freelancer's reminder settings. Deliveries already made
are skipped, so running it twice in a day is harmless.`,
	Example: `  # Daily from cron
  freelancer-hub reminders`,
	RunE: runReminders,
}

var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Move sent invoices past their due date to overdue",
	RunE:  runMarkOverdue,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(config.App.DB.URL)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log := logger.WithComponent("migrate")
		log.Info().Msg("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(remindersCmd, markOverdueCmd, migrateCmd)
}

func runReminders(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reminders")
	database.InitDB()

	job := &jobs.Reminders{
		DB:     database.DB,
		Mailer: mailer.New(config.App, logger.WithComponent("mailer")),
		AppURL: config.App.AppURL,
		Log:    log,
	}
	res, err := job.Run(cmd.Context())
	if err != nil {
		return err
	}
	if n, err := portal.PurgeExpired(database.DB, time.Now()); err != nil {
		log.Warn().Err(err).Msg("purge portal sessions")
	} else if n > 0 {
		log.Info().Int64("purged", n).Msg("expired portal sessions removed")
	}
	return json.NewEncoder(os.Stdout).Encode(res)
}

func runMarkOverdue(cmd *cobra.Command, args []string) error {
	database.InitDB()
	n, err := invoices.MarkOverdue(database.DB, time.Now())
	if err != nil {
		return err
	}
	log := logger.WithComponent("invoices")
	log.Info().Int64("marked_overdue", n).Msg("overdue sweep finished")
	return nil
}
