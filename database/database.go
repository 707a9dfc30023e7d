package database

import (
	"freelancer-hub/config"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/timeentries"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to postgres, migrates and sets DB. It exits on failure.
func InitDB() {
	db, err := Connect(config.App.DB.URL)
	if err != nil {
		logger.Fatal(err, "failed to connect to database")
	}
	if err := Migrate(db); err != nil {
		logger.Fatal(err, "auto-migrate failed")
	}
	DB = db
	logger.Info("connected and migrated")
}

func Connect(dsn string) (*gorm.DB, error) {
	level := gormlogger.Warn
	if config.App.IsProduction() {
		level = gormlogger.Error
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
}

// Migrate creates or updates every table the app uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// accounts
		&users.User{},
		&clients.Client{},

		// work
		&projects.Project{},
		&projects.Milestone{},
		&projects.Deliverable{},
		&timeentries.TimeEntry{},
		&contracts.Contract{},

		// billing
		&invoices.Invoice{},
		&invoices.LineItem{},
		&billing.Payment{},
		&reminders.Schedule{},
		&reminders.Settings{},

		// portal
		&portal.AccessToken{},
		&portal.Session{},
		&portal.Message{},
	)
}
