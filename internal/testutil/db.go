// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/users"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with every table migrated
// and installs it as database.DB for the duration of the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		sqlDB.Close()
	})
	return db
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func User(t *testing.T, db *gorm.DB, email string) users.User {
	t.Helper()
	u := users.User{Email: email, Name: "Test User", DefaultCurrency: "usd", PaymentTermsDays: 30, AuthProvider: "local", Role: users.RoleUser}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func Client(t *testing.T, db *gorm.DB, userID uint) clients.Client {
	t.Helper()
	c := clients.Client{UserID: userID, Name: "Acme", Email: "billing@acme.test"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func Project(t *testing.T, db *gorm.DB, userID, clientID uint, budget string) projects.Project {
	t.Helper()
	p := projects.Project{UserID: userID, ClientID: clientID, Name: "Website", Status: projects.ProjectActive, Budget: Money(budget)}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func Milestone(t *testing.T, db *gorm.DB, projectID uint, status projects.MilestoneStatus, amount string, deliverables int) projects.Milestone {
	t.Helper()
	m := projects.Milestone{ProjectID: projectID, Title: "Design", Amount: Money(amount), Status: status}
	for i := 0; i < deliverables; i++ {
		m.Deliverables = append(m.Deliverables, projects.Deliverable{
			Title:  fmt.Sprintf("Deliverable %d", i+1),
			Status: projects.DeliverableSubmitted,
		})
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	return m
}

// Invoice stores an invoice with a single line item worth total.
func Invoice(t *testing.T, db *gorm.DB, userID, clientID uint, status invoices.Status, total string, due time.Time) invoices.Invoice {
	t.Helper()
	amt := Money(total)
	inv := invoices.Invoice{
		UserID:    userID,
		ClientID:  clientID,
		Number:    fmt.Sprintf("INV-T%03d", dbSeq.Add(1)),
		Currency:  "usd",
		Status:    status,
		Subtotal:  amt,
		Total:     amt,
		IssueDate: due.AddDate(0, 0, -30),
		DueDate:   due,
		LineItems: []invoices.LineItem{{
			Description: "Work",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   amt,
			Amount:      amt,
		}},
	}
	if status != invoices.StatusDraft {
		sent := due.AddDate(0, 0, -30)
		inv.SentAt = &sent
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}
