// Package notify composes the emails sent to clients and freelancers.
package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/infra/mailer"

	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal, currency string) string {
		return d.StringFixed(2) + " " + strings.ToUpper(currency)
	},
	"date": func(t time.Time) string { return t.Format("January 2, 2006") },
	"abs": func(n int) int {
		if n < 0 {
			return -n
		}
		return n
	},
}

var templates = template.Must(template.New("").Funcs(funcs).Parse(`
{{define "invoice"}}Hi {{.Client.Name}},

{{.From}} has sent you invoice {{.Invoice.Number}} for {{money .Invoice.Total .Invoice.Currency}}.
Payment is due on {{date .Invoice.DueDate}}.

View and pay it in your client portal:
{{.PortalURL}}
{{end}}

{{define "reminder_upcoming"}}Hi {{.Client.Name}},

A friendly reminder that invoice {{.Invoice.Number}} from {{.From}} for {{money .Invoice.BalanceDue .Invoice.Currency}} is due in {{abs .Offset}} day(s), on {{date .Invoice.DueDate}}.

{{.PortalURL}}
{{end}}

{{define "reminder_due_today"}}Hi {{.Client.Name}},

Invoice {{.Invoice.Number}} from {{.From}} for {{money .Invoice.BalanceDue .Invoice.Currency}} is due today.

{{.PortalURL}}
{{end}}

{{define "reminder_overdue"}}Hi {{.Client.Name}},

Invoice {{.Invoice.Number}} from {{.From}} was due on {{date .Invoice.DueDate}} and is now {{.Offset}} day(s) overdue.
The outstanding balance is {{money .Invoice.BalanceDue .Invoice.Currency}}.

{{.PortalURL}}
{{end}}

{{define "reminder_manual"}}Hi {{.Client.Name}},

This is a reminder about invoice {{.Invoice.Number}} from {{.From}}.
The outstanding balance is {{money .Invoice.BalanceDue .Invoice.Currency}}, due {{date .Invoice.DueDate}}.

{{.PortalURL}}
{{end}}

{{define "portal_invite"}}Hi {{.Client.Name}},

{{.From}} invited you to their client portal, where you can review projects, invoices and contracts.

This sign-in link works once and expires on {{date .Expires}}:
{{.Link}}
{{end}}

{{define "contract"}}Hi {{.Client.Name}},

{{.From}} sent you the contract "{{.Contract.Title}}" to review and sign.

{{.PortalURL}}
{{end}}

{{define "client_message"}}{{.Client.Name}} sent you a message:

{{.Body}}
{{end}}
`))

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return strings.TrimLeft(buf.String(), "\n"), nil
}

type invoiceData struct {
	From      string
	Client    clients.Client
	Invoice   invoices.Invoice
	Offset    int
	PortalURL string
}

func portalURL(appURL string) string {
	return appURL + "/portal"
}

func InvoiceSent(appURL string, from users.User, to clients.Client, inv invoices.Invoice) (mailer.Message, error) {
	text, err := render("invoice", invoiceData{From: from.DisplayName(), Client: to, Invoice: inv, PortalURL: portalURL(appURL)})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      to.Email,
		ReplyTo: from.Email,
		Subject: fmt.Sprintf("Invoice %s from %s", inv.Number, from.DisplayName()),
		Text:    text,
	}, nil
}

// Reminder builds the payment reminder for one eligibility hit.
func Reminder(appURL string, from users.User, to clients.Client, inv invoices.Invoice, d reminders.Due) (mailer.Message, error) {
	text, err := render("reminder_"+string(d.Type), invoiceData{
		From: from.DisplayName(), Client: to, Invoice: inv, Offset: d.Offset, PortalURL: portalURL(appURL),
	})
	if err != nil {
		return mailer.Message{}, err
	}
	var subject string
	switch d.Type {
	case reminders.TypeUpcoming:
		subject = fmt.Sprintf("Invoice %s is due soon", inv.Number)
	case reminders.TypeDueToday:
		subject = fmt.Sprintf("Invoice %s is due today", inv.Number)
	case reminders.TypeOverdue:
		subject = fmt.Sprintf("Invoice %s is overdue", inv.Number)
	default:
		subject = fmt.Sprintf("Reminder: invoice %s", inv.Number)
	}
	return mailer.Message{To: to.Email, ReplyTo: from.Email, Subject: subject, Text: text}, nil
}

func PortalInvite(from users.User, to clients.Client, link string, expires time.Time) (mailer.Message, error) {
	text, err := render("portal_invite", struct {
		From    string
		Client  clients.Client
		Link    string
		Expires time.Time
	}{from.DisplayName(), to, link, expires})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      to.Email,
		ReplyTo: from.Email,
		Subject: "Your client portal access from " + from.DisplayName(),
		Text:    text,
	}, nil
}

func ContractSent(appURL string, from users.User, to clients.Client, c contracts.Contract) (mailer.Message, error) {
	text, err := render("contract", struct {
		From      string
		Client    clients.Client
		Contract  contracts.Contract
		PortalURL string
	}{from.DisplayName(), to, c, portalURL(appURL)})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      to.Email,
		ReplyTo: from.Email,
		Subject: "Contract to sign: " + c.Title,
		Text:    text,
	}, nil
}

// ClientMessage notifies the freelancer of a portal message.
func ClientMessage(to users.User, from clients.Client, body string) (mailer.Message, error) {
	text, err := render("client_message", struct {
		Client clients.Client
		Body   string
	}{from, body})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      to.Email,
		ReplyTo: from.Email,
		Subject: "New message from " + from.Name,
		Text:    text,
	}, nil
}
