package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
)

// severityStyle maps the presentation band to a table-row background.
func severityStyle(days int) string {
	switch resource.SeverityOf(days) {
	case resource.SeverityCritical:
		return ` style="background-color:#f8d7da"`
	case resource.SeverityWarning:
		return ` style="background-color:#fff3cd"`
	default:
		return ""
	}
}

// ResourceHTML renders a snapshot as an HTML email body. Returns "" when
// the snapshot holds no resources.
func ResourceHTML(account string, s resource.Snapshot) string {
	if s.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	fmt.Fprintf(&b, "<h2>Tencent Cloud %s resource expiry report</h2>\n", html.EscapeString(account))
	writeResourceSections(&b, s)
	b.WriteString("</body></html>\n")
	return b.String()
}

func writeResourceSections(b *strings.Builder, s resource.Snapshot) {
	for _, kind := range resource.KindOrder {
		records := s.ByKind(kind)
		if len(records) == 0 {
			continue
		}

		fmt.Fprintf(b, "<h3>%s</h3>\n", kindTitles[kind])
		b.WriteString(`<table border="1" cellpadding="4" cellspacing="0">` + "\n")
		b.WriteString("<tr><th>Name</th>")
		if kind == resource.KindCertificate {
			b.WriteString("<th>Type</th>")
		}
		b.WriteString("<th>Project</th><th>Region</th><th>Expires At</th><th>Remaining Days</th></tr>\n")

		for _, r := range records {
			fmt.Fprintf(b, "<tr%s>", severityStyle(r.DaysRemaining))
			fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(displayName(r)))
			if kind == resource.KindCertificate {
				fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(r.ProductName))
			}
			fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(r.Project()))
			fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(r.Region))
			fmt.Fprintf(b, "<td>%s</td>", r.ExpiresAt.Format(timeLayout))
			fmt.Fprintf(b, "<td>%d</td>", r.DaysRemaining)
			b.WriteString("</tr>\n")
		}
		b.WriteString("</table>\n")
	}
}

// BillingHTML renders balance and the monthly bill as an HTML email body.
// Billing reports are always delivered, so this never returns "".
func BillingHTML(account string, balance float64, bill billing.Bill) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	fmt.Fprintf(&b, "<h2>Tencent Cloud %s billing summary</h2>\n", html.EscapeString(account))
	fmt.Fprintf(&b, "<p>Current balance: <b>%.2f CNY</b></p>\n", balance)
	writeBillTable(&b, bill)
	b.WriteString("</body></html>\n")
	return b.String()
}

func writeBillTable(b *strings.Builder, bill billing.Bill) {
	if len(bill) == 0 {
		b.WriteString("<p>No bill data for the current month.</p>\n")
		return
	}

	b.WriteString(`<table border="1" cellpadding="4" cellspacing="0">` + "\n")
	b.WriteString("<tr><th>Project</th><th>Service</th><th>Real Cost</th><th>List Cost</th><th>Cash Paid</th></tr>\n")
	for _, project := range sortedProjects(bill) {
		pb := bill[project]
		for _, service := range sortedServices(pb.Services) {
			cost := pb.Services[service]
			fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td>%.2f</td><td>%.2f</td><td>%.2f</td></tr>\n",
				html.EscapeString(project), html.EscapeString(service),
				cost.RealCost, cost.ListCost, cost.CashPaid)
		}
	}
	b.WriteString("</table>\n")
}

// AccountSection is one account's contribution to the cross-account digest
type AccountSection struct {
	Account  string
	Snapshot resource.Snapshot
	Balance  *float64
}

// SummaryHTML builds the single cross-account digest: a balance roll-up
// over every processed account followed by each account's resource
// sections. Returns "" when there are no sections at all.
func SummaryHTML(sections []AccountSection) string {
	if len(sections) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	b.WriteString("<h2>Tencent Cloud all-accounts expiry digest</h2>\n")

	// Balance roll-up first.
	var total float64
	var haveBalance bool
	b.WriteString(`<table border="1" cellpadding="4" cellspacing="0">` + "\n")
	b.WriteString("<tr><th>Account</th><th>Balance (CNY)</th></tr>\n")
	for _, section := range sections {
		if section.Balance == nil {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>-</td></tr>\n", html.EscapeString(section.Account))
			continue
		}
		haveBalance = true
		total += *section.Balance
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%.2f</td></tr>\n", html.EscapeString(section.Account), *section.Balance)
	}
	if haveBalance {
		fmt.Fprintf(&b, "<tr><td><b>Total</b></td><td><b>%.2f</b></td></tr>\n", total)
	}
	b.WriteString("</table>\n")

	for _, section := range sections {
		fmt.Fprintf(&b, "<h3>Account: %s</h3>\n", html.EscapeString(section.Account))
		if section.Snapshot.Empty() {
			b.WriteString("<p>No resources inside the alert window.</p>\n")
			continue
		}
		writeResourceSections(&b, section.Snapshot)
	}

	b.WriteString("</body></html>\n")
	return b.String()
}
