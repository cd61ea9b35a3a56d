package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
)

const timeLayout = "2006-01-02 15:04:05"

// kindTitles are the section headers, rendered in resource.KindOrder.
var kindTitles = map[resource.Kind]string{
	resource.KindCompute:     "Compute Instances (CVM)",
	resource.KindLighthouse:  "Lighthouse Instances",
	resource.KindVolume:      "Cloud Disks (CBS)",
	resource.KindDomain:      "Domains",
	resource.KindCertificate: "SSL Certificates",
}

// displayName returns the record label, marking wildcard certificates.
func displayName(r resource.Record) string {
	if r.Kind == resource.KindCertificate && r.Wildcard {
		return r.Name + " (wildcard)"
	}
	return r.Name
}

// ResourceText renders a snapshot as a plain-text report. Returns "" when
// the snapshot holds no resources, which callers treat as nothing to send.
func ResourceText(account string, s resource.Snapshot) string {
	if s.Empty() {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tencent Cloud %s resource expiry report\n", account)

	for _, kind := range resource.KindOrder {
		records := s.ByKind(kind)
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n===== %s =====\n", kindTitles[kind])
		for _, r := range records {
			fmt.Fprintf(&b, "Name: %s\n", displayName(r))
			if r.Kind == resource.KindCertificate && r.ProductName != "" {
				fmt.Fprintf(&b, "Type: %s\n", r.ProductName)
			}
			fmt.Fprintf(&b, "Project: %s\n", r.Project())
			if r.Region != "" {
				fmt.Fprintf(&b, "Region: %s\n", r.Region)
			}
			fmt.Fprintf(&b, "Expires at: %s\n", r.ExpiresAt.Format(timeLayout))
			fmt.Fprintf(&b, "Remaining days: %d\n\n", r.DaysRemaining)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ResourceMarkdown renders a snapshot as WeCom-flavored markdown with
// severity coloring on the remaining days. Returns "" when empty.
func ResourceMarkdown(account string, s resource.Snapshot) string {
	if s.Empty() {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📢 Tencent Cloud **%s** resource expiry report\n", account)

	for _, kind := range resource.KindOrder {
		records := s.ByKind(kind)
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n**%s**\n", kindTitles[kind])
		for _, r := range records {
			fmt.Fprintf(&b, "> Name: %s\n", displayName(r))
			if r.Kind == resource.KindCertificate && r.ProductName != "" {
				fmt.Fprintf(&b, "> Type: %s\n", r.ProductName)
			}
			fmt.Fprintf(&b, "> Project: %s\n", r.Project())
			if r.Region != "" {
				fmt.Fprintf(&b, "> Region: %s\n", r.Region)
			}
			fmt.Fprintf(&b, "> Expires at: %s\n", r.ExpiresAt.Format(timeLayout))
			fmt.Fprintf(&b, "> Remaining: %s\n\n", daysMarkdown(r.DaysRemaining))
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// daysMarkdown colors the remaining-days label by severity band. WeCom
// markdown only supports three font colors: green "info", gray "comment"
// and orange-red "warning", so warning is the critical color here.
func daysMarkdown(days int) string {
	label := fmt.Sprintf("%d days", days)
	switch resource.SeverityOf(days) {
	case resource.SeverityCritical:
		return fmt.Sprintf(`<font color="warning">%s</font>`, label)
	case resource.SeverityWarning:
		return fmt.Sprintf(`<font color="comment">%s</font>`, label)
	default:
		return fmt.Sprintf(`<font color="info">%s</font>`, label)
	}
}

// BillingText renders balance and the monthly bill as plain text. Billing
// reports are always delivered, so this never returns "".
func BillingText(account string, balance float64, bill billing.Bill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tencent Cloud %s billing summary\n\n", account)
	fmt.Fprintf(&b, "===== Account Balance =====\n")
	fmt.Fprintf(&b, "Current balance: %.2f CNY\n\n", balance)
	fmt.Fprintf(&b, "===== Current Month Bill =====\n")

	for _, project := range sortedProjects(bill) {
		pb := bill[project]
		fmt.Fprintf(&b, "\nProject: %s (total %.2f CNY)\n", project, pb.Total)
		for _, service := range sortedServices(pb.Services) {
			fmt.Fprintf(&b, "  - %s: %.2f CNY\n", service, pb.Services[service].RealCost)
		}
	}

	return b.String()
}

// BillingMarkdown renders balance and the monthly bill as WeCom markdown.
func BillingMarkdown(account string, balance float64, bill billing.Bill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📢 Tencent Cloud **%s** billing summary\n\n", account)
	fmt.Fprintf(&b, "**Account Balance**\n")
	fmt.Fprintf(&b, "> Current balance: %.2f CNY\n\n", balance)
	fmt.Fprintf(&b, "**Current Month Bill**\n")

	for _, project := range sortedProjects(bill) {
		pb := bill[project]
		fmt.Fprintf(&b, "\n> Project: %s (total %.2f CNY)\n", project, pb.Total)
		for _, service := range sortedServices(pb.Services) {
			fmt.Fprintf(&b, "> %s: %.2f CNY\n", service, pb.Services[service].RealCost)
		}
	}

	return b.String()
}

func sortedProjects(bill billing.Bill) []string {
	names := make([]string, 0, len(bill))
	for name := range bill {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedServices(services map[string]billing.ServiceCost) []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
