package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
)

func sampleSnapshot() resource.Snapshot {
	expires := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	s := resource.NewSnapshot([]string{"ap-guangzhou"})
	s.Regional["ap-guangzhou"][resource.KindCompute] = []resource.Record{
		{
			Kind:          resource.KindCompute,
			ID:            "ins-1",
			Name:          "web-server",
			Region:        "ap-guangzhou",
			ProjectName:   "payments",
			ExpiresAt:     expires,
			DaysRemaining: 10,
		},
	}
	s.Global[resource.KindCertificate] = []resource.Record{
		{
			Kind:          resource.KindCertificate,
			ID:            "cert-1",
			Name:          "*.example.com",
			ProductName:   "TrustAsia DV",
			Wildcard:      true,
			ExpiresAt:     expires,
			DaysRemaining: 40,
		},
	}
	return s
}

func TestResourceTextEmptySnapshotSuppressed(t *testing.T) {
	s := resource.NewSnapshot([]string{"ap-guangzhou"})
	if got := ResourceText("prod", s); got != "" {
		t.Errorf("empty snapshot rendered %q, want empty string", got)
	}
	if got := ResourceMarkdown("prod", s); got != "" {
		t.Errorf("empty snapshot rendered markdown %q, want empty string", got)
	}
	if got := ResourceHTML("prod", s); got != "" {
		t.Errorf("empty snapshot rendered html %q, want empty string", got)
	}
}

func TestResourceTextSections(t *testing.T) {
	text := ResourceText("prod", sampleSnapshot())

	if !strings.Contains(text, "prod") {
		t.Error("report missing account name")
	}
	if !strings.Contains(text, "Compute Instances (CVM)") {
		t.Error("report missing compute section header")
	}
	if !strings.Contains(text, "SSL Certificates") {
		t.Error("report missing certificate section header")
	}
	// Only populated kinds get sections.
	if strings.Contains(text, "Lighthouse") || strings.Contains(text, "Domains") {
		t.Errorf("report has sections for empty kinds:\n%s", text)
	}
	if !strings.Contains(text, "web-server") || !strings.Contains(text, "Remaining days: 10") {
		t.Errorf("compute record not rendered:\n%s", text)
	}
	if !strings.Contains(text, "*.example.com (wildcard)") {
		t.Errorf("wildcard certificate not marked:\n%s", text)
	}
	if !strings.Contains(text, "Type: TrustAsia DV") {
		t.Errorf("certificate type not rendered:\n%s", text)
	}
	if !strings.Contains(text, "Project: payments") {
		t.Errorf("project not rendered:\n%s", text)
	}
}

func TestResourceMarkdownSeverityColors(t *testing.T) {
	md := ResourceMarkdown("prod", sampleSnapshot())

	// 10 days -> critical -> warning color; 40 days -> normal -> info color.
	if !strings.Contains(md, `<font color="warning">10 days</font>`) {
		t.Errorf("critical record not colored:\n%s", md)
	}
	if !strings.Contains(md, `<font color="info">40 days</font>`) {
		t.Errorf("normal record not colored:\n%s", md)
	}
}

func TestBillingTextNeverSuppressed(t *testing.T) {
	text := BillingText("prod", 0, billing.Bill{})
	if text == "" {
		t.Fatal("billing report suppressed for zero balance and empty bill")
	}
	if !strings.Contains(text, "0.00 CNY") {
		t.Errorf("zero balance not rendered:\n%s", text)
	}
}

func TestBillingTextSortedProjects(t *testing.T) {
	bill := billing.Bill{
		"zeta":  {Total: 10, Services: map[string]billing.ServiceCost{"cvm": {RealCost: 10}}},
		"alpha": {Total: 20, Services: map[string]billing.ServiceCost{"cbs": {RealCost: 20}}},
	}
	text := BillingText("prod", 100, bill)

	alpha := strings.Index(text, "alpha")
	zeta := strings.Index(text, "zeta")
	if alpha == -1 || zeta == -1 || alpha > zeta {
		t.Errorf("projects not in sorted order:\n%s", text)
	}
}

func TestSummaryHTML(t *testing.T) {
	if got := SummaryHTML(nil); got != "" {
		t.Errorf("digest with no sections rendered %q, want empty string", got)
	}

	balance := 250.5
	sections := []AccountSection{
		{Account: "prod", Snapshot: sampleSnapshot(), Balance: &balance},
		{Account: "staging", Snapshot: resource.NewSnapshot(nil)},
	}
	html := SummaryHTML(sections)

	if !strings.Contains(html, "prod") || !strings.Contains(html, "staging") {
		t.Error("digest missing an account section")
	}
	if !strings.Contains(html, "250.50") {
		t.Error("digest missing balance")
	}
	if !strings.Contains(html, "Total") {
		t.Error("digest missing balance total row")
	}
	if !strings.Contains(html, "No resources inside the alert window") {
		t.Error("digest missing empty-account placeholder")
	}
}

func TestStripMarkdown(t *testing.T) {
	in := "📢 Tencent Cloud **prod** report\n**Compute**\n> Name: `web`"
	got := stripMarkdown(in)

	for _, forbidden := range []string{"*", "#", "`", "📢"} {
		if strings.Contains(got, forbidden) {
			t.Errorf("stripMarkdown left %q in %q", forbidden, got)
		}
	}
	if !strings.Contains(got, "Tencent Cloud prod report") {
		t.Errorf("stripMarkdown mangled content: %q", got)
	}
}

func TestTruncateBytes(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "under limit untouched", in: "hello", limit: 10, want: "hello"},
		{name: "ascii cut at limit", in: "hello", limit: 3, want: "hel"},
		{name: "multibyte rune not split", in: "ab世界", limit: 3, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateBytes(tt.in, tt.limit); got != tt.want {
				t.Errorf("truncateBytes(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}
