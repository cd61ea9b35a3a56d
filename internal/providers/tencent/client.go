package tencent

import (
	"fmt"
	"time"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"

	"github.com/ops-tools/tcmonitor/internal/config"
	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
)

const (
	// defaultRegion is used for API calls that need a region but have no
	// region dimension of their own (domains, certificates, tag lookups).
	defaultRegion = "ap-guangzhou"

	pageSize = 100
)

// cst is the reference timezone every expiry timestamp is normalized to.
var cst = mustLoadCST()

func mustLoadCST() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// CollectorsFor builds the full adapter set for one account: the per-region
// collectors, the global collectors, and the billing source.
func CollectorsFor(acc config.Account, billingRegion string, log *logger.Logger) ([]resource.Collector, []resource.GlobalCollector, billing.Source) {
	cred := common.NewCredential(acc.SecretID, acc.SecretKey)
	cpf := newProfile()
	projects := newProjectDirectory(cred, cpf, log)

	regional := []resource.Collector{
		&CVMCollector{cred: cred, cpf: cpf, projects: projects, logger: log},
		&LighthouseCollector{cred: cred, cpf: cpf, logger: log},
		&CBSCollector{cred: cred, cpf: cpf, logger: log},
	}
	global := []resource.GlobalCollector{
		&DomainCollector{cred: cred, cpf: cpf, logger: log},
		&SSLCollector{cred: cred, cpf: cpf, logger: log},
	}
	bill := &BillingSource{cred: cred, cpf: cpf, region: billingRegion, now: time.Now, logger: log}

	return regional, global, bill
}

func newProfile() *profile.ClientProfile {
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqTimeout = 30
	return cpf
}

// parseUTCTime parses an ISO8601 UTC timestamp (CVM, Lighthouse style) and
// converts it to the reference timezone.
func parseUTCTime(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05Z", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.In(cst), nil
}

// parseLocalTime parses a timestamp the API already reports in CST
// (CBS deadline, certificate end time).
func parseLocalTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", value, cst)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t, nil
}

// parseDate parses a date-only expiry (domain expiration).
func parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, cst)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
