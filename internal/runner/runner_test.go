package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ops-tools/tcmonitor/internal/config"
	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/testutil"
)

type fixture struct {
	cfg     *config.Config
	cvm     *testutil.MockCollector
	certs   *testutil.MockGlobalCollector
	billing *testutil.MockBillingSource
	store   *testutil.MockStore
	wecom   *testutil.MockChannel
	email   *testutil.MockChannel
}

// newFixture wires one account with a compute instance expiring in 10 days
// and a certificate expiring in 90, under a specific/30 alert policy.
func newFixture(now time.Time) *fixture {
	f := &fixture{
		cfg: &config.Config{
			Accounts: []config.Account{{Name: "prod", SecretID: "id", SecretKey: "key"}},
			Regions:  config.RegionConfig{Resources: []string{"ap-guangzhou"}, Billing: "ap-guangzhou"},
			Alert:    config.AlertConfig{Mode: "specific", ThresholdDays: 30},
			WeCom:    config.BotChannelConfig{Enabled: true, SendMode: "all"},
		},
		cvm:     testutil.NewMockCollector(resource.KindCompute),
		certs:   testutil.NewMockGlobalCollector(resource.KindCertificate),
		billing: &testutil.MockBillingSource{BalanceValue: 998.5, BillValue: billing.Bill{}},
		store:   testutil.NewMockStore(),
		wecom:   testutil.NewMockChannel("ops"),
		email:   testutil.NewMockChannel("ops"),
	}

	f.cvm.Records["ap-guangzhou"] = []resource.Record{
		{Kind: resource.KindCompute, ID: "ins-1", Name: "web", ExpiresAt: now.AddDate(0, 0, 10)},
	}
	f.certs.Records = []resource.Record{
		{Kind: resource.KindCertificate, ID: "cert-1", Name: "example.com", ExpiresAt: now.AddDate(0, 0, 90)},
	}
	return f
}

func (f *fixture) runner(now time.Time) *Runner {
	factory := func(acc config.Account) ([]resource.Collector, []resource.GlobalCollector, billing.Source) {
		return []resource.Collector{f.cvm}, []resource.GlobalCollector{f.certs}, f.billing
	}
	return New(f.cfg, factory, testutil.TestLogger(),
		WithStore(f.store),
		WithWeCom(f.wecom),
		WithEmail(testutil.EmailAdapter{MockChannel: f.email}),
		WithClock(func() time.Time { return now }),
	)
}

func TestRunFullPass(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(now)

	if err := f.runner(now).Run(context.Background(), ModeAll); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The resource alert carries only the compute instance; the certificate
	// at 90 days sits outside the 30 day policy window.
	var resourceAlerts []string
	for _, msg := range f.wecom.Sent {
		if strings.Contains(msg.Body, "expiry report") {
			resourceAlerts = append(resourceAlerts, msg.Body)
		}
	}
	if len(resourceAlerts) != 1 {
		t.Fatalf("got %d resource alerts, want 1", len(resourceAlerts))
	}
	if !strings.Contains(resourceAlerts[0], "web") {
		t.Error("alert missing the expiring compute instance")
	}
	if strings.Contains(resourceAlerts[0], "example.com") {
		t.Error("alert includes a certificate outside the policy window")
	}

	// Persistence gets the unfiltered snapshot: both kinds land in the store.
	if got := len(f.store.Records["prod"][resource.KindCompute]); got != 1 {
		t.Errorf("stored %d compute records, want 1", got)
	}
	if got := len(f.store.Records["prod"][resource.KindCertificate]); got != 1 {
		t.Errorf("stored %d certificates, want 1; persistence must ignore the alert policy", got)
	}

	// Billing goes out and is persisted.
	if got := f.store.Billing["prod"].Balance; got != 998.5 {
		t.Errorf("persisted balance = %f, want 998.5", got)
	}
	var sawBilling bool
	for _, msg := range f.wecom.Sent {
		if strings.Contains(msg.Body, "billing summary") {
			sawBilling = true
		}
	}
	if !sawBilling {
		t.Error("billing report was not delivered")
	}

	// Every upsert in the run shares one batch marker.
	if len(f.store.Batches) == 0 {
		t.Fatal("no batches recorded")
	}
	for _, b := range f.store.Batches[1:] {
		if b != f.store.Batches[0] {
			t.Errorf("batch markers differ within one run: %v", f.store.Batches)
		}
	}

	if f.store.CloseCount != 1 {
		t.Errorf("store closed %d times, want exactly 1", f.store.CloseCount)
	}
}

func TestRunSendsDigestOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(now)
	f.cfg.Accounts = append(f.cfg.Accounts, config.Account{Name: "staging", SecretID: "id2", SecretKey: "key2"})

	if err := f.runner(now).Run(context.Background(), ModeAll); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var digests []testutil.SentMessage
	for _, msg := range f.email.Sent {
		if strings.Contains(msg.Subject, "digest") {
			digests = append(digests, msg)
		}
	}
	if len(digests) != 1 {
		t.Fatalf("got %d digests, want exactly 1 per run", len(digests))
	}
	if !strings.Contains(digests[0].Body, "prod") || !strings.Contains(digests[0].Body, "staging") {
		t.Error("digest missing an account section")
	}
}

func TestRunResourcesModeSkipsBilling(t *testing.T) {
	now := time.Now()
	f := newFixture(now)

	if err := f.runner(now).Run(context.Background(), ModeResources); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(f.store.Billing) != 0 {
		t.Error("resources mode must not persist billing")
	}
	for _, msg := range f.wecom.Sent {
		if strings.Contains(msg.Body, "billing summary") {
			t.Error("resources mode must not send billing reports")
		}
	}
}

func TestRunBillingModeSkipsResources(t *testing.T) {
	now := time.Now()
	f := newFixture(now)

	if err := f.runner(now).Run(context.Background(), ModeBilling); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(f.store.Records) != 0 {
		t.Error("billing mode must not persist resources")
	}
	if len(f.cvm.Calls) != 0 {
		t.Error("billing mode must not hit resource collectors")
	}
	if got := f.store.Billing["prod"].Balance; got != 998.5 {
		t.Errorf("persisted balance = %f, want 998.5", got)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	f := newFixture(time.Now())
	if err := f.runner(time.Now()).Run(context.Background(), Mode("hourly")); err == nil {
		t.Fatal("Run() should reject unknown modes")
	}
}

func TestRunBillingFailureDegradesToZero(t *testing.T) {
	now := time.Now()
	f := newFixture(now)
	f.billing.BalanceErr = errors.New("api unreachable")
	f.billing.BillErr = errors.New("api unreachable")

	if err := f.runner(now).Run(context.Background(), ModeBilling); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The report still goes out, carrying zero values.
	var sawBilling bool
	for _, msg := range f.wecom.Sent {
		if strings.Contains(msg.Body, "billing summary") {
			sawBilling = true
			if !strings.Contains(msg.Body, "0.00 CNY") {
				t.Errorf("degraded billing report missing zero balance:\n%s", msg.Body)
			}
		}
	}
	if !sawBilling {
		t.Error("billing report suppressed on fetch failure")
	}
}

func TestRunSkipsPersistenceWhenStoreDown(t *testing.T) {
	now := time.Now()
	f := newFixture(now)
	f.store.LiveErr = errors.New("connection refused")

	if err := f.runner(now).Run(context.Background(), ModeAll); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(f.store.Records) != 0 || len(f.store.Billing) != 0 {
		t.Error("persistence attempted against a dead store")
	}
	// Notifications still went out.
	if len(f.wecom.Sent) == 0 {
		t.Error("notifications suppressed by store failure")
	}
	if f.store.CloseCount != 1 {
		t.Errorf("store closed %d times, want 1", f.store.CloseCount)
	}
}

func TestRunEmptyWindowSkipsResourceAlert(t *testing.T) {
	now := time.Now()
	f := newFixture(now)
	// Push everything outside the 30 day window.
	f.cvm.Records["ap-guangzhou"] = []resource.Record{
		{Kind: resource.KindCompute, ID: "ins-1", Name: "web", ExpiresAt: now.AddDate(1, 0, 0)},
	}

	if err := f.runner(now).Run(context.Background(), ModeResources); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, msg := range f.wecom.Sent {
		if strings.Contains(msg.Body, "expiry report") {
			t.Error("resource alert sent for an empty window")
		}
	}
	// The unfiltered snapshot is still persisted.
	if got := len(f.store.Records["prod"][resource.KindCompute]); got != 1 {
		t.Errorf("stored %d compute records, want 1", got)
	}
}
