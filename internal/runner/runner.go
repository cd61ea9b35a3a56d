package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ops-tools/tcmonitor/internal/aggregator"
	"github.com/ops-tools/tcmonitor/internal/config"
	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/notify"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
)

// Mode selects which halves of the run execute
type Mode string

const (
	ModeAll       Mode = "all"
	ModeResources Mode = "resources"
	ModeBilling   Mode = "billing"
)

func (m Mode) resources() bool { return m == ModeAll || m == ModeResources }
func (m Mode) billing() bool   { return m == ModeAll || m == ModeBilling }

// Valid reports whether m is a recognized run mode.
func (m Mode) Valid() bool { return m.resources() || m.billing() }

// BotChannel is a webhook channel delivering one message to named bots.
type BotChannel interface {
	Send(ctx context.Context, body string, names ...string) map[string]bool
}

// EmailChannel delivers an HTML message to named mailboxes.
type EmailChannel interface {
	Send(ctx context.Context, subject, htmlBody string, names ...string) map[string]bool
}

// CollectorFactory builds the collector set and billing source for one
// account's credentials.
type CollectorFactory func(acc config.Account) ([]resource.Collector, []resource.GlobalCollector, billing.Source)

// Runner drives one full monitoring pass: collect, filter, notify and
// persist, account by account.
type Runner struct {
	cfg     *config.Config
	factory CollectorFactory
	store   resource.Store // nil when persistence is disabled
	wecom   BotChannel     // nil when the channel is disabled
	yzj     BotChannel
	email   EmailChannel
	logger  *logger.Logger
	now     func() time.Time
}

// Option configures optional Runner collaborators.
type Option func(*Runner)

// WithStore attaches a persistence store.
func WithStore(s resource.Store) Option { return func(r *Runner) { r.store = s } }

// WithWeCom attaches the WeCom webhook channel.
func WithWeCom(c BotChannel) Option { return func(r *Runner) { r.wecom = c } }

// WithYunZhiJia attaches the YunZhiJia webhook channel.
func WithYunZhiJia(c BotChannel) Option { return func(r *Runner) { r.yzj = c } }

// WithEmail attaches the SMTP channel.
func WithEmail(c EmailChannel) Option { return func(r *Runner) { r.email = c } }

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New creates a runner over the given configuration and collector factory.
func New(cfg *config.Config, factory CollectorFactory, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		factory: factory,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one pass over every configured account. Accounts are
// processed sequentially in configuration order; a failure in one account's
// collection or delivery never stops the others. The store, when present,
// is closed before Run returns.
func (r *Runner) Run(ctx context.Context, mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown run mode %q", mode)
	}

	start := r.now()
	defer func() {
		metrics.ObserveRunDuration(time.Since(start))
	}()

	if r.store != nil {
		defer func() {
			if err := r.store.Close(); err != nil {
				r.logger.ErrorWithErr(err, "Failed to close store")
			}
		}()
	}

	batch := fmt.Sprintf("%s-%s", start.Format("20060102150405"), uuid.NewString()[:8])

	r.logger.WithFields(map[string]interface{}{
		"mode":     string(mode),
		"accounts": len(r.cfg.Accounts),
		"batch":    batch,
	}).Info("Starting monitoring run")

	policy := resource.AlertPolicy{
		Mode:          resource.Mode(r.cfg.Alert.Mode),
		ThresholdDays: r.cfg.Alert.ThresholdDays,
	}

	var sections []notify.AccountSection
	for _, acc := range r.cfg.Accounts {
		section := r.runAccount(ctx, acc, mode, policy, batch, start)
		sections = append(sections, section)
	}

	if mode.resources() {
		r.sendDigest(ctx, sections)
	}

	r.logger.WithFields(map[string]interface{}{
		"batch":    batch,
		"duration": time.Since(start).String(),
	}).Info("Monitoring run finished")
	return nil
}

func (r *Runner) runAccount(ctx context.Context, acc config.Account, mode Mode, policy resource.AlertPolicy, batch string, now time.Time) notify.AccountSection {
	log := r.logger.With("account", acc.Name)
	regional, global, source := r.factory(acc)

	section := notify.AccountSection{Account: acc.Name}

	if mode.resources() {
		agg := aggregator.New(r.cfg.Regions.Resources, regional, global, log)
		snapshot := agg.Aggregate(ctx, now)

		for _, kind := range resource.KindOrder {
			count := len(snapshot.ByKind(kind))
			metrics.RecordResourcesCollected(acc.Name, string(kind), count)
			log.Infof("Collected %d %s resources", count, kind)
		}
		if full := notify.ResourceText(acc.Name, snapshot); full != "" {
			log.Debug(full)
		}

		filtered := resource.Filter(snapshot, policy)
		section.Snapshot = filtered

		r.notifyResources(ctx, acc.Name, filtered, log)

		// The full, unfiltered snapshot is what gets persisted; the alert
		// policy only narrows what people see, not what is recorded.
		if r.storeReady(ctx, log) {
			r.persistResources(ctx, acc.Name, snapshot, batch, log)
		}
	}

	if mode.billing() {
		balance, bill, ok := r.fetchBilling(ctx, source, log)
		if ok {
			section.Balance = &balance
		}
		r.notifyBilling(ctx, acc.Name, balance, bill, log)
		if r.storeReady(ctx, log) {
			if err := r.store.UpsertBilling(ctx, acc.Name, balance, bill, batch); err != nil {
				log.ErrorWithErr(err, "Failed to persist billing data")
			}
		}
	}

	return section
}

// fetchBilling pulls balance and the monthly bill, degrading each to its
// zero value on error so the billing report always goes out.
func (r *Runner) fetchBilling(ctx context.Context, source billing.Source, log *logger.Logger) (float64, billing.Bill, bool) {
	balance, err := source.Balance(ctx)
	ok := err == nil
	if err != nil {
		log.ErrorWithErr(err, "Failed to fetch account balance")
		balance = 0
	}

	bill, err := source.MonthlyBill(ctx)
	if err != nil {
		log.ErrorWithErr(err, "Failed to fetch monthly bill")
		bill = billing.Bill{}
	}
	return balance, bill, ok
}

func (r *Runner) notifyResources(ctx context.Context, account string, s resource.Snapshot, log *logger.Logger) {
	if s.Empty() {
		log.Info("No resources inside the alert window, skipping resource notifications")
		return
	}

	if r.wecom != nil {
		results := r.wecom.Send(ctx, notify.ResourceMarkdown(account, s), r.cfg.WeCom.Targets()...)
		r.logResults(log, "wecom", "resource alert", results)
	}
	if r.yzj != nil {
		results := r.yzj.Send(ctx, notify.ResourceText(account, s), r.cfg.YunZhiJia.Targets()...)
		r.logResults(log, "yunzhijia", "resource alert", results)
	}
	if r.email != nil {
		subject := fmt.Sprintf("[Tencent Cloud] %s resource expiry report", account)
		results := r.email.Send(ctx, subject, notify.ResourceHTML(account, s))
		r.logResults(log, "email", "resource alert", results)
	}
}

// notifyBilling delivers the billing report unconditionally; an empty bill
// still produces a balance line.
func (r *Runner) notifyBilling(ctx context.Context, account string, balance float64, bill billing.Bill, log *logger.Logger) {
	if r.wecom != nil {
		results := r.wecom.Send(ctx, notify.BillingMarkdown(account, balance, bill), r.cfg.WeCom.Targets()...)
		r.logResults(log, "wecom", "billing report", results)
	}
	if r.yzj != nil {
		results := r.yzj.Send(ctx, notify.BillingText(account, balance, bill), r.cfg.YunZhiJia.Targets()...)
		r.logResults(log, "yunzhijia", "billing report", results)
	}
	if r.email != nil {
		subject := fmt.Sprintf("[Tencent Cloud] %s billing summary", account)
		results := r.email.Send(ctx, subject, notify.BillingHTML(account, balance, bill))
		r.logResults(log, "email", "billing report", results)
	}
}

// storeReady reports whether a write batch should proceed. The liveness
// check runs before every batch so a connection lost mid-run only costs the
// batches while it is down.
func (r *Runner) storeReady(ctx context.Context, log *logger.Logger) bool {
	if r.store == nil {
		return false
	}
	if err := r.store.Live(ctx); err != nil {
		log.ErrorWithErr(err, "Database not reachable, skipping this write batch")
		return false
	}
	return true
}

func (r *Runner) persistResources(ctx context.Context, account string, s resource.Snapshot, batch string, log *logger.Logger) {
	for _, kind := range resource.KindOrder {
		records := s.ByKind(kind)
		if len(records) == 0 {
			continue
		}
		if err := r.store.UpsertRecords(ctx, account, kind, records, batch); err != nil {
			log.WithFields(map[string]interface{}{
				"kind": string(kind),
			}).ErrorWithErr(err, "Failed to persist resource records")
		}
	}
}

// sendDigest mails the single cross-account summary after every account has
// been processed.
func (r *Runner) sendDigest(ctx context.Context, sections []notify.AccountSection) {
	if r.email == nil {
		return
	}
	body := notify.SummaryHTML(sections)
	if body == "" {
		return
	}
	results := r.email.Send(ctx, "[Tencent Cloud] all-accounts expiry digest", body)
	r.logResults(r.logger, "email", "summary digest", results)
}

func (r *Runner) logResults(log *logger.Logger, channel, what string, results map[string]bool) {
	for target, ok := range results {
		status := "success"
		if !ok {
			status = "failed"
		}
		log.WithFields(map[string]interface{}{
			"channel": channel,
			"target":  target,
			"status":  status,
		}).Infof("Delivery of %s %s", what, status)
	}
}
