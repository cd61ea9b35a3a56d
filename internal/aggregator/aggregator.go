package aggregator

import (
	"context"
	"time"

	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/logger"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
)

// Aggregator runs every collector for one account and assembles the
// per-account snapshot. Collector failures degrade to empty lists; a
// partial failure never aborts the rest of the aggregation.
type Aggregator struct {
	regions  []string
	regional []resource.Collector
	global   []resource.GlobalCollector
	logger   *logger.Logger
}

// New creates an aggregator for one account's collector set. Regions and
// collectors are iterated in the order given, which keeps downstream
// formatting deterministic.
func New(regions []string, regional []resource.Collector, global []resource.GlobalCollector, log *logger.Logger) *Aggregator {
	return &Aggregator{
		regions:  regions,
		regional: regional,
		global:   global,
		logger:   log,
	}
}

// Aggregate builds the snapshot. Every record's remaining days are
// recomputed from the single now instant passed in, never trusted from the
// collector.
func (a *Aggregator) Aggregate(ctx context.Context, now time.Time) resource.Snapshot {
	snapshot := resource.NewSnapshot(a.regions)

	for _, collector := range a.regional {
		kind := collector.Kind()
		for _, region := range a.regions {
			records, err := collector.List(ctx, region)
			if err != nil {
				a.logger.WithFields(map[string]interface{}{
					"kind":   string(kind),
					"region": region,
				}).ErrorWithErr(err, "Collector failed, continuing with empty result")
				metrics.RecordCollectorFailure(string(kind), region)
				records = nil
			}

			tagged := make([]resource.Record, 0, len(records))
			for _, rec := range records {
				if rec.Region == "" {
					rec.Region = region
				}
				rec.DaysRemaining = resource.DaysUntil(now, rec.ExpiresAt)
				tagged = append(tagged, rec)
			}
			snapshot.Regional[region][kind] = tagged
		}
	}

	for _, collector := range a.global {
		kind := collector.Kind()
		records, err := collector.List(ctx)
		if err != nil {
			a.logger.WithFields(map[string]interface{}{
				"kind": string(kind),
			}).ErrorWithErr(err, "Collector failed, continuing with empty result")
			metrics.RecordCollectorFailure(string(kind), "")
			records = nil
		}

		stamped := make([]resource.Record, 0, len(records))
		for _, rec := range records {
			rec.DaysRemaining = resource.DaysUntil(now, rec.ExpiresAt)
			stamped = append(stamped, rec)
		}
		snapshot.Global[kind] = stamped
	}

	return snapshot
}
