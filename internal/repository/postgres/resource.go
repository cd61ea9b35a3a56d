package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ops-tools/tcmonitor/internal/domain/resource"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
)

const (
	upsertCVMQuery = `
		INSERT INTO cvm_instances (
			account_name, instance_id, instance_name, zone, project_name,
			expired_time, differ_days, status, batch_marker, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_name, instance_id) DO UPDATE SET
			instance_name = excluded.instance_name,
			zone = excluded.zone,
			project_name = excluded.project_name,
			expired_time = excluded.expired_time,
			differ_days = excluded.differ_days,
			status = excluded.status,
			batch_marker = excluded.batch_marker,
			updated_at = excluded.updated_at`

	upsertLighthouseQuery = `
		INSERT INTO lighthouse_instances (
			account_name, instance_id, instance_name, zone,
			expired_time, differ_days, status, batch_marker, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_name, instance_id) DO UPDATE SET
			instance_name = excluded.instance_name,
			zone = excluded.zone,
			expired_time = excluded.expired_time,
			differ_days = excluded.differ_days,
			status = excluded.status,
			batch_marker = excluded.batch_marker,
			updated_at = excluded.updated_at`

	upsertDiskQuery = `
		INSERT INTO cbs_disks (
			account_name, disk_id, disk_name, project_id, project_name, zone,
			expired_time, differ_days, status, batch_marker, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_name, disk_id) DO UPDATE SET
			disk_name = excluded.disk_name,
			project_id = excluded.project_id,
			project_name = excluded.project_name,
			zone = excluded.zone,
			expired_time = excluded.expired_time,
			differ_days = excluded.differ_days,
			status = excluded.status,
			batch_marker = excluded.batch_marker,
			updated_at = excluded.updated_at`

	upsertDomainQuery = `
		INSERT INTO domains (
			account_name, domain_id, domain_name,
			expired_time, differ_days, status, batch_marker, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_name, domain_id) DO UPDATE SET
			domain_name = excluded.domain_name,
			expired_time = excluded.expired_time,
			differ_days = excluded.differ_days,
			status = excluded.status,
			batch_marker = excluded.batch_marker,
			updated_at = excluded.updated_at`

	upsertCertificateQuery = `
		INSERT INTO ssl_certificates (
			account_name, certificate_id, domain_name, product_name,
			is_wildcard, project_name,
			expired_time, differ_days, status, batch_marker, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_name, certificate_id) DO UPDATE SET
			domain_name = excluded.domain_name,
			product_name = excluded.product_name,
			is_wildcard = excluded.is_wildcard,
			project_name = excluded.project_name,
			expired_time = excluded.expired_time,
			differ_days = excluded.differ_days,
			status = excluded.status,
			batch_marker = excluded.batch_marker,
			updated_at = excluded.updated_at`
)

// UpsertRecords writes one kind's records for an account. Each record is
// written independently; a failed row is logged and counted but does not
// abort the rest of the batch.
func (s *Store) UpsertRecords(ctx context.Context, account string, kind resource.Kind, records []resource.Record, batch string) error {
	table, ok := tableFor(kind)
	if !ok {
		return fmt.Errorf("no table mapped for resource kind %q", kind)
	}

	now := time.Now().UTC()
	var failed int
	for _, r := range records {
		query, args := upsertArgs(account, kind, r, batch, now)
		if _, err := s.db.ExecContext(ctx, s.rebind(query), args...); err != nil {
			failed++
			metrics.RecordRowFailure(table)
			s.logger.WithFields(map[string]interface{}{
				"table":    table,
				"account":  account,
				"resource": r.ID,
			}).ErrorWithErr(err, "Failed to upsert resource row")
			continue
		}
		metrics.RecordRowUpserted(table)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d %s rows failed to upsert", failed, len(records), table)
	}
	return nil
}

func tableFor(kind resource.Kind) (string, bool) {
	switch kind {
	case resource.KindCompute:
		return "cvm_instances", true
	case resource.KindLighthouse:
		return "lighthouse_instances", true
	case resource.KindVolume:
		return "cbs_disks", true
	case resource.KindDomain:
		return "domains", true
	case resource.KindCertificate:
		return "ssl_certificates", true
	}
	return "", false
}

func upsertArgs(account string, kind resource.Kind, r resource.Record, batch string, now time.Time) (string, []interface{}) {
	switch kind {
	case resource.KindCompute:
		return upsertCVMQuery, []interface{}{
			account, r.ID, r.Name, r.Region, r.Project(),
			r.ExpiresAt, r.DaysRemaining, r.Status, batch, now,
		}
	case resource.KindLighthouse:
		return upsertLighthouseQuery, []interface{}{
			account, r.ID, r.Name, r.Region,
			r.ExpiresAt, r.DaysRemaining, r.Status, batch, now,
		}
	case resource.KindVolume:
		return upsertDiskQuery, []interface{}{
			account, r.ID, r.Name, r.ProjectID, r.Project(), r.Region,
			r.ExpiresAt, r.DaysRemaining, r.Status, batch, now,
		}
	case resource.KindDomain:
		return upsertDomainQuery, []interface{}{
			account, r.ID, r.Name,
			r.ExpiresAt, r.DaysRemaining, r.Status, batch, now,
		}
	default: // resource.KindCertificate
		return upsertCertificateQuery, []interface{}{
			account, r.ID, r.Name, r.ProductName,
			r.Wildcard, r.Project(),
			r.ExpiresAt, r.DaysRemaining, r.Status, batch, now,
		}
	}
}
