package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
	"github.com/ops-tools/tcmonitor/internal/pkg/metrics"
)

const upsertBillingQuery = `
	INSERT INTO billing_info (
		account_name, project_name, service_name,
		balance, real_cost, list_cost, cash_paid, batch_marker, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (account_name, project_name, service_name) DO UPDATE SET
		balance = excluded.balance,
		real_cost = excluded.real_cost,
		list_cost = excluded.list_cost,
		cash_paid = excluded.cash_paid,
		batch_marker = excluded.batch_marker,
		updated_at = excluded.updated_at`

// UpsertBilling writes the account balance pseudo-row followed by one row
// per project and service of the monthly bill. Rows are written in sorted
// order so repeated runs touch the tables deterministically.
func (s *Store) UpsertBilling(ctx context.Context, account string, balance float64, bill billing.Bill, batch string) error {
	now := time.Now().UTC()
	query := s.rebind(upsertBillingQuery)

	var failed, total int
	exec := func(project, service string, bal interface{}, cost billing.ServiceCost) {
		total++
		_, err := s.db.ExecContext(ctx, query,
			account, project, service,
			bal, cost.RealCost, cost.ListCost, cost.CashPaid, batch, now,
		)
		if err != nil {
			failed++
			metrics.RecordRowFailure("billing_info")
			s.logger.WithFields(map[string]interface{}{
				"account": account,
				"project": project,
				"service": service,
			}).ErrorWithErr(err, "Failed to upsert billing row")
			return
		}
		metrics.RecordRowUpserted("billing_info")
	}

	// Balance travels in a synthetic row so billing_info alone describes
	// the whole billing picture for an account.
	exec(billing.BalanceProject, billing.BalanceService, balance, billing.ServiceCost{})

	projects := make([]string, 0, len(bill))
	for name := range bill {
		projects = append(projects, name)
	}
	sort.Strings(projects)

	for _, project := range projects {
		pb := bill[project]
		services := make([]string, 0, len(pb.Services))
		for name := range pb.Services {
			services = append(services, name)
		}
		sort.Strings(services)

		for _, service := range services {
			exec(project, service, nil, pb.Services[service])
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d billing rows failed to upsert", failed, total)
	}
	return nil
}
