package billing

import "context"

// Source provides account balance and monthly bill data for one account.
type Source interface {
	// Balance returns the current account balance in CNY.
	Balance(ctx context.Context) (float64, error)

	// MonthlyBill returns the current month's bill grouped by project and
	// service.
	MonthlyBill(ctx context.Context) (Bill, error)
}
