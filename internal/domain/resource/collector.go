package resource

import "context"

// Collector lists resources of one region-scoped kind. Implementations wrap
// a single provider API; errors are returned to the caller, which decides
// how to degrade.
type Collector interface {
	// Kind returns the resource kind this collector produces.
	Kind() Kind

	// List returns the records found in one region.
	List(ctx context.Context, region string) ([]Record, error)
}

// GlobalCollector lists resources of one kind that has no region dimension.
type GlobalCollector interface {
	// Kind returns the resource kind this collector produces.
	Kind() Kind

	// List returns all records for the account.
	List(ctx context.Context) ([]Record, error)
}
