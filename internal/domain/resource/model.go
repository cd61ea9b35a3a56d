package resource

import (
	"math"
	"time"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
)

// Kind identifies one category of monitored cloud entity
type Kind string

const (
	KindCompute     Kind = "cvm"
	KindLighthouse  Kind = "lighthouse"
	KindVolume      Kind = "cbs"
	KindDomain      Kind = "domain"
	KindCertificate Kind = "ssl"
)

// KindOrder fixes iteration order wherever kinds are enumerated, so output
// and persistence are deterministic regardless of map layout.
var KindOrder = []Kind{KindCompute, KindLighthouse, KindVolume, KindDomain, KindCertificate}

// RegionalKinds are queried once per configured region.
var RegionalKinds = []Kind{KindCompute, KindLighthouse, KindVolume}

// GlobalKinds are queried once per account.
var GlobalKinds = []Kind{KindDomain, KindCertificate}

// DefaultProject is the label used when the provider does not report a project.
const DefaultProject = "default project"

// Record is the common shape every collected resource is normalized into
type Record struct {
	Kind          Kind      `json:"kind"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Region        string    `json:"region,omitempty"` // empty for global kinds
	ProjectID     int64     `json:"project_id,omitempty"`
	ProjectName   string    `json:"project_name,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
	DaysRemaining int       `json:"days_remaining"`
	Status        string    `json:"status,omitempty"`

	// Certificate extras
	ProductName string   `json:"product_name,omitempty"`
	Wildcard    bool     `json:"wildcard,omitempty"`
	SANs        []string `json:"sans,omitempty"`
}

// Project returns the project label, falling back to DefaultProject.
func (r Record) Project() string {
	if r.ProjectName == "" {
		return DefaultProject
	}
	return r.ProjectName
}

// Snapshot is the aggregated per-account view built once per run
type Snapshot struct {
	// Regions preserves the configured region order for deterministic output.
	Regions  []string
	Regional map[string]map[Kind][]Record
	Global   map[Kind][]Record
	Balance  *float64
	Bill     billing.Bill
}

// NewSnapshot returns an empty snapshot for the given region order.
func NewSnapshot(regions []string) Snapshot {
	regional := make(map[string]map[Kind][]Record, len(regions))
	for _, region := range regions {
		regional[region] = make(map[Kind][]Record)
	}
	return Snapshot{
		Regions:  append([]string(nil), regions...),
		Regional: regional,
		Global:   make(map[Kind][]Record),
	}
}

// Empty reports whether every resource list in the snapshot is empty.
// Billing data does not count; it is delivered unconditionally.
func (s Snapshot) Empty() bool {
	for _, kinds := range s.Regional {
		for _, records := range kinds {
			if len(records) > 0 {
				return false
			}
		}
	}
	for _, records := range s.Global {
		if len(records) > 0 {
			return false
		}
	}
	return true
}

// ByKind gathers all records of one kind, regional lists first in region
// order, then the global list.
func (s Snapshot) ByKind(kind Kind) []Record {
	var out []Record
	for _, region := range s.Regions {
		out = append(out, s.Regional[region][kind]...)
	}
	out = append(out, s.Global[kind]...)
	return out
}

// Severity is a presentation-only urgency band; it never affects filtering
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityNormal   Severity = "normal"
)

// SeverityOf bands remaining days: <=15 critical, <=30 warning, else normal.
// Already-expired resources fall in the critical band.
func SeverityOf(daysRemaining int) Severity {
	switch {
	case daysRemaining <= 15:
		return SeverityCritical
	case daysRemaining <= 30:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// DaysUntil computes the floor of whole days from now until expiresAt.
// The result is negative for already-expired resources and is never clamped.
func DaysUntil(now, expiresAt time.Time) int {
	return int(math.Floor(expiresAt.Sub(now).Hours() / 24))
}
