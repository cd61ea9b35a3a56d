package resource

// Mode selects how the alert filter behaves
type Mode string

const (
	// ModeAll surfaces every collected resource.
	ModeAll Mode = "all"
	// ModeSpecific surfaces only resources within the day threshold.
	ModeSpecific Mode = "specific"
)

// AlertPolicy is the mode+threshold pair governing which resources are
// surfaced in notifications
type AlertPolicy struct {
	Mode          Mode
	ThresholdDays int
}

// Keep reports whether a record passes the policy. Under ModeAll every
// record passes. Under ModeSpecific a record passes iff its remaining days
// are at or below the threshold; there is no lower bound, so already-expired
// resources (negative days) always pass.
func (p AlertPolicy) Keep(r Record) bool {
	if p.Mode != ModeSpecific {
		return true
	}
	return r.DaysRemaining <= p.ThresholdDays
}

// Filter produces a new snapshot containing only records that pass the
// policy. The input snapshot is never mutated. Balance and bill data are
// carried over untouched; billing is not subject to the expiry policy.
func Filter(s Snapshot, policy AlertPolicy) Snapshot {
	out := NewSnapshot(s.Regions)
	out.Balance = s.Balance
	out.Bill = s.Bill

	for region, kinds := range s.Regional {
		filtered := make(map[Kind][]Record, len(kinds))
		for kind, records := range kinds {
			filtered[kind] = filterRecords(records, policy)
		}
		out.Regional[region] = filtered
	}
	for kind, records := range s.Global {
		out.Global[kind] = filterRecords(records, policy)
	}

	return out
}

func filterRecords(records []Record, policy AlertPolicy) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if policy.Keep(r) {
			out = append(out, r)
		}
	}
	return out
}
