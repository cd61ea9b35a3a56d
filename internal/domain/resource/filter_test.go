package resource

import (
	"testing"
)

func TestAlertPolicyKeep(t *testing.T) {
	tests := []struct {
		name   string
		policy AlertPolicy
		days   int
		want   bool
	}{
		{
			name:   "all mode keeps far future",
			policy: AlertPolicy{Mode: ModeAll, ThresholdDays: 30},
			days:   400,
			want:   true,
		},
		{
			name:   "specific keeps at threshold",
			policy: AlertPolicy{Mode: ModeSpecific, ThresholdDays: 30},
			days:   30,
			want:   true,
		},
		{
			name:   "specific drops above threshold",
			policy: AlertPolicy{Mode: ModeSpecific, ThresholdDays: 30},
			days:   31,
			want:   false,
		},
		{
			name:   "specific keeps expired",
			policy: AlertPolicy{Mode: ModeSpecific, ThresholdDays: 30},
			days:   -10,
			want:   true,
		},
		{
			name:   "zero threshold keeps only expired and today",
			policy: AlertPolicy{Mode: ModeSpecific, ThresholdDays: 0},
			days:   0,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{DaysRemaining: tt.days}
			if got := tt.policy.Keep(r); got != tt.want {
				t.Errorf("Keep(days=%d) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestFilterAllModeIsIdentity(t *testing.T) {
	s := NewSnapshot([]string{"ap-guangzhou"})
	s.Regional["ap-guangzhou"][KindCompute] = []Record{
		{Kind: KindCompute, ID: "ins-1", DaysRemaining: 5},
		{Kind: KindCompute, ID: "ins-2", DaysRemaining: 500},
	}
	s.Global[KindDomain] = []Record{{Kind: KindDomain, ID: "dom-1", DaysRemaining: 90}}

	out := Filter(s, AlertPolicy{Mode: ModeAll, ThresholdDays: 30})

	if got := len(out.ByKind(KindCompute)); got != 2 {
		t.Errorf("all mode kept %d compute records, want 2", got)
	}
	if got := len(out.ByKind(KindDomain)); got != 1 {
		t.Errorf("all mode kept %d domain records, want 1", got)
	}
}

func TestFilterSpecificMode(t *testing.T) {
	s := NewSnapshot([]string{"ap-guangzhou"})
	s.Regional["ap-guangzhou"][KindCompute] = []Record{
		{Kind: KindCompute, ID: "keep-at-threshold", DaysRemaining: 30},
		{Kind: KindCompute, ID: "drop-above", DaysRemaining: 31},
		{Kind: KindCompute, ID: "keep-expired", DaysRemaining: -2},
	}
	s.Global[KindCertificate] = []Record{
		{Kind: KindCertificate, ID: "drop-cert", DaysRemaining: 200},
	}

	out := Filter(s, AlertPolicy{Mode: ModeSpecific, ThresholdDays: 30})

	compute := out.ByKind(KindCompute)
	if len(compute) != 2 {
		t.Fatalf("kept %d compute records, want 2", len(compute))
	}
	if compute[0].ID != "keep-at-threshold" || compute[1].ID != "keep-expired" {
		t.Errorf("kept %s, %s; want keep-at-threshold, keep-expired", compute[0].ID, compute[1].ID)
	}
	if got := len(out.ByKind(KindCertificate)); got != 0 {
		t.Errorf("kept %d certificates, want 0", got)
	}

	// Input snapshot is untouched.
	if got := len(s.Regional["ap-guangzhou"][KindCompute]); got != 3 {
		t.Errorf("input snapshot mutated: %d compute records, want 3", got)
	}
}

func TestFilterCarriesBilling(t *testing.T) {
	balance := 123.45
	s := NewSnapshot([]string{"ap-guangzhou"})
	s.Balance = &balance

	out := Filter(s, AlertPolicy{Mode: ModeSpecific, ThresholdDays: 0})
	if out.Balance == nil || *out.Balance != balance {
		t.Error("filter must carry balance through untouched")
	}
}
