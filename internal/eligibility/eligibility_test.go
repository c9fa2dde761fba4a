package eligibility

import (
	"testing"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Stage
	}{
		{
			name: "anonymous viewer",
			in:   Input{},
			want: StageAnonymous,
		},
		{
			name: "anonymous even with verified tier leftover",
			in:   Input{Authenticated: false, Tier: domain.TierVerified},
			want: StageAnonymous,
		},
		{
			name: "registered without kyc",
			in:   Input{Authenticated: true, Tier: domain.TierNone},
			want: StageRegistered,
		},
		{
			name: "kyc submitted",
			in:   Input{Authenticated: true, Tier: domain.TierPending},
			want: StageVerificationPending,
		},
		{
			name: "verified, deposit required, not paid",
			in:   Input{Authenticated: true, Tier: domain.TierVerified, RequiresDeposit: true},
			want: StageVerifiedNoDeposit,
		},
		{
			name: "verified, deposit required and paid",
			in:   Input{Authenticated: true, Tier: domain.TierVerified, RequiresDeposit: true, DepositConfirmed: true},
			want: StageVerifiedWithDeposit,
		},
		{
			name: "verified, no deposit required",
			in:   Input{Authenticated: true, Tier: domain.TierVerified},
			want: StageVerifiedWithDeposit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.in); got != tt.want {
				t.Fatalf("Resolve(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	in := Input{Authenticated: true, Tier: domain.TierVerified, RequiresDeposit: true}
	first := Resolve(in)
	for i := 0; i < 100; i++ {
		if got := Resolve(in); got != first {
			t.Fatalf("Resolve is not deterministic: %v then %v", first, got)
		}
	}
}

func TestStageOrdering(t *testing.T) {
	// The stage values are an ordered enum; action gating relies on it.
	order := []Stage{
		StageAnonymous,
		StageRegistered,
		StageVerificationPending,
		StageVerifiedNoDeposit,
		StageVerifiedWithDeposit,
	}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Fatalf("stage %v should order below %v", order[i-1], order[i])
		}
	}
}
