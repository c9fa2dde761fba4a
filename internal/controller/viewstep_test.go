package controller

import (
	"testing"

	"github.com/alanyoungcy/bidroom/internal/domain"
	"github.com/alanyoungcy/bidroom/internal/eligibility"
)

func TestDeriveViewStep(t *testing.T) {
	winner := &domain.Winner{UserID: "u1", Name: "me"}
	rival := &domain.Winner{UserID: "u2", Name: "Dana"}

	tests := []struct {
		name    string
		stage   eligibility.Stage
		auction domain.Auction
		selfID  string
		want    Step
	}{
		{
			name:    "scheduled always awaits start",
			stage:   eligibility.StageVerifiedWithDeposit,
			auction: domain.Auction{State: domain.StateScheduled},
			want:    StepAwaitStart,
		},
		{
			name:    "live anonymous",
			stage:   eligibility.StageAnonymous,
			auction: domain.Auction{State: domain.StateLive},
			want:    StepRegister,
		},
		{
			name:    "live registered",
			stage:   eligibility.StageRegistered,
			auction: domain.Auction{State: domain.StateLive},
			want:    StepVerify,
		},
		{
			name:    "live verification pending",
			stage:   eligibility.StageVerificationPending,
			auction: domain.Auction{State: domain.StateLive},
			want:    StepVerifyPending,
		},
		{
			name:    "live verified but deposit unpaid",
			stage:   eligibility.StageVerifiedNoDeposit,
			auction: domain.Auction{State: domain.StateLive, DepositAmount: 100},
			want:    StepPayDeposit,
		},
		{
			name:    "live fully eligible",
			stage:   eligibility.StageVerifiedWithDeposit,
			auction: domain.Auction{State: domain.StateLive, DepositAmount: 100},
			want:    StepBid,
		},
		{
			name:    "ended reserve not met beats winner presence",
			stage:   eligibility.StageVerifiedWithDeposit,
			auction: domain.Auction{State: domain.StateEnded, ReserveMet: domain.TriFalse, Winner: rival},
			selfID:  "u1",
			want:    StepNoWinner,
		},
		{
			name:    "ended self won",
			stage:   eligibility.StageVerifiedWithDeposit,
			auction: domain.Auction{State: domain.StateEnded, ReserveMet: domain.TriTrue, Winner: winner},
			selfID:  "u1",
			want:    StepWon,
		},
		{
			name:    "settled self won",
			stage:   eligibility.StageVerifiedWithDeposit,
			auction: domain.Auction{State: domain.StateSettled, ReserveMet: domain.TriTrue, Winner: winner},
			selfID:  "u1",
			want:    StepSettled,
		},
		{
			name:    "ended someone else won",
			stage:   eligibility.StageVerifiedWithDeposit,
			auction: domain.Auction{State: domain.StateEnded, ReserveMet: domain.TriTrue, Winner: rival},
			selfID:  "u1",
			want:    StepLost,
		},
		{
			name:    "ended outcome unknown",
			stage:   eligibility.StageAnonymous,
			auction: domain.Auction{State: domain.StateEnded},
			want:    StepEnded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveViewStep(tt.stage, &tt.auction, tt.selfID); got != tt.want {
				t.Errorf("DeriveViewStep() = %s, want %s", got, tt.want)
			}
		})
	}
}

// The step is recomputed from source state, so a lifecycle change alone must
// flip the step with no other input changing.
func TestDeriveViewStepFollowsLifecycle(t *testing.T) {
	a := domain.Auction{State: domain.StateLive, DepositAmount: 100}
	stage := eligibility.StageVerifiedNoDeposit

	if got := DeriveViewStep(stage, &a, "u1"); got != StepPayDeposit {
		t.Fatalf("live step = %s, want pay_deposit", got)
	}

	a.State = domain.StateEnded
	a.ReserveMet = domain.TriFalse
	if got := DeriveViewStep(stage, &a, "u1"); got != StepNoWinner {
		t.Errorf("ended step = %s, want no_winner (not a stale pay_deposit)", got)
	}
}
