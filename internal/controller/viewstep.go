package controller

import (
	"github.com/alanyoungcy/bidroom/internal/domain"
	"github.com/alanyoungcy/bidroom/internal/eligibility"
)

// Step is what the auction view should show right now. It is always derived
// from source state via DeriveViewStep, never stored and mutated ad hoc, so
// a lifecycle change can never leave the view stuck on a stale stage.
type Step int

const (
	StepLoading       Step = iota
	StepAwaitStart         // auction is scheduled, counting down to start
	StepRegister           // live, but the viewer is anonymous
	StepVerify             // live, registered, identity verification not started
	StepVerifyPending      // live, verification submitted and under review
	StepPayDeposit         // live, verified, deposit still unpaid
	StepBid                // live, fully eligible
	StepEnded              // over, outcome not yet known
	StepWon                // over, the viewer holds the winning bid
	StepLost               // over, someone else won
	StepNoWinner           // over, reserve price was not met
	StepSettled            // settlement order created
)

func (s Step) String() string {
	switch s {
	case StepLoading:
		return "loading"
	case StepAwaitStart:
		return "await_start"
	case StepRegister:
		return "register"
	case StepVerify:
		return "verify"
	case StepVerifyPending:
		return "verify_pending"
	case StepPayDeposit:
		return "pay_deposit"
	case StepBid:
		return "bid"
	case StepEnded:
		return "ended"
	case StepWon:
		return "won"
	case StepLost:
		return "lost"
	case StepNoWinner:
		return "no_winner"
	case StepSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// DeriveViewStep maps (eligibility stage, auction lifecycle, reserve verdict,
// winner) to the step the view should show. selfID is the current session's
// user ID, empty for anonymous viewers.
func DeriveViewStep(stage eligibility.Stage, a *domain.Auction, selfID string) Step {
	switch {
	case a.State == domain.StateScheduled:
		return StepAwaitStart

	case a.State.Over():
		if a.ReserveMet == domain.TriFalse {
			return StepNoWinner
		}
		if a.Winner != nil {
			if selfID != "" && a.Winner.UserID == selfID {
				if a.State == domain.StateSettled {
					return StepSettled
				}
				return StepWon
			}
			return StepLost
		}
		return StepEnded

	case a.State == domain.StateLive:
		switch stage {
		case eligibility.StageAnonymous:
			return StepRegister
		case eligibility.StageRegistered:
			return StepVerify
		case eligibility.StageVerificationPending:
			return StepVerifyPending
		case eligibility.StageVerifiedNoDeposit:
			if a.RequiresDeposit() {
				return StepPayDeposit
			}
			return StepBid
		default:
			return StepBid
		}
	}

	return StepLoading
}
