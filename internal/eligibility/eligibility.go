// Package eligibility resolves the gating stage that decides which auction
// action a user may take next. Resolution is a pure computation over facts
// the controller already holds; in particular it never queries deposit
// status itself, because deposit confirmation can lag a just-completed
// payment redirect and needs the controller's bounded recheck instead.
package eligibility

import "github.com/alanyoungcy/bidroom/internal/domain"

// Stage is the ordered permission tier. Comparisons with < and >= are
// meaningful: an action requiring StageVerifiedNoDeposit is available to any
// stage at or above it.
type Stage int

const (
	StageAnonymous Stage = iota
	StageRegistered
	StageVerificationPending
	StageVerifiedNoDeposit
	StageVerifiedWithDeposit
)

func (s Stage) String() string {
	switch s {
	case StageAnonymous:
		return "anonymous"
	case StageRegistered:
		return "registered"
	case StageVerificationPending:
		return "verification_pending"
	case StageVerifiedNoDeposit:
		return "verified_no_deposit"
	case StageVerifiedWithDeposit:
		return "verified_with_deposit"
	default:
		return "unknown"
	}
}

// Input is everything stage resolution depends on.
type Input struct {
	Authenticated    bool
	Tier             domain.VerificationTier
	RequiresDeposit  bool
	DepositConfirmed bool
}

// Resolve maps the current session and per-auction deposit status to a
// stage. Same inputs always produce the same stage.
func Resolve(in Input) Stage {
	if !in.Authenticated {
		return StageAnonymous
	}
	switch in.Tier {
	case domain.TierPending:
		return StageVerificationPending
	case domain.TierVerified:
		// Listings without a deposit requirement skip straight to the top
		// stage once verified.
		if !in.RequiresDeposit || in.DepositConfirmed {
			return StageVerifiedWithDeposit
		}
		return StageVerifiedNoDeposit
	default:
		return StageRegistered
	}
}
