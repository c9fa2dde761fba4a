package domain

// VerificationTier is the account KYC level reported by the auth collaborator.
type VerificationTier string

const (
	TierNone     VerificationTier = "none"
	TierPending  VerificationTier = "pending"
	TierVerified VerificationTier = "verified"
)

// Identity is the current session identity. The zero value is a valid
// anonymous viewer.
type Identity struct {
	UserID        string
	Label         string // display name shown next to bids
	Token         string // opaque session token for API and push auth
	Tier          VerificationTier
	Authenticated bool
}

// SessionStore exposes the current identity and verification tier. The
// auction subsystem only ever reads from it; login and KYC transitions are
// owned by the auth collaborator.
type SessionStore interface {
	Identity() Identity
}
