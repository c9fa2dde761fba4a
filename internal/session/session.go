// Package session is the read-only session store the auction subsystem
// consumes. The headless client has no login flow; identity comes from
// configuration and stays fixed for the process lifetime. An empty identity
// is a valid anonymous viewer.
package session

import (
	"github.com/alanyoungcy/bidroom/internal/domain"
)

// StaticStore serves one fixed identity.
type StaticStore struct {
	id domain.Identity
}

// NewStaticStore builds a store from configured credentials. An empty userID
// yields an anonymous identity regardless of the other fields.
func NewStaticStore(userID, label, token string, tier domain.VerificationTier) *StaticStore {
	if userID == "" {
		return &StaticStore{}
	}
	if tier == "" {
		tier = domain.TierNone
	}
	return &StaticStore{id: domain.Identity{
		UserID:        userID,
		Label:         label,
		Token:         token,
		Tier:          tier,
		Authenticated: true,
	}}
}

// Identity returns the configured identity.
func (s *StaticStore) Identity() domain.Identity {
	return s.id
}

var _ domain.SessionStore = (*StaticStore)(nil)
