package tokenx

import "time"

// Role is the coarse access level carried by a verified token. Anything not
// explicitly user or admin collapses to anonymous rather than erroring, so a
// token minted with an unknown role can never grant more than nothing.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a raw claim value onto a known Role.
func ParseRole(s string) Role {
	switch s {
	case string(RoleUser):
		return RoleUser
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleAnonymous
	}
}

// Principal is the resolved identity of a caller, derived fresh per request
// from a verified token and never persisted. This is the one canonical shape
// downstream code consumes; all claim normalization happens inside Verify.
type Principal struct {
	SubjectID   string
	DisplayName string
	Email       string
	Role        Role
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// AnonymousSubjectID is the sentinel subject for unauthenticated callers.
const AnonymousSubjectID = "anonymous"

// Anonymous returns the fallback Principal used when a route tolerates
// unauthenticated traffic.
func Anonymous() Principal {
	return Principal{
		SubjectID: AnonymousSubjectID,
		Role:      RoleAnonymous,
	}
}

// IsAnonymous reports whether p carries no authenticated identity.
func (p Principal) IsAnonymous() bool {
	return p.SubjectID == "" || p.SubjectID == AnonymousSubjectID
}

// IsAdmin reports whether p holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Owns reports whether p is the owner of a resource with the given owner id.
// Anonymous principals own nothing, even if a resource somehow carries the
// anonymous sentinel as its owner.
func (p Principal) Owns(ownerID string) bool {
	return !p.IsAnonymous() && p.SubjectID == ownerID
}
