package access

import "github.com/iliyamo/campaign-tracker/internal/model"

// Identity is what the identity provider vouches for: a stable id and the
// email it was issued to. The zero value is "nobody signed in".
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Anonymous reports whether no identity is present.
func (i Identity) Anonymous() bool { return i.UID == "" }

// Session is the resolved caller: identity plus the role and suspension flag
// read from the caller's profile. It is built per request and passed
// explicitly into every workflow call.
type Session struct {
	Identity
	Role      model.Role `json:"role"`
	Suspended bool       `json:"suspended"`
}

// NewSession builds a session from an identity and its profile.
func NewSession(id Identity, p model.UserProfile) Session {
	return Session{Identity: id, Role: p.Role, Suspended: p.Suspended}
}

// Can reports whether the session holds capability c.
func (s Session) Can(c Capability) bool {
	for _, have := range For(s.Role, s.Suspended) {
		if have == c {
			return true
		}
	}
	return false
}

// Capabilities lists everything the session may do.
func (s Session) Capabilities() []Capability { return For(s.Role, s.Suspended) }
