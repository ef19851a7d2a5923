package domain

import "errors"

// Role is the coarse permission level carried by an Identity.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// Identity models the authenticated actor using this client.
// Values are copied, never shared: holders cannot mutate the session's copy.
type Identity struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Credentials are the inputs of the authenticate operation.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration carries the inputs of the register operation. Role is
// optional; the remote API decides the default.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// AuthResult is what the auth collaborator returns on success.
type AuthResult struct {
	Token    string   `json:"token"`
	Identity Identity `json:"user"`
}

var ErrIncompleteSession = errors.New("session pair incomplete")

// SessionState distinguishes "not yet known" from "known absent".
type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionEmpty
	SessionPresent
)

func (s SessionState) String() string {
	switch s {
	case SessionEmpty:
		return "empty"
	case SessionPresent:
		return "present"
	default:
		return "unknown"
	}
}

// Session pairs an Identity with its bearer credential. The zero value is an
// Unknown session; use NewSession and EmptySession to build the others.
type Session struct {
	state    SessionState
	identity Identity
	token    string
}

// NewSession builds a Present session. Both halves of the pair are required.
func NewSession(identity Identity, token string) (Session, error) {
	if identity.ID == "" || token == "" {
		return Session{}, ErrIncompleteSession
	}
	return Session{state: SessionPresent, identity: identity, token: token}, nil
}

// EmptySession is the known-absent session.
func EmptySession() Session {
	return Session{state: SessionEmpty}
}

func (s Session) State() SessionState { return s.state }

// Known reports whether restore has completed for this session.
func (s Session) Known() bool { return s.state != SessionUnknown }

// Present reports whether an identity and credential are installed.
func (s Session) Present() bool { return s.state == SessionPresent }

// Identity returns a copy of the identity and whether one is present.
func (s Session) Identity() (Identity, bool) {
	return s.identity, s.state == SessionPresent
}

// Token returns the bearer credential, empty unless the session is Present.
func (s Session) Token() string {
	if s.state != SessionPresent {
		return ""
	}
	return s.token
}
