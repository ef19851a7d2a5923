// Package gate decides whether a protected view may render for the current
// session. It is a UX convenience only: the remote API is the authority and
// every mutating call still carries the bearer credential.
package gate

import (
	"github.com/tiendita/storefront/internal/core/domain"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Outcome is what a gate tells the caller to do.
type Outcome int

const (
	// Wait means the session is not known yet; neither render nor redirect.
	Wait Outcome = iota
	Render
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "wait"
	}
}

// Decision is an Outcome plus the destination for redirects.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Gate guards a view. A zero RequiredRole only requires a signed-in session.
type Gate struct {
	RequiredRole domain.Role
}

// LoggedIn is the gate for views that need any signed-in identity.
var LoggedIn = Gate{}

// Role returns a gate that additionally requires role.
func Role(role domain.Role) Gate {
	return Gate{RequiredRole: role}
}

// Decide applies the rule in order: unknown session waits, empty session
// goes to login, role mismatch goes home, anything else renders.
func (g Gate) Decide(s domain.Session) Decision {
	switch s.State() {
	case domain.SessionUnknown:
		return Decision{Outcome: Wait}
	case domain.SessionEmpty:
		return Decision{Outcome: RedirectLogin, Location: LoginPath}
	}

	identity, _ := s.Identity()
	if g.RequiredRole != "" && identity.Role != g.RequiredRole {
		return Decision{Outcome: RedirectHome, Location: HomePath}
	}
	return Decision{Outcome: Render}
}

// Evaluate runs nested gates outside-in against one session snapshot and
// returns the first decision that is not Render.
func Evaluate(s domain.Session, gates ...Gate) Decision {
	for _, g := range gates {
		if d := g.Decide(s); d.Outcome != Render {
			return d
		}
	}
	return Decision{Outcome: Render}
}
