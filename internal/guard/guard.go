// Package guard decides whether the current session may enter a route
// and where to send it otherwise.
package guard

import (
	"brewcart/internal/models"
)

// Disposition classifies a route by who may enter it.
type Disposition int

const (
	// Public routes are open to everyone.
	Public Disposition = iota
	// AuthOnly routes require a signed-in session.
	AuthOnly
	// PublicOnly routes are for signed-out visitors, such as login and
	// registration.
	PublicOnly
	// AdminOnly routes require an admin or super admin role.
	AdminOnly
	// SuperAdminOnly routes require the super admin role.
	SuperAdminOnly
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonLoading         Reason = "loading"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonAuthenticated   Reason = "authenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Well-known routes the guard redirects to.
const (
	RouteHome      = "/"
	RouteLogin     = "/login"
	RouteForbidden = "/forbidden"
)

// Decision is the outcome of evaluating a route against the session.
type Decision struct {
	// Allow grants entry to the requested route.
	Allow bool
	// Placeholder asks the caller to render a neutral loading state
	// because the session is still rehydrating. Nothing else in the
	// decision is meaningful while it is set.
	Placeholder bool
	// RedirectTo names the route to send the visitor to instead.
	RedirectTo string
	// From carries the originally requested route so a later login can
	// return there.
	From string
	// Reason explains why entry was denied.
	Reason Reason
}

// Sessions is the slice of the session store the guard reads.
type Sessions interface {
	Ready() bool
	Current() *models.Session
}

type Guard struct {
	sessions Sessions
}

func New(sessions Sessions) *Guard {
	return &Guard{sessions: sessions}
}

// Decide evaluates a route. While the session store is still
// rehydrating it returns a placeholder decision instead of guessing,
// so a signed-in visitor is never bounced to login during startup.
func (g *Guard) Decide(disposition Disposition, route string) Decision {
	if !g.sessions.Ready() {
		return Decision{Placeholder: true, Reason: ReasonLoading}
	}

	current := g.sessions.Current()

	switch disposition {
	case Public:
		return Decision{Allow: true}

	case PublicOnly:
		if current != nil {
			return Decision{RedirectTo: RouteHome, Reason: ReasonAuthenticated}
		}
		return Decision{Allow: true}

	case AuthOnly:
		if current == nil {
			return Decision{RedirectTo: RouteLogin, From: route, Reason: ReasonUnauthenticated}
		}
		return Decision{Allow: true}

	case AdminOnly:
		if current == nil {
			return Decision{RedirectTo: RouteLogin, From: route, Reason: ReasonUnauthenticated}
		}
		if !Can(current.Identity.Role, CapManageContent) {
			return Decision{RedirectTo: RouteForbidden, Reason: ReasonForbidden}
		}
		return Decision{Allow: true}

	case SuperAdminOnly:
		if current == nil {
			return Decision{RedirectTo: RouteLogin, From: route, Reason: ReasonUnauthenticated}
		}
		if !Can(current.Identity.Role, CapManageAdmins) {
			return Decision{RedirectTo: RouteForbidden, Reason: ReasonForbidden}
		}
		return Decision{Allow: true}
	}

	return Decision{RedirectTo: RouteForbidden, Reason: ReasonForbidden}
}

// Capability names an action a role may or may not perform.
type Capability string

const (
	// CapManageContent covers product and testimonial administration.
	CapManageContent Capability = "manage_content"
	// CapManageAdmins covers creating and removing admin accounts.
	CapManageAdmins Capability = "manage_admins"
)

// Can is the single place role-to-capability checks live. Callers ask
// about capabilities rather than comparing role strings themselves.
func Can(role models.Role, capability Capability) bool {
	switch capability {
	case CapManageContent:
		return role == models.RoleAdmin || role == models.RoleSuperAdmin
	case CapManageAdmins:
		return role == models.RoleSuperAdmin
	}
	return false
}
