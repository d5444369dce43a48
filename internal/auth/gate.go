package auth

// Requirement is the access level a route demands. It is fixed when the
// route is registered.
type Requirement uint8

const (
	RequireNone Requirement = iota
	RequireUser
	RequireAdmin
)

func (r Requirement) String() string {
	switch r {
	case RequireUser:
		return "user"
	case RequireAdmin:
		return "admin"
	default:
		return "none"
	}
}

// RejectReason explains why a request was not allowed through.
type RejectReason uint8

const (
	// RejectUnauthenticated means no valid session was found.
	RejectUnauthenticated RejectReason = iota + 1
	// RejectForbidden means a session exists but its role is insufficient.
	RejectForbidden
)

func (r RejectReason) String() string {
	switch r {
	case RejectUnauthenticated:
		return "unauthenticated"
	case RejectForbidden:
		return "forbidden"
	default:
		return "none"
	}
}

// Decision is the outcome of Authorize. Reason is zero when Allowed.
type Decision struct {
	Allowed bool
	Reason  RejectReason
}

var (
	allow                 = Decision{Allowed: true}
	rejectUnauthenticated = Decision{Reason: RejectUnauthenticated}
	rejectForbidden       = Decision{Reason: RejectForbidden}
)

// Authorize decides whether a request holding session may pass a route
// that demands req. A nil session means no session was resolved.
//
// Admin satisfies every requirement user satisfies.
func Authorize(session *Session, req Requirement) Decision {
	switch req {
	case RequireNone:
		return allow
	case RequireUser:
		if session == nil {
			return rejectUnauthenticated
		}
		return allow
	case RequireAdmin:
		if session == nil {
			return rejectUnauthenticated
		}
		if !session.Principal.Role.Satisfies(RoleAdmin) {
			return rejectForbidden
		}
		return allow
	default:
		// Unknown requirements never open a route.
		return rejectForbidden
	}
}
