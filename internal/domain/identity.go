package domain

// Identity is the minimal authenticated caller state carried by the
// session cookie. Role is a cached copy of the role at login time and is
// re-verified against the database only for privileged actions.
type Identity struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the cached role claims admin. Callers gating
// privileged actions must confirm against the credential store as well.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
