package auth

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Deny is the default decision. Anything not explicitly allowed is denied.
	Deny Decision = iota

	// Allow grants access.
	Allow
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d == Allow
}

// Owned is a resource with a single owning user.
type Owned interface {
	// Owner returns the username of the resource owner.
	Owner() string
}

// CheckSelf decides whether the identity may act on the account named by
// username. Only the account holder themselves is allowed; anonymous
// identities are always denied.
func CheckSelf(id Identity, username string) Decision {
	if !id.Authenticated() {
		return Deny
	}
	if username == "" || id.Username() != username {
		return Deny
	}
	return Allow
}

// CheckOwnership decides whether the identity may act on the resource.
// Only the resource's owner is allowed; anonymous identities and nil
// resources are always denied.
func CheckOwnership(id Identity, res Owned) Decision {
	if !id.Authenticated() || res == nil {
		return Deny
	}
	if res.Owner() == "" || id.Username() != res.Owner() {
		return Deny
	}
	return Allow
}
