package auth

import "testing"

// ownedResource is a minimal Owned implementation for gate tests.
type ownedResource struct {
	owner string
}

func (r *ownedResource) Owner() string {
	return r.owner
}

func TestIdentity(t *testing.T) {
	anon := Anonymous()
	if anon.Authenticated() {
		t.Error("Anonymous().Authenticated() = true, want false")
	}
	if anon.Username() != "" {
		t.Errorf("Anonymous().Username() = %q, want empty", anon.Username())
	}
	if anon.String() != "anonymous" {
		t.Errorf("Anonymous().String() = %q, want %q", anon.String(), "anonymous")
	}

	alice := AuthenticatedAs("alice")
	if !alice.Authenticated() {
		t.Error("AuthenticatedAs().Authenticated() = false, want true")
	}
	if alice.Username() != "alice" {
		t.Errorf("Username() = %q, want %q", alice.Username(), "alice")
	}
	if alice.String() != "user:alice" {
		t.Errorf("String() = %q, want %q", alice.String(), "user:alice")
	}
}

func TestCheckSelf(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		username string
		want     Decision
	}{
		{
			name:     "self access allowed",
			identity: AuthenticatedAs("alice"),
			username: "alice",
			want:     Allow,
		},
		{
			name:     "other user denied",
			identity: AuthenticatedAs("alice"),
			username: "bob",
			want:     Deny,
		},
		{
			name:     "anonymous denied",
			identity: Anonymous(),
			username: "alice",
			want:     Deny,
		},
		{
			name:     "anonymous denied for empty username",
			identity: Anonymous(),
			username: "",
			want:     Deny,
		},
		{
			name:     "authenticated denied for empty username",
			identity: AuthenticatedAs("alice"),
			username: "",
			want:     Deny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckSelf(tt.identity, tt.username); got != tt.want {
				t.Errorf("CheckSelf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckOwnership(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		resource Owned
		want     Decision
	}{
		{
			name:     "owner allowed",
			identity: AuthenticatedAs("alice"),
			resource: &ownedResource{owner: "alice"},
			want:     Allow,
		},
		{
			name:     "non-owner denied",
			identity: AuthenticatedAs("bob"),
			resource: &ownedResource{owner: "alice"},
			want:     Deny,
		},
		{
			name:     "anonymous denied",
			identity: Anonymous(),
			resource: &ownedResource{owner: "alice"},
			want:     Deny,
		},
		{
			name:     "nil resource denied",
			identity: AuthenticatedAs("alice"),
			resource: nil,
			want:     Deny,
		},
		{
			name:     "ownerless resource denied",
			identity: AuthenticatedAs("alice"),
			resource: &ownedResource{owner: ""},
			want:     Deny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckOwnership(tt.identity, tt.resource); got != tt.want {
				t.Errorf("CheckOwnership() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateCSRF(t *testing.T) {
	tests := []struct {
		name      string
		session   string
		submitted string
		want      bool
	}{
		{name: "matching tokens", session: "abc123", submitted: "abc123", want: true},
		{name: "mismatched tokens", session: "abc123", submitted: "abc124", want: false},
		{name: "empty submitted", session: "abc123", submitted: "", want: false},
		{name: "empty session", session: "", submitted: "abc123", want: false},
		{name: "both empty", session: "", submitted: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateCSRF(tt.session, tt.submitted); got != tt.want {
				t.Errorf("ValidateCSRF() = %v, want %v", got, tt.want)
			}
		})
	}
}
