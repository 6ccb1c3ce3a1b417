// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package domain

// Role claims recognized by the calendar service. Claims are issued by the
// identity facade; the service only consumes them.
const (
	// ClaimGlobalBypass short-circuits every permission evaluation to true.
	ClaimGlobalBypass = "all"
	// ClaimEventApprove lets its holder act as a first-stage approver in
	// place of the configured first approver identity.
	ClaimEventApprove = "event_approve"
)

// Actor is the identity performing an operation, supplied by the external
// identity and permission facade. The calendar service never authenticates;
// it only evaluates the claims it is handed.
type Actor struct {
	UID             string   `json:"uid"`
	OrganizationIDs []string `json:"organization_ids,omitempty"`
	RoleClaims      []string `json:"role_claims,omitempty"`
}

// HasClaim reports whether the actor carries the given role claim.
func (a Actor) HasClaim(claim string) bool {
	for _, c := range a.RoleClaims {
		if c == claim {
			return true
		}
	}
	return false
}

// IsGlobalAdmin reports whether the actor holds the global bypass claim.
func (a Actor) IsGlobalAdmin() bool {
	return a.HasClaim(ClaimGlobalBypass)
}

// MemberOf reports whether the actor belongs to the given organization.
func (a Actor) MemberOf(orgID string) bool {
	for _, id := range a.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}
