// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// PermissionType is the ordered scale of calendar permissions.
// Each level implies every level below it.
type PermissionType string

const (
	PermissionView   PermissionType = "view"
	PermissionCreate PermissionType = "create"
	PermissionEdit   PermissionType = "edit"
	PermissionDelete PermissionType = "delete"
	PermissionAdmin  PermissionType = "admin"
)

var permissionRanks = map[PermissionType]int{
	PermissionView:   1,
	PermissionCreate: 2,
	PermissionEdit:   3,
	PermissionDelete: 4,
	PermissionAdmin:  5,
}

// Rank returns the ordering of the permission on the
// view < create < edit < delete < admin scale, or 0 for unknown values.
func (p PermissionType) Rank() int {
	return permissionRanks[p]
}

// IsValid returns true if the permission type is a known valid value.
func (p PermissionType) IsValid() bool {
	return p.Rank() > 0
}

// Covers reports whether holding p satisfies a requirement of required.
func (p PermissionType) Covers(required PermissionType) bool {
	return p.Rank() >= required.Rank() && required.Rank() > 0
}

// GranteeKind discriminates who a permission was granted to.
type GranteeKind string

const (
	GranteeKindChurch GranteeKind = "church"
	GranteeKindUser   GranteeKind = "user"
	GranteeKindRole   GranteeKind = "role"
)

// Grantee is a tagged union identifying the receiver of a grant.
type Grantee struct {
	Kind GranteeKind `json:"kind"`
	UID  string      `json:"uid"`
}

// ChurchGrantee builds a grantee for every member of a church.
func ChurchGrantee(uid string) Grantee { return Grantee{Kind: GranteeKindChurch, UID: uid} }

// UserGrantee builds a grantee for a single user.
func UserGrantee(uid string) Grantee { return Grantee{Kind: GranteeKindUser, UID: uid} }

// RoleGrantee builds a grantee for every holder of a role claim.
func RoleGrantee(uid string) Grantee { return Grantee{Kind: GranteeKindRole, UID: uid} }

// Validate checks the grantee is populated.
func (g Grantee) Validate() error {
	switch g.Kind {
	case GranteeKindChurch, GranteeKindUser, GranteeKindRole:
	default:
		return fmt.Errorf("unknown grantee kind %q", g.Kind)
	}
	if g.UID == "" {
		return fmt.Errorf("grantee uid is required")
	}
	return nil
}

// CalendarPermission is a cross-organization sharing grant.
// Revocation flips IsActive; rows are never deleted so the grant history
// stays auditable.
type CalendarPermission struct {
	UID         string         `json:"uid"`
	CalendarUID string         `json:"calendar_uid"`
	Grantee     Grantee        `json:"grantee"`
	Type        PermissionType `json:"type"`
	GrantedBy   string         `json:"granted_by"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// Effective reports whether the grant should be honored at the given time.
// Expired or inactive grants are treated as absent.
func (p *CalendarPermission) Effective(now time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return false
	}
	return true
}
