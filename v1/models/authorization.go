package models

import "strings"

// Role represents a member's organizational role
type Role string

const (
	RoleRushee   Role = "rushee"
	RoleActive   Role = "active"
	RoleMemco    Role = "memco"
	RoleDirector Role = "director"
	RoleEboard   Role = "eboard"
)

// Permission represents a capability granted by a role
type Permission string

const (
	PermissionViewRushPages     Permission = "rush:view"
	PermissionSubmitApplication Permission = "rush:submit"
	PermissionAcceptBid         Permission = "rush:accept"
	PermissionViewTracker       Permission = "tracker:view"
	PermissionAdvanceRushee     Permission = "tracker:advance"
	PermissionEditOwnProfile    Permission = "profile:update"
)

// RolePermissions defines what permissions each role has
var RolePermissions = map[Role][]Permission{
	RoleRushee: {
		PermissionViewRushPages, PermissionSubmitApplication, PermissionAcceptBid, PermissionEditOwnProfile,
	},
	RoleActive: {
		PermissionViewTracker, PermissionEditOwnProfile,
	},
	RoleMemco: {
		PermissionViewTracker, PermissionEditOwnProfile,
	},
	RoleDirector: {
		PermissionViewTracker, PermissionAdvanceRushee, PermissionEditOwnProfile,
	},
	RoleEboard: {
		PermissionViewTracker, PermissionAdvanceRushee, PermissionEditOwnProfile,
	},
}

// ParseRole matches a stored role case-insensitively
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// IsValid checks if the role is one of the recognized roles
func (r Role) IsValid() bool {
	_, exists := RolePermissions[r]
	return exists
}

// HasPermission checks if a role has a specific permission
func (r Role) HasPermission(permission Permission) bool {
	for _, p := range RolePermissions[r] {
		if p == permission {
			return true
		}
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// EboardTitle is the position held by an eboard member
type EboardTitle string

const (
	TitlePresident    EboardTitle = "President"
	TitleMOR          EboardTitle = "MOR"
	TitleVPInternal   EboardTitle = "VP Internal"
	TitleVPExternal   EboardTitle = "VP External"
	TitleVPFinance    EboardTitle = "VP Finance"
	TitleVPOperations EboardTitle = "VP Operations"
)

// EboardTitles is the closed set of recognized titles
var EboardTitles = []EboardTitle{
	TitlePresident, TitleMOR, TitleVPInternal, TitleVPExternal, TitleVPFinance, TitleVPOperations,
}

// ParseEboardTitle matches a stored title ignoring case and surrounding/duplicate whitespace
func ParseEboardTitle(raw *string) (EboardTitle, bool) {
	if raw == nil {
		return "", false
	}
	normalized := strings.Join(strings.Fields(*raw), " ")
	for _, title := range EboardTitles {
		if strings.EqualFold(normalized, string(title)) {
			return title, true
		}
	}
	return "", false
}
