package enums

import (
	"fmt"
	"strings"
)

// MemberRole is the tenant-level role carried in access tokens. Admins edit
// pricing configuration; analysts read it and run quotes and reports.
type MemberRole string

const (
	MemberRoleAdmin   MemberRole = "admin"
	MemberRoleAnalyst MemberRole = "analyst"
)

// String implements fmt.Stringer.
func (r MemberRole) String() string {
	return string(r)
}

func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleAdmin, MemberRoleAnalyst:
		return true
	}
	return false
}

// CanEditPricing reports whether the role may change price books, combos,
// variants, orders or ad spend.
func (r MemberRole) CanEditPricing() bool {
	return r == MemberRoleAdmin
}

// ParseMemberRole accepts role names case-insensitively.
func ParseMemberRole(value string) (MemberRole, error) {
	role := MemberRole(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role %q", value)
	}
	return role, nil
}
