// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package access implements role-based permission checks for resource
// endpoints. Roles map to glob permission patterns of the form
// "action:resource"; a request is allowed when any pattern of the caller's
// role matches the requested action:resource pair.
package access

import (
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// RoleTable holds compiled role definitions. Immutable after construction and
// safe for concurrent use without synchronization.
type RoleTable struct {
	roles map[string][]compiledPermission
}

// compiledPermission holds a permission pattern and its compiled glob.
type compiledPermission struct {
	pattern string
	glob    glob.Glob
}

// NewRoleTable compiles a role → permission-patterns map. Returns an error if
// any pattern fails to compile.
func NewRoleTable(roles map[string][]string) (*RoleTable, error) {
	compiled := make(map[string][]compiledPermission, len(roles))
	for role, perms := range roles {
		entries := make([]compiledPermission, 0, len(perms))
		for _, p := range perms {
			// Use ':' as separator so "*" matches a single segment.
			g, err := glob.Compile(p, ':')
			if err != nil {
				return nil, oops.In("access").
					Code("INVALID_PERMISSION_PATTERN").
					With("role", role).
					With("pattern", p).
					Wrap(err)
			}
			entries = append(entries, compiledPermission{pattern: p, glob: g})
		}
		compiled[role] = entries
	}
	return &RoleTable{roles: compiled}, nil
}

// NewDefaultRoleTable creates a RoleTable from DefaultRoles.
//
// Panics if the default patterns fail to compile (code bug, fail fast).
func NewDefaultRoleTable() *RoleTable {
	table, err := NewRoleTable(DefaultRoles())
	if err != nil {
		panic("invalid permission pattern in DefaultRoles: " + err.Error())
	}
	return table
}

// Check reports whether the role allows the action on the resource. Unknown
// roles and empty roles are denied.
func (t *RoleTable) Check(role, action, resource string) bool {
	permissions, ok := t.roles[role]
	if !ok {
		return false
	}

	requested := action + ":" + resource
	for _, perm := range permissions {
		if perm.glob.Match(requested) {
			return true
		}
	}
	return false
}

// Known reports whether the role exists in the table.
func (t *RoleTable) Known(role string) bool {
	_, ok := t.roles[role]
	return ok
}
