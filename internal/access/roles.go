// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package access

// Permission groups define reusable sets of permissions.
// Roles compose these groups rather than inheriting.

var readerPowers = []string{
	"read:candidate",
}

var recruiterPowers = []string{
	"create:candidate",
}

var adminPowers = []string{
	"read:*",
	"create:*",
	"update:*",
	"delete:*",
}

// DefaultRoles returns the default role definitions.
// Roles compose permission groups explicitly (no inheritance).
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"manager":   readerPowers,
		"recruiter": compose(readerPowers, recruiterPowers),
		"admin":     compose(readerPowers, recruiterPowers, adminPowers),
	}
}

// compose merges multiple permission slices into one.
func compose(groups ...[]string) []string {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	result := make([]string, 0, total)
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}
