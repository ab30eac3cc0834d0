// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libria/internal/platform/sec"
)

/*
TestPasswordHash_RoundTrip verifies bcrypt hashing and verification.
*/
func TestPasswordHash_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
	assert.False(t, sec.CheckPasswordHash("correct horse battery staple", ""))
}

/*
TestGenerateSecureToken verifies token length and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	// 32 random bytes base64url-encode to 43 characters without padding.
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}

/*
TestHashToken verifies that token digests are deterministic and hex-encoded.
*/
func TestHashToken(t *testing.T) {
	digest := sec.HashToken("some-bearer-token")

	assert.Len(t, digest, 64) // SHA-256 hex
	assert.Equal(t, digest, sec.HashToken("some-bearer-token"))
	assert.NotEqual(t, digest, sec.HashToken("other-token"))
}

/*
TestRole_AtLeast verifies the role hierarchy ordering.
*/
func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     sec.Role
		target   sec.Role
		expected bool
	}{
		{"member_vs_member", sec.RoleMember, sec.RoleMember, true},
		{"member_vs_librarian", sec.RoleMember, sec.RoleLibrarian, false},
		{"librarian_vs_member", sec.RoleLibrarian, sec.RoleMember, true},
		{"admin_vs_librarian", sec.RoleAdmin, sec.RoleLibrarian, true},
		{"super_admin_vs_admin", sec.RoleSuperAdmin, sec.RoleAdmin, true},
		{"unknown_vs_member", sec.Role("ghost"), sec.RoleMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.AtLeast(tt.target))
		})
	}
}
