package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenClaims_Access(t *testing.T) {
	owner := &TokenClaims{UserID: "user-1", Role: UserRoleUser}
	other := &TokenClaims{UserID: "user-2", Role: UserRoleUser}
	admin := &TokenClaims{UserID: "admin-1", Role: UserRoleAdmin}
	var anonymous *TokenClaims

	assert.True(t, owner.CanAccess("user-1"))
	assert.False(t, other.CanAccess("user-1"))
	assert.True(t, admin.CanAccess("user-1"))
	assert.False(t, anonymous.CanAccess("user-1"))

	assert.True(t, admin.IsAdmin())
	assert.False(t, owner.IsAdmin())
	assert.False(t, anonymous.IsAdmin())
}
