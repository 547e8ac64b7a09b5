package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store/memstore"
	"github.com/harentsoaR/reliefnet-api/internal/utils"
)

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	user, err := createAdmin(ctx, st.Users, "root", "hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.IsApproved)

	stored, err := st.Users.FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("hunter22", stored.Password))

	_, err = createAdmin(ctx, st.Users, "root", "another1", bcrypt.MinCost)
	assert.ErrorContains(t, err, "already exists")
}

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, checkPassword("hunter22"))
	assert.NoError(t, checkPassword(strings.Repeat("a", 72)))
	assert.ErrorContains(t, checkPassword("short"), "at least 6")
	assert.ErrorContains(t, checkPassword(strings.Repeat("a", 80)), "at most 72")
}
