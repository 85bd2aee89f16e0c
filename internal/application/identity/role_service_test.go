package identity

import (
	"context"
	"testing"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRoleService_Create(t *testing.T) {
	ctx := context.Background()
	roles, users := new(MockRoleRepository), new(MockUserRepository)
	svc := NewRoleService(roles, users, zap.NewNop())

	roles.On("ExistsByCode", mock.Anything, "EDITOR").Return(false, nil)
	roles.On("Create", mock.Anything, mock.AnythingOfType("*identity.Role")).Return(nil)

	dto, err := svc.Create(ctx, CreateRoleInput{
		Code:        "editor",
		Name:        "Editor",
		Description: "Edits products",
		Permissions: []string{"product:update", "product:read", "product:read"},
	})
	require.NoError(t, err)
	assert.Equal(t, "EDITOR", dto.Code)
	assert.Equal(t, []string{"product:read", "product:update"}, dto.Permissions)

	roles.On("ExistsByCode", mock.Anything, "X").Return(false, nil)
	_, err = svc.Create(ctx, CreateRoleInput{Code: "X", Name: "X", Permissions: []string{"rocket:launch"}})
	requireCode(t, err, "INVALID_PERMISSION")
}

func TestRoleService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("system role", func(t *testing.T) {
		roles, users := new(MockRoleRepository), new(MockUserRepository)
		svc := NewRoleService(roles, users, zap.NewNop())
		role, err := identity.NewSystemRole("SUPER_ADMIN", "Super", nil)
		require.NoError(t, err)
		roles.On("FindByID", mock.Anything, role.ID).Return(role, nil)

		requireCode(t, svc.Delete(ctx, role.ID), "CANNOT_DELETE_SYSTEM_ROLE")
	})

	t.Run("role in use", func(t *testing.T) {
		roles, users := new(MockRoleRepository), new(MockUserRepository)
		svc := NewRoleService(roles, users, zap.NewNop())
		role, err := identity.NewRole("TEMP", "Temp")
		require.NoError(t, err)
		roles.On("FindByID", mock.Anything, role.ID).Return(role, nil)
		users.On("CountByRole", mock.Anything, role.ID).Return(int64(2), nil)

		requireCode(t, svc.Delete(ctx, role.ID), "ROLE_IN_USE")
	})

	t.Run("unused role", func(t *testing.T) {
		roles, users := new(MockRoleRepository), new(MockUserRepository)
		svc := NewRoleService(roles, users, zap.NewNop())
		role, err := identity.NewRole("TEMP", "Temp")
		require.NoError(t, err)
		roles.On("FindByID", mock.Anything, role.ID).Return(role, nil)
		users.On("CountByRole", mock.Anything, role.ID).Return(int64(0), nil)
		roles.On("Delete", mock.Anything, role.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, role.ID))
		roles.AssertExpectations(t)
	})
}

func TestRoleService_SeedSystemRoles(t *testing.T) {
	ctx := context.Background()
	roles, users := new(MockRoleRepository), new(MockUserRepository)
	svc := NewRoleService(roles, users, zap.NewNop())

	roles.On("FindByCode", mock.Anything, mock.AnythingOfType("string")).Return(nil, shared.ErrNotFound)
	var created []*identity.Role
	roles.On("Create", mock.Anything, mock.AnythingOfType("*identity.Role")).
		Run(func(args mock.Arguments) { created = append(created, args.Get(1).(*identity.Role)) }).
		Return(nil)

	require.NoError(t, svc.SeedSystemRoles(ctx))
	require.Len(t, created, len(systemRoles))
	for _, r := range created {
		assert.True(t, r.IsSystemRole)
	}
	assert.Equal(t, identity.AllPermissionCodes(), created[0].Permissions)
}

func TestRoleService_Permissions(t *testing.T) {
	svc := NewRoleService(nil, nil, zap.NewNop())
	perms := svc.Permissions()
	require.NotEmpty(t, perms)
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = p.Code
	}
	assert.Contains(t, codes, "order:fulfill")
	assert.Contains(t, codes, "social:publish")
}
