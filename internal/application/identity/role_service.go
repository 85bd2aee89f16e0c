package identity

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// System roles seeded on startup
var systemRoles = []struct {
	code, name  string
	permissions func() []string
}{
	{"SUPER_ADMIN", "Super Administrator", identity.AllPermissionCodes},
	{"CATALOG_MANAGER", "Catalog Manager", func() []string {
		return []string{
			"product:create", "product:read", "product:update", "product:delete",
			"category:create", "category:read", "category:update", "category:delete",
			"brand:create", "brand:read", "brand:update", "brand:delete",
			"review:read", "review:update",
		}
	}},
	{"ORDER_MANAGER", "Order Manager", func() []string {
		return []string{"order:read", "order:update", "order:fulfill", "order:cancel", "dashboard:read"}
	}},
	{"MARKETING", "Marketing", func() []string {
		return []string{
			"discount:create", "discount:read", "discount:update", "discount:delete",
			"loyalty:read", "loyalty:update",
			"social:create", "social:read", "social:update", "social:delete", "social:publish",
		}
	}},
}

// RoleService handles role management operations
type RoleService struct {
	roleRepo identity.RoleRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo identity.RoleRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create creates a new role
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*RoleDTO, error) {
	role, err := identity.NewRole(input.Code, input.Name)
	if err != nil {
		return nil, err
	}
	if exists, err := s.roleRepo.ExistsByCode(ctx, role.Code); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Role code already exists")
	}
	if input.Description != "" {
		if err := role.Update(role.Name, input.Description); err != nil {
			return nil, err
		}
	}
	if err := role.SetPermissions(input.Permissions); err != nil {
		return nil, err
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("Role created", zap.String("code", role.Code), zap.Int("permissions", len(role.Permissions)))
	dto := toRoleDTO(role, 0)
	return &dto, nil
}

// GetByID returns a role with its user count
func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.userRepo.CountByRole(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toRoleDTO(role, count)
	return &dto, nil
}

// List returns every role ordered by code
func (s *RoleService) List(ctx context.Context) ([]RoleDTO, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Code < roles[j].Code })

	out := make([]RoleDTO, len(roles))
	for i, role := range roles {
		count, err := s.userRepo.CountByRole(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		out[i] = toRoleDTO(role, count)
	}
	return out, nil
}

// Update changes name and description
func (s *RoleService) Update(ctx context.Context, input UpdateRoleInput) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := role.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	dto := toRoleDTO(role, 0)
	return &dto, nil
}

// SetPermissions replaces the permission set of a role
func (s *RoleService) SetPermissions(ctx context.Context, id uuid.UUID, permissions []string) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := role.SetPermissions(permissions); err != nil {
		return nil, err
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("Role permissions updated", zap.String("code", role.Code), zap.Strings("permissions", role.Permissions))
	dto := toRoleDTO(role, 0)
	return &dto, nil
}

// Delete removes a role that is neither a system role nor assigned
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := role.CanDelete(); err != nil {
		return err
	}
	count, err := s.userRepo.CountByRole(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("ROLE_IN_USE", "Role is assigned to users and cannot be deleted")
	}
	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Role deleted", zap.String("code", role.Code))
	return nil
}

// Permissions returns the permission catalog
func (s *RoleService) Permissions() []identity.PermissionDef {
	return identity.AllPermissions()
}

// SeedSystemRoles creates missing system roles and keeps SUPER_ADMIN in sync
// with the permission catalog
func (s *RoleService) SeedSystemRoles(ctx context.Context) error {
	for _, def := range systemRoles {
		existing, err := s.roleRepo.FindByCode(ctx, def.code)
		switch {
		case err == nil:
			if def.code == "SUPER_ADMIN" && len(existing.Permissions) != len(identity.AllPermissionCodes()) {
				if err := existing.SetPermissions(def.permissions()); err != nil {
					return err
				}
				if err := s.roleRepo.Update(ctx, existing); err != nil {
					return err
				}
			}
		case shared.IsNotFound(err):
			role, err := identity.NewSystemRole(def.code, def.name, def.permissions())
			if err != nil {
				return err
			}
			if err := s.roleRepo.Create(ctx, role); err != nil {
				return err
			}
			s.logger.Info("System role seeded", zap.String("code", def.code))
		default:
			return err
		}
	}
	return nil
}
