package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService handles user management from the admin panel
type UserService struct {
	userRepo  identity.UserRepository
	roleRepo  identity.RoleRepository
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		blacklist: blacklist,
		logger:    logger,
	}
}

// SetEventPublisher sets the publisher for user events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// Create creates an active user. Users with roles get admin panel access.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	if exists, err := s.userRepo.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}
	if exists, err := s.userRepo.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}
	if err := s.ensureRolesExist(ctx, input.RoleIDs); err != nil {
		return nil, err
	}

	var (
		user *identity.User
		err  error
	)
	if input.IsAdmin || len(input.RoleIDs) > 0 {
		user, err = identity.NewStaff(input.Email, input.Username, input.Password)
	} else {
		user, err = identity.NewCustomer(input.Email, input.Username, input.Password)
	}
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(input.FirstName, input.LastName, input.Phone, ""); err != nil {
		return nil, err
	}
	if len(input.RoleIDs) > 0 {
		if err := user.SetRoles(input.RoleIDs); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
	s.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.Bool("is_admin", user.IsAdmin))
	dto := ToUserDTO(user)
	return &dto, nil
}

// GetByID returns a user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, filter identity.UserFilter) (*UserListResult, error) {
	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	p := shared.NewPaginated(dtos, total, filter.Page, filter.Limit())
	return &UserListResult{
		Users:      p.Items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}, nil
}

// Update changes the provided fields
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if exists, err := s.userRepo.ExistsByEmail(ctx, *input.Email); err != nil {
			return nil, err
		} else if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
		}
		if err := user.ChangeEmail(*input.Email); err != nil {
			return nil, err
		}
	}

	first, last, phone := user.FirstName, user.LastName, user.Phone
	if input.FirstName != nil {
		first = *input.FirstName
	}
	if input.LastName != nil {
		last = *input.LastName
	}
	if input.Phone != nil {
		phone = *input.Phone
	}
	if err := user.UpdateProfile(first, last, phone, user.AvatarURL); err != nil {
		return nil, err
	}
	if input.IsAdmin != nil && *input.IsAdmin != user.IsAdmin {
		user.GrantAdmin(*input.IsAdmin)
		s.revokeSessions(ctx, user.ID)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// AssignRoles replaces the user's roles. Existing tokens are revoked so the
// new permission set applies on the next login.
func (s *UserService) AssignRoles(ctx context.Context, id uuid.UUID, roleIDs []uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRolesExist(ctx, roleIDs); err != nil {
		return nil, err
	}
	if err := user.SetRoles(roleIDs); err != nil {
		return nil, err
	}
	if len(roleIDs) > 0 && !user.IsAdmin {
		user.GrantAdmin(true)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.revokeSessions(ctx, user.ID)

	s.logger.Info("User roles assigned", zap.String("user_id", id.String()), zap.Int("role_count", len(user.RoleIDs)))
	dto := ToUserDTO(user)
	return &dto, nil
}

// Activate activates a pending, locked or deactivated user
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Activate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// Deactivate disables a user and ends their sessions
func (s *UserService) Deactivate(ctx context.Context, actorID, id uuid.UUID) (*UserDTO, error) {
	if actorID == id {
		return nil, shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	user.ClearDomainEvents()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.revokeSessions(ctx, id)

	s.logger.Info("User deactivated", zap.String("user_id", id.String()), zap.String("by", actorID.String()))
	dto := ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user
func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return shared.NewDomainError("CANNOT_DELETE_SELF", "You cannot delete your own account")
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.Info("User deleted", zap.String("user_id", id.String()), zap.String("by", actorID.String()))
	return nil
}

func (s *UserService) ensureRolesExist(ctx context.Context, roleIDs []uuid.UUID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	roles, err := s.roleRepo.FindByIDs(ctx, roleIDs)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]bool, len(roles))
	for _, r := range roles {
		found[r.ID] = true
	}
	for _, id := range roleIDs {
		if !found[id] {
			return shared.NewDomainError("ROLE_NOT_FOUND", "Role not found: "+id.String())
		}
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.blacklist == nil {
		return
	}
	// zero ttl: the marker does not expire
	if err := s.blacklist.RevokeUser(ctx, userID.String(), 0); err != nil {
		s.logger.Warn("Failed to revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
