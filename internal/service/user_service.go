package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"user-service/internal/domain/user"
	"user-service/pkg/logger"
)

// userService implements the UserService interface
type userService struct {
	userRepo user.UserRepository
	notifier user.Notifier
}

// NewUserService creates a new user service. A nil notifier disables events.
func NewUserService(userRepo user.UserRepository, notifier user.Notifier) user.UserService {
	if notifier == nil {
		notifier = user.NopNotifier{}
	}
	return &userService{
		userRepo: userRepo,
		notifier: notifier,
	}
}

// CreateUser creates a new user with a unique email
func (s *userService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	const op = "create user"

	if req == nil {
		return nil, user.InvalidArgument(op, "", "request is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, user.InvalidArgument(op, "name", "name must not be blank")
	}
	if !user.LooksLikeEmail(req.Email) {
		return nil, user.InvalidArgument(op, "email", "email is malformed")
	}

	logger.Info("Creating user with email: %s", req.Email)

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		logger.Error("Failed to check email %s: %v", req.Email, err)
		return nil, user.Persistence(op, req.Email, err)
	}
	if exists {
		return nil, user.DuplicateEmail(op, req.Email, nil)
	}

	u := user.NewUser(req.Name, req.Email, req.Age)
	if err := s.userRepo.Save(ctx, u); err != nil {
		// Another writer took the email between the check and the insert.
		if errors.Is(err, user.ErrDuplicateKey) {
			logger.Warn("Duplicate email %s rejected at write time", req.Email)
			return nil, user.DuplicateEmail(op, req.Email, err)
		}
		logger.Error("Failed to create user: %v", err)
		return nil, user.Persistence(op, req.Email, err)
	}

	s.notifier.NotifyCreated(ctx, u)

	logger.Info("User created successfully with ID: %d", u.ID)
	return u, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	const op = "get user"

	if id <= 0 {
		return nil, user.InvalidArgument(op, "id", "id must be positive")
	}

	logger.Debug("Getting user with ID: %d", id)

	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user %d: %v", id, err)
		return nil, user.Persistence(op, idKey(id), err)
	}
	if u == nil {
		return nil, user.NotFound(op, idKey(id))
	}

	return u, nil
}

// ListUsers returns every stored user
func (s *userService) ListUsers(ctx context.Context) ([]*user.User, error) {
	logger.Debug("Listing all users")

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to list users: %v", err)
		return nil, user.Persistence("list users", "", err)
	}
	if users == nil {
		users = []*user.User{}
	}

	return users, nil
}

// UpdateUser applies a partial update. Each field is overwritten only when
// present in req.
func (s *userService) UpdateUser(ctx context.Context, id int64, req *user.UpdateUserRequest) (*user.User, error) {
	const op = "update user"

	if req == nil {
		req = &user.UpdateUserRequest{}
	}
	if id <= 0 {
		return nil, user.NotFound(op, idKey(id))
	}

	logger.Info("Updating user with ID: %d", id)

	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user for update: %v", err)
		return nil, user.Persistence(op, idKey(id), err)
	}
	if u == nil {
		return nil, user.NotFound(op, idKey(id))
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, user.InvalidArgument(op, "name", "name must not be blank")
		}
		u.Name = *req.Name
	}

	if req.Email != nil && *req.Email != u.Email {
		if !user.LooksLikeEmail(*req.Email) {
			return nil, user.InvalidArgument(op, "email", "email is malformed")
		}
		taken, err := s.userRepo.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			logger.Error("Failed to check email %s: %v", *req.Email, err)
			return nil, user.Persistence(op, *req.Email, err)
		}
		if taken {
			return nil, user.EmailTaken(op, *req.Email, nil)
		}
		u.Email = *req.Email
	}

	if req.Age != nil {
		age := *req.Age
		u.Age = &age
	}

	if err := s.userRepo.Save(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateKey) {
			logger.Warn("Email %s taken at write time for user %d", u.Email, id)
			return nil, user.EmailTaken(op, u.Email, err)
		}
		logger.Error("Failed to update user: %v", err)
		return nil, user.Persistence(op, idKey(id), err)
	}

	logger.Info("User updated successfully with ID: %d", u.ID)
	return u, nil
}

// DeleteUser deletes a user and announces it
func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	const op = "delete user"

	if id <= 0 {
		return user.NotFound(op, idKey(id))
	}

	logger.Info("Deleting user with ID: %d", id)

	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user for deletion: %v", err)
		return user.Persistence(op, idKey(id), err)
	}
	if u == nil {
		return user.NotFound(op, idKey(id))
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		logger.Error("Failed to delete user: %v", err)
		return user.Persistence(op, idKey(id), err)
	}

	s.notifier.NotifyDeleted(ctx, u)

	logger.Info("User deleted successfully with ID: %d", id)
	return nil
}

// SearchUsersByName does a case-insensitive substring match on name
func (s *userService) SearchUsersByName(ctx context.Context, name string) ([]*user.User, error) {
	logger.Debug("Searching users by name: %s", name)

	users, err := s.userRepo.FindByNameContaining(ctx, name)
	if err != nil {
		logger.Error("Failed to search users: %v", err)
		return nil, user.Persistence("search users", "", err)
	}
	if users == nil {
		users = []*user.User{}
	}

	return users, nil
}

// CountUsers returns the number of stored users
func (s *userService) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		logger.Error("Failed to count users: %v", err)
		return 0, user.Persistence("count users", "", err)
	}
	return n, nil
}

func idKey(id int64) string {
	return "id=" + strconv.FormatInt(id, 10)
}
