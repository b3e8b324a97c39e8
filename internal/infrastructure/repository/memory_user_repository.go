package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"user-service/internal/domain/user"
)

// MemoryUserRepository is an in-memory implementation of UserRepository for
// tests, the console and the memory database backend. It enforces the unique
// email constraint at write time like the SQL schema does.
type MemoryUserRepository struct {
	users  map[int64]*user.User
	nextID int64
	mutex  sync.RWMutex
}

// NewMemoryUserRepository creates an empty in-memory repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[int64]*user.User),
		nextID: 1,
	}
}

// Save inserts a new user or updates an existing one
func (r *MemoryUserRepository) Save(_ context.Context, u *user.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !u.IsNew() {
		if _, exists := r.users[u.ID]; !exists {
			return fmt.Errorf("user %d does not exist", u.ID)
		}
	}

	// Check for duplicate email (excluding current user)
	for id, existing := range r.users {
		if id != u.ID && existing.Email == u.Email {
			return fmt.Errorf("email %s: %w", u.Email, user.ErrDuplicateKey)
		}
	}

	if u.IsNew() {
		u.ID = r.nextID
		r.nextID++
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		r.users[u.ID] = u.Clone()
		return nil
	}

	stored := r.users[u.ID]
	stored.Name = u.Name
	stored.Email = u.Email
	stored.Age = u.Clone().Age
	u.CreatedAt = stored.CreatedAt
	return nil
}

// FindByID retrieves a user by ID
func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.users[id].Clone(), nil
}

// FindByEmail retrieves a user by email
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

// FindAll returns all users ordered by ID
func (r *MemoryUserRepository) FindAll(_ context.Context) ([]*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.collect(func(*user.User) bool { return true }), nil
}

// FindByNameContaining matches name case-insensitively
func (r *MemoryUserRepository) FindByNameContaining(_ context.Context, substring string) ([]*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	needle := strings.ToLower(substring)
	return r.collect(func(u *user.User) bool {
		return strings.Contains(strings.ToLower(u.Name), needle)
	}), nil
}

// ExistsByEmail reports whether any user holds email
func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.FindByEmail(ctx, email)
	return u != nil, err
}

// DeleteByID removes a user. Deleting a missing id is a no-op.
func (r *MemoryUserRepository) DeleteByID(_ context.Context, id int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.users, id)
	return nil
}

// Count returns the number of users
func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return int64(len(r.users)), nil
}

func (r *MemoryUserRepository) collect(match func(*user.User) bool) []*user.User {
	users := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		if match(u) {
			users = append(users, u.Clone())
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

var _ user.UserRepository = (*MemoryUserRepository)(nil)
