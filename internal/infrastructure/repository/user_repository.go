package repository

import (
	"context"
	"errors"
	"fmt"

	"user-service/internal/domain/user"

	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM user repository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{
		db: db,
	}
}

// Save inserts a new user or updates the mutable fields of an existing one
func (r *GormUserRepository) Save(ctx context.Context, u *user.User) error {
	var err error
	if u.IsNew() {
		err = r.db.WithContext(ctx).Create(u).Error
	} else {
		result := r.db.WithContext(ctx).Model(&user.User{}).
			Where("id = ?", u.ID).
			Updates(map[string]interface{}{
				"name":  u.Name,
				"email": u.Email,
				"age":   u.Age,
			})
		err = result.Error
		if err == nil && result.RowsAffected == 0 {
			return fmt.Errorf("user %d does not exist", u.ID)
		}
	}
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("email %s: %w", u.Email, user.ErrDuplicateKey)
		}
		return err
	}
	return nil
}

// FindByID retrieves a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail retrieves a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// FindAll returns all users ordered by ID
func (r *GormUserRepository) FindAll(ctx context.Context) ([]*user.User, error) {
	var users []*user.User
	err := r.db.WithContext(ctx).Order("id").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindByNameContaining matches name case-insensitively
func (r *GormUserRepository) FindByNameContaining(ctx context.Context, substring string) ([]*user.User, error) {
	var users []*user.User
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", containsPattern(substring)).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ExistsByEmail reports whether any user holds email
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Where("email = ?", email).Limit(1).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByID hard-deletes a user
func (r *GormUserRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&user.User{}, "id = ?", id).Error
}

// Count returns the number of users
func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error
	return count, err
}

var _ user.UserRepository = (*GormUserRepository)(nil)
