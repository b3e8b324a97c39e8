package user

import "context"

// UserRepository is the persistence gateway for users.
//
// Lookups return (nil, nil) when no record matches. Save inserts when the
// user has no id yet and assigns ID and CreatedAt; otherwise it updates the
// mutable fields. A write that violates the unique email constraint returns
// an error wrapping ErrDuplicateKey.
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	FindByNameContaining(ctx context.Context, substring string) ([]*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// UserService defines the user business operations.
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	SearchUsersByName(ctx context.Context, name string) ([]*User, error)
	CountUsers(ctx context.Context) (int64, error)
}
