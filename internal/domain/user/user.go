package user

import (
	"strings"
	"time"
)

// User represents a user in the system
type User struct {
	ID        int64     `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" db:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" db:"email" gorm:"size:100;not null;uniqueIndex"`
	Age       *int      `json:"age" db:"age"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime;<-:create"`
}

// TableName pins the GORM table name.
func (User) TableName() string {
	return "users"
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,notblank,min=2,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
	Age   *int   `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
}

// UpdateUserRequest represents a partial update. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank,min=2,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=100"`
	Age   *int    `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
}

// NewUser creates a user that has not been persisted yet. The id is assigned
// by the repository on Save.
func NewUser(name, email string, age *int) *User {
	return &User{
		Name:      name,
		Email:     email,
		Age:       copyInt(age),
		CreatedAt: time.Now().UTC(),
	}
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool {
	return u.ID == 0
}

// Clone returns a deep copy so callers can't mutate a stored record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Age = copyInt(u.Age)
	return &c
}

// LooksLikeEmail is the minimal email shape check applied by the service.
// Full syntax validation belongs to the request validator.
func LooksLikeEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
