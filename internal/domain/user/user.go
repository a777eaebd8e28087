package user

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("user: not found")

type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
	RoleAdmin  Role = "admin"
)

// User is the read-only directory entry this subsystem consumes; account
// lifecycle is owned elsewhere.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      Role
	CreatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id string) (*User, error)
}
