package users

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid user identity")
)

// Identity is what an auth provider tells us about a user.
type Identity struct {
	ID    string
	Email string
	Name  string
}
