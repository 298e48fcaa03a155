package ports

import "context"

// AuthService guards the operator API with one shared password.
type AuthService interface {
	// Login exchanges the operator password for a bearer token.
	Login(ctx context.Context, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}
