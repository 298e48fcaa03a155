package domain

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPassword = errors.New("invalid password")

type authService struct {
	passwordHash []byte
	secret       string
}

// NewAuthService guards the operator endpoints. passwordHash is a bcrypt hash;
// when it is empty every login fails.
func NewAuthService(passwordHash, secret string) ports.AuthService {
	return &authService{
		passwordHash: []byte(passwordHash),
		secret:       secret,
	}
}

func (s *authService) Login(ctx context.Context, password string) (string, error) {
	if len(s.passwordHash) == 0 || s.secret == "" {
		return "", ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}
	return s.sign("operator"), nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (bool, error) {
	if s.secret == "" {
		return false, nil
	}
	return hmac.Equal([]byte(token), []byte(s.sign("operator"))), nil
}

func (s *authService) sign(msg string) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}
