package services

import (
	"context"
	"errors"
	"fmt"

	"authcore/internal/common"
	"authcore/internal/models"
	"authcore/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks an email/password pair against the stored
// credential record. It never distinguishes "unknown email" from "wrong
// password" to the caller.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*models.User, error)
}

type credentialVerifier struct {
	users repositories.UserRepository
}

func NewCredentialVerifier(users repositories.UserRepository) CredentialVerifier {
	return &credentialVerifier{users: users}
}

func (s *credentialVerifier) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrUnauthorized
	}

	return user, nil
}

// HashPassword produces a bcrypt hash for seeding and provisioning paths.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
