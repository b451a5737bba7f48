package security

import (
	"context"
	"errors"
	"sync"

	"clan-manager/internal/model"
)

type credentialLookup interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
}

// CredentialVerifier checks an email and password pair. Unknown emails and
// wrong passwords both yield model.ErrInvalidCredentials.
type CredentialVerifier struct {
	users  credentialLookup
	hasher *PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialVerifier(users credentialLookup, hasher *PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{users: users, hasher: hasher}
}

func (v *CredentialVerifier) Verify(ctx context.Context, email string, password string) (model.User, error) {
	user, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Spend the same bcrypt time as a real comparison.
			v.hasher.Matches(v.fallbackHash(), password)
			return model.User{}, model.ErrInvalidCredentials
		}
		return model.User{}, err
	}

	if !v.hasher.Matches(user.PasswordHash, password) {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}

func (v *CredentialVerifier) fallbackHash() string {
	v.dummyOnce.Do(func() {
		hash, err := v.hasher.Hash("clan-manager-placeholder")
		if err == nil {
			v.dummyHash = hash
		}
	})
	return v.dummyHash
}
