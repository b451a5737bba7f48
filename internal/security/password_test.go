package security

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clan-manager/internal/model"
)

func TestValidatePasswordPolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		password string
		ok       bool
	}{
		{"Passw0rd!", true},
		{"Password1", true},
		{"Password!", true},
		{"Pa1", false},
		{"password1", false},
		{"PASSWORD1", false},
		{"Password", false},
	}

	for _, tc := range cases {
		err := ValidatePasswordPolicy(tc.password)
		if tc.ok {
			assert.NoError(t, err, tc.password)
		} else {
			assert.ErrorIs(t, err, ErrWeakPassword, tc.password)
		}
	}
}

func TestValidatePasswordPolicyMaxLength(t *testing.T) {
	t.Parallel()

	atLimit := "Aa1" + strings.Repeat("x", 69)
	require.NoError(t, ValidatePasswordPolicy(atLimit))

	hash, err := NewPasswordHasher(MinBcryptCost).Hash(atLimit)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.ErrorIs(t, ValidatePasswordPolicy(atLimit+"x"), ErrPasswordTooLong)
	// multi-byte runes count by bytes, not characters
	assert.ErrorIs(t, ValidatePasswordPolicy("Aa1"+strings.Repeat("é", 35)), ErrPasswordTooLong)
}

func TestPasswordHasher(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(4)
	assert.Equal(t, MinBcryptCost, hasher.cost)

	hash, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)
	assert.True(t, hasher.Matches(hash, "Passw0rd!"))
	assert.False(t, hasher.Matches(hash, "passw0rd!"))
}

func TestGenerateTemporaryPassword(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		pw, err := GenerateTemporaryPassword()
		require.NoError(t, err)
		require.Len(t, pw, 12)
		for _, r := range pw {
			require.True(t, strings.ContainsRune(temporaryPasswordChars, r), "unexpected rune %q", r)
		}
		seen[pw] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}

type stubLookup struct {
	users map[string]model.User
}

func (s stubLookup) FindByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func TestCredentialVerifier(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(MinBcryptCost)
	hash, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)

	verifier := NewCredentialVerifier(stubLookup{users: map[string]model.User{
		"leader@x.com": {ID: "u1", Email: "leader@x.com", PasswordHash: hash},
	}}, hasher)
	ctx := context.Background()

	user, err := verifier.Verify(ctx, "leader@x.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, wrongPassword := verifier.Verify(ctx, "leader@x.com", "nope")
	_, unknownEmail := verifier.Verify(ctx, "ghost@x.com", "Passw0rd!")
	_, caseMismatch := verifier.Verify(ctx, "Leader@x.com", "Passw0rd!")

	assert.ErrorIs(t, wrongPassword, model.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, model.ErrInvalidCredentials)
	assert.ErrorIs(t, caseMismatch, model.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}
