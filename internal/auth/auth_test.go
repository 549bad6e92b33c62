package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name                       string
		user, email, pass, confirm string
		field                      string
	}{
		{"ok", "amy", "Amy@Example.COM", "secret1", "secret1", ""},
		{"short username", "am", "a@b.c", "secret1", "secret1", "username"},
		{"combining marks count once", "e\u0301e\u0301", "a@b.c", "secret1", "secret1", "username"},
		{"missing at", "amy", "amy.example.com", "secret1", "secret1", "email"},
		{"empty email", "amy", "  ", "secret1", "secret1", "email"},
		{"short password", "amy", "a@b.c", "12345", "12345", "password"},
		{"mismatch", "amy", "a@b.c", "secret1", "secret2", "confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ValidateRegistration(tt.user, tt.email, tt.pass, tt.confirm)
			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, "amy@example.com", r.Email)
				return
			}
			var le *LogicError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestValidateLogin(t *testing.T) {
	e, err := ValidateLogin(" Dev@Development.Local ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "dev@development.local", e)

	_, err = ValidateLogin("dev@development.local", "")
	assert.EqualError(t, err, "Please enter your password")

	assert.Error(t, ValidateSteam(""))
	assert.NoError(t, ValidateSteam("7656119"))
}

func TestVaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash", "token")
	v, err := NewVault(path, "hunter2")
	require.NoError(t, err)

	tok, err := v.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, v.Save("eyJ.token"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "eyJ.token")

	tok, err = v.Load()
	require.NoError(t, err)
	assert.Equal(t, "eyJ.token", tok)

	other, err := NewVault(path, "wrong")
	require.NoError(t, err)
	_, err = other.Load()
	assert.ErrorIs(t, err, ErrVaultCorrupt)

	require.NoError(t, v.Clear())
	tok, err = v.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestVaultNeedsSecret(t *testing.T) {
	_, err := NewVault("x", "")
	assert.ErrorIs(t, err, ErrNoSecret)
}
