package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func TestNewUser(t *testing.T) {
	t.Run("creates customer with hashed password", func(t *testing.T) {
		user, err := NewUser("Mario.Rossi", " Mario@Example.COM ", "password123")
		require.NoError(t, err)

		assert.Equal(t, "mario.rossi", user.Username)
		assert.Equal(t, "mario@example.com", user.Email)
		assert.Equal(t, RoleCustomer, user.Role)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("password123"))
		assert.False(t, user.VerifyPassword("wrong"))
		assert.True(t, user.CanLogin())
	})

	tests := []struct {
		name     string
		username string
		email    string
		password string
		errText  string
	}{
		{"short username", "ab", "a@b.it", "password123", "at least 3"},
		{"bad username chars", "mario rossi", "a@b.it", "password123", "can only contain"},
		{"bad email", "mario", "not-an-email", "password123", "Invalid email"},
		{"missing email", "mario", "", "password123", "Email is required"},
		{"short password", "mario", "a@b.it", "abc1", "at least 8"},
		{"password without digits", "mario", "a@b.it", "abcdefghij", "letter and one number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestUser_UpdateProfile(t *testing.T) {
	user, err := NewUser("giulia", "giulia@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, user.HasShippingAddress())

	err = user.UpdateProfile(Profile{
		FullName: "Giulia Bianchi",
		Address:  " Via Roma 1 ",
		City:     "Teramo",
		Zip:      "64100",
		Phone:    "+393331234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "Via Roma 1", user.Address)
	assert.True(t, user.HasShippingAddress())
	assert.Equal(t, 2, user.GetVersion())

	long := make([]byte, 501)
	err = user.UpdateProfile(Profile{AddressNotes: string(long)})
	require.Error(t, err)
}

func TestUser_SetPassword(t *testing.T) {
	user, err := NewUser("giulia", "giulia@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, user.SetPassword("newpassword456"))
	assert.True(t, user.VerifyPassword("newpassword456"))
	assert.Error(t, user.SetPassword("short"))
}

func TestUser_Roles(t *testing.T) {
	user, err := NewUser("admin", "admin@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin())
	user.PromoteToAdmin()
	assert.True(t, user.IsAdmin())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("root").IsValid())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"empty stays empty", "", "", false},
		{"italian mobile without prefix", "333 123 4567", "+393331234567", false},
		{"international format", "+39 0861 123456", "+390861123456", false},
		{"garbage", "not a phone", "", true},
		{"too short", "12", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input, "")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
