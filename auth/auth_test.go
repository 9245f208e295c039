package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPassw0rdIsStr0ng!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password
	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestHash_Uses_Random_Salt(t *testing.T) {
	req := require.New(t)
	first, err := HashPassword("SamePassword1!")
	req.NoError(err)
	second, err := HashPassword("SamePassword1!")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestComparePassword_Invalid_Format(t *testing.T) {
	req := require.New(t)
	_, err := ComparePassword("pwd", "not-a-hash")
	req.Error(err)
	_, err = ComparePassword("pwd", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "ComplexPass123!", "Ann", ""}, false},
		{"Valid request with photo", RegisterRequest{"test@example.com", "ComplexPass123!", "Ann", "https://x.io/a.png"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "ComplexPass123!", "Ann", ""}, true},
		{"Password too short", RegisterRequest{"test@example.com", "Short1!", "Ann", ""}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "NoDigitPass!", "Ann", ""}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "NoSpecialChar123", "Ann", ""}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "nouppercase123!", "Ann", ""}, true},
		{"Password too long", RegisterRequest{"test@example.com", strings.Repeat("a", 73), "Ann", ""}, true},
		{"Blank display name", RegisterRequest{"test@example.com", "ComplexPass123!", "   ", ""}, true},
		{"Photo is not a url", RegisterRequest{"test@example.com", "ComplexPass123!", "Ann", "nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}
