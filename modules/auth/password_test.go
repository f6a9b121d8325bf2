package auth

import (
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher()

	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "password123"},
		{name: "complex password", password: "P@ssw0rd!#$%^&*()"},
		{name: "unicode password", password: "密码123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if hash == "" || hash == tt.password {
				t.Errorf("Hash() = %q, want a non-empty hash distinct from the password", hash)
			}
			if !hasher.Verify(tt.password, hash) {
				t.Error("Verify() returned false for correct password")
			}
			if hasher.Verify(tt.password+"x", hash) {
				t.Error("Verify() returned true for wrong password")
			}
		})
	}
}

func TestPasswordHasher_CostFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		wantCost int
	}{
		{name: "unset uses default", envValue: "", wantCost: DefaultBcryptCost},
		{name: "valid override", envValue: "6", wantCost: 6},
		{name: "non-numeric falls back", envValue: "cheap", wantCost: DefaultBcryptCost},
		{name: "below range falls back", envValue: strconv.Itoa(bcrypt.MinCost - 1), wantCost: DefaultBcryptCost},
		{name: "above range falls back", envValue: strconv.Itoa(bcrypt.MaxCost + 1), wantCost: DefaultBcryptCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.envValue)
			hasher := NewPasswordHasher()
			if hasher.cost != tt.wantCost {
				t.Errorf("cost = %d, want %d", hasher.cost, tt.wantCost)
			}
		})
	}
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := NewPasswordHasher()

	hash1, err := hasher.Hash("samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hash2, err := hasher.Hash("samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
	if !hasher.Verify("samepassword", hash1) || !hasher.Verify("samepassword", hash2) {
		t.Error("Verify() failed for a freshly generated hash")
	}
}
