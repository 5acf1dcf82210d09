package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordHasher(t *testing.T) {
	tests := []struct {
		name    string
		hasher  string
		cost    int
		wantErr bool
	}{
		{name: "default", hasher: "", cost: 0},
		{name: "bcrypt", hasher: HasherBcrypt, cost: 12},
		{name: "argon2id", hasher: HasherArgon2id},
		{name: "bcrypt cost too low", hasher: HasherBcrypt, cost: 2, wantErr: true},
		{name: "unknown", hasher: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPasswordHasher(tt.hasher, tt.cost)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPasswordHasher() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPasswordHasher_DefaultCost(t *testing.T) {
	h, err := NewPasswordHasher("", 0)
	if err != nil {
		t.Fatalf("NewPasswordHasher() error = %v", err)
	}
	b, ok := h.(BcryptHasher)
	if !ok {
		t.Fatalf("expected BcryptHasher, got %T", h)
	}
	if b.Cost != DefaultBcryptCost {
		t.Errorf("Cost = %d, want %d", b.Cost, DefaultBcryptCost)
	}
}

func TestHashAndVerify(t *testing.T) {
	hashers := map[string]PasswordHasher{
		"bcrypt":   BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2Hasher{},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("correct horse")
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if hash == "correct horse" {
				t.Fatal("Hash() returned the plaintext")
			}
			if !VerifyPassword("correct horse", hash) {
				t.Error("VerifyPassword() = false for the right password")
			}
			if VerifyPassword("battery staple", hash) {
				t.Error("VerifyPassword() = true for the wrong password")
			}

			again, err := h.Hash("correct horse")
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if again == hash {
				t.Error("Hash() should salt each call")
			}
		})
	}
}

func TestBcryptHashFormat(t *testing.T) {
	hash, err := BcryptHasher{Cost: DefaultBcryptCost}.Hash("pw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Errorf("unexpected bcrypt hash %q", hash)
	}
}

func TestArgon2HashRoundTrip(t *testing.T) {
	hash, err := Argon2Hasher{}.Hash("pw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Errorf("unexpected argon2 hash %q", hash)
	}

	key, salt, time, memory, threads, err := decodeArgon2Hash(hash)
	if err != nil {
		t.Fatalf("decodeArgon2Hash() error = %v", err)
	}
	if len(key) != argon2KeyLen || len(salt) != saltLen {
		t.Errorf("decoded lengths key=%d salt=%d", len(key), len(salt))
	}
	if time != argon2Time || memory != argon2Memory || threads != argon2Threads {
		t.Errorf("decoded params t=%d m=%d p=%d", time, memory, threads)
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	}
	for _, encoded := range tests {
		if VerifyPassword("pw", encoded) {
			t.Errorf("VerifyPassword(%q) = true", encoded)
		}
	}
}
