package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("supersecret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "supersecret" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := CheckPassword("supersecret", hash); err != nil {
		t.Errorf("CheckPassword() with the right password: %v", err)
	}
	if err := CheckPassword("wrongpass1", hash); err == nil {
		t.Error("CheckPassword() with the wrong password should fail")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := HashPassword("corta"); err == nil {
		t.Error("expected an error for a short password")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if err := CheckPassword("whatever1", "not-a-bcrypt-hash"); err == nil {
		t.Error("expected an error for a malformed hash")
	}
}
