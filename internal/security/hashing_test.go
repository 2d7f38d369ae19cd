package security

import "testing"

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "secret123" {
		t.Fatalf("Hash returned %q", hash)
	}
	if !h.Verify("secret123", hash) {
		t.Fatal("Verify of correct password = false")
	}
	if h.Verify("secret124", hash) {
		t.Fatal("Verify of wrong password = true")
	}
}

func TestHasher_LengthGuards(t *testing.T) {
	h := NewHasher(4)
	if _, err := h.Hash(""); err != ErrEmptyPassword {
		t.Errorf("empty password err = %v, want ErrEmptyPassword", err)
	}
	if _, err := h.Hash("short"); err != ErrPasswordTooShort {
		t.Errorf("short password err = %v, want ErrPasswordTooShort", err)
	}
	long := make([]byte, MaxPasswordLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := h.Hash(string(long)); err != ErrPasswordTooLong {
		t.Errorf("long password err = %v, want ErrPasswordTooLong", err)
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(4)
	if h.Verify("secret123", "not-a-bcrypt-hash") {
		t.Fatal("Verify against malformed hash = true")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if c := NewHasher(0).Cost(); c < 4 {
		t.Errorf("zero cost clamped to %d, want >= MinCost", c)
	}
	if c := NewHasher(99).Cost(); c > 31 {
		t.Errorf("excess cost clamped to %d, want <= MaxCost", c)
	}
}
