package security

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	token, exp, err := Generate(opts, "user-123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry %v is not in the future", exp)
	}

	sub, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "user-123" {
		t.Fatalf("subject = %q, want user-123", sub)
	}
}

func TestJWTWrongSecretRejected(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), "user-123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token); err == nil {
		t.Fatal("token signed with another secret verified")
	}
}

func TestJWTExpiredRejected(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	opts.TTL = -time.Minute

	token, _, err := Generate(opts, "user-123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := Verify(opts, token); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestJWTGarbageRejected(t *testing.T) {
	if _, err := Verify(DefaultOptions([]byte("test-secret")), "not-a-token"); err == nil {
		t.Fatal("garbage token verified")
	}
}

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash equals the plaintext")
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Fatal("wrong password accepted")
	}
}
