package auth

import (
	"strings"
	"testing"
)

func testArgonParams() argonParams {
	// Small parameters keep the test fast; shape is what matters here.
	return argonParams{memory: 8 * 1024, time: 1, threads: 1, saltLen: 16, keyLen: 32}
}

func TestHashAndVerifyPassword(t *testing.T) {
	phc, err := HashPassword("correct horse", testArgonParams())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$") {
		t.Fatalf("expected a PHC argon2id string, got %q", phc)
	}

	ok, err := VerifyPassword("correct horse", phc)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password must verify")
	}

	ok, err = VerifyPassword("wrong horse", phc)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	p := testArgonParams()
	a, err := HashPassword("same input", p)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashPassword("same input", p)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, phc := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$not-base64!$aGFzaA",
	} {
		if ok, err := VerifyPassword("anything", phc); err == nil || ok {
			t.Errorf("hash %q: expected an error, got ok=%v err=%v", phc, ok, err)
		}
	}
}
