package security

import (
	"testing"
)

func TestHashToken_Consistent(t *testing.T) {
	token := "header.payload.signature"
	hash1 := HashToken(token)
	hash2 := HashToken(token)

	if hash1 != hash2 {
		t.Errorf("HashToken not consistent: hash1 = %q, hash2 = %q", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(hash1))
	}
}

func TestHashToken_DifferentTokens(t *testing.T) {
	if HashToken("token-1") == HashToken("token-2") {
		t.Error("HashToken produced same digest for different tokens")
	}
}

func TestTokenHashEqual_CorrectMatch(t *testing.T) {
	token := "eyJhbGciOiJIUzI1NiJ9.x.y"
	storedHash := HashToken(token)

	if !TokenHashEqual(token, storedHash) {
		t.Error("TokenHashEqual should match correct token")
	}
}

func TestTokenHashEqual_RejectsSubstitution(t *testing.T) {
	storedHash := HashToken("the-token-that-was-minted")

	if TokenHashEqual("a-different-token", storedHash) {
		t.Error("TokenHashEqual should reject a substituted token")
	}
	if TokenHashEqual("the-token-that-was-minted", "a"+storedHash) {
		t.Error("TokenHashEqual should reject a corrupted stored digest")
	}
}
