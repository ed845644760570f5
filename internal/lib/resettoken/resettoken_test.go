package resettoken

import "testing"

func TestNew(t *testing.T) {
	t.Parallel()

	plaintext, hash, err := New()
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if len(plaintext) != tokenBytes*2 {
		t.Fatalf("plaintext length: got %d want %d", len(plaintext), tokenBytes*2)
	}
	if hash == plaintext {
		t.Fatalf("stored hash must differ from plaintext")
	}
	if Hash(plaintext) != hash {
		t.Fatalf("hash of plaintext must match stored hash")
	}
}

func TestNew_Unique(t *testing.T) {
	t.Parallel()

	first, _, err := New()
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	second, _, err := New()
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if first == second {
		t.Fatalf("two generated tokens must differ")
	}
}

func TestHash_Deterministic(t *testing.T) {
	t.Parallel()

	if Hash("abc") != Hash("abc") {
		t.Fatalf("hash must be deterministic")
	}
	if Hash("abc") == Hash("abd") {
		t.Fatalf("different inputs must not collide")
	}
}
