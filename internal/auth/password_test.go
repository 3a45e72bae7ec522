package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	digest, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(digest, "pbkdf2_sha256$") {
		t.Errorf("unexpected digest format: %s", digest)
	}
	if !VerifyPassword("Sup3rSecret", digest) {
		t.Error("correct password did not verify")
	}
	if VerifyPassword("WrongSecret1", digest) {
		t.Error("wrong password verified")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	d1, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	d2, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if d1 == d2 {
		t.Error("two hashes of the same password are identical; salt is not fresh")
	}
	if !VerifyPassword("Sup3rSecret", d1) || !VerifyPassword("Sup3rSecret", d2) {
		t.Error("both digests should verify")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"pbkdf2_sha256$notanumber$c2FsdA$aGFzaA",
		"pbkdf2_sha256$210000$!!!$aGFzaA",
		"pbkdf2_sha256$210000$c2FsdA$!!!",
		"bcrypt$10$c2FsdA$aGFzaA",
	}
	for _, digest := range cases {
		if VerifyPassword("anything", digest) {
			t.Errorf("malformed digest %q verified", digest)
		}
	}
}

func TestStrongPassword(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"Sup3rSecret", true},
		{"Ab1defgh", true},
		{"short1A", false},     // too short
		{"alllower1", false},   // no uppercase
		{"ALLUPPER1", false},   // no lowercase
		{"NoDigitsHere", false},
	}
	for _, tc := range cases {
		if got := StrongPassword(tc.password); got != tc.want {
			t.Errorf("StrongPassword(%q) = %v, want %v", tc.password, got, tc.want)
		}
	}
}
