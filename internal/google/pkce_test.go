package google

import "testing"

func TestGenerateCodeVerifier(t *testing.T) {
	v1, err := GenerateCodeVerifier()
	if err != nil {
		t.Fatalf("GenerateCodeVerifier() error = %v", err)
	}
	if len(v1) != 43 {
		t.Errorf("verifier length = %d, want 43", len(v1))
	}
	v2, _ := GenerateCodeVerifier()
	if v1 == v2 {
		t.Error("verifiers should differ between calls")
	}
}

func TestGenerateCodeChallenge(t *testing.T) {
	// Test vector from RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := GenerateCodeChallenge(verifier); got != want {
		t.Errorf("GenerateCodeChallenge() = %q, want %q", got, want)
	}
}
