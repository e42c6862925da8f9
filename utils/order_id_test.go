package utils

import "testing"

func TestGenerateOTP_Length(t *testing.T) {
	for _, n := range []int{4, 6} {
		otp := GenerateOTP(n)
		if len(otp) != n {
			t.Fatalf("expected %d digits, got %q", n, otp)
		}
		if otp[0] == '0' {
			t.Fatalf("otp must not start with zero: %q", otp)
		}
		for _, c := range otp {
			if c < '0' || c > '9' {
				t.Fatalf("otp contains non-digit: %q", otp)
			}
		}
	}
}

func TestGenerateOTP_DefaultDigits(t *testing.T) {
	if otp := GenerateOTP(0); len(otp) != 4 {
		t.Fatalf("expected default of 4 digits, got %q", otp)
	}
}

func TestNewDocumentID_Unique(t *testing.T) {
	a, b := NewDocumentID(), NewDocumentID()
	if a == b || len(a) != 32 {
		t.Fatalf("expected two distinct 32-char ids, got %s and %s", a, b)
	}
}
