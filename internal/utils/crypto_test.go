package utils

import "testing"

func TestRandURLSafeString(t *testing.T) {
	s1, err := RandURLSafeString(32)
	if err != nil {
		t.Fatalf("RandURLSafeString: %v", err)
	}
	if len(s1) != 32 {
		t.Fatalf("length = %d, want 32", len(s1))
	}
	s2, _ := RandURLSafeString(32)
	if s1 == s2 {
		t.Fatalf("two random strings equal")
	}
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for _, c := range s1 {
		found := false
		for _, a := range alphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("unexpected char %q", c)
		}
	}
	empty, err := RandURLSafeString(0)
	if err != nil || empty != "" {
		t.Fatalf("zero length should be empty, got %q err=%v", empty, err)
	}
}
