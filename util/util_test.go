package util_test

import (
	"testing"

	"github.com/gravity-platform/gravity-common/util"
)

func TestRandomString(t *testing.T) {
	a, err := util.RandomString(32)
	if err != nil || len(a) != 32 {
		t.Fatalf("RandomString = %q, %v", a, err)
	}
	b, _ := util.RandomString(32)
	if a == b {
		t.Error("two random strings are identical")
	}
	if s, err := util.RandomString(0); err != nil || s != "" {
		t.Errorf("RandomString(0) = %q, %v", s, err)
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	tok, err := util.GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken: %v", err)
	}
	// 32 bytes → 43 chars base64url sin padding
	if len(tok) != 43 {
		t.Errorf("len = %d, want 43", len(tok))
	}
}

func TestSHA256Helpers(t *testing.T) {
	// Vector conocido de sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := util.SHA256Hex("abc"); got != want {
		t.Errorf("SHA256Hex = %s", got)
	}
	if got := util.SHA256Base64URL("abc"); got != "ungWv48Bz-pBQUDeXa4iI7ADYaOWF3qctBD_YfIAFa0" {
		t.Errorf("SHA256Base64URL = %s", got)
	}
}

func TestMaskSensitive(t *testing.T) {
	if got := util.MaskSensitive("supersecretvalue", 4); got != "supe************" {
		t.Errorf("MaskSensitive = %q", got)
	}
	if got := util.MaskSensitive("abc", 4); got != "***" {
		t.Errorf("short value = %q", got)
	}
}

func TestMaskEmail(t *testing.T) {
	if got := util.MaskEmail("Juan.Perez@Example.COM"); got != "j…@e….com" {
		t.Errorf("MaskEmail = %q", got)
	}
	if got := util.MaskEmail(""); got != "" {
		t.Errorf("empty = %q", got)
	}
}
