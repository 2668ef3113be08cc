package engine

import "testing"

func TestHiddenKeysAreInvisibleToScripts(t *testing.T) {
	key := Hidden("slot")
	if key[0] != 0xff {
		t.Fatalf("hidden key starts with %#x, want 0xff", key[0])
	}
	if key[1:] != "slot" {
		t.Fatalf("hidden key body = %q, want %q", key[1:], "slot")
	}
	if Hidden("a") == Hidden("b") {
		t.Fatal("distinct names must produce distinct keys")
	}
}

func TestScriptError(t *testing.T) {
	err := &ScriptError{Message: "ReferenceError: x is not defined"}
	if err.Error() != "ReferenceError: x is not defined" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
