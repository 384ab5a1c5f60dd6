package config

import "testing"

func TestParseINI(t *testing.T) {
	src := `
# zone settings
[Bomb]
BombDamageLevel = 7500
Bomb Explode Pixels = 80   # key with internal whitespace

[Misc]
Greeting = hello there, pilot
`
	ini, err := ParseINI(src)
	if err != nil {
		t.Fatalf("ParseINI: %v", err)
	}

	if got := ini.GetInt("Bomb", "BombDamageLevel", -1); got != 7500 {
		t.Errorf("BombDamageLevel = %d, want 7500", got)
	}
	if got := ini.GetInt("bomb", "bomb explode pixels", -1); got != 80 {
		t.Errorf("coalesced key = %d, want 80", got)
	}
	if got, ok := ini.GetString("Misc", "Greeting"); !ok || got != "hello there, pilot" {
		t.Errorf("Greeting = %q ok=%v, want full value to end of line", got, ok)
	}
}

func TestParseINIStrayAndMissing(t *testing.T) {
	ini, err := ParseINI("[A]\nnot a key value line\nx = 1\n")
	if err != nil {
		t.Fatalf("ParseINI: %v", err)
	}
	if got := ini.GetInt("A", "x", -1); got != 1 {
		t.Errorf("x = %d, want 1", got)
	}
	if got := ini.GetInt("A", "missing", 42); got != 42 {
		t.Errorf("missing key default = %d, want 42", got)
	}
	if _, ok := ini.GetString("B", "x"); ok {
		t.Error("unknown section should not resolve")
	}
}
