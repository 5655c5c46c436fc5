package voice

import "testing"

func TestAll(t *testing.T) {
	if len(All) != 8 {
		t.Fatalf("expected 8 voices, got %d", len(All))
	}

	seen := make(map[string]bool)
	for _, v := range All {
		if seen[v] {
			t.Errorf("duplicate voice %q", v)
		}
		seen[v] = true
	}
}

func TestValid(t *testing.T) {
	for _, v := range All {
		if !Valid(v) {
			t.Errorf("Valid(%q) = false, want true", v)
		}
	}

	invalid := []string{"", "nonexistent", "Alba", "alba ", "default"}
	for _, v := range invalid {
		if Valid(v) {
			t.Errorf("Valid(%q) = true, want false", v)
		}
	}
}

func TestDefaultIsSupported(t *testing.T) {
	if !Valid(Default) {
		t.Errorf("default voice %q is not in the supported set", Default)
	}
}

func TestListReturnsCopy(t *testing.T) {
	list := List()
	if len(list) != len(All) {
		t.Fatalf("List() returned %d voices, want %d", len(list), len(All))
	}

	list[0] = "mutated"
	if All[0] == "mutated" {
		t.Error("mutating List() result changed All")
	}
}
