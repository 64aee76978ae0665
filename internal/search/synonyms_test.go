package search

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDictionary(t *testing.T) {
	d := NewDictionary()
	if d.Len() == 0 {
		t.Fatal("built-in dictionary is empty")
	}

	syns := d.Synonyms("state")
	if !contains(syns, "$state") {
		t.Errorf("Synonyms(state) = %v, want to include $state", syns)
	}

	// Lookup is case-insensitive.
	if got := d.Synonyms("State"); len(got) != len(syns) {
		t.Errorf("case-insensitive lookup failed: %v", got)
	}

	if d.Synonyms("nonexistent") != nil {
		t.Error("unknown term should return nil")
	}
}

func TestNewDictionaryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	content := `
sveltekit: ["kit", "routing"]
state: ["custom-extra"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing synonyms file: %v", err)
	}

	d, err := NewDictionaryFromFile(path)
	if err != nil {
		t.Fatalf("NewDictionaryFromFile: %v", err)
	}

	if !contains(d.Synonyms("sveltekit"), "kit") {
		t.Errorf("user-only term not loaded: %v", d.Synonyms("sveltekit"))
	}

	// User synonyms extend the built-in list rather than replacing it.
	syns := d.Synonyms("state")
	if !contains(syns, "$state") || !contains(syns, "custom-extra") {
		t.Errorf("merged synonyms = %v, want built-in plus user entries", syns)
	}
	if syns[len(syns)-1] != "custom-extra" {
		t.Errorf("user synonyms should append after built-ins: %v", syns)
	}
}

func TestNewDictionaryFromEntries(t *testing.T) {
	d := NewDictionaryFromEntries(map[string][]string{"state": {"$state"}})
	if d.Len() != 1 {
		t.Errorf("Len = %d, want 1 (built-ins must not merge in)", d.Len())
	}
	if !contains(d.Synonyms("state"), "$state") {
		t.Errorf("Synonyms(state) = %v", d.Synonyms("state"))
	}
}

func TestDictionaryEntriesIsACopy(t *testing.T) {
	d := NewDictionary()
	entries := d.Entries()
	entries["state"][0] = "mutated"
	if d.Synonyms("state")[0] == "mutated" {
		t.Error("Entries leaked internal state")
	}
}

func TestNewDictionaryFromFileMissing(t *testing.T) {
	if _, err := NewDictionaryFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing synonyms file")
	}
}
