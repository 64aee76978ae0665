package search

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// svelteSynonyms maps Svelte 5 vocabulary to related domain terms.
// Multiple entries are OR'd together during expansion to bridge the gap
// between how users phrase questions and how the corpus phrases answers
// (a question about "reactive state" is answered in terms of $state).
//
// Design principles:
// 1. Map user vocabulary to rune vocabulary, both directions
// 2. Include sigil forms ($state) and bare forms (state)
// 3. Include Svelte 4 terms users still search with (store, onMount, slot)
var svelteSynonyms = map[string][]string{
	// Runes / reactivity
	"state":      {"$state", "rune", "reactive", "reactivity", "signal"},
	"$state":     {"state", "reactive state", "rune"},
	"effect":     {"$effect", "$state", "side effect", "reactive"},
	"$effect":    {"effect", "side effect", "$state", "lifecycle"},
	"derived":    {"$derived", "computed", "reactive", "memo"},
	"$derived":   {"derived", "computed"},
	"reactive":   {"$state", "$derived", "reactivity", "rune"},
	"reactivity": {"$state", "$derived", "$effect", "rune"},
	"rune":       {"$state", "$derived", "$effect", "$props"},
	"signal":     {"$state", "reactive", "rune"},

	// Component surface
	"props":     {"$props", "properties", "attributes"},
	"$props":    {"props", "properties"},
	"bindable":  {"$bindable", "two-way", "binding"},
	"$bindable": {"bindable", "bind", "two-way"},
	"binding":   {"bind", "$bindable", "two-way"},
	"component": {"props", "$props", "snippet"},
	"snippet":   {"render", "slot", "children"},
	"slot":      {"snippet", "children", "render"},
	"children":  {"snippet", "slot"},

	// Events
	"event":   {"onclick", "handler", "dispatch"},
	"click":   {"onclick", "event", "handler"},
	"handler": {"event", "onclick", "callback"},

	// Stores (Svelte 4 vocabulary that still appears in queries)
	"store":    {"writable", "readable", "$state", "subscribe"},
	"writable": {"store", "$state"},

	// Lifecycle
	"lifecycle": {"onMount", "onDestroy", "$effect"},
	"mount":     {"onMount", "lifecycle", "$effect"},
	"destroy":   {"onDestroy", "cleanup", "lifecycle"},

	// Motion / transitions
	"transition": {"fade", "fly", "animate", "motion"},
	"animation":  {"animate", "transition", "motion"},

	// Debugging
	"inspect": {"$inspect", "debug"},
	"debug":   {"$inspect", "console", "inspect"},

	// Misc
	"template": {"markup", "each", "if block"},
	"loop":     {"each", "iterate", "#each"},
	"each":     {"#each", "loop", "iterate"},
	"fetch":    {"load", "await", "data"},
	"await":    {"#await", "promise", "async"},
}

// Dictionary is the static synonym table used for query expansion.
// It is immutable after construction and safe for concurrent readers.
type Dictionary struct {
	entries map[string][]string
	terms   []string // sorted, for deterministic expansion order
}

// NewDictionary builds the dictionary from the built-in Svelte 5 table.
func NewDictionary() *Dictionary {
	return newDictionary(svelteSynonyms, nil)
}

// NewDictionaryFromFile builds the dictionary from the built-in table
// merged with user entries from a YAML file mapping term to synonym list.
// User synonyms are appended after the built-in ones for the same term.
func NewDictionaryFromFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading synonyms file: %w", err)
	}

	var user map[string][]string
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parsing synonyms file: %w", err)
	}

	return newDictionary(svelteSynonyms, user), nil
}

func newDictionary(base, extra map[string][]string) *Dictionary {
	entries := make(map[string][]string, len(base)+len(extra))
	for term, syns := range base {
		entries[strings.ToLower(term)] = append([]string(nil), syns...)
	}
	for term, syns := range extra {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" {
			continue
		}
		entries[key] = append(entries[key], syns...)
	}

	terms := make([]string, 0, len(entries))
	for term := range entries {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	return &Dictionary{entries: entries, terms: terms}
}

// NewDictionaryFromEntries builds a dictionary from an explicit table,
// typically one persisted in the index store. The built-in table is not
// merged in; a persisted table is already the effective dictionary.
func NewDictionaryFromEntries(entries map[string][]string) *Dictionary {
	return newDictionary(entries, nil)
}

// Entries returns a copy of the full synonym table.
func (d *Dictionary) Entries() map[string][]string {
	out := make(map[string][]string, len(d.entries))
	for term, syns := range d.entries {
		out[term] = append([]string(nil), syns...)
	}
	return out
}

// Synonyms returns the synonym list for an exact term, or nil.
func (d *Dictionary) Synonyms(term string) []string {
	return d.entries[strings.ToLower(term)]
}

// Len returns the number of dictionary terms.
func (d *Dictionary) Len() int {
	return len(d.terms)
}
