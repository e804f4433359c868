package vocab_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/FAU-CDI/pgrdf/internal/vocab"
	"github.com/google/go-cmp/cmp"
)

func ExampleSplit() {
	fmt.Println(vocab.Split("http://schema.org/name"))
	fmt.Println(vocab.Split("http://www.w3.org/2000/01/rdf-schema#label"))
	fmt.Println(vocab.Split("urn:isbn:1234"))

	// Output: http://schema.org/ name
	// http://www.w3.org/2000/01/rdf-schema# label
	// urn:isbn: 1234
}

func TestTranslator_Name(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mode  vocab.Mode
		neo4j bool
		iri   string
		role  vocab.Role
		want  string
	}{
		{"shorten standard", vocab.Shorten, false, "http://schema.org/name", vocab.Property, "sch__name"},
		{"shorten generated", vocab.Shorten, false, "http://example.com/name", vocab.Property, "ns0__name"},
		{"ignore", vocab.Ignore, false, "http://example.com/knows", vocab.Relationship, "knows"},
		{"ignore neo4j relationship", vocab.Ignore, true, "http://example.com/knows", vocab.Relationship, "KNOWS"},
		{"ignore neo4j label", vocab.Ignore, true, "http://example.com/person", vocab.Label, "Person"},
		{"ignore neo4j property", vocab.Ignore, true, "http://example.com/Name", vocab.Property, "name"},
		{"map", vocab.Map, false, "http://example.com/mapped", vocab.Property, "target"},
		{"map fallback", vocab.Map, false, "http://example.com/other", vocab.Property, "other"},
		{"keep", vocab.Keep, false, "http://example.com/name", vocab.Property, "http://example.com/name"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			translator := vocab.Translator{
				Mode:        tt.mode,
				Namespaces:  new(vocab.Namespaces),
				Mappings:    map[string]string{"http://example.com/mapped": "target"},
				Neo4jNaming: tt.neo4j,
			}
			got, err := translator.Name(tt.iri, tt.role)
			if err != nil {
				t.Fatalf("Name() returned error %v", err)
			}
			if got != tt.want {
				t.Errorf("Name() got = %q, want = %q", got, tt.want)
			}
		})
	}
}

func TestTranslator_Name_Strict(t *testing.T) {
	t.Parallel()

	var ns vocab.Namespaces
	if err := ns.Add("ex", "http://example.com/"); err != nil {
		t.Fatalf("Add() returned error %v", err)
	}

	translator := vocab.Translator{Mode: vocab.ShortenStrict, Namespaces: &ns}
	if got, err := translator.Name("http://example.com/a", vocab.Label); err != nil || got != "ex__a" {
		t.Errorf("Name() got = (%q, %v), want = (\"ex__a\", nil)", got, err)
	}
	if _, err := translator.Name("http://other.com/a", vocab.Label); !errors.Is(err, vocab.ErrUnknownPrefix) {
		t.Errorf("Name() got = %v, want = %v", err, vocab.ErrUnknownPrefix)
	}
}

func TestTranslator_IRI(t *testing.T) {
	t.Parallel()

	var ns vocab.Namespaces
	if err := ns.Add("ex", "http://example.com/"); err != nil {
		t.Fatalf("Add() returned error %v", err)
	}
	translator := vocab.Translator{Mode: vocab.Shorten, Namespaces: &ns}

	for name, want := range map[string]string{
		"ex__knows":             "http://example.com/knows",
		"http://example.com/a":  "http://example.com/a",
		"local":                 vocab.BaseNamespace + "local",
		"ex__with__underscores": "http://example.com/with__underscores",
	} {
		got, err := translator.IRI(name)
		if err != nil || got != want {
			t.Errorf("IRI(%q) got = (%q, %v), want = (%q, nil)", name, got, err, want)
		}
	}

	if _, err := translator.IRI("nope__local"); !errors.Is(err, vocab.ErrMissingPrefix) {
		t.Errorf("IRI() got = %v, want = %v", err, vocab.ErrMissingPrefix)
	}
}

// memoryMeta is an in-memory MetaStore
type memoryMeta map[string][]byte

func (m memoryMeta) Meta(key string) ([]byte, bool, error) {
	value, ok := m[key]
	return value, ok, nil
}

func (m memoryMeta) SetMeta(key string, value []byte) error {
	m[key] = value
	return nil
}

func TestNamespaces_Refresh(t *testing.T) {
	t.Parallel()

	store := make(memoryMeta)

	// first session generates a prefix and persists it
	var first vocab.Namespaces
	if _, err := first.PrefixOrAdd("http://example.com/", false); err != nil {
		t.Fatalf("PrefixOrAdd() returned error %v", err)
	}
	if _, err := first.Refresh(store); err != nil {
		t.Fatalf("Refresh() returned error %v", err)
	}

	// second session picks it up, and generates the next one
	var second vocab.Namespaces
	if err := second.Load(store); err != nil {
		t.Fatalf("Load() returned error %v", err)
	}
	prefix, err := second.PrefixOrAdd("http://other.com/", false)
	if err != nil || prefix != "ns1" {
		t.Errorf("PrefixOrAdd() got = (%q, %v), want = (\"ns1\", nil)", prefix, err)
	}
	if _, err := second.Refresh(store); err != nil {
		t.Fatalf("Refresh() returned error %v", err)
	}

	// the first session picks up the new prefix
	if _, err := first.Refresh(store); err != nil {
		t.Fatalf("Refresh() returned error %v", err)
	}
	want := map[string]string{
		"ns0": "http://example.com/",
		"ns1": "http://other.com/",
	}
	if diff := cmp.Diff(want, first.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestNamespaces_Add_Conflict(t *testing.T) {
	t.Parallel()

	var ns vocab.Namespaces
	if err := ns.Add("ex", "http://example.com/"); err != nil {
		t.Fatalf("Add() returned error %v", err)
	}
	if err := ns.Add("ex", "http://example.com/"); err != nil {
		t.Errorf("Add() of identical mapping returned error %v", err)
	}
	if err := ns.Add("ex", "http://other.com/"); !errors.Is(err, vocab.ErrPrefixConflict) {
		t.Errorf("Add() got = %v, want = %v", err, vocab.ErrPrefixConflict)
	}
	if err := ns.Add("ex2", "http://example.com/"); !errors.Is(err, vocab.ErrPrefixConflict) {
		t.Errorf("Add() got = %v, want = %v", err, vocab.ErrPrefixConflict)
	}
}

// two tables generating the same prefix for different namespaces
func TestNamespaces_Refresh_Concurrent(t *testing.T) {
	t.Parallel()

	store := make(memoryMeta)

	var first, second vocab.Namespaces
	for _, ns := range []*vocab.Namespaces{&first, &second} {
		if err := ns.Load(store); err != nil {
			t.Fatalf("Load() returned error %v", err)
		}
	}

	if _, err := first.PrefixOrAdd("http://example.com/", false); err != nil {
		t.Fatalf("PrefixOrAdd() returned error %v", err)
	}
	if _, err := second.PrefixOrAdd("http://other.com/", false); err != nil {
		t.Fatalf("PrefixOrAdd() returned error %v", err)
	}
	if _, err := second.PrefixOrAdd("http://example.com/", false); err != nil {
		t.Fatalf("PrefixOrAdd() returned error %v", err)
	}

	renamed, err := first.Refresh(store)
	if err != nil || renamed != nil {
		t.Fatalf("Refresh() got = (%v, %v), want = (nil, nil)", renamed, err)
	}

	// ns0 is taken, and http://example.com/ already has a prefix
	renamed, err = second.Refresh(store)
	if err != nil {
		t.Fatalf("Refresh() returned error %v", err)
	}
	if diff := cmp.Diff(map[string]string{"ns0": "ns1", "ns1": "ns0"}, renamed); diff != "" {
		t.Errorf("Refresh() renamed mismatch (-want +got):\n%s", diff)
	}

	want := map[string]string{
		"ns0": "http://example.com/",
		"ns1": "http://other.com/",
	}
	if diff := cmp.Diff(want, second.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}

	var stored vocab.Namespaces
	if err := stored.Load(store); err != nil {
		t.Fatalf("Load() returned error %v", err)
	}
	if diff := cmp.Diff(want, stored.Snapshot()); diff != "" {
		t.Errorf("persisted namespaces mismatch (-want +got):\n%s", diff)
	}
}

// prefixes that were not generated are never moved
func TestNamespaces_Refresh_Conflict(t *testing.T) {
	t.Parallel()

	store := make(memoryMeta)

	var first vocab.Namespaces
	if err := first.Add("ex", "http://example.com/"); err != nil {
		t.Fatalf("Add() returned error %v", err)
	}
	if _, err := first.Refresh(store); err != nil {
		t.Fatalf("Refresh() returned error %v", err)
	}

	var second vocab.Namespaces
	if err := second.Add("ex", "http://other.com/"); err != nil {
		t.Fatalf("Add() returned error %v", err)
	}
	if _, err := second.Refresh(store); !errors.Is(err, vocab.ErrPrefixConflict) {
		t.Errorf("Refresh() got = %v, want = %v", err, vocab.ErrPrefixConflict)
	}
}

func TestRename(t *testing.T) {
	t.Parallel()

	renamed := map[string]string{"ns0": "ns2", "ns1": "ns0"}
	for _, tt := range []struct{ name, want string }{
		{"ns0__name", "ns2__name"},
		{"ns1__knows", "ns0__knows"},
		{"ns3__other", "ns3__other"},
		{"plain", "plain"},
		{"http://example.com/x", "http://example.com/x"},
	} {
		if got := vocab.Rename(tt.name, renamed); got != tt.want {
			t.Errorf("Rename(%q) got = %q, want = %q", tt.name, got, tt.want)
		}
	}
}
