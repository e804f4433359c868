package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// standard holds well-known namespaces and their preferred prefixes.
var standard = map[string]string{
	"http://schema.org/":                          "sch",
	"http://purl.org/dc/elements/1.1/":            "dc",
	"http://purl.org/dc/terms/":                   "dct",
	"http://www.w3.org/2004/02/skos/core#":        "skos",
	"http://www.w3.org/2000/01/rdf-schema#":       "rdfs",
	"http://www.w3.org/2002/07/owl#":              "owl",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": "rdf",
	"http://www.w3.org/ns/shacl#":                 "sh",
	"http://www.w3.org/2001/XMLSchema#":           "xsd",
}

// generatedPrefix is the prefix of generated namespace prefixes
const generatedPrefix = "ns"

var (
	ErrPrefixConflict = errors.New("namespace prefix conflict")
	ErrUnknownPrefix  = errors.New("no prefix defined for namespace")
)

// MetaStore persists namespaces.
// It is implemented by graph transactions.
type MetaStore interface {
	Meta(key string) ([]byte, bool, error)
	SetMeta(key string, value []byte) error
}

// metaKey is the key namespaces are persisted under
const metaKey = "namespaces"

// Namespaces is a bidirectional table of namespace prefixes.
// The zero value is an empty table ready to use.
type Namespaces struct {
	prefixes   map[string]string // prefix => namespace
	namespaces map[string]string // namespace => prefix

	// dirty is set when prefixes were added since the last refresh
	dirty bool

	// picked holds the prefixes chosen by PrefixOrAdd that have not been persisted yet
	picked map[string]struct{}
}

func (ns *Namespaces) init() {
	if ns.prefixes == nil {
		ns.prefixes = make(map[string]string)
		ns.namespaces = make(map[string]string)
	}
	if ns.picked == nil {
		ns.picked = make(map[string]struct{})
	}
}

// unbind removes prefix from this table
func (ns *Namespaces) unbind(prefix string) {
	delete(ns.namespaces, ns.prefixes[prefix])
	delete(ns.prefixes, prefix)
	delete(ns.picked, prefix)
}

// Add adds a prefix for the given namespace.
// Adding an identical mapping twice is a no-op.
// It is an error to rebind a prefix or namespace.
func (ns *Namespaces) Add(prefix, namespace string) error {
	ns.init()

	if other, ok := ns.prefixes[prefix]; ok {
		if other == namespace {
			return nil
		}
		return fmt.Errorf("%w: prefix %q is bound to %q, not %q", ErrPrefixConflict, prefix, other, namespace)
	}
	if other, ok := ns.namespaces[namespace]; ok {
		return fmt.Errorf("%w: namespace %q already has prefix %q, not %q", ErrPrefixConflict, namespace, other, prefix)
	}

	ns.prefixes[prefix] = namespace
	ns.namespaces[namespace] = prefix
	ns.dirty = true
	return nil
}

// Prefix returns the prefix of the given namespace.
func (ns *Namespaces) Prefix(namespace string) (prefix string, ok bool) {
	prefix, ok = ns.namespaces[namespace]
	return
}

// Namespace returns the namespace bound to the given prefix.
func (ns *Namespaces) Namespace(prefix string) (namespace string, ok bool) {
	namespace, ok = ns.prefixes[prefix]
	return
}

// PrefixOrAdd returns the prefix of the given namespace.
//
// When no prefix exists and strict is false, a new prefix is added.
// Well-known namespaces receive their usual prefix, others the first free prefix of the form ns0, ns1, ... .
// When strict is true, a missing prefix results in [ErrUnknownPrefix].
func (ns *Namespaces) PrefixOrAdd(namespace string, strict bool) (string, error) {
	if prefix, ok := ns.Prefix(namespace); ok {
		return prefix, nil
	}
	if strict {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrefix, namespace)
	}

	prefix, ok := standard[namespace]
	if _, taken := ns.prefixes[prefix]; !ok || taken {
		prefix = ns.free()
	}

	if err := ns.Add(prefix, namespace); err != nil {
		return "", err
	}
	ns.picked[prefix] = struct{}{}
	return prefix, nil
}

// free returns the first unused generated prefix
func (ns *Namespaces) free() string {
	for i := 0; ; i++ {
		prefix := generatedPrefix + strconv.Itoa(i)
		if _, ok := ns.prefixes[prefix]; !ok {
			return prefix
		}
	}
}

// Len returns the number of prefixes in this table.
func (ns *Namespaces) Len() int {
	return len(ns.prefixes)
}

// Snapshot returns a copy of the prefix => namespace mapping.
func (ns *Namespaces) Snapshot() map[string]string {
	if ns.prefixes == nil {
		return map[string]string{}
	}
	return maps.Clone(ns.prefixes)
}

// Prefixes returns all prefixes in sorted order.
func (ns *Namespaces) Prefixes() []string {
	prefixes := maps.Keys(ns.prefixes)
	slices.Sort(prefixes)
	return prefixes
}

// Load replaces the content of this table with the namespaces persisted in store.
func (ns *Namespaces) Load(store MetaStore) error {
	stored, err := read(store)
	if err != nil {
		return err
	}

	ns.prefixes = nil
	ns.namespaces = nil
	ns.picked = nil
	ns.init()

	for prefix, namespace := range stored {
		if err := ns.Add(prefix, namespace); err != nil {
			return fmt.Errorf("invalid namespaces in store: %w", err)
		}
	}
	ns.dirty = false
	return nil
}

// Refresh merges the namespaces persisted in store into this table, and persists prefixes added since the last refresh.
//
// A prefix generated by this table since the last refresh may meanwhile have been persisted for a different namespace,
// or its namespace under a different prefix.
// The namespace then moves to the persisted prefix, or to a new free one.
// renamed maps each moved prefix to its replacement, names using the old prefix must be rewritten by the caller.
//
// Any other conflicting definition results in [ErrPrefixConflict].
func (ns *Namespaces) Refresh(store MetaStore) (renamed map[string]string, err error) {
	ns.init()

	stored, err := read(store)
	if err != nil {
		return nil, err
	}

	dirty := ns.dirty
	moved := make(map[string]string) // old prefix => namespace
	for _, prefix := range sortedKeys(stored) {
		namespace := stored[prefix]

		if other, ok := ns.prefixes[prefix]; ok && other != namespace && ns.isPicked(prefix) {
			ns.unbind(prefix)
			moved[prefix] = other
		}
		if local, ok := ns.namespaces[namespace]; ok && local != prefix && ns.isPicked(local) {
			ns.unbind(local)
			moved[local] = namespace
		}

		if err := ns.Add(prefix, namespace); err != nil {
			return nil, err
		}
	}

	for _, old := range sortedKeys(moved) {
		namespace := moved[old]

		prefix, ok := ns.Prefix(namespace)
		if !ok {
			prefix = ns.free()
			if err := ns.Add(prefix, namespace); err != nil {
				return nil, err
			}
		}

		if renamed == nil {
			renamed = make(map[string]string, len(moved))
		}
		renamed[old] = prefix
	}

	// nothing new
	if !dirty && len(stored) == len(ns.prefixes) {
		ns.dirty = false
		return renamed, nil
	}

	data, err := json.Marshal(ns.prefixes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode namespaces: %w", err)
	}
	if err := store.SetMeta(metaKey, data); err != nil {
		return nil, fmt.Errorf("failed to store namespaces: %w", err)
	}
	ns.dirty = false
	clear(ns.picked)
	return renamed, nil
}

func (ns *Namespaces) isPicked(prefix string) bool {
	_, ok := ns.picked[prefix]
	return ok
}

func read(store MetaStore) (map[string]string, error) {
	data, ok, err := store.Meta(metaKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read namespaces: %w", err)
	}

	stored := make(map[string]string)
	if !ok {
		return stored, nil
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode namespaces: %w", err)
	}
	return stored, nil
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
