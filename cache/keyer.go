package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// hashWidth is the length of the hex digest that replaces an over-long key body.
const hashWidth = 32

// Keyer builds deterministic, length-bounded cache keys.
//
// Key layout: [<namespace>:]<scope>[<sep><version>]<sep><cacheID>
// where cacheID is the identifier, followed by <sep><canonical JSON args>
// when pass-through arguments are present. Spaces become underscores. When
// the key would exceed the budget, or contains bytes a text protocol cannot
// carry, the body after the namespace is replaced by a 32-character SHA-256
// prefix of the unhashed body, and the result is truncated to the budget.
//
// A Keyer is immutable and safe for concurrent use.
type Keyer struct {
	scope   string
	version string
	sep     string
	maxLen  int
}

// NewKeyer creates a Keyer from cfg. cfg is validated and defaulted first.
func NewKeyer(cfg Config) (*Keyer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Keyer{
		scope:   cfg.Scope,
		version: cfg.Version,
		sep:     cfg.Separator,
		maxLen:  cfg.MaxKeyLength(),
	}, nil
}

// Separator returns the segment separator.
func (k *Keyer) Separator() string { return k.sep }

// MaxKeyLength returns the key budget.
func (k *Keyer) MaxKeyLength() int { return k.maxLen }

// CacheID joins an identifier with the canonical form of args.
func (k *Keyer) CacheID(id string, args map[string]any) (string, error) {
	if len(args) == 0 {
		return id, nil
	}
	encoded, err := canonicalize(args)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize args: %w", err)
	}
	return id + k.sep + string(encoded), nil
}

// Key builds the store key for an already-derived cache id.
func (k *Keyer) Key(cacheID, namespace string) string {
	segments := make([]string, 0, 3)
	segments = append(segments, k.scope)
	if k.version != "" {
		segments = append(segments, k.version)
	}
	if cacheID != "" {
		segments = append(segments, cacheID)
	}
	body := strings.ReplaceAll(strings.Join(segments, k.sep), " ", "_")

	var prefix string
	if namespace != "" {
		prefix = strings.ReplaceAll(namespace, " ", "_") + ":"
	}

	if len(prefix)+len(body) > k.maxLen || !isPrintableKey(body) {
		sum := sha256.Sum256([]byte(body))
		body = hex.EncodeToString(sum[:hashWidth/2])
	}

	key := prefix + body
	if len(key) > k.maxLen {
		key = key[:k.maxLen]
	}
	return key
}

// KeyFor builds the key for one identifier under opts.
func (k *Keyer) KeyFor(id string, opts Options) (string, error) {
	cacheID, err := k.CacheID(id, opts.FilteredArgs())
	if err != nil {
		return "", err
	}
	return k.Key(cacheID, opts.Namespace), nil
}

// KeysFor builds keys for ids in input order. Duplicates yield duplicate keys.
func (k *Keyer) KeysFor(ids []string, opts Options) ([]string, error) {
	var suffix string
	if args := opts.FilteredArgs(); len(args) > 0 {
		encoded, err := canonicalize(args)
		if err != nil {
			return nil, fmt.Errorf("cache: failed to canonicalize args: %w", err)
		}
		suffix = k.sep + string(encoded)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = k.Key(id+suffix, opts.Namespace)
	}
	return keys, nil
}

// canonicalize produces a deterministic JSON representation of v.
// Object keys are sorted at every depth; array order is preserved.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(append(buf, name...), ':')

		val, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	buf := []byte{'['}
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		val, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, val...)
	}
	return append(buf, ']'), nil
}

// marshal encodes v as compact JSON without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
