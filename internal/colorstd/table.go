package colorstd

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// table is the closed code set behind one enumeration.
type table[T ~int] struct {
	standard string
	names    map[T]string
	byName   map[string]T
	ordered  []T
}

func newTable[T ~int](standard string, names map[T]string) *table[T] {
	t := &table[T]{
		standard: standard,
		names:    names,
		byName:   make(map[string]T, len(names)),
		ordered:  make([]T, 0, len(names)),
	}
	for v, n := range names {
		t.byName[n] = v
		t.ordered = append(t.ordered, v)
	}
	sort.Slice(t.ordered, func(i, j int) bool { return t.ordered[i] < t.ordered[j] })
	return t
}

func (t *table[T]) fromInt(v int) (T, error) {
	c := T(v)
	if _, ok := t.names[c]; !ok {
		return 0, &InvalidCodeError{Standard: t.standard, Value: v}
	}
	return c, nil
}

func (t *table[T]) parse(name string) (T, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if c, ok := t.byName[key]; ok {
		return c, nil
	}
	return 0, &InvalidCodeError{Standard: t.standard, Name: name}
}

func (t *table[T]) name(c T) string {
	if n, ok := t.names[c]; ok {
		return n
	}
	return fmt.Sprintf("%s(%d)", t.standard, int(c))
}

func (t *table[T]) valid(c T) bool {
	_, ok := t.names[c]
	return ok
}

func (t *table[T]) all() []T {
	out := make([]T, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// decodeYAML accepts either the integer code or the canonical name.
func (t *table[T]) decodeYAML(node *yaml.Node) (T, error) {
	var v int
	if err := node.Decode(&v); err == nil {
		return t.fromInt(v)
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return 0, fmt.Errorf("%s: %w", t.standard, err)
	}
	return t.parse(s)
}
