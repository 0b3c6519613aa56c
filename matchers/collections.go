package matchers

import (
	"fmt"
	"sort"
	"strings"
)

func describeAll[T any](ms []Matcher[T]) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, m.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func describeItems[E any](items []E) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, DescribeValue(item))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// HasItem matches slices with at least one item matching m.
func HasItem[E any](m Matcher[E]) Matcher[[]E] {
	return funcMatcher[[]E]{
		description: "a collection containing " + m.String(),
		match: func(items []E) bool {
			for _, item := range items {
				if m.Matches(item) {
					return true
				}
			}
			return false
		},
		mismatch: func(items []E) string {
			if len(items) == 0 {
				return "was empty"
			}
			return "mismatches were: " + describeItems(items)
		},
	}
}

// HasItemEqualTo is shorthand for HasItem(EqualTo(expected)).
func HasItemEqualTo[E any](expected E) Matcher[[]E] {
	return HasItem(EqualTo(expected))
}

// Contains matches slices whose items match the matchers one by one, in order.
func Contains[E any](ms ...Matcher[E]) Matcher[[]E] {
	return Diagnosing("iterable containing "+describeAll(ms), func(items []E, mismatch *strings.Builder) bool {
		for i, m := range ms {
			if i >= len(items) {
				fmt.Fprintf(mismatch, "no item was %s", m)
				return false
			}
			if !m.Matches(items[i]) {
				fmt.Fprintf(mismatch, "item %d: %s", i, m.DescribeMismatch(items[i]))
				return false
			}
		}
		if len(items) > len(ms) {
			fmt.Fprintf(mismatch, "not matched: %s", DescribeValue(items[len(ms)]))
			return false
		}
		return true
	})
}

// ContainsInAnyOrder matches slices that can be paired one to one with the matchers.
func ContainsInAnyOrder[E any](ms ...Matcher[E]) Matcher[[]E] {
	return Diagnosing("iterable with items "+describeAll(ms)+" in any order",
		func(items []E, mismatch *strings.Builder) bool {
			used := make([]bool, len(ms))
			for _, item := range items {
				found := false
				for j, m := range ms {
					if !used[j] && m.Matches(item) {
						used[j] = true
						found = true
						break
					}
				}
				if !found {
					fmt.Fprintf(mismatch, "not matched: %s", DescribeValue(item))
					return false
				}
			}
			for j, u := range used {
				if !u {
					fmt.Fprintf(mismatch, "no item matches: %s in %s", ms[j], describeItems(items))
					return false
				}
			}
			return true
		})
}

func HasSize[E any](size int) Matcher[[]E] {
	return funcMatcher[[]E]{
		description: fmt.Sprintf("a collection with size <%d>", size),
		match:       func(items []E) bool { return len(items) == size },
		mismatch:    func(items []E) string { return fmt.Sprintf("collection size was <%d>", len(items)) },
	}
}

func Empty[E any]() Matcher[[]E] {
	return funcMatcher[[]E]{
		description: "an empty collection",
		match:       func(items []E) bool { return len(items) == 0 },
		mismatch:    func(items []E) string { return "was " + describeItems(items) },
	}
}

// HasEntry matches maps with at least one entry whose key and value match.
func HasEntry[K comparable, V any](key Matcher[K], value Matcher[V]) Matcher[map[K]V] {
	return funcMatcher[map[K]V]{
		description: fmt.Sprintf("map containing [%s->%s]", key, value),
		match: func(m map[K]V) bool {
			for k, v := range m {
				if key.Matches(k) && value.Matches(v) {
					return true
				}
			}
			return false
		},
		mismatch: func(m map[K]V) string {
			entries := make([]string, 0, len(m))
			for k, v := range m {
				entries = append(entries, fmt.Sprintf("%s->%s", DescribeValue(k), DescribeValue(v)))
			}
			sort.Strings(entries)
			return "map was [" + strings.Join(entries, ", ") + "]"
		},
	}
}
