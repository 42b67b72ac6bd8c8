package model

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Frequency maps a case-normalized token to the number of times it occurred.
// Entries are created on first occurrence and only ever incremented.
type Frequency map[string]int

// NewFrequency returns an empty Frequency.
func NewFrequency() Frequency {
	return make(Frequency)
}

// Record increments the count of every token produced by tokens.
func (f Frequency) Record(tokens iter.Seq[string]) {
	for token := range tokens {
		f[token]++
	}
}

// Merge adds every count of other into f.
// Merging is additive, so the order in which mappings are merged does not
// change the result.
func (f Frequency) Merge(other Frequency) {
	for token, count := range other {
		f[token] += count
	}
}

// Total returns the sum of all counts.
func (f Frequency) Total() int {
	total := 0
	for _, count := range f {
		total += count
	}
	return total
}

// Distinct returns the number of distinct tokens.
func (f Frequency) Distinct() int {
	return len(f)
}

// Hapax returns the number of tokens that occurred exactly once.
func (f Frequency) Hapax() int {
	n := 0
	for _, count := range f {
		if count == 1 {
			n++
		}
	}
	return n
}

// Entry is one token and its count.
type Entry struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Ranked returns the entries of f ordered by descending count and then by
// ascending token. The order is total, so equal inputs always produce the
// same output.
func (f Frequency) Ranked() []Entry {
	entries := make([]Entry, 0, len(f))
	for token, count := range f {
		entries = append(entries, Entry{Token: token, Count: count})
	}
	slices.SortFunc(entries, compareEntries)
	return entries
}

// compareEntries orders entries for Ranked.
func compareEntries(a, b Entry) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return cmp.Compare(a.Token, b.Token)
}

// Equal reports whether f and other hold the same tokens and counts.
func (f Frequency) Equal(other Frequency) bool {
	return maps.Equal(f, other)
}
