package model

import (
	"cmp"
	"slices"
)

// Delta is the change of one token's count between two analyses.
type Delta struct {
	Token  string `json:"token"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// Change returns After minus Before.
func (d Delta) Change() int {
	return d.After - d.Before
}

// IsNew reports whether the token did not occur before.
func (d Delta) IsNew() bool {
	return d.Before == 0 && d.After > 0
}

// IsGone reports whether the token no longer occurs.
func (d Delta) IsGone() bool {
	return d.Before > 0 && d.After == 0
}

// Compare returns the tokens whose counts differ between before and after,
// largest absolute change first and then by token.
func Compare(before, after Frequency) []Delta {
	deltas := make([]Delta, 0)
	for token, was := range before {
		if now := after[token]; now != was {
			deltas = append(deltas, Delta{Token: token, Before: was, After: now})
		}
	}
	for token, now := range after {
		if _, ok := before[token]; !ok {
			deltas = append(deltas, Delta{Token: token, After: now})
		}
	}

	slices.SortFunc(deltas, func(a, b Delta) int {
		if c := cmp.Compare(abs(b.Change()), abs(a.Change())); c != 0 {
			return c
		}
		return cmp.Compare(a.Token, b.Token)
	})
	return deltas
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
