// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import "github.com/danielhkuo/quickly-annotate/models"

// Passes decides whether a user's validation outcomes earn the pass token.
//
// With no checks at all the user passes. A float threshold of 1 or more
// always fails. A float threshold below 1 is the allowed share of failed
// checks; an integer threshold is the allowed count.
func Passes(threshold models.Threshold, validations map[int][]bool) bool {
	total, failed := 0, 0
	for _, checks := range validations {
		for _, ok := range checks {
			total++
			if !ok {
				failed++
			}
		}
	}

	if total == 0 {
		return true
	}
	if threshold.IsFloat {
		if threshold.Value >= 1 {
			return false
		}
		return float64(failed)/float64(total) <= threshold.Value
	}
	return float64(failed) <= threshold.Value
}
