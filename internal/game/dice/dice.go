// Package dice rolls the dice expressions found in world data, such as
// "3d8+20" hit points or "2d6+1" weapon damage, and the percentile checks
// of Random reset commands.
package dice

import (
	"fmt"
	"strings"
)

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult is one evaluated expression.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String formats the roll for logs: "2d6+3: [4 5]+3 = 12". A flat
// expression prints only its total.
func (r RollResult) String() string {
	if len(r.Dice) == 0 {
		return fmt.Sprintf("%s = %d", r.Expression, r.Total())
	}
	parts := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		parts[i] = fmt.Sprint(d)
	}
	mod := ""
	if r.Modifier != 0 {
		mod = fmt.Sprintf("%+d", r.Modifier)
	}
	return fmt.Sprintf("%s: [%s]%s = %d", r.Expression, strings.Join(parts, " "), mod, r.Total())
}

// Percent reports whether a chance-in-100 check succeeds. A chance of 0 or
// less never succeeds and 100 or more always does, without consuming a roll.
func Percent(src Source, chance int) bool {
	switch {
	case chance <= 0:
		return false
	case chance >= 100:
		return true
	}
	return src.Intn(100) < chance
}
