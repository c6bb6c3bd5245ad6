// Package pomdp writes and reads problem descriptions in Cassandra's POMDP
// file format, restricted to the sections the catch generator produces.
package pomdp

import (
	"math"
	"strconv"
	"strings"
)

// Section keywords, in the order they appear in a file.
const (
	keyDiscount     = "discount:"
	keyValues       = "values:"
	keyStates       = "states:"
	keyActions      = "actions:"
	keyObservations = "observations:"
	keyStart        = "start:"
	keyTransition   = "T:"

	wildcard     = "*"
	valuesReward = "reward"
)

// FormatFloat renders probabilities and the discount with 12 significant
// digits. Integral values keep a trailing ".0".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', 12, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// StartBelief returns the initial distribution over joint states. The first
// cells-1 joint states get round(1/cells, 6), joint state cells-1 absorbs
// the remainder and every later joint state gets 0.
func StartBelief(cells, jointStates int) []float64 {
	start := make([]float64, jointStates)
	rp := math.Round(1e6/float64(cells)) / 1e6
	for i := range start {
		switch {
		case i < cells-1:
			start[i] = rp
		case i == cells-1:
			start[i] = 1.0 - (float64(cells)-1.0)*rp
		}
	}
	return start
}

// VectorToken renders a digit vector as "_d0_d1...". When names is non-empty
// each digit indexes into it instead of being printed as a number.
func VectorToken(digits []int, names []string) string {
	var b strings.Builder
	for _, d := range digits {
		b.WriteByte('_')
		if len(names) > 0 {
			b.WriteString(names[d])
		} else {
			b.WriteString(strconv.Itoa(d))
		}
	}
	return b.String()
}
