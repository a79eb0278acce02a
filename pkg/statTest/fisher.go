package statTest

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/combin"
)

// relErr is the relative tolerance used when comparing table probabilities
// against the observed one, so that ties survive floating point noise.
const relErr = 1 + 1e-7

// tailEps stops a tail sum once its terms no longer change the total
const tailEps = 1e-17

// FisherExact returns the two-sided p-value of Fisher's exact test on the
// 2x2 contingency table
//
//	[[a, b],
//	 [c, d]]
//
// The p-value is the sum of the hypergeometric probabilities of every table
// with the same margins that is no more likely than the observed one.
// A table with an empty row or column has p = 1.
func FisherExact(a, b, c, d int) (float64, error) {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return math.NaN(), errors.Errorf("fisher exact: negative count in table [[%d %d] [%d %d]]", a, b, c, d)
	}
	var (
		row1 = a + b
		row2 = c + d
		col1 = a + c
		n    = row1 + row2
	)
	if row1 == 0 || row2 == 0 || col1 == 0 || col1 == n {
		return 1, nil
	}

	var (
		lo = max(0, col1-row2)
		hi = min(row1, col1)

		logDenom = combin.LogGeneralizedBinomial(float64(n), float64(col1))
	)
	var pmf = func(k int) float64 {
		return math.Exp(
			combin.LogGeneralizedBinomial(float64(row1), float64(k)) +
				combin.LogGeneralizedBinomial(float64(row2), float64(col1-k)) -
				logDenom,
		)
	}

	var (
		threshold = pmf(a) * relErr
		mode      = min(max(int(math.Floor(float64(row1+1)*float64(col1+1)/float64(n+2))), lo), hi)
		p         float64
	)
	// pmf is non-decreasing up to mode and non-increasing after it, so the
	// tables no more likely than the observed one are [lo, left] and [right, hi]
	var left = lo - 1
	if pmf(mode) <= threshold {
		left = mode
	} else if pmf(lo) <= threshold {
		// pmf(left) <= threshold < pmf(r)
		var r = mode
		left = lo
		for r-left > 1 {
			var mid = left + (r-left)/2
			if pmf(mid) <= threshold {
				left = mid
			} else {
				r = mid
			}
		}
	}
	var right = hi + 1
	if mode < hi && pmf(hi) <= threshold {
		// pmf(l) > threshold >= pmf(right), or l == mode
		var l = mode
		right = hi
		for right-l > 1 {
			var mid = l + (right-l)/2
			if pmf(mid) <= threshold {
				right = mid
			} else {
				l = mid
			}
		}
	}

	for k := left; k >= lo; k-- {
		var v = pmf(k)
		p += v
		if v <= p*tailEps {
			break
		}
	}
	for k := right; k <= hi; k++ {
		var v = pmf(k)
		p += v
		if v <= p*tailEps {
			break
		}
	}
	return math.Min(p, 1), nil
}
