package statTest

import "math"

// Bonferroni returns the Bonferroni corrected p-values: every p-value is
// multiplied by the number of tests and clamped to 1.
func Bonferroni(pValues []float64) []float64 {
	var (
		n         = float64(len(pValues))
		corrected = make([]float64, len(pValues))
	)
	for i, p := range pValues {
		corrected[i] = math.Min(p*n, 1)
	}
	return corrected
}
