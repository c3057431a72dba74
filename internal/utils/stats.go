package utils

import (
	"math"
)

// roundFloat rounds a float64 to a specified number of decimal places.
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// CalculateStats calculates the average and sample standard deviation of a slice of float64 values.
// Returns (average, standardDeviation), both rounded to two decimals.
func CalculateStats(data []float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0.0, 0.0
	}

	sum := 0.0
	for _, val := range data {
		sum += val
	}
	average := sum / float64(n)

	if n < 2 {
		return roundFloat(average, 2), 0.0
	}

	varianceSum := 0.0
	for _, val := range data {
		varianceSum += math.Pow(val-average, 2)
	}
	// sample standard deviation, denominator n-1
	stdDev := math.Sqrt(varianceSum / float64(n-1))

	return roundFloat(average, 2), roundFloat(stdDev, 2)
}

// AgeBand returns the statistics age bracket of an age in whole years.
func AgeBand(age int) string {
	switch {
	case age < 18:
		return "Menor de 18"
	case age < 65:
		return "18-64 anos"
	default:
		return "65+ anos"
	}
}
