package catalog

import (
	"fmt"
	"math"
)

// DefaultTreeDensity is the number of trees measured per hectare.
const DefaultTreeDensity = 10

// MaxTreesPerPlot bounds a single garden's tree count so it always fits an int
// and a measurement form stays finite.
const MaxTreesPerPlot = 1_000_000

// TreeCount returns round(areaHa * DefaultTreeDensity).
func TreeCount(areaHa float64) (int, error) {
	return TreeCountWithDensity(areaHa, DefaultTreeDensity)
}

// TreeCountWithDensity rounds half to even, so 2.25 ha at density 10 needs
// 22 trees and 2.75 ha needs 28.
func TreeCountWithDensity(areaHa, density float64) (int, error) {
	if math.IsNaN(areaHa) || math.IsInf(areaHa, 0) || areaHa < 0 {
		return 0, fmt.Errorf("catalog: garden area %v ha: %w", areaHa, ErrInvalidInput)
	}
	if math.IsNaN(density) || math.IsInf(density, 0) || density < 0 {
		return 0, fmt.Errorf("catalog: tree density %v: %w", density, ErrInvalidInput)
	}
	trees := math.RoundToEven(areaHa * density)
	if trees > MaxTreesPerPlot {
		return 0, fmt.Errorf("catalog: %v ha at density %v needs %v trees, limit is %d: %w",
			areaHa, density, trees, MaxTreesPerPlot, ErrInvalidInput)
	}
	return int(trees), nil
}
