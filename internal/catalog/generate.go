package catalog

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Range is a closed interval of hectares.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// GenerateOptions parameterizes the demo plot generator.
type GenerateOptions struct {
	Count      int
	Areas      []Area
	AgeBuckets []AgeBucket
	AreaHa     Range
}

// DefaultGenerateOptions mirrors the demo dataset: 20 plots between 1 and 5 ha.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Count:      20,
		Areas:      DefaultAreas(),
		AgeBuckets: DefaultAgeBuckets(),
		AreaHa:     Range{Min: 1.0, Max: 5.0},
	}
}

// NewRand returns the seeded source used for generation and auto-selection.
// The same seed always yields the same catalog and the same draws.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds opts.Count plots with ids 1..Count. Area and age bucket are
// drawn independently and uniformly; area_ha is uniform in the range and
// rounded to two decimals. Each call returns an independent snapshot.
func Generate(rng *rand.Rand, opts GenerateOptions) (*Catalog, error) {
	if rng == nil {
		return nil, fmt.Errorf("catalog: random source is required")
	}
	if opts.Count < 0 {
		return nil, fmt.Errorf("catalog: plot count %d: %w", opts.Count, ErrInvalidInput)
	}
	if len(opts.Areas) == 0 || len(opts.AgeBuckets) == 0 {
		return nil, fmt.Errorf("catalog: area and age bucket domains must not be empty")
	}
	if opts.AreaHa.Min < 0 || opts.AreaHa.Max < opts.AreaHa.Min {
		return nil, fmt.Errorf("catalog: area range [%v, %v]: %w", opts.AreaHa.Min, opts.AreaHa.Max, ErrInvalidInput)
	}
	plots := make([]Plot, opts.Count)
	for i := range plots {
		ha := opts.AreaHa.Min + rng.Float64()*(opts.AreaHa.Max-opts.AreaHa.Min)
		plots[i] = Plot{
			ID:        i + 1,
			Area:      opts.Areas[rng.IntN(len(opts.Areas))],
			AgeBucket: opts.AgeBuckets[rng.IntN(len(opts.AgeBuckets))],
			AreaHa:    math.Round(ha*100) / 100,
		}
	}
	return &Catalog{plots: plots}, nil
}
