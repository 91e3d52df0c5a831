package catalog

import (
	"errors"
	"math"
	"testing"
)

func TestTreeCount(t *testing.T) {
	tests := []struct {
		ha   float64
		want int
	}{
		{0, 0},
		{1.0, 10},
		{2.0, 20},
		{3.0, 30},
		{4.0, 40},
		{5.0, 50},
		{1.24, 12},
		{1.26, 13},
		{2.25, 22},
		{2.75, 28},
		{0.04, 0},
	}
	for _, tt := range tests {
		got, err := TreeCount(tt.ha)
		if err != nil {
			t.Fatalf("TreeCount(%v) error: %v", tt.ha, err)
		}
		if got != tt.want {
			t.Fatalf("TreeCount(%v) = %d, want %d", tt.ha, got, tt.want)
		}
	}
}

func TestTreeCountMatchesRoundingRule(t *testing.T) {
	for i := 0; i <= 500; i++ {
		ha := float64(i) / 100
		got, err := TreeCount(ha)
		if err != nil {
			t.Fatalf("TreeCount(%v) error: %v", ha, err)
		}
		if want := int(math.RoundToEven(ha * 10)); got != want || got < 0 {
			t.Fatalf("TreeCount(%v) = %d, want %d", ha, got, want)
		}
	}
}

func TestTreeCountRejectsNegative(t *testing.T) {
	for _, ha := range []float64{-0.01, -3, math.NaN(), math.Inf(1), math.Inf(-1), 1e18, 1e300} {
		if _, err := TreeCount(ha); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("TreeCount(%v) err = %v, want ErrInvalidInput", ha, err)
		}
	}
	if _, err := TreeCountWithDensity(1, -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative density err = %v, want ErrInvalidInput", err)
	}
	for _, density := range []float64{math.Inf(1), math.NaN()} {
		if _, err := TreeCountWithDensity(1, density); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("density %v err = %v, want ErrInvalidInput", density, err)
		}
	}
	if got, err := TreeCountWithDensity(100_000, 10); err != nil || got != MaxTreesPerPlot {
		t.Fatalf("TreeCountWithDensity at the limit = %d, %v", got, err)
	}
	if _, err := TreeCountWithDensity(100_000.1, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("count above the limit err = %v, want ErrInvalidInput", err)
	}
}
