// internal/catalog/catalog.go
//
// The garden catalog holds the universe of candidate plots and answers the
// filter/lookup/derivation queries the sampling workflow needs.
// Nothing in here keeps state between calls: a catalog is a value snapshot
// owned by whoever generated or loaded it.

package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks a rejected input value (negative area, unknown
// area or age bucket, non-numeric strict measurement).
var ErrInvalidInput = errors.New("invalid input")

// Area names a geographic sampling area.
type Area string

// AgeBucket names a plantation age range.
type AgeBucket string

// Default domains used when the project config does not override them.
const (
	AreaNorth Area = "North"
	AreaSouth Area = "South"

	AgeYoung  AgeBucket = "0-5"
	AgeMiddle AgeBucket = "6-10"
	AgeMature AgeBucket = "11-15"
)

// DefaultAreas lists the areas offered in step 1.
func DefaultAreas() []Area {
	return []Area{AreaNorth, AreaSouth}
}

// DefaultAgeBuckets lists the age buckets offered in step 2.
func DefaultAgeBuckets() []AgeBucket {
	return []AgeBucket{AgeYoung, AgeMiddle, AgeMature}
}

// Plot is one garden unit. Plots are immutable once generated; ID is the identity.
type Plot struct {
	ID        int       `json:"garden_id" yaml:"garden_id"`
	Area      Area      `json:"area" yaml:"area"`
	AgeBucket AgeBucket `json:"age_bucket" yaml:"age_bucket"`
	AreaHa    float64   `json:"garden_area_ha" yaml:"garden_area_ha"`
}

// Segment is one (area, age bucket) combination.
type Segment struct {
	Area      Area
	AgeBucket AgeBucket
}

func (s Segment) String() string {
	return string(s.Area) + "/" + string(s.AgeBucket)
}

// Catalog is an ordered snapshot of plots.
type Catalog struct {
	plots []Plot
}

// New wraps plots in a catalog. The slice is copied.
func New(plots []Plot) *Catalog {
	return &Catalog{plots: append([]Plot(nil), plots...)}
}

// Plots returns a copy of every plot in catalog order.
func (c *Catalog) Plots() []Plot {
	if c == nil {
		return nil
	}
	return append([]Plot(nil), c.plots...)
}

// Len reports the number of plots.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.plots)
}

// Lookup returns the plot with the given id.
func (c *Catalog) Lookup(id int) (Plot, bool) {
	if c == nil {
		return Plot{}, false
	}
	for _, p := range c.plots {
		if p.ID == id {
			return p, true
		}
	}
	return Plot{}, false
}

// Filter returns the plots whose area and age bucket both match, in catalog
// order. No match yields an empty (non-nil) slice.
func (c *Catalog) Filter(area Area, bucket AgeBucket) []Plot {
	out := []Plot{}
	if c == nil {
		return out
	}
	for _, p := range c.plots {
		if p.Area == area && p.AgeBucket == bucket {
			out = append(out, p)
		}
	}
	return out
}

// ParseArea matches value against domain, ignoring case and surrounding space.
func ParseArea(value string, domain []Area) (Area, error) {
	trimmed := strings.TrimSpace(value)
	for _, a := range domain {
		if strings.EqualFold(string(a), trimmed) {
			return a, nil
		}
	}
	return "", fmt.Errorf("catalog: unknown area %q: %w", value, ErrInvalidInput)
}

// ParseAgeBucket matches value against domain, ignoring surrounding space.
func ParseAgeBucket(value string, domain []AgeBucket) (AgeBucket, error) {
	trimmed := strings.TrimSpace(value)
	for _, b := range domain {
		if string(b) == trimmed {
			return b, nil
		}
	}
	return "", fmt.Errorf("catalog: unknown age bucket %q: %w", value, ErrInvalidInput)
}
