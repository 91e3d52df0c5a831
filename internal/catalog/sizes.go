package catalog

import "sort"

// SizeTable maps a segment to its ideal sample size. Treated as static
// configuration: lookups never mutate it.
type SizeTable map[Area]map[AgeBucket]int

// DefaultSizeTable returns the sample sizes used when the project config has
// no sample_sizes block.
func DefaultSizeTable() SizeTable {
	return SizeTable{
		AreaNorth: {AgeYoung: 3, AgeMiddle: 2, AgeMature: 1},
		AreaSouth: {AgeYoung: 2, AgeMiddle: 3, AgeMature: 2},
	}
}

// IdealSampleSize looks up the segment. Unknown combinations, and negative
// configured values, yield 0.
func (t SizeTable) IdealSampleSize(area Area, bucket AgeBucket) int {
	n := t[area][bucket]
	if n < 0 {
		return 0
	}
	return n
}

// Segments lists every configured segment sorted by area then bucket.
func (t SizeTable) Segments() []Segment {
	var out []Segment
	for area, buckets := range t {
		for bucket := range buckets {
			out = append(out, Segment{Area: area, AgeBucket: bucket})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Area != out[j].Area {
			return out[i].Area < out[j].Area
		}
		return out[i].AgeBucket < out[j].AgeBucket
	})
	return out
}

// Clone returns a deep copy.
func (t SizeTable) Clone() SizeTable {
	out := make(SizeTable, len(t))
	for area, buckets := range t {
		inner := make(map[AgeBucket]int, len(buckets))
		for bucket, n := range buckets {
			inner[bucket] = n
		}
		out[area] = inner
	}
	return out
}
