package crossval

import (
	"math/rand"
	"sort"
)

// SamplePages picks ang numbers for cross-validation using stratified
// selection: the 1..totalAngs range is divided into sampleSize strata
// and one ang is drawn from each, spreading coverage across the whole
// text. When totalAngs <= sampleSize every ang is returned.
//
// The result is sorted and unique; deduplication across strata means it
// may be slightly smaller than sampleSize but never larger. The rng is
// injected so identical seeds yield identical samples.
func SamplePages(totalAngs, sampleSize int, rng *rand.Rand) []int {
	if totalAngs <= 0 {
		return nil
	}
	if sampleSize >= totalAngs {
		all := make([]int, totalAngs)
		for i := range all {
			all[i] = i + 1
		}
		return all
	}

	stratum := float64(totalAngs) / float64(sampleSize)
	seen := make(map[int]struct{}, sampleSize)
	sampled := make([]int, 0, sampleSize)

	for i := 0; i < sampleSize; i++ {
		start := int(float64(i)*stratum) + 1
		end := int(float64(i+1) * stratum)
		if end > totalAngs {
			end = totalAngs
		}
		if end < start {
			end = start
		}
		ang := start + rng.Intn(end-start+1)
		if _, dup := seen[ang]; dup {
			continue
		}
		seen[ang] = struct{}{}
		sampled = append(sampled, ang)
	}

	sort.Ints(sampled)
	return sampled
}
