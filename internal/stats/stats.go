// Package stats implements the Statistics Aggregator (spec §4.7): a
// single-pass, full-file scan producing counted and summarized variant
// facts, invoked on demand and holding the VcfStore lock for its entire
// duration.
package stats

import (
	"sort"

	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

// VariantType classifies a single REF/ALT pair by length, per spec §4.7.
type VariantType string

const (
	SNP       VariantType = "SNP"
	Insertion VariantType = "Insertion"
	Deletion  VariantType = "Deletion"
	MNP       VariantType = "MNP"
	Complex   VariantType = "Complex"
)

// Classify returns ref/alt's variant type.
func Classify(ref, alt string) VariantType {
	switch {
	case len(ref) == 1 && len(alt) == 1:
		return SNP
	case len(ref) == 1 && len(alt) > 1:
		return Insertion
	case len(ref) > 1 && len(alt) == 1:
		return Deletion
	case len(ref) > 1 && len(ref) == len(alt):
		return MNP
	default:
		return Complex
	}
}

// ChromosomeCount names a chromosome and its record count, for the
// truncated, count-descending ranking in Statistics.
type ChromosomeCount struct {
	Chromosome string
	Count      int
}

// Statistics is the aggregated result of a full-file scan.
type Statistics struct {
	TotalRecords int
	TypeCounts   map[VariantType]int
	FilterCounts map[string]int

	QualityMin, QualityMax, QualityMean float64
	HasQuality                          bool

	DepthMin, DepthMax, DepthMean float64
	HasDepth                      bool

	ChromosomeCounts []ChromosomeCount // descending by count, truncated
}

// accumulator holds running sums before Statistics is finalized.
type accumulator struct {
	total        int
	typeCounts   map[VariantType]int
	filterCounts map[string]int
	chromCounts  map[string]int

	qualitySum             float64
	qualityCount           int
	qualityMin, qualityMax float64

	depthSum           float64
	depthCount         int
	depthMin, depthMax float64
}

// Aggregate performs a single pass over every variant yielded by next,
// which should be called until it returns (nil, false). maxChromosomes
// bounds the per-chromosome ranking (0 means unlimited), defaulting to 25
// per spec §4.7 when a caller passes a negative value.
func Aggregate(next func() (*vcfio.Variant, bool, error), maxChromosomes int) (*Statistics, error) {
	if maxChromosomes < 0 {
		maxChromosomes = 25
	}

	acc := &accumulator{
		typeCounts:   make(map[VariantType]int),
		filterCounts: make(map[string]int),
		chromCounts:  make(map[string]int),
	}

	for {
		v, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		acc.observe(v)
	}

	return acc.finalize(maxChromosomes), nil
}

func (acc *accumulator) observe(v *vcfio.Variant) {
	acc.total++
	acc.chromCounts[v.Chromosome]++

	if len(v.Filter) == 0 {
		acc.filterCounts["PASS"]++
	} else {
		for _, f := range v.Filter {
			acc.filterCounts[f]++
		}
	}

	for _, alt := range v.Alternate {
		acc.typeCounts[Classify(v.Reference, alt)]++
	}

	if v.Quality != nil {
		q := *v.Quality
		if acc.qualityCount == 0 || q < acc.qualityMin {
			acc.qualityMin = q
		}
		if acc.qualityCount == 0 || q > acc.qualityMax {
			acc.qualityMax = q
		}
		acc.qualitySum += q
		acc.qualityCount++
	}

	if dp, ok := depthOf(v); ok {
		if acc.depthCount == 0 || dp < acc.depthMin {
			acc.depthMin = dp
		}
		if acc.depthCount == 0 || dp > acc.depthMax {
			acc.depthMax = dp
		}
		acc.depthSum += dp
		acc.depthCount++
	}
}

func depthOf(v *vcfio.Variant) (float64, bool) {
	raw, ok := v.Info["DP"]
	if !ok {
		return 0, false
	}
	switch x := raw.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func (acc *accumulator) finalize(maxChromosomes int) *Statistics {
	s := &Statistics{
		TotalRecords: acc.total,
		TypeCounts:   acc.typeCounts,
		FilterCounts: acc.filterCounts,
	}

	if acc.qualityCount > 0 {
		s.HasQuality = true
		s.QualityMin = acc.qualityMin
		s.QualityMax = acc.qualityMax
		s.QualityMean = acc.qualitySum / float64(acc.qualityCount)
	}
	if acc.depthCount > 0 {
		s.HasDepth = true
		s.DepthMin = acc.depthMin
		s.DepthMax = acc.depthMax
		s.DepthMean = acc.depthSum / float64(acc.depthCount)
	}

	counts := make([]ChromosomeCount, 0, len(acc.chromCounts))
	for chrom, count := range acc.chromCounts {
		counts = append(counts, ChromosomeCount{Chromosome: chrom, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Chromosome < counts[j].Chromosome
	})
	if maxChromosomes > 0 && len(counts) > maxChromosomes {
		counts = counts[:maxChromosomes]
	}
	s.ChromosomeCounts = counts

	return s
}
