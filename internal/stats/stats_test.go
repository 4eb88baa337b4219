package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, SNP, Classify("A", "G"))
	assert.Equal(t, Insertion, Classify("A", "ATG"))
	assert.Equal(t, Deletion, Classify("ATG", "A"))
	assert.Equal(t, MNP, Classify("AT", "GC"))
	assert.Equal(t, Complex, Classify("AT", "GCA"))
}

func quality(q float64) *float64 { return &q }

func TestAggregate(t *testing.T) {
	variants := []*vcfio.Variant{
		{Chromosome: "1", Reference: "A", Alternate: []string{"G"}, Quality: quality(30), Filter: nil, Info: map[string]interface{}{"DP": 20}},
		{Chromosome: "1", Reference: "A", Alternate: []string{"AT"}, Quality: quality(10), Filter: []string{"q10"}, Info: map[string]interface{}{"DP": 5}},
		{Chromosome: "2", Reference: "AT", Alternate: []string{"A"}, Quality: nil, Filter: nil},
	}
	i := 0
	result, err := Aggregate(func() (*vcfio.Variant, bool, error) {
		if i >= len(variants) {
			return nil, false, nil
		}
		v := variants[i]
		i++
		return v, true, nil
	}, 25)

	assert.NoError(t, err)
	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 1, result.TypeCounts[SNP])
	assert.Equal(t, 1, result.TypeCounts[Insertion])
	assert.Equal(t, 1, result.TypeCounts[Deletion])
	assert.Equal(t, 2, result.FilterCounts["PASS"])
	assert.Equal(t, 1, result.FilterCounts["q10"])
	assert.True(t, result.HasQuality)
	assert.Equal(t, 10.0, result.QualityMin)
	assert.Equal(t, 30.0, result.QualityMax)
	assert.True(t, result.HasDepth)
	assert.Equal(t, 5.0, result.DepthMin)
	assert.Equal(t, 20.0, result.DepthMax)

	var total int
	for _, c := range result.ChromosomeCounts {
		total += c.Count
	}
	assert.Equal(t, result.TotalRecords, total)
}

func TestAggregate_Truncation(t *testing.T) {
	var variants []*vcfio.Variant
	for _, chrom := range []string{"1", "2", "3", "4", "5"} {
		variants = append(variants, &vcfio.Variant{Chromosome: chrom, Reference: "A", Alternate: []string{"G"}})
	}
	i := 0
	result, err := Aggregate(func() (*vcfio.Variant, bool, error) {
		if i >= len(variants) {
			return nil, false, nil
		}
		v := variants[i]
		i++
		return v, true, nil
	}, 2)

	assert.NoError(t, err)
	assert.Len(t, result.ChromosomeCounts, 2)
}
