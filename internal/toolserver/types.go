package toolserver

import (
	"github.com/googlegenomics/vcfserve/internal/stats"
	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

// ChromosomeNotFoundResult is the distinguished absence shape (spec §7
// kind 3) every chromosome-taking tool returns instead of an error.
type ChromosomeNotFoundResult struct {
	Requested  string   `json:"requested"`
	Sample     []string `json:"available_chromosomes_sample"`
	Suggestion string   `json:"suggestion"`
}

// ReferenceBuildResult mirrors vcfstore.ReferenceBuild for the wire.
type ReferenceBuildResult struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// QueryByPositionParams are the inputs to query_by_position.
type QueryByPositionParams struct {
	Chrom    string `json:"chrom"`
	Position uint64 `json:"position"`
}

// QueryByPositionResult is the output of query_by_position.
type QueryByPositionResult struct {
	MatchedChrom    string                     `json:"matched_chrom,omitempty"`
	ReferenceGenome *ReferenceBuildResult      `json:"reference_genome,omitempty"`
	Variants        []*vcfio.Variant           `json:"variants,omitempty"`
	NotFound        *ChromosomeNotFoundResult  `json:"not_found,omitempty"`
}

// QueryByRegionParams are the inputs to query_by_region.
type QueryByRegionParams struct {
	Chrom  string `json:"chrom"`
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
	Filter string `json:"filter,omitempty"`
}

// QueryByRegionResult is the output of query_by_region.
type QueryByRegionResult struct {
	MatchedChrom string                    `json:"matched_chrom,omitempty"`
	Variants     []*vcfio.Variant          `json:"variants,omitempty"`
	NotFound     *ChromosomeNotFoundResult `json:"not_found,omitempty"`
}

// QueryByIDParams are the inputs to query_by_id.
type QueryByIDParams struct {
	ID string `json:"id"`
}

// QueryByIDResult is the output of query_by_id.
type QueryByIDResult struct {
	Variants []*vcfio.Variant `json:"variants"`
}

// GetVcfHeaderParams are the inputs to get_vcf_header.
type GetVcfHeaderParams struct {
	Substring string `json:"substring,omitempty"`
}

// GetVcfHeaderResult is the output of get_vcf_header.
type GetVcfHeaderResult struct {
	Text           string                `json:"text"`
	LineCount      int                   `json:"line_count"`
	ReferenceBuild ReferenceBuildResult `json:"reference_build"`
}

// StartRegionQueryParams are the inputs to start_region_query.
type StartRegionQueryParams struct {
	Chrom  string `json:"chrom"`
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
	Filter string `json:"filter,omitempty"`
}

// StartRegionQueryResult is the output of start_region_query.
type StartRegionQueryResult struct {
	Variant      *vcfio.Variant            `json:"variant,omitempty"`
	SessionKey   string                    `json:"session_key,omitempty"`
	More         bool                      `json:"more"`
	MatchedChrom string                    `json:"matched_chrom,omitempty"`
	NotFound     *ChromosomeNotFoundResult `json:"not_found,omitempty"`
}

// GetNextVariantParams are the inputs to get_next_variant.
type GetNextVariantParams struct {
	SessionKey string `json:"session_key"`
}

// GetNextVariantResult is the output of get_next_variant.
type GetNextVariantResult struct {
	Variant    *vcfio.Variant `json:"variant,omitempty"`
	SessionKey string         `json:"session_key,omitempty"`
	More       bool           `json:"more"`
	Exhausted  bool           `json:"exhausted"`
}

// CloseQuerySessionParams are the inputs to close_query_session.
type CloseQuerySessionParams struct {
	SessionKey string `json:"session_key"`
}

// CloseQuerySessionResult is the output of close_query_session.
type CloseQuerySessionResult struct {
	Closed bool `json:"closed"`
}

// GetStatisticsParams are the inputs to get_statistics.
type GetStatisticsParams struct {
	MaxChromosomes *int `json:"max_chromosomes,omitempty"`
}

// GetStatisticsResult is the output of get_statistics.
type GetStatisticsResult struct {
	TotalRecords     int                        `json:"total_records"`
	TypeCounts       map[stats.VariantType]int  `json:"type_counts"`
	FilterCounts     map[string]int             `json:"filter_counts"`
	QualityMin       float64                    `json:"quality_min,omitempty"`
	QualityMax       float64                    `json:"quality_max,omitempty"`
	QualityMean      float64                    `json:"quality_mean,omitempty"`
	DepthMin         float64                    `json:"depth_min,omitempty"`
	DepthMax         float64                    `json:"depth_max,omitempty"`
	DepthMean        float64                    `json:"depth_mean,omitempty"`
	ChromosomeCounts []stats.ChromosomeCount    `json:"chromosome_counts"`
}
