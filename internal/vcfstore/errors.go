package vcfstore

import (
	"fmt"

	"github.com/googlegenomics/vcfserve/internal/genomics"
)

// ChromosomeNotFound is the distinguished "absence" result (spec §7 kind 3)
// returned when none of the normalized forms of a requested chromosome
// resolve in the genomic index.
type ChromosomeNotFound struct {
	Requested  string
	Sample     []string // up to five example chromosome names from the file
	Suggestion string   // the alternate form that was tried but also failed
}

func (e *ChromosomeNotFound) Error() string {
	return fmt.Sprintf("chromosome %q not found (tried %q)", e.Requested, e.Suggestion)
}

// RegionTooLarge is a precondition error (spec §7 kind 2): the requested
// span exceeds the bounded-region ceiling.
type RegionTooLarge struct {
	Chromosome string
	Start, End uint64
	Limit      uint64
}

func (e *RegionTooLarge) Error() string {
	r := genomics.Region{Chromosome: e.Chromosome, Start: e.Start, End: e.End}
	return fmt.Sprintf("region %s spans %d bases, exceeding the %d-base limit", r.String(), r.Span(), e.Limit)
}

// InvalidRegion is a precondition error for start > end.
type InvalidRegion struct {
	Start, End uint64
}

func (e *InvalidRegion) Error() string {
	return fmt.Sprintf("region start %d exceeds end %d", e.Start, e.End)
}
