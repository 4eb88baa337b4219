package toolserver

import (
	"github.com/googlegenomics/vcfserve/internal/filterexpr"
	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

// applyFilter compiles expr and returns the subset of variants it admits,
// preserving order. Compilation failure surfaces as a precondition error
// (spec §7 kind 2) to the caller.
func applyFilter(variants []*vcfio.Variant, expr string) ([]*vcfio.Variant, error) {
	predicate, err := filterexpr.Compile(expr)
	if err != nil {
		return nil, err
	}

	filtered := make([]*vcfio.Variant, 0, len(variants))
	for _, v := range variants {
		if predicate(v) {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}
