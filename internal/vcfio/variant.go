package vcfio

import (
	"strings"

	"github.com/brentp/vcfgo"
)

// Variant is the model-level representation of a single VCF record,
// independent of the vcfgo decoding types so query results and the tool
// surface never carry vcfgo types.
type Variant struct {
	Chromosome string
	Position   uint64
	ID         []string
	Reference  string
	Alternate  []string
	Quality    *float64
	Filter     []string
	Info       map[string]interface{}
	Format     []string
	Samples    []map[string]string
}

// FromVcfgo converts a decoded vcfgo.Variant into our Variant shape.
func FromVcfgo(v *vcfgo.Variant) *Variant {
	out := &Variant{
		Chromosome: v.Chromosome,
		Position:   v.Pos,
		Reference:  v.Reference,
		Alternate:  append([]string(nil), v.Alternate...),
		Format:     append([]string(nil), v.Format...),
	}

	if ids := splitIDs(v.Id_); len(ids) > 0 {
		out.ID = ids
	}

	if !isMissingQuality(v.Quality) {
		q := float64(v.Quality)
		out.Quality = &q
	}

	out.Filter = splitFilter(v.Filter)

	if info := v.Info(); info != nil {
		out.Info = make(map[string]interface{})
		for _, key := range info.Keys() {
			if val, err := info.Get(key); err == nil {
				out.Info[key] = val
			}
		}
	}

	for _, sample := range v.Samples {
		fields := make(map[string]string, len(out.Format))
		for _, key := range out.Format {
			if val, ok := sample.Fields[key]; ok {
				fields[key] = val
			}
		}
		out.Samples = append(out.Samples, fields)
	}

	return out
}

// splitIDs splits a VCF ID column on ';', dropping the "no id" sentinel.
func splitIDs(raw string) []string {
	if raw == "" || raw == "." {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ";") {
		if id != "" && id != "." {
			ids = append(ids, id)
		}
	}
	return ids
}

// splitFilter splits a VCF FILTER column on ';'. "PASS" and "." both map to
// distinct, well-defined results: PASS is kept as a single-entry set, "."
// (not evaluated) yields an empty, possibly-nil set per the data model.
func splitFilter(raw string) []string {
	if raw == "" || raw == "." {
		return nil
	}
	return strings.Split(raw, ";")
}

func isMissingQuality(q float32) bool {
	return q != q // NaN is vcfgo's sentinel for an absent QUAL field.
}
