// Package filterexpr compiles the small filter-expression language used by
// region and streaming queries into an opaque predicate over a decoded
// variant. The real expression language is an external collaborator (spec
// §9); this package is the minimal stand-in the core compiles against, and
// is deliberately conservative: it supports the common QUAL/FILTER/INFO
// comparisons seen in VCF tooling, not a general expression grammar.
package filterexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

// Predicate reports whether a variant should be admitted by a query's
// filter. A Predicate compiled from an empty expression admits every
// variant; callers never invoke a nil Predicate.
type Predicate func(*vcfio.Variant) bool

type op int

const (
	opEQ op = iota
	opNE
	opGT
	opGE
	opLT
	opLE
)

var operators = []struct {
	text string
	op   op
}{
	// Longest-match first so ">=" isn't split into ">" and "=".
	{">=", opGE},
	{"<=", opLE},
	{"!=", opNE},
	{"==", opEQ},
	{">", opGT},
	{"<", opLT},
	{"=", opEQ},
}

// Compile parses expr, a sequence of clauses joined by "AND" (case
// insensitive; "&&" also accepted), each of the form `field OP value`.
// Recognized fields are QUAL, FILTER, and INFO.<key>. An empty or
// all-whitespace expr compiles to a predicate admitting everything.
func Compile(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return func(*vcfio.Variant) bool { return true }, nil
	}

	clauses := splitClauses(expr)
	predicates := make([]Predicate, 0, len(clauses))
	for _, clause := range clauses {
		p, err := compileClause(strings.TrimSpace(clause))
		if err != nil {
			return nil, fmt.Errorf("filterexpr: %w", err)
		}
		predicates = append(predicates, p)
	}

	return func(v *vcfio.Variant) bool {
		for _, p := range predicates {
			if !p(v) {
				return false
			}
		}
		return true
	}, nil
}

func splitClauses(expr string) []string {
	normalized := strings.ReplaceAll(expr, "&&", " AND ")
	fields := strings.Fields(normalized)

	var clauses []string
	var current []string
	for _, field := range fields {
		if strings.EqualFold(field, "AND") {
			if len(current) > 0 {
				clauses = append(clauses, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, field)
	}
	if len(current) > 0 {
		clauses = append(clauses, strings.Join(current, " "))
	}
	return clauses
}

func compileClause(clause string) (Predicate, error) {
	field, operator, value, err := splitClause(clause)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.EqualFold(field, "QUAL"):
		want, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("QUAL filter value %q is not numeric: %w", value, err)
		}
		return func(v *vcfio.Variant) bool {
			if v.Quality == nil {
				return false
			}
			return compareFloat(*v.Quality, operator, want)
		}, nil

	case strings.EqualFold(field, "FILTER"):
		return func(v *vcfio.Variant) bool {
			return compareFilter(v.Filter, operator, value)
		}, nil

	case strings.HasPrefix(strings.ToUpper(field), "INFO."):
		key := field[len("INFO."):]
		want, parseErr := strconv.ParseFloat(value, 64)
		return func(v *vcfio.Variant) bool {
			got, ok := v.Info[key]
			if !ok {
				return false
			}
			return compareInfo(got, operator, value, want, parseErr != nil)
		}, nil

	default:
		return nil, fmt.Errorf("unsupported filter field %q", field)
	}
}

func splitClause(clause string) (field string, operator op, value string, err error) {
	for _, candidate := range operators {
		if idx := strings.Index(clause, candidate.text); idx > 0 {
			field = strings.TrimSpace(clause[:idx])
			value = strings.Trim(strings.TrimSpace(clause[idx+len(candidate.text):]), `"'`)
			return field, candidate.op, value, nil
		}
	}
	return "", 0, "", fmt.Errorf("malformed clause %q", clause)
}

func compareFloat(got float64, operator op, want float64) bool {
	switch operator {
	case opEQ:
		return got == want
	case opNE:
		return got != want
	case opGT:
		return got > want
	case opGE:
		return got >= want
	case opLT:
		return got < want
	case opLE:
		return got <= want
	default:
		return false
	}
}

func compareFilter(tags []string, operator op, want string) bool {
	present := false
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			present = true
			break
		}
	}
	if want == "PASS" && len(tags) == 0 {
		present = true // an empty filter set means PASS, per VCF convention
	}
	switch operator {
	case opEQ:
		return present
	case opNE:
		return !present
	default:
		return false
	}
}

func compareInfo(got interface{}, operator op, wantText string, wantNumber float64, numericParseFailed bool) bool {
	if !numericParseFailed {
		if asFloat, ok := toFloat(got); ok {
			return compareFloat(asFloat, operator, wantNumber)
		}
	}

	gotText := fmt.Sprintf("%v", got)
	switch operator {
	case opEQ:
		return gotText == wantText
	case opNE:
		return gotText != wantText
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
