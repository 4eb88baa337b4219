// Package vcfstore owns a VCF file's handle, header, genomic index, and
// identifier index, and serves the four query primitives described in
// spec §4.1.
package vcfstore

import (
	"fmt"
	"io"
	"sync"

	"github.com/googlegenomics/vcfserve/internal/genomics"
	"github.com/googlegenomics/vcfserve/internal/idindex"
	"github.com/googlegenomics/vcfserve/internal/reader"
	"github.com/googlegenomics/vcfserve/internal/stats"
	"github.com/googlegenomics/vcfserve/internal/vcfindex"
	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

// Options configures Open.
type Options struct {
	// NeverSaveIndex forces the Ephemeral persistence policy for both
	// indices and forbids any write to the source directory.
	NeverSaveIndex bool

	// RegionLimit overrides genomics.MaxRegionSpan as the bounded-region
	// ceiling enforced by QueryRegion, from the config file's region_limit.
	// Zero means use genomics.MaxRegionSpan.
	RegionLimit uint64
}

// Store is the single owner of a VCF file's handle, header, genomic index,
// and identifier index for its lifetime. All access is mediated by mu,
// held only for the duration of one primitive operation.
type Store struct {
	mu sync.Mutex

	src    *vcfio.Source
	idx    *vcfindex.Index
	idIdx  *idindex.Index
	reader *reader.Reader

	refBuild    ReferenceBuild
	regionLimit uint64

	// IndexOutcome and IDIndexBuilt record how each index was acquired,
	// for startup logging.
	IndexOutcome vcfindex.Outcome
	IDIndexBuilt bool
}

// Open opens path, a BGZF-compressed or plain VCF file, and acquires both
// indices per opts. File open or index corruption failures are fatal
// (spec §7 kind 1) and are returned as-is for the caller to treat as such.
func Open(path string, opts Options) (*Store, error) {
	src, err := vcfio.Open(path)
	if err != nil {
		return nil, err
	}

	policy := vcfindex.PolicyPermissive
	if opts.NeverSaveIndex {
		policy = vcfindex.PolicyNeverSave
	}

	idx, outcome, err := vcfindex.Acquire(path, src.Compressed, policy)
	if err != nil {
		return nil, fmt.Errorf("vcfstore: acquiring genomic index: %w", err)
	}

	idIdx, built, err := acquireIDIndex(path, src, opts.NeverSaveIndex)
	if err != nil {
		return nil, fmt.Errorf("vcfstore: acquiring identifier index: %w", err)
	}

	regionLimit := opts.RegionLimit
	if regionLimit == 0 {
		regionLimit = genomics.MaxRegionSpan
	}

	return &Store{
		src:          src,
		idx:          idx,
		idIdx:        idIdx,
		reader:       reader.New(src),
		refBuild:     inferReferenceBuild(src.Header),
		regionLimit:  regionLimit,
		IndexOutcome: outcome,
		IDIndexBuilt: built,
	}, nil
}

func acquireIDIndex(path string, src *vcfio.Source, neverSave bool) (*idindex.Index, bool, error) {
	if idindex.Exists(path) {
		idx, err := idindex.Open(idindex.Path(path))
		return idx, false, err
	}
	if neverSave {
		idx, err := idindex.BuildEphemeral(src)
		return idx, true, err
	}
	idx, err := idindex.Build(path, src)
	return idx, true, err
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	if s.idIdx != nil {
		return s.idIdx.Close()
	}
	return nil
}

// QueryPosition returns all records at pos on chrom (after chromosome-name
// normalization), or a *ChromosomeNotFound absence result.
func (s *Store) QueryPosition(chrom string, pos uint64) (matchedChrom string, variants []*vcfio.Variant, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched, ok := s.resolveChromosome(chrom)
	if !ok {
		return "", nil, &ChromosomeNotFound{Requested: chrom, Sample: s.sampleChromosomes(5), Suggestion: alternateName(chrom)}
	}

	variants, err = s.scan(matched, pos, pos)
	if err != nil {
		return matched, nil, err
	}

	filtered := variants[:0]
	for _, v := range variants {
		if v.Position == pos {
			filtered = append(filtered, v)
		}
	}
	return matched, filtered, nil
}

// QueryRegion returns all records in [start, end] on chrom, ordered by
// position then file order, enforcing the bounded-region invariant.
func (s *Store) QueryRegion(chrom string, start, end uint64) (matchedChrom string, variants []*vcfio.Variant, err error) {
	if start > end {
		return "", nil, &InvalidRegion{Start: start, End: end}
	}
	window := genomics.Region{Chromosome: chrom, Start: start, End: end}
	if window.Span() > s.regionLimit {
		return "", nil, &RegionTooLarge{Chromosome: chrom, Start: start, End: end, Limit: s.regionLimit}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched, ok := s.resolveChromosome(chrom)
	if !ok {
		return "", nil, &ChromosomeNotFound{Requested: chrom, Sample: s.sampleChromosomes(5), Suggestion: alternateName(chrom)}
	}

	variants, err = s.scan(matched, start, end)
	return matched, variants, err
}

// QueryID looks up id in the identifier index, point-queries the genomic
// index at each locator, and returns the records whose identifier field
// equals id exactly (case-sensitive).
func (s *Store) QueryID(id string) ([]*vcfio.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locators, err := s.idIdx.Lookup(id)
	if err != nil {
		return nil, err
	}

	var variants []*vcfio.Variant
	for _, loc := range locators {
		hits, err := s.scan(loc.Chromosome, loc.Position, loc.Position)
		if err != nil {
			return nil, err
		}
		for _, v := range hits {
			if v.Position == loc.Position && hasID(v.ID, id) {
				variants = append(variants, v)
			}
		}
	}
	return variants, nil
}

// GetHeader returns the raw header text (optionally filtered to lines
// containing substring, ##contig lines excluded by default), its line
// count, and the inferred reference build.
func (s *Store) GetHeader(substring string) (text string, lineCount int, build ReferenceBuild) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, lineCount = s.src.Header.Filtered(substring, false)
	return text, lineCount, s.refBuild
}

// Statistics performs a full-file, single-pass aggregation (spec §4.7),
// holding the store lock for its entire duration — callers are expected
// to invoke it rarely.
func (s *Store) Statistics(maxChromosomes int) (*stats.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rdr, closer, err := s.src.DecodeFull()
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return stats.Aggregate(func() (*vcfio.Variant, bool, error) {
		v := rdr.Read()
		if v == nil {
			return nil, false, nil
		}
		return vcfio.FromVcfgo(v), true, nil
	}, maxChromosomes)
}

// ScanMatched streams and collects every record in [start, end] on chrom,
// which MUST already be a matched (normalized) chromosome name as returned
// by QueryPosition/QueryRegion. Used by the session manager to re-query the
// remainder of a streaming window without repeating chromosome resolution.
func (s *Store) ScanMatched(chrom string, start, end uint64) ([]*vcfio.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scan(chrom, start, end)
}

// scan streams and collects every record in [start, end] on a
// already-normalized chromosome name.
func (s *Store) scan(chrom string, start, end uint64) ([]*vcfio.Variant, error) {
	cursor, err := s.reader.Stream(s.idx, genomics.Region{Chromosome: chrom, Start: start, End: end})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var variants []*vcfio.Variant
	for {
		v, err := cursor.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func hasID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
