package vcfstore

import "strings"

// chromosomeCandidates returns the three forms spec §4.1 tries in order:
// verbatim, chr-stripped, chr-prepended. When chrom lacks a chr prefix, the
// first two entries coincide; the redundant lookup is harmless.
func chromosomeCandidates(chrom string) []string {
	return []string{chrom, strings.TrimPrefix(chrom, "chr"), "chr" + chrom}
}

// alternateName returns the chr-prefix toggle of chrom, used as the
// suggestion in a chromosome-not-found result.
func alternateName(chrom string) string {
	if stripped := strings.TrimPrefix(chrom, "chr"); stripped != chrom {
		return stripped
	}
	return "chr" + chrom
}

// resolveChromosome tries each candidate form against the genomic index,
// returning the first that resolves.
func (s *Store) resolveChromosome(chrom string) (string, bool) {
	for _, candidate := range chromosomeCandidates(chrom) {
		if s.idx.HasReference(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// availableChromosomeNames returns header ##contig names, falling back to
// the genomic index's reference names when the header carries none —
// recovered from original_source's get_available_chromosomes.
func (s *Store) availableChromosomeNames() []string {
	if len(s.src.Header.Contigs) > 0 {
		names := make([]string, len(s.src.Header.Contigs))
		for i, contig := range s.src.Header.Contigs {
			names[i] = contig.Name
		}
		return names
	}
	return s.idx.Names()
}

// sampleChromosomes returns up to n example chromosome names for a
// chromosome-not-found result.
func (s *Store) sampleChromosomes(n int) []string {
	names := s.availableChromosomeNames()
	if len(names) > n {
		names = names[:n]
	}
	return names
}
