// Package vcfindex wraps the two on-disk binning-index formats used to
// resolve a genomic window to a set of BGZF chunks, behind a single
// capability. Reading and writing the CSI and TBI formats themselves is
// delegated to github.com/biogo/hts; the only binary data this package
// decodes itself is the reference-name list in a CSI auxiliary block.
package vcfindex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/csi"
	"github.com/biogo/hts/tabix"
)

// Kind identifies which on-disk binning-index variant backs an Index.
type Kind int

const (
	// KindTBI is the legacy tabix binning index.
	KindTBI Kind = iota
	// KindCSI is the large-coordinate binning index.
	KindCSI
	// KindFlat is an in-memory, per-chromosome first-record-offset index
	// built over a plain (non-BGZF) VCF, which cannot carry a CSI/TBI
	// sidecar at all since those formats address BGZF virtual offsets.
	KindFlat
)

func (k Kind) String() string {
	switch k {
	case KindCSI:
		return "csi"
	case KindFlat:
		return "flat"
	default:
		return "tbi"
	}
}

// ErrUnknownReference is returned by Chunks when the requested chromosome
// is not present in the index. Callers are expected to have already run
// chromosome-name normalization; an ErrUnknownReference here means none of
// the normalized forms resolved.
var ErrUnknownReference = errors.New("vcfindex: reference name not present in index")

// Index presents one query capability ("produce the BGZF chunks overlapping
// a window") regardless of which binning-index variant backs it. It is
// modeled as a tagged union rather than an interface hierarchy: there are
// exactly two on-disk variants, csi and tabix, dispatched between by
// Chunks. The in-memory KindFlat variant has no chunks; it is read through
// FlatOffset instead.
type Index struct {
	kind  Kind
	csi   *csi.Index
	tbi   *tabix.Index
	flat  map[string]int64 // chromosome -> byte offset of its first record, KindFlat only
	names []string
	refID map[string]int
}

// Kind reports which binning-index variant backs idx.
func (idx *Index) Kind() Kind { return idx.kind }

// Names returns the reference sequence names known to the index, in
// on-disk order. Used as the fallback source of available chromosome names
// when a VCF header carries no ##contig lines.
func (idx *Index) Names() []string { return idx.names }

// HasReference reports whether name resolves directly against the index,
// without any chr-prefix normalization.
func (idx *Index) HasReference(name string) bool {
	_, ok := idx.refID[name]
	return ok
}

// Chunks returns the BGZF chunks that may contain records overlapping the
// 1-based, closed interval [start, end] on chrom. Valid for KindCSI and
// KindTBI only; KindFlat callers use FlatOffset instead.
func (idx *Index) Chunks(chrom string, start, end uint64) ([]bgzf.Chunk, error) {
	ref, ok := idx.refID[chrom]
	if !ok {
		return nil, ErrUnknownReference
	}

	beg, stop := int(start-1), int(end) // binning indices use 0-based, half-open intervals
	if idx.kind == KindCSI {
		return idx.csi.Chunks(ref, beg, stop), nil
	}
	return idx.tbi.Chunks(chrom, beg, stop)
}

// FlatOffset returns the byte offset of chrom's first record in a KindFlat
// index's plain (non-BGZF) file, for a linear scan from that point forward.
func (idx *Index) FlatOffset(chrom string) (int64, bool) {
	off, ok := idx.flat[chrom]
	return off, ok
}

func fromCSI(idx *csi.Index) *Index {
	names := csiAuxNames(idx.Auxilliary)
	return &Index{kind: KindCSI, csi: idx, names: names, refID: nameIndex(names)}
}

// csiAuxNames extracts the reference names embedded in a CSI index's
// auxiliary block. Per the tabix/CSI on-disk format, a CSI built over
// tabix-style (rather than BAM) data carries the same header layout tabix
// itself uses for its .tbi sidecar: format/column/meta fields followed by a
// NUL-separated name list. Indexes with no such auxiliary data (e.g. BAM
// CSI, which carries no names at all) yield no names.
func csiAuxNames(aux []byte) []string {
	if len(aux) < 28 {
		return nil
	}
	r := bytes.NewReader(aux)
	var header [6]int32 // format, name col, begin col, end col, meta char, skip
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil
	}
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil
	}
	if n <= 0 || int(n) > r.Len() {
		return nil
	}
	nameBytes := make([]byte, n)
	if _, err := r.Read(nameBytes); err != nil {
		return nil
	}
	if nameBytes[len(nameBytes)-1] != 0 {
		return nil
	}
	return strings.Split(string(nameBytes[:len(nameBytes)-1]), "\x00")
}

func fromTBI(idx *tabix.Index) *Index {
	names := idx.Names()
	return &Index{kind: KindTBI, tbi: idx, names: names, refID: nameIndex(names)}
}

func fromFlat(offsets map[string]int64, names []string) *Index {
	return &Index{kind: KindFlat, flat: offsets, names: names, refID: nameIndex(names)}
}

func nameIndex(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, name := range names {
		m[name] = i
	}
	return m
}
