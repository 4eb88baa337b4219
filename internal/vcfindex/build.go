package vcfindex

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/tabix"
)

// Policy controls whether a freshly-built index may be written back to
// disk.
type Policy int

const (
	// PolicyPermissive allows a built index to be persisted as a sidecar.
	PolicyPermissive Policy = iota
	// PolicyNeverSave forbids all sidecar writes, forcing Ephemeral.
	PolicyNeverSave
)

// Outcome reports which terminal state of the build-orchestrator state
// machine (spec §4.6) an Acquire call reached.
type Outcome int

const (
	// OutcomeLoaded means an existing sidecar (ours or a concurrent
	// writer's) was used.
	OutcomeLoaded Outcome = iota
	// OutcomePersisted means a freshly built index was written to disk.
	OutcomePersisted
	// OutcomeEphemeral means a freshly built index exists only in memory.
	OutcomeEphemeral
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomePersisted:
		return "persisted"
	default:
		return "ephemeral"
	}
}

// Acquire implements the index-acquisition state machine: load an existing
// sidecar if one is present, otherwise build a legacy binning index in
// memory from a full pass over vcfPath and, if policy permits, persist it
// via a temp-file-then-atomic-rename. An uncompressed vcfPath with no
// sidecar gets a KindFlat index instead, which is never persisted.
func Acquire(vcfPath string, compressed bool, policy Policy) (*Index, Outcome, error) {
	idx, err := openSidecar(vcfPath)
	if err == nil {
		return idx, OutcomeLoaded, nil
	}
	if err != errNoSidecar {
		return nil, 0, err
	}

	if !compressed {
		// Plain text carries no BGZF virtual offsets, so neither CSI nor
		// TBI can address it; a sidecar is meaningless here regardless of
		// policy. Build a minimal in-memory, per-chromosome offset index
		// instead and never attempt to persist it (spec §6: "an
		// uncompressed VCF, indexed only in memory").
		idx, err := buildFlatIndex(vcfPath)
		if err != nil {
			return nil, 0, err
		}
		return idx, OutcomeEphemeral, nil
	}

	built, err := buildInMemory(vcfPath)
	if err != nil {
		return nil, 0, err
	}

	// A concurrent builder may have finished and published its sidecar
	// while we were scanning; prefer the one on disk.
	if loaded, err := openSidecar(vcfPath); err == nil {
		return loaded, OutcomeLoaded, nil
	}

	if policy == PolicyNeverSave {
		return built, OutcomeEphemeral, nil
	}

	persisted, outcome, err := persist(built, TBIPath(vcfPath))
	if err != nil {
		// A sidecar write failure is a transient-infrastructure condition
		// (spec §7 kind 5): log-worthy, never fatal to the query path.
		return built, OutcomeEphemeral, nil
	}
	return persisted, outcome, nil
}

// buildInMemory performs a single pass over a BGZF-compressed VCF body,
// recording the virtual-offset chunk spanned by each record and feeding it
// to a tabix index builder keyed by the order chromosomes are first seen.
func buildInMemory(vcfPath string) (*Index, error) {
	f, err := os.Open(vcfPath)
	if err != nil {
		return nil, fmt.Errorf("vcfindex: opening %s: %w", vcfPath, err)
	}
	defer f.Close()

	bgzfReader, err := bgzf.NewReader(f, 0)
	if err != nil {
		return nil, fmt.Errorf("vcfindex: %s is not valid bgzf: %w", vcfPath, err)
	}
	defer bgzfReader.Close()

	idx := tabix.New()
	// VCF preset per the tabix on-disk format spec: format code 2 (VCF),
	// 1-based CHROM/POS in columns 1/2, '#' comment lines.
	idx.Format = 2
	idx.NameColumn = 1
	idx.BeginColumn = 2
	idx.EndColumn = 2
	idx.MetaChar = '#'

	scanner := bufio.NewScanner(bgzfReader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		begin := bgzfReader.LastChunk().Begin
		line := scanner.Text()
		end := bgzfReader.LastChunk().End

		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 2 {
			continue
		}
		chrom := fields[0]
		pos, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}

		rec := tabixRecord{chrom: chrom, start: int(pos - 1), end: int(pos)}
		if err := idx.Add(rec, bgzf.Chunk{Begin: begin, End: end}, true, true); err != nil {
			return nil, fmt.Errorf("vcfindex: indexing %s:%d: %w", chrom, pos, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vcfindex: scanning %s: %w", vcfPath, err)
	}

	return fromTBI(idx), nil
}

// tabixRecord adapts a VCF record's chromosome/position to tabix.Record.
type tabixRecord struct {
	chrom      string
	start, end int
}

func (r tabixRecord) RefName() string { return r.chrom }
func (r tabixRecord) Start() int      { return r.start }
func (r tabixRecord) End() int        { return r.end }

// buildFlatIndex performs a single pass over a plain-text VCF, recording the
// byte offset of each chromosome's first record.
func buildFlatIndex(vcfPath string) (*Index, error) {
	f, err := os.Open(vcfPath)
	if err != nil {
		return nil, fmt.Errorf("vcfindex: opening %s: %w", vcfPath, err)
	}
	defer f.Close()

	offsets := make(map[string]int64)
	var names []string

	reader := bufio.NewReader(f)
	var offset int64
	for {
		line, readErr := reader.ReadString('\n')

		if !strings.HasPrefix(line, "#") {
			if chrom, ok := firstField(line); ok {
				if _, seen := offsets[chrom]; !seen {
					offsets[chrom] = offset
					names = append(names, chrom)
				}
			}
		}
		offset += int64(len(line))

		if readErr != nil {
			break
		}
	}

	return fromFlat(offsets, names), nil
}

func firstField(line string) (string, bool) {
	idx := strings.IndexByte(line, '\t')
	if idx <= 0 {
		return "", false
	}
	return line[:idx], true
}

// persist writes idx to a temp file beside targetPath and atomically
// renames it into place. If targetPath appears mid-write (a concurrent
// builder won the race), the partial write is discarded and the winner's
// sidecar is loaded instead.
func persist(idx *Index, targetPath string) (*Index, Outcome, error) {
	tmpPath := targetPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return idx, OutcomeEphemeral, fmt.Errorf("vcfindex: creating %s: %w", tmpPath, err)
	}

	writeErr := tabix.WriteTo(f, idx.tbi)
	syncErr := f.Sync()
	closeErr := f.Close()
	if writeErr != nil || syncErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return idx, OutcomeEphemeral, fmt.Errorf("vcfindex: writing %s: %w", tmpPath, writeErr)
		}
		if syncErr != nil {
			return idx, OutcomeEphemeral, fmt.Errorf("vcfindex: syncing %s: %w", tmpPath, syncErr)
		}
		return idx, OutcomeEphemeral, fmt.Errorf("vcfindex: closing %s: %w", tmpPath, closeErr)
	}

	if _, err := os.Stat(targetPath); err == nil {
		os.Remove(tmpPath)
		vcfPath := strings.TrimSuffix(targetPath, ".tbi")
		vcfPath = strings.TrimSuffix(vcfPath, ".csi")
		if loaded, err := openSidecar(vcfPath); err == nil {
			return loaded, OutcomeLoaded, nil
		}
		return idx, OutcomeEphemeral, nil
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		os.Remove(tmpPath)
		// A concurrent writer may have renamed its sidecar into place
		// between the check above and this rename; load it instead.
		if _, statErr := os.Stat(targetPath); statErr == nil {
			vcfPath := strings.TrimSuffix(strings.TrimSuffix(targetPath, ".tbi"), ".csi")
			if loaded, loadErr := openSidecar(vcfPath); loadErr == nil {
				return loaded, OutcomeLoaded, nil
			}
		}
		return idx, OutcomeEphemeral, fmt.Errorf("vcfindex: renaming %s: %w", tmpPath, err)
	}

	return idx, OutcomePersisted, nil
}
