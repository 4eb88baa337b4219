package vcfindex

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCompressedVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"20\t14370\trs6054257\tG\tA\t29\tPASS\t.\n" +
	"20\t17330\t.\tT\tA\t3\tq10\t.\n" +
	"20\t1110696\trs6040355\tA\tG,T\t67\tPASS\t.\n" +
	"21\t1000\t.\tC\tT\t40\tPASS\t.\n" +
	"21\t2000\t.\tC\tT\t40\tPASS\t.\n"

// writeBGZFFixture writes content as a valid BGZF stream, the same way the
// teacher's own fixtures are produced, so the binning-index path can be
// driven against a real compressed file instead of only the flat path.
func writeBGZFFixture(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sample.vcf.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := bgzf.NewWriter(f, 1)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return path
}

// TestPersist_ConcurrentWriters drives two independently-built in-memory indices through persist() at the
// same time, reproducing the race spec §4.6/§8 describe between a builder
// that loses the race and one that reads the winner's sidecar back.
func TestPersist_ConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	path := writeBGZFFixture(t, dir, sampleCompressedVCF)

	builtA, err := buildInMemory(path)
	require.NoError(t, err)
	builtB, err := buildInMemory(path)
	require.NoError(t, err)

	target := TBIPath(path)

	var wg sync.WaitGroup
	start := make(chan struct{})
	outcomes := make([]Outcome, 2)
	errs := make([]error, 2)

	for i, built := range []*Index{builtA, builtB} {
		wg.Add(1)
		go func(i int, built *Index) {
			defer wg.Done()
			<-start
			_, outcome, err := persist(built, target)
			outcomes[i] = outcome
			errs[i] = err
		}(i, built)
	}
	close(start)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	persistedCount, loadedCount := 0, 0
	for _, o := range outcomes {
		switch o {
		case OutcomePersisted:
			persistedCount++
		case OutcomeLoaded:
			loadedCount++
		}
	}
	assert.GreaterOrEqual(t, persistedCount, 1, "at least one concurrent writer must win and persist")
	assert.Equal(t, 2, persistedCount+loadedCount, "a racing writer must either persist or fall back to loading the winner's sidecar, never error")

	reloaded, err := loadTBIFile(target)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"20", "21"}, reloaded.Names())
}

// TestPersist_TargetAlreadyExists_LoadsWinnerInstead exercises persist()'s
// own race-detection branch directly and deterministically: a sidecar
// already on disk when persist() checks for it must always be preferred
// over the freshly-built index passed in.
func TestPersist_TargetAlreadyExists_LoadsWinnerInstead(t *testing.T) {
	dir := t.TempDir()
	path := writeBGZFFixture(t, dir, sampleCompressedVCF)

	winner, err := buildInMemory(path)
	require.NoError(t, err)
	target := TBIPath(path)

	persistedWinner, outcome, err := persist(winner, target)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)
	require.NotNil(t, persistedWinner)

	late, err := buildInMemory(path)
	require.NoError(t, err)

	_, outcome, err = persist(late, target)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLoaded, outcome)
}
