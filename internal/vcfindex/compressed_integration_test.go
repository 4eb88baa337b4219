package vcfindex_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/vcfserve/internal/genomics"
	"github.com/googlegenomics/vcfserve/internal/reader"
	"github.com/googlegenomics/vcfserve/internal/vcfindex"
	"github.com/googlegenomics/vcfserve/internal/vcfio"
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

func TestAcquire_Compressed_BuildsAndPersistsTBIIndex(t *testing.T) {
	dir := t.TempDir()
	path := writeBGZFFixture(t, dir, sampleCompressedVCF)

	idx, outcome, err := vcfindex.Acquire(path, true, vcfindex.PolicyPermissive)
	require.NoError(t, err)
	assert.Equal(t, vcfindex.OutcomePersisted, outcome)
	assert.Equal(t, vcfindex.KindTBI, idx.Kind())
	assert.ElementsMatch(t, []string{"20", "21"}, idx.Names())

	_, statErr := os.Stat(vcfindex.TBIPath(path))
	assert.NoError(t, statErr, "a permissive, compressed build must leave a .tbi sidecar behind")

	src, err := vcfio.Open(path)
	require.NoError(t, err)

	rdr := reader.New(src)
	cursor, err := rdr.Stream(idx, genomics.Region{Chromosome: "20", Start: 15000, End: 1200000})
	require.NoError(t, err)
	defer cursor.Close()

	var positions []uint64
	for {
		v, err := cursor.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		positions = append(positions, v.Position)
	}
	assert.Equal(t, []uint64{17330, 1110696}, positions)

	// A second Acquire against the same path must load the sidecar just
	// written rather than rebuilding it.
	reloaded, outcome, err := vcfindex.Acquire(path, true, vcfindex.PolicyPermissive)
	require.NoError(t, err)
	assert.Equal(t, vcfindex.OutcomeLoaded, outcome)
	assert.Equal(t, vcfindex.KindTBI, reloaded.Kind())
}

func TestAcquire_Compressed_NeverSavePolicyLeavesNoSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeBGZFFixture(t, dir, sampleCompressedVCF)

	idx, outcome, err := vcfindex.Acquire(path, true, vcfindex.PolicyNeverSave)
	require.NoError(t, err)
	assert.Equal(t, vcfindex.OutcomeEphemeral, outcome)
	assert.Equal(t, vcfindex.KindTBI, idx.Kind())

	_, err = os.Stat(vcfindex.TBIPath(path))
	assert.True(t, os.IsNotExist(err))
}
