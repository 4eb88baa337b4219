package idindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/vcfserve/internal/vcfio"
)

const sampleVCF = `##fileformat=VCFv4.2
##contig=<ID=20,length=62435964>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
20	14370	rs6054257	G	A	29	PASS	.
20	17330	.	T	A	3	q10	.
20	1234567	microsat1;rs999	GTC	G	50	PASS	.
`

func writeSampleVCF(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleVCF), 0644))
	return path
}

func TestBuild_IndexesAllNonDotIdentifiers(t *testing.T) {
	path := writeSampleVCF(t)
	src, err := vcfio.Open(path)
	require.NoError(t, err)

	idx, err := Build(path, src)
	require.NoError(t, err)
	defer idx.Close()

	locators, err := idx.Lookup("rs6054257")
	require.NoError(t, err)
	require.Len(t, locators, 1)
	assert.Equal(t, Locator{Chromosome: "20", Position: 14370}, locators[0])

	locators, err = idx.Lookup("microsat1")
	require.NoError(t, err)
	require.Len(t, locators, 1)
	assert.Equal(t, uint64(1234567), locators[0].Position)

	locators, err = idx.Lookup("rs999")
	require.NoError(t, err)
	require.Len(t, locators, 1)
	assert.Equal(t, uint64(1234567), locators[0].Position)

	locators, err = idx.Lookup("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, locators)
}

func TestBuild_PersistsSidecarAndReloads(t *testing.T) {
	path := writeSampleVCF(t)
	src, err := vcfio.Open(path)
	require.NoError(t, err)

	idx, err := Build(path, src)
	require.NoError(t, err)
	idx.Close()

	assert.True(t, Exists(path))

	reloaded, err := Open(Path(path))
	require.NoError(t, err)
	defer reloaded.Close()

	locators, err := reloaded.Lookup("rs6054257")
	require.NoError(t, err)
	require.Len(t, locators, 1)
}

func TestBuildEphemeral_NeverWritesSidecar(t *testing.T) {
	path := writeSampleVCF(t)
	src, err := vcfio.Open(path)
	require.NoError(t, err)

	idx, err := BuildEphemeral(src)
	require.NoError(t, err)
	defer idx.Close()

	assert.False(t, Exists(path))

	locators, err := idx.Lookup("rs6054257")
	require.NoError(t, err)
	require.Len(t, locators, 1)
}

func TestSplitIDs(t *testing.T) {
	assert.Nil(t, splitIDs("."))
	assert.Nil(t, splitIDs(""))
	assert.Equal(t, []string{"rs1", "rs2"}, splitIDs("rs1;rs2"))
}
