package vcfio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVCF = `##fileformat=VCFv4.2
##reference=file:///data/human_g1k_v37.fasta
##contig=<ID=20,length=62435964>
##INFO=<ID=DP,Number=1,Type=Integer,Description="Total Depth">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
20	14370	rs6054257	G	A	29	PASS	DP=14
20	17330	.	T	A	3	q10	DP=11
20	1234567	microsat1	GTC	G	50	PASS	DP=9
`

func writeSampleVCF(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleVCF), 0644))
	return path
}

func TestOpen_ParsesHeader(t *testing.T) {
	path := writeSampleVCF(t)

	src, err := Open(path)
	require.NoError(t, err)

	assert.False(t, src.Compressed)
	assert.Equal(t, "VCFv4.2", src.Header.FileFormat)
	assert.Equal(t, "file:///data/human_g1k_v37.fasta", src.Header.Reference)
	require.Len(t, src.Header.Contigs, 1)
	assert.Equal(t, "20", src.Header.Contigs[0].Name)
	assert.Equal(t, uint64(62435964), src.Header.Contigs[0].Length)
}

func TestDecodeFull_YieldsRecordsInOrder(t *testing.T) {
	path := writeSampleVCF(t)

	src, err := Open(path)
	require.NoError(t, err)

	rdr, closer, err := src.DecodeFull()
	require.NoError(t, err)
	defer closer.Close()

	var positions []uint64
	for {
		v := rdr.Read()
		if v == nil {
			break
		}
		positions = append(positions, v.Pos)
	}
	assert.Equal(t, []uint64{14370, 17330, 1234567}, positions)
}
