package toolserver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/vcfserve/internal/instrument"
	"github.com/googlegenomics/vcfserve/internal/vcfstore"
)

const sampleVCF = `##fileformat=VCFv4.2
##contig=<ID=20,length=62435964>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
20	100	rs1	A	C	10	PASS	DP=5
20	200	rs2	A	C	20	PASS	DP=6
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleVCF), 0644))

	store, err := vcfstore.Open(path, vcfstore.Options{NeverSaveIndex: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, instrument.New(false), 25)
}

func rawParams(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDispatch_QueryByPosition_Found(t *testing.T) {
	s := newTestServer(t)

	result, toolErr := s.Dispatch("query_by_position", rawParams(t, QueryByPositionParams{Chrom: "chr20", Position: 100}))
	require.Nil(t, toolErr)
	res := result.(*QueryByPositionResult)
	assert.Equal(t, "20", res.MatchedChrom)
	require.Len(t, res.Variants, 1)
	assert.Nil(t, res.NotFound)
}

func TestDispatch_QueryByPosition_ChromosomeNotFound(t *testing.T) {
	s := newTestServer(t)

	result, toolErr := s.Dispatch("query_by_position", rawParams(t, QueryByPositionParams{Chrom: "99", Position: 1}))
	require.Nil(t, toolErr)
	res := result.(*QueryByPositionResult)
	require.NotNil(t, res.NotFound)
	assert.Equal(t, "99", res.NotFound.Requested)
}

func TestDispatch_QueryByRegion_PreconditionOnInvalidRegion(t *testing.T) {
	s := newTestServer(t)

	_, toolErr := s.Dispatch("query_by_region", rawParams(t, QueryByRegionParams{Chrom: "20", Start: 100, End: 1}))
	require.NotNil(t, toolErr)
	assert.Equal(t, "precondition", toolErr.Kind)
}

func TestDispatch_QueryByRegion_PreconditionOnRegionTooLarge(t *testing.T) {
	s := newTestServer(t)

	// Spec §8 seed scenario 7: query_region("20", 1, 100_000) exceeds the
	// bounded-region ceiling and must surface as a precondition error.
	_, toolErr := s.Dispatch("query_by_region", rawParams(t, QueryByRegionParams{Chrom: "20", Start: 1, End: 100_000}))
	require.NotNil(t, toolErr)
	assert.Equal(t, "precondition", toolErr.Kind)
}

func TestDispatch_GetNextVariant_UnknownSession(t *testing.T) {
	s := newTestServer(t)

	_, toolErr := s.Dispatch("get_next_variant", rawParams(t, GetNextVariantParams{SessionKey: "does-not-exist"}))
	require.NotNil(t, toolErr)
	assert.Equal(t, "session", toolErr.Kind)
}

func TestDispatch_StartAndGetNextVariant_RoundTrip(t *testing.T) {
	s := newTestServer(t)

	result, toolErr := s.Dispatch("start_region_query", rawParams(t, StartRegionQueryParams{Chrom: "20", Start: 1, End: 1000}))
	require.Nil(t, toolErr)
	start := result.(*StartRegionQueryResult)
	require.NotEmpty(t, start.SessionKey)
	assert.Equal(t, uint64(100), start.Variant.Position)
	assert.True(t, start.More)

	result, toolErr = s.Dispatch("get_next_variant", rawParams(t, GetNextVariantParams{SessionKey: start.SessionKey}))
	require.Nil(t, toolErr)
	next := result.(*GetNextVariantResult)
	assert.Equal(t, uint64(200), next.Variant.Position)
	assert.False(t, next.More)

	result, toolErr = s.Dispatch("close_query_session", rawParams(t, CloseQuerySessionParams{SessionKey: start.SessionKey}))
	require.Nil(t, toolErr)
	assert.True(t, result.(*CloseQuerySessionResult).Closed)
}

func TestDispatch_UnknownTool(t *testing.T) {
	s := newTestServer(t)

	_, toolErr := s.Dispatch("not_a_real_tool", nil)
	require.NotNil(t, toolErr)
	assert.Equal(t, "precondition", toolErr.Kind)
}

func TestDispatch_GetStatistics(t *testing.T) {
	s := newTestServer(t)

	result, toolErr := s.Dispatch("get_statistics", rawParams(t, GetStatisticsParams{}))
	require.Nil(t, toolErr)
	res := result.(*GetStatisticsResult)
	assert.Equal(t, 2, res.TotalRecords)
}
