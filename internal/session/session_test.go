package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/vcfserve/internal/vcfstore"
)

const sampleVCF = `##fileformat=VCFv4.2
##contig=<ID=20,length=62435964>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
20	100	.	A	C	10	PASS	DP=5
20	200	.	A	C	20	PASS	DP=6
20	300	.	A	C	30	q10	DP=7
20	400	.	A	C	40	PASS	DP=8
`

func newTestStore(t *testing.T) *vcfstore.Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleVCF), 0644))

	store, err := vcfstore.Open(path, vcfstore.Options{NeverSaveIndex: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStartStream_ReturnsFirstMatchAndMore(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager()

	result, err := mgr.StartStream(store, "20", 1, 1000, "")
	require.NoError(t, err)
	require.NotNil(t, result.Variant)
	assert.Equal(t, uint64(100), result.Variant.Position)
	assert.True(t, result.More)
	assert.NotEmpty(t, result.SessionKey)
	assert.Equal(t, "20", result.MatchedChrom)
}

func TestNext_AdvancesForwardAndExhausts(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager()

	start, err := mgr.StartStream(store, "20", 1, 1000, "")
	require.NoError(t, err)

	next, err := mgr.Next(start.SessionKey)
	require.NoError(t, err)
	require.NotNil(t, next.Variant)
	assert.Equal(t, uint64(200), next.Variant.Position)
	assert.True(t, next.More)

	next, err = mgr.Next(start.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), next.Variant.Position)
	assert.True(t, next.More)

	next, err = mgr.Next(start.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), next.Variant.Position)
	assert.False(t, next.More)

	next, err = mgr.Next(start.SessionKey)
	require.NoError(t, err)
	assert.Nil(t, next.Variant)
	assert.Empty(t, next.SessionKey)

	_, err = mgr.Next(start.SessionKey)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestStartStream_FilterExcludesNonMatchingVariants(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager()

	result, err := mgr.StartStream(store, "20", 1, 1000, "QUAL > 25")
	require.NoError(t, err)
	require.NotNil(t, result.Variant)
	assert.Equal(t, uint64(300), result.Variant.Position)
}

func TestStartStream_NoMatchCreatesNoSession(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager()

	result, err := mgr.StartStream(store, "20", 1, 1000, "QUAL > 1000")
	require.NoError(t, err)
	assert.Nil(t, result.Variant)
	assert.Empty(t, result.SessionKey)
}

func TestClose_IsIdempotent(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager()

	start, err := mgr.StartStream(store, "20", 1, 1000, "")
	require.NoError(t, err)

	assert.True(t, mgr.Close(start.SessionKey))
	assert.False(t, mgr.Close(start.SessionKey))
}
