package tabix

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/tabix-go/pkg/tabix/tabixtest"
)

func TestReadIndexTBI(t *testing.T) {
	raw := tabixtest.IndexBytes(t, scenario, tabixtest.Options{})

	for name, data := range map[string][]byte{
		"bgzf":  tabixtest.Compress(t, raw),
		"plain": raw,
	} {
		t.Run(name, func(t *testing.T) {
			idx, err := ReadIndex(bytes.NewReader(data))
			require.NoError(t, err)

			assert.Equal(t, "tbi", idx.Kind())
			assert.Equal(t, []string{"chr1", "chr2"}, idx.Chromosomes())
			assert.True(t, idx.HasChromosome("chr2"))
			assert.False(t, idx.HasChromosome("chr3"))
			assert.Equal(t, 1<<29, idx.MaxEnd())
			assert.Equal(t, IndexConfig{
				Preset:      PresetGeneric,
				ZeroBased:   true,
				SeqColumn:   1,
				BeginColumn: 2,
				EndColumn:   3,
				MetaChar:    '#',
			}, idx.Config())

			stats, ok := idx.ReferenceStats("chr1")
			require.True(t, ok)
			assert.Equal(t, uint64(2), stats.Mapped)
			assert.Equal(t, uint64(0), stats.Unmapped)
			_, ok = idx.ReferenceStats("chr3")
			assert.False(t, ok)

			n, ok := idx.Unplaced()
			assert.True(t, ok)
			assert.Equal(t, uint64(0), n)
		})
	}
}

func TestReadIndexCSI(t *testing.T) {
	raw := tabixtest.IndexBytes(t, scenario, tabixtest.Options{CSI: true, Layout: tabixtest.VCF})
	idx, err := ReadIndex(bytes.NewReader(tabixtest.Compress(t, raw)))
	require.NoError(t, err)

	assert.Equal(t, "csi", idx.Kind())
	assert.Equal(t, []string{"chr1", "chr2"}, idx.Chromosomes())
	assert.Equal(t, PresetVCF, idx.Config().Preset)
	assert.False(t, idx.Config().ZeroBased)
	assert.NotEmpty(t, idx.Overlaps("chr2", 0, 100))
}

func TestReadIndexErrors(t *testing.T) {
	raw := tabixtest.IndexBytes(t, scenario, tabixtest.Options{})

	_, err := ReadIndex(bytes.NewReader([]byte("TB")))
	assert.ErrorIs(t, err, ErrIndexFormat)

	_, err = ReadIndex(bytes.NewReader([]byte("BAI\x01\x00\x00\x00\x00")))
	assert.ErrorIs(t, err, ErrIndexFormat)

	_, err = ReadIndex(bytes.NewReader(append([]byte("TBI\x02"), raw[4:]...)))
	assert.ErrorIs(t, err, ErrIndexVersion)
	_, err = ReadIndex(bytes.NewReader([]byte("CSI\x02")))
	assert.ErrorIs(t, err, ErrIndexVersion)

	for _, n := range []int{5, 20, 40, len(raw) - 9} {
		_, err = ReadIndex(bytes.NewReader(raw[:n]))
		assert.ErrorIs(t, err, ErrIndexFormat, "truncated at %d", n)
	}

	// Claim three references while naming two.
	bad := bytes.Clone(raw)
	binary.LittleEndian.PutUint32(bad[4:], 3)
	_, err = ReadIndex(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrIndexFormat)

	// Negative element counts are rejected, not allocated.
	bad = bytes.Clone(raw)
	binary.LittleEndian.PutUint32(bad[4:], 0xffffffff)
	_, err = ReadIndex(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrIndexFormat)
}

func TestLoadIndexNotFound(t *testing.T) {
	_, err := LoadIndex(NewLocalStorage(), t.TempDir()+"/absent.tbi")
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestOverlapsAbsentChromosome(t *testing.T) {
	idx, err := ReadIndex(bytes.NewReader(tabixtest.IndexBytes(t, scenario, tabixtest.Options{})))
	require.NoError(t, err)

	assert.Empty(t, idx.Overlaps("chrUn", 0, 1000))
	assert.Empty(t, idx.Overlaps("chr1", 500, 500))
	assert.NotEmpty(t, idx.Overlaps("chr1", 0, -1))
}

func TestOverlapsOrdered(t *testing.T) {
	raw := tabixtest.IndexBytes(t, syntheticRecords(), tabixtest.Options{LinesPerBlock: 3})
	idx, err := ReadIndex(bytes.NewReader(raw))
	require.NoError(t, err)

	chunks := idx.Overlaps("chr2", 0, 200000)
	require.NotEmpty(t, chunks)
	for i := 1; i < len(chunks); i++ {
		assert.Negative(t, compareOffsets(chunks[i-1].End, chunks[i].Begin), "chunks %d and %d overlap", i-1, i)
	}
	for _, c := range chunks {
		assert.Negative(t, compareOffsets(c.Begin, c.End))
	}
}

func TestReg2Bins(t *testing.T) {
	assert.Equal(t, []uint32{0, 1, 9, 73, 585, 4681}, reg2bins(0, 1, 14, 5))
	assert.Equal(t, []uint32{0, 1, 9, 73, 585, 4681, 4682}, reg2bins(16383, 16385, 14, 5))
	assert.Nil(t, reg2bins(10, 10, 14, 5))

	// The end is clamped to the addressable range.
	bins := reg2bins(0, 1<<40, 14, 5)
	assert.Equal(t, uint32(0), bins[0])
	assert.Equal(t, uint32(37448), bins[len(bins)-1])
}

func TestMetaBin(t *testing.T) {
	assert.Equal(t, uint32(37450), metaBin(5))
	assert.Equal(t, uint32(299594), metaBin(6))
}

func TestMergeChunks(t *testing.T) {
	off := func(f int64, b uint16) bgzf.Offset { return bgzf.Offset{File: f, Block: b} }
	chunks := []bgzf.Chunk{
		{Begin: off(200, 0), End: off(300, 10)},
		{Begin: off(0, 5), End: off(100, 0)},
		{Begin: off(100, 0), End: off(150, 3)},
		{Begin: off(250, 0), End: off(260, 0)},
		{Begin: off(400, 0), End: off(500, 0)},
	}
	assert.Equal(t, []bgzf.Chunk{
		{Begin: off(0, 5), End: off(150, 3)},
		{Begin: off(200, 0), End: off(300, 10)},
		{Begin: off(400, 0), End: off(500, 0)},
	}, mergeChunks(chunks))
	assert.Nil(t, mergeChunks(nil))
}

func TestCompareOffsets(t *testing.T) {
	a := bgzf.Offset{File: 10, Block: 500}
	b := bgzf.Offset{File: 11, Block: 0}
	assert.Equal(t, -1, compareOffsets(a, b))
	assert.Equal(t, 1, compareOffsets(b, a))
	assert.Equal(t, 0, compareOffsets(a, a))
	assert.Equal(t, 1, compareOffsets(bgzf.Offset{File: 10, Block: 501}, a))
	assert.Equal(t, bgzf.Offset{File: 1, Block: 2}, virtualOffset(1<<16|2))
}
