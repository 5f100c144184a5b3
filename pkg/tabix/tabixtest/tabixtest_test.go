package tabixtest

import (
	"bytes"
	"io"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReg2Bin(t *testing.T) {
	// Values computed by htslib hts_reg2bin(beg, end, 14, 5).
	assert.Equal(t, uint32(4681), reg2bin(0, 1))
	assert.Equal(t, uint32(4682), reg2bin(16384, 16385))
	assert.Equal(t, uint32(585), reg2bin(0, 16385))
	assert.Equal(t, uint32(8777), reg2bin(1<<26, 1<<26+1))
	assert.Equal(t, uint32(0), reg2bin(0, 1<<29))
}

func TestWriteDataOffsets(t *testing.T) {
	lines := []string{
		"#h",
		"chr1\t100\t200\tfirst",
		"chr1\t150\t300\tsecond",
		"chr2\t10\t20\tthird",
		"chr2\t15\t25\tfourth",
		"chr2\t30\t40\tfifth",
	}
	data, offsets := writeData(t, lines, 2)
	require.Len(t, offsets, len(lines))

	// Every second line opens a new block further into the file.
	for i := 2; i < len(offsets); i += 2 {
		assert.Greater(t, offsets[i].Begin.File, offsets[i-1].Begin.File, "line %d", i)
		assert.Equal(t, uint16(0), offsets[i].Begin.Block, "line %d", i)
	}

	bg, err := bgzf.NewReader(bytes.NewReader(data), 1)
	require.NoError(t, err)
	defer bg.Close()
	for i, line := range lines {
		require.NoError(t, bg.Seek(offsets[i].Begin))
		got := make([]byte, len(line)+1)
		_, err := io.ReadFull(bg, got)
		require.NoError(t, err)
		assert.Equal(t, line+"\n", string(got), "line %d", i)
		assert.Equal(t, offsets[i].Begin.File, offsets[i].End.File)
		assert.Equal(t, int(offsets[i].Begin.Block)+len(line)+1, int(offsets[i].End.Block))
	}
}

func TestOverlappingRecords(t *testing.T) {
	fx := Write(t, t.TempDir(), "x.bed.gz", []string{
		"chr1\t100\t200\tfirst",
		"chr1\t150\t300\tsecond",
		"chr2\t10\t20\tthird",
	}, Options{})
	assert.Equal(t, []string{"chr1\t100\t200\tfirst", "chr1\t150\t300\tsecond"}, fx.Overlapping("chr1", 120, 160))
	assert.Equal(t, []string{"chr1\t150\t300\tsecond"}, fx.Overlapping("chr1", 200, 1000))
	assert.Empty(t, fx.Overlapping("chr2", 20, 30))
}
