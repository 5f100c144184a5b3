package tabix

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/tabix-go/pkg/tabix/tabixtest"
)

func TestBlockReaderSeekReplay(t *testing.T) {
	lines := syntheticRecords()[:20]
	fx := tabixtest.Write(t, t.TempDir(), "blocks.bed.gz", lines, tabixtest.Options{LinesPerBlock: 3})

	r, err := OpenBlockReader(NewLocalStorage(), fx.DataPath, 2)
	require.NoError(t, err)
	defer r.Close()

	var chunks []bgzf.Chunk
	for i := 0; ; i++ {
		line, err := r.ReadLine()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Less(t, i, len(lines))
		assert.Equal(t, lines[i], string(line))
		assert.Equal(t, r.LastChunk().End, r.Offset())
		chunks = append(chunks, r.LastChunk())
	}
	require.Len(t, chunks, len(lines))
	assert.Greater(t, chunks[len(chunks)-1].Begin.File, chunks[0].Begin.File)

	// Seeking back to a recorded offset replays the same line.
	for _, i := range []int{7, 0, 19, 3} {
		require.NoError(t, r.Seek(chunks[i].Begin))
		line, err := r.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, lines[i], string(line))
		assert.Equal(t, chunks[i], r.LastChunk())
	}
}

func TestBlockReaderDuplicateIsIndependent(t *testing.T) {
	lines := syntheticRecords()[:6]
	fx := tabixtest.Write(t, t.TempDir(), "dup.bed.gz", lines, tabixtest.Options{LinesPerBlock: 1})

	a, err := OpenBlockReader(NewLocalStorage(), fx.DataPath, 0)
	require.NoError(t, err)
	defer a.Close()
	_, err = a.ReadLine()
	require.NoError(t, err)

	b, err := a.Duplicate()
	require.NoError(t, err)
	line, err := b.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, lines[0], string(line))
	require.NoError(t, b.Close())

	line, err = a.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, lines[1], string(line))
}

func TestBlockReaderErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenBlockReader(NewLocalStorage(), filepath.Join(dir, "missing.gz"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	plain := filepath.Join(dir, "plain.bed")
	require.NoError(t, os.WriteFile(plain, []byte("chr1\t1\t2\n"), 0o644))
	_, err = OpenBlockReader(NewLocalStorage(), plain, 0)
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestBlockReaderUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tail.gz")
	require.NoError(t, os.WriteFile(path, tabixtest.Compress(t, []byte("a\tb\nlast")), 0o644))

	r, err := OpenBlockReader(NewLocalStorage(), path, 0)
	require.NoError(t, err)
	defer r.Close()

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "a\tb", string(line))
	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "last", string(line))
	_, err = r.ReadLine()
	assert.Equal(t, io.EOF, err)
}
