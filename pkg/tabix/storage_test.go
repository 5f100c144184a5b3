package tabix

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URI(t *testing.T) {
	uri, err := ParseS3URI("s3://bucket/path/to/calls.vcf.gz")
	require.NoError(t, err)
	assert.Equal(t, "bucket", uri.Bucket)
	assert.Equal(t, "path/to/calls.vcf.gz", uri.Key)

	for _, bad := range []string{"/local/file", "s3://", "s3://bucket", "s3://bucket/"} {
		_, err := ParseS3URI(bad)
		assert.Error(t, err, bad)
	}
	assert.True(t, IsS3URI("s3://b/k"))
	assert.False(t, IsS3URI("data/s3://b/k"))
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	s, err := NewStorage(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, s.IsS3())

	ok, err := s.Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.False(t, ok)

	f, err := s.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Seek(4, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(rest))

	_, err = s.Open(filepath.Join(dir, "absent"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
