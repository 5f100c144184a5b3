package tabix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in   string
		want Region
	}{
		{"chr1", Chromosome("chr1")},
		{"chr1:100", Region{Chrom: "chr1", Start: 99, End: -1}},
		{"chr1:100-", Region{Chrom: "chr1", Start: 99, End: -1}},
		{"chr1:100-200", Interval("chr1", 99, 200)},
		{"chr1:1,000-2,000", Interval("chr1", 999, 2000)},
		{" chrX:5-5 ", Interval("chrX", 4, 5)},
		{"HLA-A*01:01:1-10", Interval("HLA-A*01:01", 0, 10)},
		{"scaffold:abc", Chromosome("scaffold:abc")},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRegion(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRegionErrors(t *testing.T) {
	for _, in := range []string{"", ":1-10", "chr1:0-10", "chr1:200-100", "chr1:5-x"} {
		_, err := ParseRegion(in)
		assert.ErrorIs(t, err, ErrRegion, in)
	}
}

func TestRegion(t *testing.T) {
	assert.True(t, WholeFile().IsWholeFile())
	assert.False(t, Chromosome("chr1").IsWholeFile())

	assert.Equal(t, "*", WholeFile().String())
	assert.Equal(t, "chr1", Chromosome("chr1").String())
	assert.Equal(t, "chr1:100", Region{Chrom: "chr1", Start: 99, End: -1}.String())
	assert.Equal(t, "chr1:100-200", Interval("chr1", 99, 200).String())

	assert.NoError(t, Interval("chr1", 5, 5).Validate())
	assert.ErrorIs(t, Interval("chr1", 6, 5).Validate(), ErrRegion)
	assert.ErrorIs(t, Interval("chr1", -1, 5).Validate(), ErrRegion)

	r := Interval("chr1", 100, 200)
	assert.True(t, r.overlaps(199, 300))
	assert.False(t, r.overlaps(200, 300))
	assert.False(t, r.overlaps(50, 100))
}

func TestIteratorStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "in-range", StateInRange.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "IteratorState(9)", IteratorState(9).String())
}
