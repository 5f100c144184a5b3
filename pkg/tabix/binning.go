package tabix

import (
	"sort"

	"github.com/biogo/hts/bgzf"
)

// metaBin is the pseudo-bin id holding per-reference statistics.
func metaBin(depth int) uint32 {
	return uint32(((1<<(3*depth+3))-1)/7 + 1)
}

// binFirst returns the id of the first bin on the given level.
func binFirst(level int) int {
	return ((1 << (3 * level)) - 1) / 7
}

// reg2bins lists every bin that may hold a record overlapping [beg, end).
func reg2bins(beg, end, minShift, depth int) []uint32 {
	if beg >= end {
		return nil
	}
	s := minShift + 3*depth
	if maxEnd := 1 << s; end > maxEnd {
		end = maxEnd
	}
	end--

	var bins []uint32
	for level, t := 0, 0; level <= depth; level++ {
		b, e := t+(beg>>s), t+(end>>s)
		for i := b; i <= e; i++ {
			bins = append(bins, uint32(i))
		}
		s -= 3
		t += 1 << (3 * level)
	}
	return bins
}

// Overlaps returns the ascending, merged chunks that may contain records of
// chrom overlapping the 0-based half-open interval [start, end). A negative end
// means to the end of the chromosome. An unknown chromosome yields no chunks.
func (idx *Index) Overlaps(chrom string, start, end int) []bgzf.Chunk {
	id, ok := idx.ids[chrom]
	if !ok {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if end < 0 || end > idx.MaxEnd() {
		end = idx.MaxEnd()
	}
	if start >= end {
		return nil
	}

	ref := &idx.refs[id]
	minOff := idx.minOffset(ref, start)

	var chunks []bgzf.Chunk
	for _, bin := range reg2bins(start, end, idx.minShift, idx.depth) {
		b, ok := ref.bins[bin]
		if !ok {
			continue
		}
		for _, c := range b.chunks {
			if compareOffsets(c.End, minOff) > 0 {
				chunks = append(chunks, c)
			}
		}
	}
	return mergeChunks(chunks)
}

// minOffset is the smallest virtual offset a record starting at or after beg can have.
func (idx *Index) minOffset(ref *refIndex, beg int) bgzf.Offset {
	if idx.kind == "tbi" {
		if len(ref.linear) == 0 {
			return bgzf.Offset{}
		}
		i := beg >> idx.minShift
		if i >= len(ref.linear) {
			i = len(ref.linear) - 1
		}
		return ref.linear[i]
	}

	// Nearest existing bin to the left on the same level, then up the tree.
	bin := binFirst(idx.depth) + (beg >> idx.minShift)
	for {
		if b, ok := ref.bins[uint32(bin)]; ok {
			return b.loffset
		}
		if bin == 0 {
			return bgzf.Offset{}
		}
		if first := (bin-1)>>3<<3 + 1; bin > first {
			bin--
		} else {
			bin = (bin - 1) >> 3
		}
	}
}

// mergeChunks sorts chunks by start and joins those that overlap or touch.
func mergeChunks(chunks []bgzf.Chunk) []bgzf.Chunk {
	if len(chunks) == 0 {
		return nil
	}
	sort.Slice(chunks, func(i, j int) bool {
		return compareOffsets(chunks[i].Begin, chunks[j].Begin) < 0
	})

	merged := chunks[:1]
	for _, c := range chunks[1:] {
		last := &merged[len(merged)-1]
		if compareOffsets(c.Begin, last.End) <= 0 {
			if compareOffsets(c.End, last.End) > 0 {
				last.End = c.End
			}
			continue
		}
		merged = append(merged, c)
	}
	return merged
}
