// Package tabixtest writes small BGZF data files with tabix or CSI indexes for
// tests. Records must already be sorted by chromosome then start.
package tabixtest

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/require"
)

// Layout names the column convention of the written file.
type Layout int

const (
	// BED: chrom, start, end; 0-based half-open.
	BED Layout = iota
	// GFF: seqid in column 1, 1-based start and end in columns 4 and 5.
	GFF
	// VCF: CHROM, POS, REF length span (tabix preset 2).
	VCF
)

const (
	minShift = 14
	depth    = 5
	metaBin  = 37450
)

// Options controls the layout of a fixture.
type Options struct {
	Layout Layout
	// Header lines are written before the records and never indexed.
	Header []string
	// LinesPerBlock forces a BGZF block boundary every n lines (default 2).
	LinesPerBlock int
	// CSI writes a .csi index instead of .tbi.
	CSI bool
	// Skip is stored in the index as the number of leading lines to ignore.
	Skip int
}

// Record is one indexed data line with its 0-based half-open span.
type Record struct {
	Line  string
	Chrom string
	Beg   int
	End   int
}

// Fixture describes the written files.
type Fixture struct {
	DataPath  string
	IndexPath string
	// Records are the data lines whose coordinates parsed, in file order.
	Records []Record
}

// Overlapping returns the records of chrom overlapping [beg, end).
func (f Fixture) Overlapping(chrom string, beg, end int) []string {
	var lines []string
	for _, r := range f.Records {
		if r.Chrom == chrom && r.Beg < end && r.End > beg {
			lines = append(lines, r.Line)
		}
	}
	return lines
}

// Write creates dir/name and its index from lines.
func Write(t testing.TB, dir, name string, lines []string, opts Options) Fixture {
	t.Helper()

	data, offsets := writeData(t, append(append([]string(nil), opts.Header...), lines...), opts.LinesPerBlock)
	dataPath := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(dataPath, data, 0o644))

	b := newBuilder(opts)
	for i, line := range lines {
		off := offsets[len(opts.Header)+i]
		b.add(line, off)
	}

	indexPath := dataPath + ".tbi"
	raw := b.tbi()
	if opts.CSI {
		indexPath = dataPath + ".csi"
		raw = b.csi()
	}
	require.NoError(t, os.WriteFile(indexPath, Compress(t, raw), 0o644))

	return Fixture{DataPath: dataPath, IndexPath: indexPath, Records: b.records}
}

// IndexBytes returns the uncompressed index Write would produce for lines.
func IndexBytes(t testing.TB, lines []string, opts Options) []byte {
	t.Helper()
	_, offsets := writeData(t, append(append([]string(nil), opts.Header...), lines...), opts.LinesPerBlock)
	b := newBuilder(opts)
	for i, line := range lines {
		b.add(line, offsets[len(opts.Header)+i])
	}
	if opts.CSI {
		return b.csi()
	}
	return b.tbi()
}

// Compress wraps raw in BGZF.
func Compress(t testing.TB, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, 1)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeData compresses lines into BGZF blocks of perBlock lines and returns the
// virtual-offset span of every line.
func writeData(t testing.TB, lines []string, perBlock int) ([]byte, []bgzf.Chunk) {
	t.Helper()
	if perBlock <= 0 {
		perBlock = 2
	}

	var buf bytes.Buffer
	cw := &countingWriter{w: &buf}
	w := bgzf.NewWriter(cw, 1)

	offsets := make([]bgzf.Chunk, len(lines))
	var inBlock int
	for i, line := range lines {
		if i > 0 && i%perBlock == 0 {
			// Flush hands the block to a compressing goroutine; Wait makes cw.n final.
			require.NoError(t, w.Flush())
			require.NoError(t, w.Wait())
			inBlock = 0
		}
		base := cw.n
		text := line + "\n"
		require.Less(t, inBlock+len(text), bgzf.BlockSize, "fixture block too large")
		_, err := io.WriteString(w, text)
		require.NoError(t, err)
		offsets[i] = bgzf.Chunk{
			Begin: bgzf.Offset{File: base, Block: uint16(inBlock)},
			End:   bgzf.Offset{File: base, Block: uint16(inBlock + len(text))},
		}
		inBlock += len(text)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), offsets
}

type refBins struct {
	name   string
	bins   map[uint32][]bgzf.Chunk
	order  []uint32
	linear []bgzf.Offset
	set    []bool
	span   bgzf.Chunk
	mapped uint64
}

type builder struct {
	opts    Options
	refs    []*refBins
	records []Record
	lastBin uint32
}

func newBuilder(opts Options) *builder { return &builder{opts: opts} }

func (b *builder) add(line string, off bgzf.Chunk) {
	chrom, beg, end, ok := b.coordinates(line)
	if !ok {
		// Unparsable lines stay inside the chunk of the line before them.
		if len(b.refs) > 0 {
			ref := b.refs[len(b.refs)-1]
			chunks := ref.bins[b.lastBin]
			chunks[len(chunks)-1].End = off.End
			ref.span.End = off.End
		}
		return
	}
	b.records = append(b.records, Record{Line: line, Chrom: chrom, Beg: beg, End: end})

	if len(b.refs) == 0 || b.refs[len(b.refs)-1].name != chrom {
		b.refs = append(b.refs, &refBins{
			name: chrom,
			bins: make(map[uint32][]bgzf.Chunk),
			span: off,
		})
	}
	ref := b.refs[len(b.refs)-1]
	ref.span.End = off.End
	ref.mapped++

	bin := reg2bin(beg, end)
	chunks, ok := ref.bins[bin]
	switch {
	case !ok:
		ref.order = append(ref.order, bin)
		ref.bins[bin] = []bgzf.Chunk{off}
	case chunks[len(chunks)-1].End == off.Begin:
		chunks[len(chunks)-1].End = off.End
	default:
		ref.bins[bin] = append(chunks, off)
	}
	b.lastBin = bin

	for w := beg >> minShift; w <= (end-1)>>minShift; w++ {
		for len(ref.linear) <= w {
			ref.linear = append(ref.linear, bgzf.Offset{})
			ref.set = append(ref.set, false)
		}
		if !ref.set[w] {
			ref.linear[w] = off.Begin
			ref.set[w] = true
		}
	}
}

func (b *builder) coordinates(line string) (chrom string, beg, end int, ok bool) {
	cols := strings.Split(line, "\t")
	var err error
	switch b.opts.Layout {
	case BED:
		if len(cols) < 3 {
			return "", 0, 0, false
		}
		if beg, err = strconv.Atoi(cols[1]); err != nil {
			return "", 0, 0, false
		}
		if end, err = strconv.Atoi(cols[2]); err != nil {
			return "", 0, 0, false
		}
	case GFF:
		if len(cols) < 5 {
			return "", 0, 0, false
		}
		if beg, err = strconv.Atoi(cols[3]); err != nil {
			return "", 0, 0, false
		}
		if end, err = strconv.Atoi(cols[4]); err != nil {
			return "", 0, 0, false
		}
		beg--
	case VCF:
		if len(cols) < 4 {
			return "", 0, 0, false
		}
		if beg, err = strconv.Atoi(cols[1]); err != nil {
			return "", 0, 0, false
		}
		beg--
		end = beg + len(cols[3])
	}
	if end <= beg {
		end = beg + 1
	}
	return cols[0], beg, end, true
}

// reg2bin returns the smallest bin containing [beg, end).
func reg2bin(beg, end int) uint32 {
	end--
	s, t := minShift, ((1<<(3*depth))-1)/7
	for l := depth; l > 0; l-- {
		if beg>>s == end>>s {
			return uint32(t + beg>>s)
		}
		s += 3
		t -= 1 << (3 * (l - 1))
	}
	return 0
}

type encoder struct{ bytes.Buffer }

func (e *encoder) i32(v int)         { binary.Write(&e.Buffer, binary.LittleEndian, int32(v)) }
func (e *encoder) u32(v uint32)      { binary.Write(&e.Buffer, binary.LittleEndian, v) }
func (e *encoder) u64(v uint64)      { binary.Write(&e.Buffer, binary.LittleEndian, v) }
func (e *encoder) off(o bgzf.Offset) { e.u64(uint64(o.File)<<16 | uint64(o.Block)) }

// header encodes the tabix configuration block shared by TBI and the CSI aux data.
func (b *builder) header() []byte {
	var e encoder
	format, seq, beg, end := 0x10000, 1, 2, 3
	switch b.opts.Layout {
	case GFF:
		format, seq, beg, end = 0, 1, 4, 5
	case VCF:
		format, seq, beg, end = 2, 1, 2, 0
	}
	e.i32(format)
	e.i32(seq)
	e.i32(beg)
	e.i32(end)
	e.i32('#')
	e.i32(b.opts.Skip)

	var names bytes.Buffer
	for _, ref := range b.refs {
		names.WriteString(ref.name)
		names.WriteByte(0)
	}
	e.i32(names.Len())
	e.Write(names.Bytes())
	return e.Bytes()
}

func (b *builder) bins(e *encoder, ref *refBins, withLoffset bool) {
	e.i32(len(ref.order) + 1)
	for _, bin := range ref.order {
		e.u32(bin)
		if withLoffset {
			e.off(ref.loffset(bin))
		}
		e.i32(len(ref.bins[bin]))
		for _, c := range ref.bins[bin] {
			e.off(c.Begin)
			e.off(c.End)
		}
	}

	e.u32(metaBin)
	if withLoffset {
		e.u64(0)
	}
	e.i32(2)
	e.off(ref.span.Begin)
	e.off(ref.span.End)
	e.u64(ref.mapped)
	e.u64(0)
}

// finish fills empty linear-index windows: leading ones with the start of the
// reference, the rest with the previous window.
func (b *builder) finish() {
	for _, ref := range b.refs {
		for i := range ref.linear {
			switch {
			case ref.set[i]:
			case i == 0:
				ref.linear[i] = ref.span.Begin
			default:
				ref.linear[i] = ref.linear[i-1]
			}
			ref.set[i] = true
		}
	}
}

// loffset is the linear-index offset of the first window covered by bin.
func (r *refBins) loffset(bin uint32) bgzf.Offset {
	level, b := 0, int(bin)
	for ; b > 0; b = (b - 1) >> 3 {
		level++
	}
	first := ((1 << (3 * level)) - 1) / 7
	w := (int(bin) - first) << (3 * (depth - level))
	if w >= len(r.linear) {
		return bgzf.Offset{}
	}
	return r.linear[w]
}

func (b *builder) tbi() []byte {
	b.finish()
	var e encoder
	e.WriteString("TBI\x01")
	e.i32(len(b.refs))
	e.Write(b.header())
	for _, ref := range b.refs {
		b.bins(&e, ref, false)
		e.i32(len(ref.linear))
		for _, o := range ref.linear {
			e.off(o)
		}
	}
	e.u64(0)
	return e.Bytes()
}

func (b *builder) csi() []byte {
	b.finish()
	var e encoder
	e.WriteString("CSI\x01")
	e.i32(minShift)
	e.i32(depth)
	aux := b.header()
	e.i32(len(aux))
	e.Write(aux)
	e.i32(len(b.refs))
	for _, ref := range b.refs {
		b.bins(&e, ref, true)
	}
	e.u64(0)
	return e.Bytes()
}
