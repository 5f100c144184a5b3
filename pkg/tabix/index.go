package tabix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/biogo/hts/bgzf"
)

// Index magic numbers.
var (
	tbiMagic = [4]byte{'T', 'B', 'I', 1}
	csiMagic = [4]byte{'C', 'S', 'I', 1}
)

const (
	tbiMinShift = 14
	tbiDepth    = 5

	// ucscFlag marks 0-based, half-open coordinates in the format field.
	ucscFlag = 0x10000
)

// Preset is the column convention a tabix index was built for.
type Preset int32

const (
	PresetGeneric Preset = 0
	PresetSAM     Preset = 1
	PresetVCF     Preset = 2
)

func (p Preset) String() string {
	switch p {
	case PresetGeneric:
		return "generic"
	case PresetSAM:
		return "sam"
	case PresetVCF:
		return "vcf"
	}
	return fmt.Sprintf("Preset(%d)", int32(p))
}

// IndexConfig describes where the coordinates live in each data line.
// Column numbers are 1-based as stored in the index; EndColumn 0 means the
// record spans one base (or, for VCF and SAM, is derived from the record).
type IndexConfig struct {
	Preset      Preset
	ZeroBased   bool
	SeqColumn   int
	BeginColumn int
	EndColumn   int
	MetaChar    byte
	Skip        int
}

// Index maps chromosomes to the BGZF chunks that may hold their records.
// It is immutable after loading and safe for concurrent use.
//
// The index is only meaningful for data sorted by chromosome then start
// position; for unsorted files query results are undefined.
type Index struct {
	kind     string
	minShift int
	depth    int
	conf     IndexConfig
	names    []string
	ids      map[string]int
	refs     []refIndex

	unplaced    uint64
	hasUnplaced bool
}

type refIndex struct {
	bins   map[uint32]indexBin
	linear []bgzf.Offset
	stats  *ReferenceStats
}

type indexBin struct {
	loffset bgzf.Offset
	chunks  []bgzf.Chunk
}

// LoadIndex reads a TBI or CSI index through storage.
func LoadIndex(storage Storage, path string) (*Index, error) {
	data, err := storage.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("failed to read index %s: %w", path, err)
	}
	idx, err := ReadIndex(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load index %s: %w", path, err)
	}
	return idx, nil
}

// ReadIndex decodes a TBI or CSI index. The stream may be BGZF-compressed, as
// written by tabix, or already decompressed.
func ReadIndex(r io.Reader) (*Index, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		bg, err := bgzf.NewReader(bytes.NewReader(raw), 1)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexFormat, err)
		}
		raw, err = io.ReadAll(bg)
		bg.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexFormat, err)
		}
	}

	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: file too short", ErrIndexFormat)
	}
	var magic [4]byte
	copy(magic[:], raw)

	d := &decoder{buf: raw[4:]}
	var idx *Index
	switch {
	case magic == tbiMagic:
		idx, err = decodeTBI(d)
	case magic == csiMagic:
		idx, err = decodeCSI(d)
	case string(magic[:3]) == "TBI" || string(magic[:3]) == "CSI":
		return nil, fmt.Errorf("%w: %s version %d", ErrIndexVersion, magic[:3], magic[3])
	default:
		return nil, fmt.Errorf("%w: bad magic %q", ErrIndexFormat, magic[:])
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func decodeTBI(d *decoder) (*Index, error) {
	nRef := d.count(4)
	idx := &Index{kind: "tbi", minShift: tbiMinShift, depth: tbiDepth}
	if err := idx.decodeConfig(d, nRef); err != nil {
		return nil, err
	}
	idx.refs = make([]refIndex, nRef)
	for i := range idx.refs {
		idx.refs[i] = idx.decodeBins(d, false)
		nIntv := d.count(8)
		linear := make([]bgzf.Offset, nIntv)
		for j := range linear {
			linear[j] = virtualOffset(d.u64())
		}
		idx.refs[i].linear = linear
		if d.err != nil {
			return nil, d.err
		}
	}
	idx.decodeUnplaced(d)
	return idx, d.err
}

func decodeCSI(d *decoder) (*Index, error) {
	idx := &Index{kind: "csi"}
	idx.minShift = int(d.i32())
	idx.depth = int(d.i32())
	if d.err == nil && (idx.minShift < 0 || idx.depth < 0 || idx.minShift+3*idx.depth > 62) {
		return nil, fmt.Errorf("%w: min_shift %d with depth %d", ErrIndexFormat, idx.minShift, idx.depth)
	}
	aux := d.bytes(d.count(1))
	nRef := d.count(4)
	if d.err != nil {
		return nil, d.err
	}
	if len(aux) < 28 {
		return nil, fmt.Errorf("%w: csi index carries no sequence names", ErrIndexFormat)
	}
	if err := idx.decodeConfig(&decoder{buf: aux}, nRef); err != nil {
		return nil, err
	}
	idx.refs = make([]refIndex, nRef)
	for i := range idx.refs {
		idx.refs[i] = idx.decodeBins(d, true)
		if d.err != nil {
			return nil, d.err
		}
	}
	idx.decodeUnplaced(d)
	return idx, d.err
}

// decodeConfig reads the tabix header: format, columns, meta char, skip and names.
func (idx *Index) decodeConfig(d *decoder, nRef int) error {
	format := d.i32()
	idx.conf = IndexConfig{
		Preset:      Preset(format & 0xffff),
		ZeroBased:   format&ucscFlag != 0,
		SeqColumn:   int(d.i32()),
		BeginColumn: int(d.i32()),
		EndColumn:   int(d.i32()),
		MetaChar:    byte(d.i32()),
		Skip:        int(d.i32()),
	}
	names := d.bytes(d.count(1))
	if d.err != nil {
		return d.err
	}
	if idx.conf.SeqColumn < 1 || idx.conf.BeginColumn < 1 || idx.conf.EndColumn < 0 {
		return fmt.Errorf("%w: invalid column configuration %d/%d/%d", ErrIndexFormat,
			idx.conf.SeqColumn, idx.conf.BeginColumn, idx.conf.EndColumn)
	}

	names = bytes.TrimSuffix(names, []byte{0})
	idx.ids = make(map[string]int, nRef)
	if nRef > 0 {
		for _, name := range bytes.Split(names, []byte{0}) {
			idx.ids[string(name)] = len(idx.names)
			idx.names = append(idx.names, string(name))
		}
	}
	if len(idx.names) != nRef {
		return fmt.Errorf("%w: %d sequence names for %d references", ErrIndexFormat, len(idx.names), nRef)
	}
	return nil
}

func (idx *Index) decodeBins(d *decoder, withLoffset bool) refIndex {
	minChunk := 8
	if withLoffset {
		minChunk = 16
	}
	nBin := d.count(minChunk)
	ref := refIndex{bins: make(map[uint32]indexBin, nBin)}
	meta := metaBin(idx.depth)
	for j := 0; j < nBin && d.err == nil; j++ {
		id := d.u32()
		var b indexBin
		if withLoffset {
			b.loffset = virtualOffset(d.u64())
		}
		nChunk := d.count(16)
		b.chunks = make([]bgzf.Chunk, nChunk)
		for k := range b.chunks {
			b.chunks[k] = bgzf.Chunk{Begin: virtualOffset(d.u64()), End: virtualOffset(d.u64())}
		}
		if id == meta {
			if len(b.chunks) == 2 {
				ref.stats = &ReferenceStats{
					Chunk:    b.chunks[0],
					Mapped:   uint64(b.chunks[1].Begin.File)<<16 | uint64(b.chunks[1].Begin.Block),
					Unmapped: uint64(b.chunks[1].End.File)<<16 | uint64(b.chunks[1].End.Block),
				}
			}
			continue
		}
		ref.bins[id] = b
	}
	return ref
}

func (idx *Index) decodeUnplaced(d *decoder) {
	if d.err != nil || len(d.buf) < 8 {
		return
	}
	idx.unplaced = d.u64()
	idx.hasUnplaced = true
}

// Kind returns "tbi" or "csi".
func (idx *Index) Kind() string { return idx.kind }

// Config returns the column configuration stored in the index.
func (idx *Index) Config() IndexConfig { return idx.conf }

// Chromosomes returns the indexed sequence names in index order.
func (idx *Index) Chromosomes() []string {
	return append([]string(nil), idx.names...)
}

// HasChromosome reports whether name is indexed.
func (idx *Index) HasChromosome(name string) bool {
	_, ok := idx.ids[name]
	return ok
}

// MaxEnd is the largest coordinate the binning scheme addresses.
func (idx *Index) MaxEnd() int {
	return 1 << (idx.minShift + 3*idx.depth)
}

// ReferenceStats returns the record counts stored for chrom, when the index has them.
func (idx *Index) ReferenceStats(chrom string) (ReferenceStats, bool) {
	id, ok := idx.ids[chrom]
	if !ok || idx.refs[id].stats == nil {
		return ReferenceStats{}, false
	}
	return *idx.refs[id].stats, true
}

// Unplaced returns the number of records without coordinates, when recorded.
func (idx *Index) Unplaced() (uint64, bool) {
	return idx.unplaced, idx.hasUnplaced
}

// decoder reads little-endian index fields, remembering the first error.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf) < n {
		d.err = fmt.Errorf("%w: truncated index", ErrIndexFormat)
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) i32() int32 { return int32(d.u32()) }

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) bytes(n int) []byte { return d.take(n) }

// count reads an int32 element count and rejects counts that cannot fit in the
// remaining bytes given the minimum element size.
func (d *decoder) count(elemSize int) int {
	n := d.i32()
	if d.err != nil {
		return 0
	}
	if n < 0 || (elemSize > 0 && int64(n)*int64(elemSize) > int64(len(d.buf))) {
		d.err = fmt.Errorf("%w: implausible element count %d", ErrIndexFormat, n)
		return 0
	}
	return int(n)
}
