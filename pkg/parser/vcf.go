package parser

import (
	"strconv"
	"strings"
)

// VCF fixed column positions.
const (
	vcfChrom = iota
	vcfPos
	vcfID
	vcfRef
	vcfAlt
	vcfQual
	vcfFilter
	vcfInfo
	vcfFormat
	vcfSamples
)

// VCFRecord is a VCF data line. Pos is 1-based as stored; Start and End give the
// 0-based half-open span of the reference allele.
type VCFRecord struct {
	fields
}

func parseVCF(line []byte, enc Encoding) (Record, error) {
	if err := requireInt(line, vcfPos, "pos"); err != nil {
		return nil, err
	}
	return &VCFRecord{fields: newFields(line, enc)}, nil
}

func (r *VCFRecord) Chrom() string { return r.Field(vcfChrom) }

func (r *VCFRecord) Pos() int {
	n, _ := r.intField(vcfPos)
	return n
}

func (r *VCFRecord) Start() int { return r.Pos() - 1 }

// End is Start plus the reference allele length, or the INFO END value when it
// is not before POS.
func (r *VCFRecord) End() int {
	if v, ok := r.InfoValue("END"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= r.Pos() {
			return n
		}
	}
	return r.Start() + len(r.Ref())
}

func (r *VCFRecord) ID() string  { return r.Field(vcfID) }
func (r *VCFRecord) Ref() string { return r.Field(vcfRef) }

// Alt returns the alternate alleles; "." yields none.
func (r *VCFRecord) Alt() []string { return dotList(r.Field(vcfAlt), ",") }

// Qual returns the QUAL column when it is a number.
func (r *VCFRecord) Qual() (float64, bool) {
	q, err := strconv.ParseFloat(r.Field(vcfQual), 64)
	if err != nil {
		return 0, false
	}
	return q, true
}

// Filter returns the FILTER entries; "." yields none.
func (r *VCFRecord) Filter() []string { return dotList(r.Field(vcfFilter), ";") }

// Info decomposes the INFO column. Flags map to "".
func (r *VCFRecord) Info() map[string]string {
	items := dotList(r.Field(vcfInfo), ";")
	info := make(map[string]string, len(items))
	for _, item := range items {
		key, value, _ := strings.Cut(item, "=")
		if _, seen := info[key]; !seen {
			info[key] = value
		}
	}
	return info
}

// InfoValue returns a single INFO entry without building the whole map.
func (r *VCFRecord) InfoValue(key string) (string, bool) {
	for _, item := range dotList(r.Field(vcfInfo), ";") {
		k, v, _ := strings.Cut(item, "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}

// Format returns the FORMAT keys.
func (r *VCFRecord) Format() []string { return dotList(r.Field(vcfFormat), ":") }

// NumSamples returns the number of sample columns.
func (r *VCFRecord) NumSamples() int {
	if n := r.Len() - vcfSamples; n > 0 {
		return n
	}
	return 0
}

// Sample maps FORMAT keys to the values of sample i. Missing trailing values are omitted.
func (r *VCFRecord) Sample(i int) map[string]string {
	if i < 0 || i >= r.NumSamples() {
		return nil
	}
	keys := r.Format()
	values := strings.Split(r.Field(vcfSamples+i), ":")
	sample := make(map[string]string, len(keys))
	for j, k := range keys {
		if j < len(values) {
			sample[k] = values[j]
		}
	}
	return sample
}

func (r *VCFRecord) SetChrom(chrom string) { r.setPadded(vcfChrom, chrom, ".") }
func (r *VCFRecord) SetPos(pos int)        { r.setPadded(vcfPos, strconv.Itoa(pos), ".") }
func (r *VCFRecord) SetID(id string)       { r.setPadded(vcfID, id, ".") }
func (r *VCFRecord) SetRef(ref string)     { r.setPadded(vcfRef, ref, ".") }

// SetAlt replaces the ALT column; no alleles are written as ".".
func (r *VCFRecord) SetAlt(alts []string) {
	v := "."
	if len(alts) > 0 {
		v = strings.Join(alts, ",")
	}
	r.setPadded(vcfAlt, v, ".")
}

// SetFilter replaces the FILTER column; no entries are written as ".".
func (r *VCFRecord) SetFilter(filters []string) {
	v := "."
	if len(filters) > 0 {
		v = strings.Join(filters, ";")
	}
	r.setPadded(vcfFilter, v, ".")
}

func dotList(s, sep string) []string {
	if s == "" || s == "." {
		return nil
	}
	return strings.Split(s, sep)
}
