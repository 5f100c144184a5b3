package parser

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"tuple", "BED", "gtf", "gff3", "vcf"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		p, err := New(f, UTF8)
		require.NoError(t, err)
		assert.Equal(t, f, p.Format())
	}

	f, err := ParseFormat("gff")
	require.NoError(t, err)
	assert.Equal(t, FormatGFF3, f)

	_, err = ParseFormat("sam")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = New(Format(42), UTF8)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestTupleLazyFields(t *testing.T) {
	line := []byte("chr1\t100\t200\tfoo\n")
	rec, err := AsTuple().Parse(line)
	require.NoError(t, err)

	tr := rec.(*TupleRecord)
	assert.Nil(t, tr.bounds, "fields must not be split before access")

	assert.Equal(t, 4, rec.Len())
	assert.Equal(t, "foo", rec.Field(3))
	assert.Equal(t, "", rec.Field(4))
	assert.Equal(t, "", rec.Field(-1))
	assert.Equal(t, []string{"chr1", "100", "200", "foo"}, rec.Fields())
}

func TestUnmodifiedTextIsOriginal(t *testing.T) {
	line := "chr1\t100\t200\tname with  spaces\t\t+"
	rec, err := AsBED().Parse([]byte(line + "\r\n"))
	require.NoError(t, err)

	assert.Equal(t, line, rec.Text())
	_ = rec.Field(3)
	assert.Equal(t, line, rec.Text())
	assert.Equal(t, []byte(line), rec.Bytes())
	assert.False(t, rec.Dirty())
}

func TestSetFieldRebuildsText(t *testing.T) {
	rec, err := AsTuple().Parse([]byte("a\tb\tc"))
	require.NoError(t, err)

	require.NoError(t, rec.SetField(1, "B"))
	assert.True(t, rec.Dirty())
	assert.Equal(t, "a\tB\tc", rec.Text())
	assert.Equal(t, "B", rec.Field(1))
	assert.Equal(t, "a", rec.Field(0))

	assert.ErrorIs(t, rec.SetField(3, "x"), ErrFieldIndex)
	assert.ErrorIs(t, rec.SetField(-1, "x"), ErrFieldIndex)
}

func TestRecordOutlivesInputBuffer(t *testing.T) {
	buf := []byte("chr1\t1\t2")
	rec, err := AsBED().Parse(buf)
	require.NoError(t, err)
	copy(buf, "XXXX")
	assert.Equal(t, "chr1", rec.(*BEDRecord).Chrom())
}

func TestBED(t *testing.T) {
	rec, err := AsBED().Parse([]byte("chr2\t10\t20\tgeneA\t500\t-\t12\t18\t255,0,0\t2\t3,4,\t0,6,"))
	require.NoError(t, err)
	bed := rec.(*BEDRecord)

	assert.Equal(t, "chr2", bed.Chrom())
	assert.Equal(t, 10, bed.Start())
	assert.Equal(t, 20, bed.End())
	assert.Equal(t, "geneA", bed.Name())
	assert.Equal(t, "500", bed.Score())
	assert.Equal(t, "-", bed.Strand())
	ts, ok := bed.ThickStart()
	assert.True(t, ok)
	assert.Equal(t, 12, ts)
	te, ok := bed.ThickEnd()
	assert.True(t, ok)
	assert.Equal(t, 18, te)
	assert.Equal(t, "255,0,0", bed.ItemRGB())
	n, ok := bed.BlockCount()
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{3, 4}, bed.BlockSizes())
	assert.Equal(t, []int{0, 6}, bed.BlockStarts())
}

func TestBEDShortLineAndSetters(t *testing.T) {
	rec, err := AsBED().Parse([]byte("chr1\t5\t9"))
	require.NoError(t, err)
	bed := rec.(*BEDRecord)

	assert.Equal(t, "", bed.Name())
	_, ok := bed.ThickStart()
	assert.False(t, ok)

	bed.SetStrand("+")
	bed.SetStart(6)
	assert.Equal(t, "chr1\t6\t9\t.\t.\t+", bed.Text())
	assert.Equal(t, 6, bed.Start())
}

func TestMalformedCoordinates(t *testing.T) {
	cases := []struct {
		p    Parser
		line string
		col  int
	}{
		{AsBED(), "chr1\tabc\t10", 1},
		{AsBED(), "chr1\t1\t1e3", 2},
		{AsGTF(), "chr1\tsrc\tgene\tx\t10\t.\t+\t.\t", 3},
		{AsGFF3(), "chr1\tsrc\tgene\t1\t?\t.\t+\t.\t", 4},
		{AsVCF(), "chr1\tpos\t.\tA\tC", 1},
	}
	for _, tc := range cases {
		_, err := tc.p.Parse([]byte(tc.line))
		require.Error(t, err, tc.line)
		assert.ErrorIs(t, err, ErrMalformedRecord)

		var mre *MalformedRecordError
		require.True(t, errors.As(err, &mre))
		assert.Equal(t, tc.col, mre.Column)

		var numErr *strconv.NumError
		assert.True(t, errors.As(err, &numErr))
	}

	_, err := AsTuple().Parse([]byte("chr1\tabc\tdef"))
	assert.NoError(t, err)
}

func TestShortLinesNeverFail(t *testing.T) {
	for _, p := range []Parser{AsTuple(), AsBED(), AsGTF(), AsGFF3(), AsVCF()} {
		_, err := p.Parse([]byte("chr1"))
		assert.NoError(t, err, p.Format().String())
	}
}

func TestGTF(t *testing.T) {
	line := `chr1	HAVANA	exon	11869	12227	.	+	.	gene_id "ENSG1"; transcript_id "ENST1"; exon_number 1; note "a;b";`
	rec, err := AsGTF().Parse([]byte(line))
	require.NoError(t, err)
	gtf := rec.(*GTFRecord)

	assert.Equal(t, "chr1", gtf.Contig())
	assert.Equal(t, "HAVANA", gtf.Source())
	assert.Equal(t, "exon", gtf.Feature())
	assert.Equal(t, 11868, gtf.Start())
	assert.Equal(t, 12227, gtf.End())
	assert.Equal(t, "+", gtf.Strand())
	assert.Equal(t, "ENSG1", gtf.GeneID())
	assert.Equal(t, "ENST1", gtf.TranscriptID())

	v, ok := gtf.Attribute("exon_number")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	v, ok = gtf.Attribute("note")
	assert.True(t, ok)
	assert.Equal(t, "a;b", v)

	gtf.SetAttribute("gene_id", "ENSG2")
	assert.Equal(t, "ENSG2", gtf.GeneID())
	assert.Contains(t, gtf.Text(), `gene_id "ENSG2"; transcript_id "ENST1"; exon_number 1;`)
}

func TestGFF3Attributes(t *testing.T) {
	line := "ctg1\t.\tgene\t1000\t9000\t.\t+\t.\tID=gene1;Name=EDEN%3Bx;Parent=a,b;ID=dup"
	rec, err := AsGFF3().Parse([]byte(line))
	require.NoError(t, err)
	gff := rec.(*GFF3Record)

	assert.Equal(t, 999, gff.Start())
	assert.Equal(t, 9000, gff.End())
	assert.Equal(t, "gene1", gff.ID())

	m := gff.AttributeMap()
	assert.Equal(t, "gene1", m["ID"], "first occurrence wins")
	assert.Equal(t, "EDEN;x", m["Name"])
	assert.Equal(t, []string{"a", "b"}, gff.AttributeValues("Parent"))
	assert.Len(t, gff.Attributes(), 4)

	gff.SetAttribute("Name", "a=b")
	assert.Equal(t, "ctg1\t.\tgene\t1000\t9000\t.\t+\t.\tID=gene1;Name=a%3Db;Parent=a,b;ID=dup", gff.Text())
}

func TestGFFSetStartKeepsOtherColumns(t *testing.T) {
	line := "ctg1\tsrc\tCDS\t10\t20\t0.5\t-\t0\tID=cds1"
	rec, err := AsGFF3().Parse([]byte(line))
	require.NoError(t, err)
	gff := rec.(*GFF3Record)

	gff.SetStart(99)
	assert.Equal(t, "ctg1\tsrc\tCDS\t100\t20\t0.5\t-\t0\tID=cds1", gff.Text())
}

func TestVCF(t *testing.T) {
	line := "20\t14370\trs6054257\tG\tA,T\t29\tPASS\tNS=3;DP=14;DB\tGT:GQ\t0|0:48\t1|0"
	rec, err := AsVCF().Parse([]byte(line))
	require.NoError(t, err)
	vcf := rec.(*VCFRecord)

	assert.Equal(t, "20", vcf.Chrom())
	assert.Equal(t, 14370, vcf.Pos())
	assert.Equal(t, 14369, vcf.Start())
	assert.Equal(t, 14370, vcf.End())
	assert.Equal(t, "rs6054257", vcf.ID())
	assert.Equal(t, []string{"A", "T"}, vcf.Alt())
	q, ok := vcf.Qual()
	assert.True(t, ok)
	assert.Equal(t, 29.0, q)
	assert.Equal(t, []string{"PASS"}, vcf.Filter())
	assert.Equal(t, map[string]string{"NS": "3", "DP": "14", "DB": ""}, vcf.Info())
	assert.Equal(t, 2, vcf.NumSamples())
	assert.Equal(t, map[string]string{"GT": "0|0", "GQ": "48"}, vcf.Sample(0))
	assert.Equal(t, map[string]string{"GT": "1|0"}, vcf.Sample(1))
	assert.Nil(t, vcf.Sample(2))

	vcf.SetAlt(nil)
	assert.Equal(t, "20\t14370\trs6054257\tG\t.\t29\tPASS\tNS=3;DP=14;DB\tGT:GQ\t0|0:48\t1|0", vcf.Text())
}

func TestVCFInfoEnd(t *testing.T) {
	rec, err := AsVCF().Parse([]byte("1\t100\t.\tN\t<DEL>\t.\t.\tSVTYPE=DEL;END=500"))
	require.NoError(t, err)
	vcf := rec.(*VCFRecord)
	assert.Equal(t, 99, vcf.Start())
	assert.Equal(t, 500, vcf.End())
	_, ok := vcf.Qual()
	assert.False(t, ok)

	// An END before POS is ignored in favour of the REF length.
	rec, err = AsVCF().Parse([]byte("1\t100\t.\tACG\tA\t.\t.\tEND=5"))
	require.NoError(t, err)
	vcf = rec.(*VCFRecord)
	assert.Equal(t, 99, vcf.Start())
	assert.Equal(t, 102, vcf.End())
}

func TestLatin1Encoding(t *testing.T) {
	enc, err := LookupEncoding("latin1")
	require.NoError(t, err)
	p, err := New(FormatTuple, enc)
	require.NoError(t, err)

	raw := []byte{'c', 'a', 'f', 0xe9, '\t', '1'}
	rec, err := p.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "café", rec.Field(0))
	assert.Equal(t, raw, rec.Bytes())

	require.NoError(t, rec.SetField(1, "2"))
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9, '\t', '2'}, rec.Bytes())
}

func TestLookupEncoding(t *testing.T) {
	enc, err := LookupEncoding("")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc.Name())

	enc, err = LookupEncoding("windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", enc.Name())

	_, err = LookupEncoding("no-such-charset")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestColumn(t *testing.T) {
	line := []byte("a\tbb\t\tccc\n")
	col, ok := Column(line, 1)
	assert.True(t, ok)
	assert.Equal(t, "bb", string(col))
	col, ok = Column(line, 2)
	assert.True(t, ok)
	assert.Equal(t, "", string(col))
	col, ok = Column(line, 3)
	assert.True(t, ok)
	assert.Equal(t, "ccc", string(col))
	_, ok = Column(line, 4)
	assert.False(t, ok)
}
