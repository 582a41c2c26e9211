package blasttab_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/grailbio/rbh/encoding/blasttab"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cols, err := blasttab.ParseFormat(blasttab.DefaultFormat)
	require.NoError(t, err)
	expect.EQ(t, cols.Index(blasttab.QuerySeqID), 0)
	expect.EQ(t, cols.Index(blasttab.EValue), 10)
	expect.EQ(t, cols.Index(blasttab.BitScore), 11)
	expect.EQ(t, cols.Index("staxids"), -1)
	expect.EQ(t, cols.MinFields(), 12)
	expect.True(t, cols.HasCoverage())
	expect.EQ(t, cols.Format(), blasttab.DefaultFormat)

	cols, err = blasttab.ParseFormat("7 std")
	require.NoError(t, err)
	expect.EQ(t, len(cols.Names()), 12)
	expect.False(t, cols.HasCoverage())
	expect.EQ(t, cols.Format(), "7 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore")

	cols, err = blasttab.ParseFormat("6")
	require.NoError(t, err)
	expect.EQ(t, cols.Index(blasttab.BitScore), 11)

	// The format number may be omitted.
	cols, err = blasttab.ParseFormat("sseqid qseqid bitscore evalue length pident")
	require.NoError(t, err)
	expect.EQ(t, cols.Index(blasttab.QuerySeqID), 1)
	expect.EQ(t, cols.MinFields(), 6)
}

func TestParseFormatErrors(t *testing.T) {
	for _, spec := range []string{
		"",
		"5 qseqid sseqid pident length evalue bitscore",
		"10 std",
		"6 qseqid sseqid pident length evalue",          // bitscore missing
		"6 qseqid qseqid sseqid pident length evalue bitscore", // duplicate
	} {
		_, err := blasttab.ParseFormat(spec)
		require.Error(t, err, spec)
		_, ok := err.(*blasttab.ColumnError)
		expect.True(t, ok, spec)
	}
	_, err := blasttab.NewColumns("qseqid", "sseqid")
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	cols := blasttab.MustParseFormat(blasttab.DefaultFormat)
	fields := strings.Split("g1\th1\t99.5\t300\t1\t0\t1\t300\t10\t309\t1e-50\t500\t400\t350", "\t")
	h, err := blasttab.Parse(fields, cols)
	require.NoError(t, err)
	expect.EQ(t, h, blasttab.Hit{
		QueryID:         "g1",
		TargetID:        "h1",
		PercentIdentity: 99.5,
		AlignmentLength: 300,
		EValue:          1e-50,
		BitScore:        500,
		Mismatches:      1,
		QueryStart:      1,
		QueryEnd:        300,
		TargetStart:     10,
		TargetEnd:       309,
		QueryLen:        400,
		TargetLen:       350,
	})
	cov, ok := h.Coverage()
	expect.True(t, ok)
	expect.EQ(t, cov, 0.75)

	// Extra trailing columns are ignored.
	h, err = blasttab.Parse(append(fields, "extra", "more"), cols)
	require.NoError(t, err)
	expect.EQ(t, h.TargetID, "h1")
}

func TestParseMalformed(t *testing.T) {
	cols := blasttab.MustParseFormat("6 qseqid sseqid pident length evalue bitscore")
	for _, line := range []string{
		"g1\th1\t99\t100\t1e-5",          // too few fields
		"g1\th1\tabc\t100\t1e-5\t50",     // identity not a number
		"g1\th1\t101\t100\t1e-5\t50",     // identity > 100
		"g1\th1\t-1\t100\t1e-5\t50",      // identity < 0
		"g1\th1\t99\t0\t1e-5\t50",        // zero length
		"g1\th1\t99\t1.5\t1e-5\t50",      // fractional length
		"g1\th1\t99\t100\t-1\t50",        // negative e-value
		"g1\th1\t99\t100\tNaN\t50",       // NaN
		"g1\th1\t99\t100\t1e-5\tInf",     // infinite score
		"\th1\t99\t100\t1e-5\t50",        // empty query
		"g1\t \t99\t100\t1e-5\t50",       // empty target
	} {
		_, err := blasttab.Parse(strings.Split(line, "\t"), cols)
		require.Error(t, err, line)
		_, ok := err.(*blasttab.MalformedRecordError)
		expect.True(t, ok, line)
	}
}

func TestCoverage(t *testing.T) {
	h := blasttab.Hit{QueryStart: 1, QueryEnd: 80, TargetStart: 200, TargetEnd: 101, QueryLen: 100}
	cov, ok := h.Coverage()
	expect.True(t, ok)
	expect.EQ(t, cov, 1.0)

	_, ok = blasttab.Hit{QueryStart: 1, QueryEnd: 80}.Coverage()
	expect.False(t, ok)
}

func TestReader(t *testing.T) {
	const data = `# BLASTN 2.9.0+
# Query: g1
# Fields: query acc.ver, subject acc.ver, % identity, alignment length, evalue, bit score
g1	h1	99	100	1e-50	500

g1	h2	abc	100	1e-50	500

g2	h3	95	80	1e-20	200
g3	h4	92
`
	cols := blasttab.MustParseFormat("7 qseqid sseqid pident length evalue bitscore")
	r := blasttab.NewReader(strings.NewReader(data), cols)

	var (
		hits      []blasttab.Hit
		malformed []int
	)
	for {
		h, err := r.Read()
		if err == io.EOF {
			break
		}
		if e, ok := err.(*blasttab.MalformedRecordError); ok {
			malformed = append(malformed, e.Line)
			continue
		}
		require.NoError(t, err)
		hits = append(hits, h)
	}
	assert.EQ(t, len(hits), 2)
	expect.EQ(t, hits[0].TargetID, "h1")
	expect.EQ(t, hits[1].TargetID, "h3")
	expect.EQ(t, malformed, []int{6, 9})
	expect.EQ(t, r.Records(), 4)
}

func TestReaderQuotes(t *testing.T) {
	// Quotes are literal. An unbalanced one must not swallow the lines after it.
	const data = "\"g1\th1\t99\t100\t1e-50\t500\n" +
		"g2\th2\t98\t100\t1e-40\t400\n" +
		"g3\"x\th3\tab\"c\t100\t1e-30\t300\n" +
		"g4\th4\t97\t100\t1e-20\t200\r\n"
	cols := blasttab.MustParseFormat("6 qseqid sseqid pident length evalue bitscore")
	r := blasttab.NewReader(strings.NewReader(data), cols)

	var (
		ids       []string
		malformed []int
	)
	for {
		h, err := r.Read()
		if err == io.EOF {
			break
		}
		if e, ok := err.(*blasttab.MalformedRecordError); ok {
			malformed = append(malformed, e.Line)
			continue
		}
		require.NoError(t, err)
		ids = append(ids, h.QueryID)
	}
	expect.EQ(t, ids, []string{"\"g1", "g2", "g4"})
	expect.EQ(t, malformed, []int{3})
	expect.EQ(t, r.Records(), 4)
}

func TestWriterRoundTrip(t *testing.T) {
	cols := blasttab.MustParseFormat(blasttab.DefaultFormat)
	in := []blasttab.Hit{
		{QueryID: "g1", TargetID: "h1", PercentIdentity: 99.5, AlignmentLength: 300, EValue: 1e-50, BitScore: 500,
			QueryStart: 1, QueryEnd: 300, TargetStart: 1, TargetEnd: 300, QueryLen: 300, TargetLen: 310},
		{QueryID: "g2", TargetID: "h2", PercentIdentity: 91, AlignmentLength: 120, EValue: 0, BitScore: 231.5,
			Mismatches: 10, GapOpens: 1, QueryStart: 5, QueryEnd: 124, TargetStart: 130, TargetEnd: 11, QueryLen: 150, TargetLen: 140},
	}
	var buf bytes.Buffer
	w := blasttab.NewWriter(&buf, cols)
	for _, h := range in {
		require.NoError(t, w.Write(h))
	}
	require.NoError(t, w.Flush())

	out, err := blasttab.NewReader(&buf, cols).ReadAll()
	require.NoError(t, err)
	expect.EQ(t, out, in)
}

func TestReadAllStopsAtMalformed(t *testing.T) {
	cols := blasttab.MustParseFormat("6 qseqid sseqid pident length evalue bitscore")
	data := "g1\th1\t99\t100\t0\t500\ng2\th2\t99\n"
	hits, err := blasttab.NewReader(strings.NewReader(data), cols).ReadAll()
	require.Error(t, err)
	assert.EQ(t, len(hits), 1)
	e, ok := err.(*blasttab.MalformedRecordError)
	assert.True(t, ok)
	expect.EQ(t, e.Line, 2)
}
