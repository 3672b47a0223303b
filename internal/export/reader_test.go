package export

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, string(rec))
	}
}

func TestReaderArrayKeepsDuplicateKeys(t *testing.T) {
	in := `[
  {"_source": {"layers": {"ip": {"ip.addr": "1.1.1.1", "ip.addr": "2.2.2.2"}}}},
  {"_source": {"layers": {}}}
]
`
	r, err := NewReader(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, FormatArray, r.format)

	recs := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, strings.Count(recs[0], `"ip.addr"`))
	assert.Equal(t, 2, r.records)
}

func TestReaderLines(t *testing.T) {
	in := "\n{\"a\": 1}\n\n{\"b\": 2}\r\n{\"c\": 3}"
	r, err := NewReader(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, FormatLines, r.format)
	assert.Equal(t, []string{`{"a": 1}`, `{"b": 2}`, `{"c": 3}`}, readAll(t, r))
}

func TestReaderEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n", "[]", " [ ] "} {
		r, err := NewReader(strings.NewReader(in))
		require.NoError(t, err, "%q", in)
		assert.Empty(t, readAll(t, r), "%q", in)
	}
}

func TestReaderRejectsOtherInput(t *testing.T) {
	_, err := NewReader(strings.NewReader("\xd4\xc3\xb2\xa1 pcap bytes"))
	assert.Error(t, err)
}

func TestReaderTruncatedArray(t *testing.T) {
	r, err := NewReader(strings.NewReader(`[{"a": 1}, {"b": `))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestIsJSONExport(t *testing.T) {
	assert.True(t, IsJSONExport([]byte("  [\n")))
	assert.True(t, IsJSONExport([]byte(`{"_source"`)))
	assert.False(t, IsJSONExport([]byte("\x0a\x0d\x0d\x0a")))
	assert.False(t, IsJSONExport(nil))
}
