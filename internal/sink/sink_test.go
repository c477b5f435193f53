package sink

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(dn string) Record {
	return Record{"dn": dn}
}

func TestWriteBuffersUntilBatchFull(t *testing.T) {
	var out bytes.Buffer
	w := NewJSONLWriter(&out, 3, zerolog.Nop())

	require.NoError(t, w.Write(rec("cn=a")))
	require.NoError(t, w.Write(rec("cn=b")))
	assert.Zero(t, out.Len())
	assert.Zero(t, w.Written())

	require.NoError(t, w.Write(rec("cn=c")))
	assert.Equal(t, 3, w.Written())
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}

func TestFlushEmitsPartialBatch(t *testing.T) {
	var out bytes.Buffer
	w := NewJSONLWriter(&out, 100, zerolog.Nop())

	require.NoError(t, w.Write(rec("cn=a")))
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, w.Written())

	// Flushing with nothing buffered is a no-op.
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, w.Written())
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestBatchSizeBelowOneFlushesEveryRecord(t *testing.T) {
	var out bytes.Buffer
	w := NewJSONLWriter(&out, 0, zerolog.Nop())

	require.NoError(t, w.Write(rec("cn=a")))
	assert.Equal(t, 1, w.Written())
}

func TestOutputIsValidJSONLines(t *testing.T) {
	var out bytes.Buffer
	w := NewJSONLWriter(&out, 1, zerolog.Nop())

	require.NoError(t, w.Write(Record{
		"dn":          "cn=admin,dc=example,dc=com",
		"attributes":  map[string]any{"cn": "admin", "mail": []string{"a@x", "b@x"}},
		"change_type": nil,
		"line_number": 1,
	}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "cn=admin,dc=example,dc=com", got["dn"])
	assert.Nil(t, got["change_type"])

	attrs, ok := got["attributes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin", attrs["cn"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestFlushPropagatesEncodeError(t *testing.T) {
	w := NewJSONLWriter(failingWriter{}, 1, zerolog.Nop())

	err := w.Write(rec("cn=a"))
	require.Error(t, err)
	assert.Zero(t, w.Written())
}

// flakyWriter fails the n-th underlying write, then recovers.
type flakyWriter struct {
	out    bytes.Buffer
	failOn int
	calls  int
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls == w.failOn {
		return 0, assert.AnError
	}
	return w.out.Write(p)
}

func TestFlushRetryDoesNotDuplicateRecords(t *testing.T) {
	under := &flakyWriter{failOn: 2}
	w := NewJSONLWriter(under, 100, zerolog.Nop())

	require.NoError(t, w.Write(rec("cn=a")))
	require.NoError(t, w.Write(rec("cn=b")))

	// First flush writes cn=a, fails on cn=b.
	require.Error(t, w.Flush())
	assert.Equal(t, 1, w.Written())

	// The retry emits only the remaining record.
	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Written())
	assert.Equal(t, 1, strings.Count(under.out.String(), "cn=a"))
	assert.Equal(t, 1, strings.Count(under.out.String(), "cn=b"))
}
