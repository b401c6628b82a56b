package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID   string            `json:"id"`
	URL  string            `json:"url"`
	Tags map[string]string `json:"tags"`
}

func TestMarshalCompact(t *testing.T) {
	rec := testRecord{ID: "1", URL: "http://a/b?x=1&y=<2>", Tags: map[string]string{"k": "v"}}

	data, err := MarshalCompact(rec)
	require.NoError(t, err)

	assert.Equal(t, `{"id":"1","url":"http://a/b?x=1&y=<2>","tags":{"k":"v"}}`, string(data))

	var back testRecord
	require.NoError(t, Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestMarshalCompactDoesNotAliasPool(t *testing.T) {
	first, err := MarshalCompact("first")
	require.NoError(t, err)
	_, err = MarshalCompact("second-value-that-reuses-the-buffer")
	require.NoError(t, err)

	assert.Equal(t, `"first"`, string(first))
}

func TestMarshalToWriter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, MarshalToWriter(&out, map[string]int{"a": 1}, "  "))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}

func TestPutBufferDropsLargeBuffers(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, maxPooledBufferSize+1))
	PutBuffer(big)
	PutBuffer(nil)

	buf := GetBuffer()
	assert.Equal(t, 0, buf.Len())
	PutBuffer(buf)
}
