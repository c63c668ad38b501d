package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Entry{
		{Filename: "original.png", Data: []byte("a")},
		{Filename: ""},
		{Filename: "transformed.png", Data: []byte("bb")},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(data)
	}
	assert.Equal(t, map[string]string{"original.png": "a", "transformed.png": "bb"}, got)
}

func TestWriteRejectsDuplicates(t *testing.T) {
	err := Write(io.Discard, []Entry{{Filename: "x"}, {Filename: "x"}})
	assert.ErrorContains(t, err, "duplicate")
}
