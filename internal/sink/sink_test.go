package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datajoin/internal/dataset"
)

func resultFixture() *dataset.Dataset {
	ds := dataset.New("result", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "name", Type: dataset.TypeString},
		dataset.Column{Name: "score", Type: dataset.TypeNumber},
	))
	ds.Append(dataset.Record{float64(1), "x", 2.5})
	ds.Append(dataset.Record{float64(2), nil, nil})
	return ds
}

func TestEncodeCSV(t *testing.T) {
	data, err := EncodeCSV(resultFixture())
	require.NoError(t, err)
	assert.Equal(t, "id,name,score\n1,x,2.5\n2,,\n", string(data))
}

// Serializing the same dataset twice produces identical bytes.
func TestEncodeCSVIdempotent(t *testing.T) {
	ds := resultFixture()
	a, err := EncodeCSV(ds)
	require.NoError(t, err)
	b, err := EncodeCSV(ds)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCSVSinkWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	require.NoError(t, s.Write(context.Background(), resultFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name,score\n1,x,2.5\n2,,\n", string(data))
}

func TestCSVSinkWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	s := NewCSVSink(path)
	require.NoError(t, s.Write(context.Background(), resultFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCSVSinkWriteTwiceSameBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)
	ds := resultFixture()

	require.NoError(t, s.Write(context.Background(), ds))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), ds))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
