package field

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	set, err := Generate(257, DefaultExtent, NewSource(5))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, set))

	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, set, got)
}

func TestSnapshot_EmptySet(t *testing.T) {
	set, err := Generate(0, 4, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, set))

	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count)
	assert.Equal(t, float32(4), got.Extent)
	assert.Empty(t, got.Positions)
}

func TestSnapshot_File(t *testing.T) {
	set, err := Generate(10, DefaultExtent, NewSource(3))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "field.pfz")
	require.NoError(t, SaveSnapshot(path, set))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, set.Positions, got.Positions)
	assert.Equal(t, set.Colors, got.Colors)
}

func compress(raw []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(raw)
	_ = zw.Close()
	return buf.Bytes()
}

// rawSnapshot builds a compressed snapshot by hand, body floats verbatim.
func rawSnapshot(count uint32, extent float32, body ...float32) []byte {
	raw := []byte{'P', 'F', 'L', 'D', 1, 0}
	raw = binary.LittleEndian.AppendUint32(raw, count)
	raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(extent))
	for _, v := range body {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	return compress(raw)
}

func TestSnapshot_Rejects(t *testing.T) {
	valid, err := Generate(4, 1, NewSource(1))
	require.NoError(t, err)
	var good bytes.Buffer
	require.NoError(t, WriteSnapshot(&good, valid))

	tests := []struct {
		name string
		data []byte
	}{
		{"not zlib", []byte("hello world")},
		{"short header", compress([]byte("PFL"))},
		{"bad magic", compress([]byte{'N', 'O', 'P', 'E', 1, 0, 0, 0, 0, 0, 0, 0, 0, 0})},
		{"bad version", compress([]byte{'P', 'F', 'L', 'D', 9, 0, 0, 0, 0, 0, 0, 0, 0, 0})},
		{"huge count", compress([]byte{'P', 'F', 'L', 'D', 1, 0, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0})},
		{"truncated body", compress([]byte{'P', 'F', 'L', 'D', 1, 0, 2, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3})},
		{"huge count empty body", rawSnapshot(maxSnapshotCount-1, 10)},
		{"nan extent", rawSnapshot(0, float32(math.NaN()))},
		{"inf extent", rawSnapshot(0, float32(math.Inf(1)))},
		{"negative extent", rawSnapshot(0, -1)},
		{"position at upper bound", rawSnapshot(1, 2, 0, 1, 0, 0.5, 0.5, 0.5)},
		{"position nan", rawSnapshot(1, 2, float32(math.NaN()), 0, 0, 0.5, 0.5, 0.5)},
		{"nonzero position in zero extent", rawSnapshot(1, 0, 0.1, 0, 0, 0.5, 0.5, 0.5)},
		{"color one", rawSnapshot(1, 2, 0, 0, 0, 0.5, 1, 0.5)},
		{"color negative", rawSnapshot(1, 2, 0, 0, 0, -0.1, 0.5, 0.5)},
		{"trailing data", rawSnapshot(1, 2, 0, 0, 0, 0.5, 0.5, 0.5, 7)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadSnapshot(bytes.NewReader(tc.data))
			assert.ErrorIs(t, err, ErrBadSnapshot)
		})
	}
}

func TestSnapshot_AcceptsHandBuiltSet(t *testing.T) {
	got, err := ReadSnapshot(bytes.NewReader(rawSnapshot(1, 2, -1, 0, 0.99, 0, 0.5, 0.999)))
	require.NoError(t, err)
	assert.Equal(t, [3]float32{-1, 0, 0.99}, got.Position(0))
	assert.Equal(t, [3]float32{0, 0.5, 0.999}, got.Color(0))

	got, err = ReadSnapshot(bytes.NewReader(rawSnapshot(1, 0, 0, 0, 0, 0, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, float32(0), got.Extent)
}

func TestSnapshot_HugeCountAllocatesLittle(t *testing.T) {
	data := rawSnapshot(maxSnapshotCount-1, 10)
	require.Less(t, len(data), 64)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := ReadSnapshot(bytes.NewReader(data))
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, ErrBadSnapshot)
	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(8<<20), "allocated %d bytes for an empty body", allocated)
}

func TestSnapshot_WriteRejectsMismatchedBuffers(t *testing.T) {
	set := ParticleSet{Count: 2, Positions: make([]float32, 6), Colors: make([]float32, 3)}
	assert.Error(t, WriteSnapshot(&bytes.Buffer{}, set))
}
