package field

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"
)

// Snapshot layout inside a zlib stream, little-endian:
//
//	magic   [4]byte "PFLD"
//	version uint16
//	count   uint32
//	extent  float32
//	positions [3*count]float32
//	colors    [3*count]float32
const (
	snapshotVersion = 1
	headerSize      = 4 + 2 + 4 + 4

	// Upper bound on count accepted from a snapshot header.
	maxSnapshotCount = 1 << 26
)

var snapshotMagic = [4]byte{'P', 'F', 'L', 'D'}

var ErrBadSnapshot = errors.New("field: malformed snapshot")

// WriteSnapshot compresses set into w.
func WriteSnapshot(w io.Writer, set ParticleSet) error {
	if len(set.Positions) != set.Len() || len(set.Colors) != set.Len() {
		return fmt.Errorf("field: buffer length mismatch for %d particles", set.Count)
	}

	zw := zlib.NewWriter(w)
	bw := bufio.NewWriter(zw)

	var hdr [headerSize]byte
	copy(hdr[0:4], snapshotMagic[:])
	binary.LittleEndian.PutUint16(hdr[4:], snapshotVersion)
	binary.LittleEndian.PutUint32(hdr[6:], uint32(set.Count))
	binary.LittleEndian.PutUint32(hdr[10:], math.Float32bits(set.Extent))
	if _, err := bw.Write(hdr[:]); err != nil {
		return fmt.Errorf("field: write snapshot header: %w", err)
	}

	if err := writeFloats(bw, set.Positions); err != nil {
		return fmt.Errorf("field: write positions: %w", err)
	}
	if err := writeFloats(bw, set.Colors); err != nil {
		return fmt.Errorf("field: write colors: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("field: flush snapshot: %w", err)
	}
	return zw.Close()
}

// ReadSnapshot decodes a set written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (ParticleSet, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return ParticleSet{}, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	defer zr.Close()
	br := bufio.NewReader(zr)

	var hdr [headerSize]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return ParticleSet{}, fmt.Errorf("%w: header: %v", ErrBadSnapshot, err)
	}
	if [4]byte(hdr[0:4]) != snapshotMagic {
		return ParticleSet{}, fmt.Errorf("%w: bad magic %q", ErrBadSnapshot, hdr[0:4])
	}
	if v := binary.LittleEndian.Uint16(hdr[4:]); v != snapshotVersion {
		return ParticleSet{}, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, v)
	}
	count := binary.LittleEndian.Uint32(hdr[6:])
	if count > maxSnapshotCount {
		return ParticleSet{}, fmt.Errorf("%w: count %d too large", ErrBadSnapshot, count)
	}

	extent := math.Float32frombits(binary.LittleEndian.Uint32(hdr[10:]))
	if math.IsNaN(float64(extent)) || math.IsInf(float64(extent), 0) || extent < 0 {
		return ParticleSet{}, fmt.Errorf("%w: extent %v", ErrBadSnapshot, extent)
	}

	n := int(count) * Stride
	set := ParticleSet{Count: int(count), Extent: extent}
	if set.Positions, err = readFloats(br, n); err != nil {
		return ParticleSet{}, fmt.Errorf("%w: positions: %v", ErrBadSnapshot, err)
	}
	if set.Colors, err = readFloats(br, n); err != nil {
		return ParticleSet{}, fmt.Errorf("%w: colors: %v", ErrBadSnapshot, err)
	}
	// Reading to EOF also verifies the zlib checksum.
	extra, err := io.Copy(io.Discard, br)
	if err != nil {
		return ParticleSet{}, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if extra != 0 {
		return ParticleSet{}, fmt.Errorf("%w: %d trailing bytes", ErrBadSnapshot, extra)
	}
	if err := checkRanges(set); err != nil {
		return ParticleSet{}, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	return set, nil
}

// checkRanges enforces what Generate guarantees: positions in
// [-extent/2, extent/2) (all zero for a zero extent) and colors in [0, 1).
func checkRanges(set ParticleSet) error {
	half := set.Extent / 2
	for i, p := range set.Positions {
		inside := p >= -half && p < half
		if half == 0 {
			inside = p == 0
		}
		if !inside {
			return fmt.Errorf("position[%d] = %v outside extent %v", i, p, set.Extent)
		}
	}
	for i, c := range set.Colors {
		if !(c >= 0 && c < 1) {
			return fmt.Errorf("color[%d] = %v outside [0, 1)", i, c)
		}
	}
	return nil
}

func SaveSnapshot(path string, set ParticleSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSnapshot(f, set); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadSnapshot(path string) (ParticleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParticleSet{}, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}

func writeFloats(w io.Writer, vals []float32) error {
	var b [4]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// readChunk bounds how many floats are buffered ahead of the data that backs
// them, so a header claiming a huge count cannot force a huge allocation.
const readChunk = 1 << 14

// readFloats reads n floats, growing the result only as data arrives.
func readFloats(r io.Reader, n int) ([]float32, error) {
	out := make([]float32, 0, min(n, readChunk))
	var buf [readChunk * 4]byte
	for len(out) < n {
		k := min(n-len(out), readChunk)
		if _, err := io.ReadFull(r, buf[:k*4]); err != nil {
			return nil, err
		}
		for i := 0; i < k; i++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
		}
	}
	return out, nil
}
