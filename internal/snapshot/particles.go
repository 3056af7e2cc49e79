package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"

	"github.com/san-kum/picmesh/internal/particles"
)

// Particle blob layout, all little-endian: a uint64 count, then the seven
// float64 component arrays (x y z px py pz w), the uint64 id array, and one
// float64 array per species attribute.
func writeParticles(path string, p *particles.Patch) error {
	n := p.Len()
	cols := len(p.Attrs) + 7
	buf := make([]byte, 8+8*n*cols+8*n)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	off := 8
	for _, col := range [][]float64{p.X, p.Y, p.Z, p.Px, p.Py, p.Pz, p.W} {
		off = putFloats(buf, off, col)
	}
	for _, id := range p.ID {
		binary.LittleEndian.PutUint64(buf[off:], id)
		off += 8
	}
	for _, col := range p.Attrs {
		off = putFloats(buf, off, col)
	}
	out, err := zstd.CompressLevel(nil, buf, compressionLevel)
	if err != nil {
		return fmt.Errorf("snapshot: compressing %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, out, 0644)
}

// ReadParticles decodes a particle blob written by Save and appends its
// contents to patch. The patch species must carry the same attribute count
// the blob was written with.
func ReadParticles(path string, patch *particles.Patch) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	buf, err := zstd.Decompress(nil, raw)
	if err != nil {
		return fmt.Errorf("snapshot: decompressing %s: %w", filepath.Base(path), err)
	}
	if len(buf) < 8 {
		return fmt.Errorf("snapshot: %s truncated", filepath.Base(path))
	}
	n := int(binary.LittleEndian.Uint64(buf))
	cols := len(patch.Attrs) + 7
	if len(buf) != 8+8*n*cols+8*n {
		return fmt.Errorf("snapshot: %s holds %d bytes, want %d", filepath.Base(path), len(buf), 8+8*n*cols+8*n)
	}
	getFloats := func(off int) []float64 {
		col := make([]float64, n)
		for i := range col {
			col[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8*i:]))
		}
		return col
	}
	core := make([][]float64, 7)
	for c := range core {
		core[c] = getFloats(8 + 8*n*c)
	}
	// Stored creation ids are skipped: Add assigns fresh ones, which keeps
	// id uniqueness within the receiving patch.
	attrCols := make([][]float64, len(patch.Attrs))
	for a := range attrCols {
		attrCols[a] = getFloats(8 + 8*n*(8+a))
	}
	attrs := make([]float64, len(patch.Attrs))
	for i := 0; i < n; i++ {
		for a := range attrs {
			attrs[a] = attrCols[a][i]
		}
		pos := [3]float64{core[0][i], core[1][i], core[2][i]}
		mom := [3]float64{core[3][i], core[4][i], core[5][i]}
		if _, err := patch.Add(pos, mom, core[6][i], attrs); err != nil {
			return err
		}
	}
	return nil
}

func putFloats(buf []byte, off int, col []float64) int {
	for _, v := range col {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}
	return off
}
