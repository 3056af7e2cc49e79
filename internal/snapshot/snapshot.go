// Package snapshot persists simulation state: a metadata document plus
// zstd-compressed little-endian field and particle blobs per level.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/DataDog/zstd"

	"github.com/san-kum/picmesh/internal/driver"
	"github.com/san-kum/picmesh/internal/mesh"
)

const compressionLevel = 3

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type LevelMeta struct {
	Lo    [3]float64 `json:"lo"`
	N     [3]int     `json:"n"`
	Cell  [3]float64 `json:"cell"`
	Ghost int        `json:"ghost"`
}

type Metadata struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Step      int         `json:"step"`
	Time      float64     `json:"time"`
	Dt        float64     `json:"dt"`
	Levels    []LevelMeta `json:"levels"`
}

var fieldNames = []string{"ex", "ey", "ez", "bx", "by", "bz", "jx", "jy", "jz"}

func levelFields(lv *mesh.Level) []*mesh.Field {
	e, b, j := lv.E(), lv.B(), lv.J()
	return []*mesh.Field{e[0], e[1], e[2], b[0], b[1], b[2], j[0], j[1], j[2]}
}

// Save writes the full state of d under a fresh run directory and returns
// the directory path.
func (s *Store) Save(d *driver.Driver, label string) (string, error) {
	id := fmt.Sprintf("%s_%06d", label, d.StepCount())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := Metadata{
		ID:        id,
		Timestamp: time.Now(),
		Step:      d.StepCount(),
		Time:      d.Time(),
		Dt:        d.Dt(),
	}
	for _, lv := range d.Levels() {
		g := lv.Mesh.Geom
		meta.Levels = append(meta.Levels, LevelMeta{Lo: g.Lo, N: g.N, Cell: g.Cell, Ghost: g.Ghost})
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return "", err
	}

	for li, lv := range d.Levels() {
		for fi, f := range levelFields(lv.Mesh) {
			path := filepath.Join(dir, fmt.Sprintf("l%d_%s.zst", li, fieldNames[fi]))
			if err := writeArray(path, f.Raw()); err != nil {
				return "", err
			}
		}
		if lv.Mesh.Rho != nil {
			if err := writeArray(filepath.Join(dir, fmt.Sprintf("l%d_rho.zst", li)), lv.Mesh.Rho.Raw()); err != nil {
				return "", err
			}
		}
		for pi, p := range lv.Arena.Patches {
			path := filepath.Join(dir, fmt.Sprintf("l%d_p%d_%s.zst", li, pi, p.Species.Name))
			if err := writeParticles(path, p); err != nil {
				return "", err
			}
		}
	}
	return dir, nil
}

// Restore loads the field state of a saved run back into d. Geometries must
// match; particle patches are not restored here.
func (s *Store) Restore(d *driver.Driver, dir string) (*Metadata, error) {
	var meta Metadata
	raw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("snapshot: decoding metadata: %w", err)
	}
	levels := d.Levels()
	if len(meta.Levels) != len(levels) {
		return nil, fmt.Errorf("snapshot: run has %d levels, snapshot has %d", len(levels), len(meta.Levels))
	}
	for li, lv := range levels {
		if meta.Levels[li].N != lv.Mesh.Geom.N {
			return nil, fmt.Errorf("snapshot: level %d extent mismatch", li)
		}
		for fi, f := range levelFields(lv.Mesh) {
			path := filepath.Join(dir, fmt.Sprintf("l%d_%s.zst", li, fieldNames[fi]))
			if err := readArray(path, f.Raw()); err != nil {
				return nil, err
			}
		}
		if lv.Mesh.Rho != nil {
			path := filepath.Join(dir, fmt.Sprintf("l%d_rho.zst", li))
			if err := readArray(path, lv.Mesh.Rho.Raw()); err != nil {
				return nil, err
			}
		}
	}
	return &meta, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeArray(path string, data []float64) error {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	out, err := zstd.CompressLevel(nil, buf, compressionLevel)
	if err != nil {
		return fmt.Errorf("snapshot: compressing %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, out, 0644)
}

func readArray(path string, dst []float64) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	buf, err := zstd.Decompress(nil, raw)
	if err != nil {
		return fmt.Errorf("snapshot: decompressing %s: %w", filepath.Base(path), err)
	}
	if len(buf) != 8*len(dst) {
		return fmt.Errorf("snapshot: %s holds %d bytes, want %d", filepath.Base(path), len(buf), 8*len(dst))
	}
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return nil
}
