package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"

	"github.com/san-kum/picsim/internal/mesh"
)

// Snapshot layout, little endian, zstd-compressed as a whole:
//
//	magic "PICS" | version u32 | nx ny nz halo u32 | nfields u32
//	per field: name length u32, name bytes, (nx+2h)(ny+2h)(nz+2h) float64
const (
	snapshotMagic   = "PICS"
	snapshotVersion = 1
	compressLevel   = 3
)

// WriteSnapshot stores the named lattice components, halo included.
func WriteSnapshot(path string, l *mesh.Lattice, fields []string) error {
	var raw bytes.Buffer
	raw.WriteString(snapshotMagic)
	header := []uint32{snapshotVersion, uint32(l.Nx), uint32(l.Ny), uint32(l.Nz), uint32(l.H), uint32(len(fields))}
	if err := binary.Write(&raw, binary.LittleEndian, header); err != nil {
		return err
	}

	for _, name := range fields {
		m, ok := l.Field(name)
		if !ok {
			return fmt.Errorf("snapshot: unknown field %q", name)
		}
		if err := binary.Write(&raw, binary.LittleEndian, uint32(len(name))); err != nil {
			return err
		}
		raw.WriteString(name)
		if err := binary.Write(&raw, binary.LittleEndian, m.Data()); err != nil {
			return err
		}
	}

	compressed, err := zstd.CompressLevel(nil, raw.Bytes(), compressLevel)
	if err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, compressed, 0644)
}

// ReadSnapshot loads every field of a snapshot into fresh meshes.
func ReadSnapshot(path string) (map[string]*mesh.Mesh, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := zstd.Decompress(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompress: %w", err)
	}

	rd := bytes.NewReader(raw)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(rd, magic); err != nil || string(magic) != snapshotMagic {
		return nil, fmt.Errorf("snapshot: %s is not a snapshot", path)
	}

	header := make([]uint32, 6)
	if err := binary.Read(rd, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	if header[0] != snapshotVersion {
		return nil, fmt.Errorf("snapshot: unsupported version %d", header[0])
	}
	nx, ny, nz, h, nfields := int(header[1]), int(header[2]), int(header[3]), int(header[4]), int(header[5])
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("snapshot: bad extents %dx%dx%d", nx, ny, nz)
	}

	out := make(map[string]*mesh.Mesh, nfields)
	for f := 0; f < nfields; f++ {
		var n uint32
		if err := binary.Read(rd, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(rd, name); err != nil {
			return nil, err
		}
		m := mesh.New(nx, ny, nz, h)
		if err := binary.Read(rd, binary.LittleEndian, m.Data()); err != nil {
			return nil, fmt.Errorf("snapshot: field %s: %w", name, err)
		}
		out[string(name)] = m
	}
	return out, nil
}
