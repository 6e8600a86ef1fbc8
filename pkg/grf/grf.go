// Package grf reads and writes GRF 0x200 archives.
//
// An Archive implements fs.FS so packed meshes can be mounted anywhere a
// directory can. Names are case-insensitive and use forward slashes.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
	version    = 0x200

	// countBias is added to the entry count stored in the header.
	countBias = 7

	flagFile      = 0x01
	flagEncrypted = 0x02 | 0x04
)

// ErrEncrypted is returned when reading an encrypted entry.
var ErrEncrypted = errors.New("encrypted entries are not supported")

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry represents a file entry in the archive.
type Entry struct {
	Name             string
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Archive represents an opened GRF archive.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	header  Header
	entries map[string]*Entry
	modTime time.Time
}

// Open opens a GRF archive for reading.
func Open(name string) (*Archive, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening file: %w", err)
	}

	a, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	a.modTime = info.ModTime()
	return a, nil
}

// NewReader reads an archive of the given size from r.
func NewReader(r io.ReaderAt, size int64) (*Archive, error) {
	a := &Archive{
		r:       r,
		entries: make(map[string]*Entry),
	}

	if err := a.readHeader(size); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(size); err != nil {
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader(size int64) error {
	if size < headerSize {
		return fmt.Errorf("file too small (%d bytes)", size)
	}
	sr := io.NewSectionReader(a.r, 0, headerSize)
	if err := binary.Read(sr, binary.LittleEndian, &a.header); err != nil {
		return err
	}

	if string(a.header.Magic[:]) != grfMagic {
		return fmt.Errorf("invalid GRF magic")
	}
	if a.header.Version != version {
		return fmt.Errorf("unsupported GRF version: 0x%x", a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable(size int64) error {
	tableOffset := int64(a.header.TableOffset) + headerSize
	if tableOffset+8 > size {
		return fmt.Errorf("table offset %d beyond end of file", tableOffset)
	}

	var sizes [2]uint32
	if err := binary.Read(io.NewSectionReader(a.r, tableOffset, 8), binary.LittleEndian, &sizes); err != nil {
		return err
	}
	compressedSize, uncompressedSize := sizes[0], sizes[1]

	compressed := io.NewSectionReader(a.r, tableOffset+8, int64(compressedSize))
	zr, err := zlib.NewReader(compressed)
	if err != nil {
		return err
	}
	defer zr.Close()

	table := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(zr, table); err != nil {
		return fmt.Errorf("inflating table: %w", err)
	}

	fileCount := a.header.FileCount - a.header.Seed - countBias
	offset := 0
	for i := uint32(0); i < fileCount; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 {
			return fmt.Errorf("entry %d: unterminated name", i)
		}
		name := decodeName(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		if offset+17 > len(table) {
			return fmt.Errorf("entry %d: truncated", i)
		}

		entry := &Entry{
			Name:             normalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(table[offset:]),
			AlignedSize:      binary.LittleEndian.Uint32(table[offset+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+8:]),
			Flags:            table[offset+12],
			Offset:           binary.LittleEndian.Uint32(table[offset+13:]),
		}
		offset += 17

		if entry.Flags&flagFile != 0 {
			a.entries[entry.Name] = entry
		}
	}

	return nil
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for name := range a.entries {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Contains checks if a file exists.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[normalizePath(name)]
	return ok
}

// Read reads a file from the archive.
func (a *Archive) Read(name string) ([]byte, error) {
	entry, ok := a.entries[normalizePath(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return a.read(entry)
}

func (a *Archive) read(entry *Entry) ([]byte, error) {
	if entry.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%s: %w", entry.Name, ErrEncrypted)
	}

	data := io.NewSectionReader(a.r, int64(entry.Offset)+headerSize, int64(entry.CompressedSize))
	result := make([]byte, entry.UncompressedSize)

	if entry.CompressedSize == entry.UncompressedSize {
		if _, err := io.ReadFull(data, result); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name, err)
		}
		return result, nil
	}

	zr, err := zlib.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Name, err)
	}
	defer zr.Close()

	if _, err := io.ReadFull(zr, result); err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Name, err)
	}
	return result, nil
}

// Open implements fs.FS.
func (a *Archive) Open(name string) (fs.File, error) {
	entry, err := a.lookup("open", name)
	if err != nil {
		return nil, err
	}
	data, err := a.read(entry)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &file{Reader: bytes.NewReader(data), info: a.info(entry)}, nil
}

// Stat implements fs.StatFS without inflating the entry.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	entry, err := a.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return a.info(entry), nil
}

func (a *Archive) lookup(op, name string) (*Entry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	entry, ok := a.entries[normalizePath(name)]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return entry, nil
}

func (a *Archive) info(e *Entry) fileInfo {
	return fileInfo{name: path.Base(e.Name), size: int64(e.UncompressedSize), modTime: a.modTime}
}

type file struct {
	*bytes.Reader
	info fileInfo
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error               { return nil }

type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) Mode() fs.FileMode  { return 0444 }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool        { return false }
func (i fileInfo) Sys() any           { return nil }
