package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer builds a GRF archive. Entries are compressed as they are added; the
// file table and header are written by Close.
type Writer struct {
	w       io.WriteSeeker
	entries []Entry
	offset  uint32
	names   map[string]bool
	closed  bool
}

// NewWriter starts an archive at the current start of w.
func NewWriter(w io.WriteSeeker) (*Writer, error) {
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := w.Write(make([]byte, headerSize)); err != nil {
		return nil, fmt.Errorf("writing header placeholder: %w", err)
	}
	return &Writer{w: w, names: make(map[string]bool)}, nil
}

// Add compresses data into the archive under name.
func (w *Writer) Add(name string, data []byte) error {
	if w.closed {
		return fmt.Errorf("add %s: writer closed", name)
	}
	key := normalizePath(name)
	if w.names[key] {
		return fmt.Errorf("add %s: duplicate entry", name)
	}
	if _, err := encodeName(name); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}

	// Readers treat equal stored and uncompressed sizes as a raw entry, so
	// anything zlib cannot shrink is stored as is.
	payload := compressed.Bytes()
	if len(payload) >= len(data) {
		payload = data
	}

	size := uint32(len(payload))
	aligned := size
	if aligned%8 != 0 {
		aligned += 8 - aligned%8
	}

	if _, err := w.w.Write(payload); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.w.Write(make([]byte, aligned-size)); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}

	w.entries = append(w.entries, Entry{
		Name:             name,
		CompressedSize:   size,
		AlignedSize:      aligned,
		UncompressedSize: uint32(len(data)),
		Flags:            flagFile,
		Offset:           w.offset,
	})
	w.names[key] = true
	w.offset += aligned
	return nil
}

// Close writes the file table and header. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var table bytes.Buffer
	for _, e := range w.entries {
		name, err := encodeName(e.Name)
		if err != nil {
			return err
		}
		table.Write(name)
		table.WriteByte(0)
		var rec [17]byte
		binary.LittleEndian.PutUint32(rec[0:], e.CompressedSize)
		binary.LittleEndian.PutUint32(rec[4:], e.AlignedSize)
		binary.LittleEndian.PutUint32(rec[8:], e.UncompressedSize)
		rec[12] = e.Flags
		binary.LittleEndian.PutUint32(rec[13:], e.Offset)
		table.Write(rec[:])
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(table.Bytes()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	sizes := [2]uint32{uint32(compressed.Len()), uint32(table.Len())}
	if err := binary.Write(w.w, binary.LittleEndian, sizes); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	if _, err := w.w.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	h := Header{
		TableOffset: w.offset,
		FileCount:   uint32(len(w.entries)) + countBias,
		Version:     version,
	}
	copy(h.Magic[:], grfMagic)
	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	_, err := w.w.Seek(0, io.SeekEnd)
	return err
}
