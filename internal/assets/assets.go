// Package assets resolves fragment indices to mesh files.
package assets

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/Faultbox/boulderkit/pkg/grf"
)

// DefaultPattern names a fragment mesh from its global index.
const DefaultPattern = "NewGeometryCollection_SM_%d_"

// DefaultExtensions are the mesh formats searched, in order.
var DefaultExtensions = []string{".glb", ".obj"}

var (
	// ErrNotFound is returned when no root holds a mesh for the index.
	ErrNotFound = errors.New("fragment mesh not found")

	// ErrNotMesh is returned when the file exists but is not a mesh.
	ErrNotMesh = errors.New("not a mesh asset")
)

// Format identifies a mesh file format.
type Format string

const (
	FormatGLB Format = "glb"
	FormatOBJ Format = "obj"
)

// Mesh describes a resolved fragment mesh.
type Mesh struct {
	Index  int
	Name   string
	Path   string // slash-separated, relative to its root
	Root   string
	Format Format
	Size   int64
}

// ArchiveExt marks an asset root as a GRF archive rather than a directory.
const ArchiveExt = ".grf"

type root struct {
	name string
	fsys fs.FS
}

// Catalog looks up fragment meshes in one or more roots.
type Catalog struct {
	pattern    string
	extensions []string
	roots      []root
	archives   []*grf.Archive
	cache      *Cache
	mu         sync.RWMutex
}

// NewCatalog creates a catalog. An empty pattern or extension list falls back
// to the defaults.
func NewCatalog(pattern string, extensions []string) *Catalog {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Catalog{
		pattern:    pattern,
		extensions: extensions,
		cache:      NewCache(),
	}
}

// AddRoot mounts a directory or, for paths ending in .grf, an archive.
// An archive may name a folder inside it after a colon:
// "fragments.grf:data/boulder".
func (c *Catalog) AddRoot(root string) error {
	archive, sub := root, ""
	if i := strings.LastIndex(root, ArchiveExt+":"); i >= 0 {
		archive, sub = root[:i+len(ArchiveExt)], root[i+len(ArchiveExt)+1:]
	}
	if strings.EqualFold(path.Ext(archive), ArchiveExt) {
		return c.AddArchive(archive, sub)
	}
	return c.AddDir(root)
}

// AddArchive opens a GRF archive and mounts it, or the folder sub inside it.
// The archive is closed by Close.
func (c *Catalog) AddArchive(file, sub string) error {
	a, err := grf.Open(file)
	if err != nil {
		return fmt.Errorf("opening asset archive %s: %w", file, err)
	}

	var fsys fs.FS = a
	name := file
	if sub = strings.Trim(sub, "/"); sub != "" {
		if fsys, err = fs.Sub(a, sub); err != nil {
			a.Close()
			return fmt.Errorf("opening asset archive %s: %w", file, err)
		}
		name = file + ":" + sub
	}

	c.mu.Lock()
	c.archives = append(c.archives, a)
	c.mu.Unlock()
	c.AddFS(name, fsys)
	return nil
}

// AddDir mounts a directory of meshes.
// Roots are searched in reverse order (last added = highest priority).
func (c *Catalog) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("opening asset root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("opening asset root %s: not a directory", dir)
	}
	c.AddFS(dir, os.DirFS(dir))
	return nil
}

// AddFS mounts an arbitrary filesystem under the given name.
func (c *Catalog) AddFS(name string, fsys fs.FS) {
	c.mu.Lock()
	c.roots = append(c.roots, root{name: name, fsys: fsys})
	c.mu.Unlock()
	c.cache.Clear()
}

// Name returns the asset name for a fragment index.
func (c *Catalog) Name(index int) string {
	return fmt.Sprintf(c.pattern, index)
}

// Mesh resolves the mesh for a fragment index. The error wraps ErrNotFound
// or ErrNotMesh when the fragment has no usable mesh.
func (c *Catalog) Mesh(index int) (Mesh, error) {
	if e, ok := c.cache.Get(index); ok {
		return e.Mesh, e.Err
	}

	m, err := c.lookup(index)
	c.cache.Set(index, Lookup{Mesh: m, Err: err})
	return m, err
}

func (c *Catalog) lookup(index int) (Mesh, error) {
	name := c.Name(index)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var rejected error
	for i := len(c.roots) - 1; i >= 0; i-- {
		r := c.roots[i]
		for _, ext := range c.extensions {
			p := name + ext
			info, err := fs.Stat(r.fsys, p)
			if err != nil || info.IsDir() {
				continue
			}

			format, err := sniff(r.fsys, p, ext)
			if err != nil {
				if rejected == nil {
					rejected = fmt.Errorf("%s in %s: %w", p, r.name, err)
				}
				continue
			}

			return Mesh{
				Index:  index,
				Name:   name,
				Path:   p,
				Root:   r.name,
				Format: format,
				Size:   info.Size(),
			}, nil
		}
	}

	if rejected != nil {
		return Mesh{Index: index, Name: name}, rejected
	}
	return Mesh{Index: index, Name: name}, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Stats returns cache statistics.
func (c *Catalog) Stats() (hits, misses int) {
	return c.cache.Stats()
}

// Close unmounts all roots and closes any opened archives.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, a := range c.archives {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.archives = nil
	c.roots = nil
	c.cache.Clear()
	return errors.Join(errs...)
}

var glbMagic = []byte("glTF")

// sniff checks the file header against the format implied by ext.
func sniff(fsys fs.FS, name, ext string) (Format, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	switch strings.ToLower(path.Ext(ext)) {
	case ".glb":
		head := make([]byte, len(glbMagic))
		if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, glbMagic) {
			return "", fmt.Errorf("%w: missing glTF magic", ErrNotMesh)
		}
		return FormatGLB, nil
	case ".obj":
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if strings.HasPrefix(strings.TrimSpace(sc.Text()), "v ") {
				return FormatOBJ, nil
			}
		}
		return "", fmt.Errorf("%w: no vertices", ErrNotMesh)
	default:
		return "", fmt.Errorf("%w: unsupported extension %q", ErrNotMesh, ext)
	}
}

// Lookup is a cached lookup result.
type Lookup struct {
	Mesh Mesh
	Err  error
}

// Cache is a simple in-memory cache of lookups by fragment index.
type Cache struct {
	data map[int]Lookup
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[int]Lookup),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(index int) (Lookup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[index]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return e, ok
}

// Set stores an item in cache.
func (c *Cache) Set(index int, e Lookup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[index] = e
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[int]Lookup)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
