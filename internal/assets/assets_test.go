package assets

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/boulderkit/pkg/grf"
)

var (
	glbData = []byte("glTF\x02\x00\x00\x00rest-of-header")
	objData = []byte("# fragment\no Fragment\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
)

func TestCatalogMesh(t *testing.T) {
	cat := NewCatalog("", nil)
	cat.AddFS("content", fstest.MapFS{
		"NewGeometryCollection_SM_121_.glb": {Data: glbData},
		"NewGeometryCollection_SM_122_.obj": {Data: objData},
	})

	m, err := cat.Mesh(121)
	require.NoError(t, err)
	assert.Equal(t, "NewGeometryCollection_SM_121_", m.Name)
	assert.Equal(t, "NewGeometryCollection_SM_121_.glb", m.Path)
	assert.Equal(t, FormatGLB, m.Format)
	assert.Equal(t, "content", m.Root)
	assert.EqualValues(t, len(glbData), m.Size)

	m, err = cat.Mesh(122)
	require.NoError(t, err)
	assert.Equal(t, FormatOBJ, m.Format)

	_, err = cat.Mesh(123)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogRejectsNonMesh(t *testing.T) {
	cat := NewCatalog("", nil)
	cat.AddFS("content", fstest.MapFS{
		"NewGeometryCollection_SM_1_.glb": {Data: []byte("PNG...")},
		"NewGeometryCollection_SM_2_.obj": {Data: []byte("# only comments\n")},
		"NewGeometryCollection_SM_3_.glb": {Data: []byte("gl")},
	})

	for _, index := range []int{1, 2, 3} {
		_, err := cat.Mesh(index)
		assert.ErrorIs(t, err, ErrNotMesh, "index %d", index)
	}
}

func TestCatalogFallsBackToNextExtension(t *testing.T) {
	cat := NewCatalog("", nil)
	cat.AddFS("content", fstest.MapFS{
		"NewGeometryCollection_SM_5_.glb": {Data: []byte("broken")},
		"NewGeometryCollection_SM_5_.obj": {Data: objData},
	})

	m, err := cat.Mesh(5)
	require.NoError(t, err)
	assert.Equal(t, FormatOBJ, m.Format)
}

func TestCatalogRootPriority(t *testing.T) {
	cat := NewCatalog("rock_%03d", []string{".obj"})
	cat.AddFS("base", fstest.MapFS{
		"rock_007.obj": {Data: objData},
		"rock_008.obj": {Data: objData},
	})
	cat.AddFS("patch", fstest.MapFS{
		"rock_007.obj": {Data: objData},
	})

	m, err := cat.Mesh(7)
	require.NoError(t, err)
	assert.Equal(t, "patch", m.Root, "last added root wins")

	m, err = cat.Mesh(8)
	require.NoError(t, err)
	assert.Equal(t, "base", m.Root)
}

func TestCatalogCache(t *testing.T) {
	cat := NewCatalog("", nil)
	cat.AddFS("content", fstest.MapFS{
		"NewGeometryCollection_SM_1_.obj": {Data: objData},
	})

	_, _ = cat.Mesh(1)
	_, _ = cat.Mesh(1)
	_, _ = cat.Mesh(2)
	_, err := cat.Mesh(2)
	assert.ErrorIs(t, err, ErrNotFound, "cached misses keep their error")

	hits, misses := cat.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 2, misses)

	cat.Close()
	_, err = cat.Mesh(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogAddDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NewGeometryCollection_SM_9_.obj"), objData, 0644))

	cat := NewCatalog("", nil)
	require.NoError(t, cat.AddDir(dir))

	m, err := cat.Mesh(9)
	require.NoError(t, err)
	assert.Equal(t, dir, m.Root)

	assert.Error(t, cat.AddDir(filepath.Join(dir, "missing")))
	assert.Error(t, cat.AddDir(filepath.Join(dir, "NewGeometryCollection_SM_9_.obj")))
}

func TestCatalogAddRootArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "fragments.grf")
	f, err := os.Create(archive)
	require.NoError(t, err)
	w, err := grf.NewWriter(f)
	require.NoError(t, err)
	require.NoError(t, w.Add("boulder/NewGeometryCollection_SM_9_.obj", objData))
	require.NoError(t, w.Add("NewGeometryCollection_SM_10_.glb", glbData))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	cat := NewCatalog("", nil)
	require.NoError(t, cat.AddRoot(archive))
	require.NoError(t, cat.AddRoot(archive+":boulder"))

	m, err := cat.Mesh(9)
	require.NoError(t, err)
	assert.Equal(t, FormatOBJ, m.Format)
	assert.Equal(t, archive+":boulder", m.Root)
	assert.EqualValues(t, len(objData), m.Size)

	m, err = cat.Mesh(10)
	require.NoError(t, err)
	assert.Equal(t, archive, m.Root)

	assert.NoError(t, cat.Close())
}

func TestCatalogAddRootErrors(t *testing.T) {
	cat := NewCatalog("", nil)
	assert.Error(t, cat.AddRoot(filepath.Join(t.TempDir(), "missing.grf")))
	assert.Error(t, cat.AddRoot(filepath.Join(t.TempDir(), "missing-dir")))
}
