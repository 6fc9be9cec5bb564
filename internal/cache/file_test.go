package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_WriteReadExists(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "analysis"))
	require.NoError(t, err)

	key := Fingerprint("v1", "1_100_A/G>200", 1)

	ok, err := b.Exists(key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = b.Read(key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Write(key, []byte("first")))
	require.NoError(t, b.Write(key, []byte("second")))

	ok, err = b.Exists(key)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := b.Read(key)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	assert.FileExists(t, filepath.Join(b.Dir(), key[:2], key+".gob"))
}

func TestFileBackend_NoTempFilesLeft(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	for i := range 20 {
		key := Fingerprint("v1", strings.Repeat("x", i+1), 1)
		require.NoError(t, b.Write(key, []byte{byte(i)}))
	}

	var leftovers []string
	err = filepath.WalkDir(b.Dir(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, ".tmp") {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileBackend_Clear(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	key := Fingerprint("v1", "k", 1)
	require.NoError(t, b.Write(key, []byte("data")))
	require.NoError(t, b.Clear())

	ok, err := b.Exists(key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.DirExists(t, b.Dir())
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("size=10;mtime=1", "7_140453136_A/T>140753336", 1)

	assert.Len(t, base, 64)
	assert.Equal(t, base, Fingerprint("size=10;mtime=1", "7_140453136_A/T>140753336", 1))
	assert.NotEqual(t, base, Fingerprint("size=11;mtime=1", "7_140453136_A/T>140753336", 1))
	assert.NotEqual(t, base, Fingerprint("size=10;mtime=1", "7_140453136_A/C>140753336", 1))
	assert.NotEqual(t, base, Fingerprint("size=10;mtime=1", "7_140453136_A/T>140753336", 2))
	// Field boundaries are unambiguous.
	assert.NotEqual(t, Fingerprint("ab", "c", 1), Fingerprint("a", "bc", 1))
}
