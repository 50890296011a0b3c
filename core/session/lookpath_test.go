package session

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/bin", 0755))
	require.NoError(t, fs.MkdirAll("/usr/bin", 0755))
	require.NoError(t, afero.WriteFile(fs, "/bin/cat", []byte("cat"), 0755))
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/cat", []byte("cat"), 0755))
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/tac", []byte("tac"), 0755))
	require.NoError(t, afero.WriteFile(fs, "/bin/README", []byte("docs"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/home/user/tool", []byte("tool"), 0755))

	s := New(Options{
		FS:      fs,
		Environ: []string{"PATH=/bin:/usr/bin"},
		Dir:     "/home/user",
	})

	t.Run("FirstMatchWins", func(t *testing.T) {
		path, err := s.LookPath("cat")
		assert.NoError(t, err)
		assert.Equal(t, "/bin/cat", path)
	})

	t.Run("LaterEntries", func(t *testing.T) {
		path, err := s.LookPath("tac")
		assert.NoError(t, err)
		assert.Equal(t, "/usr/bin/tac", path)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := s.LookPath("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NotExecutable", func(t *testing.T) {
		_, err := s.LookPath("README")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SlashSkipsSearch", func(t *testing.T) {
		path, err := s.LookPath("./tool")
		assert.NoError(t, err)
		assert.Equal(t, "./tool", path)

		_, err = s.LookPath("./nope")
		assert.Error(t, err)
	})

	t.Run("DirectoryNotExecutable", func(t *testing.T) {
		require.NoError(t, fs.MkdirAll("/bin/subdir", 0755))
		_, err := s.LookPath("subdir")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
