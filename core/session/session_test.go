package session

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/user/docs", 0755))
	require.NoError(t, fs.MkdirAll("/tmp", 0755))
	require.NoError(t, afero.WriteFile(fs, "/home/user/notes.txt", []byte("hi"), 0644))

	return New(Options{
		FS:      fs,
		Environ: []string{"HOME=/home/user", "PATH=/bin"},
		Dir:     "/home/user",
	})
}

func TestSessionChdir(t *testing.T) {
	s := newTestSession(t)

	assert.NoError(t, s.Chdir("docs"))
	assert.Equal(t, "/home/user/docs", s.Getwd())

	assert.NoError(t, s.Chdir("/tmp"))
	assert.Equal(t, "/tmp", s.Getwd())

	assert.NoError(t, s.Chdir(".."))
	assert.Equal(t, "/", s.Getwd())

	assert.Error(t, s.Chdir("/does/not/exist"))
	assert.Equal(t, "/", s.Getwd(), "failed chdir must not move the cwd")

	assert.Error(t, s.Chdir("/home/user/notes.txt"))
	assert.Equal(t, "/", s.Getwd())
}

func TestSessionResolve(t *testing.T) {
	s := newTestSession(t)

	assert.Equal(t, "/home/user/a", s.Resolve("a"))
	assert.Equal(t, "/etc", s.Resolve("/etc"))
	assert.Equal(t, "/home/user", s.Resolve("."))
	assert.Equal(t, "/home", s.Resolve(".."))
	assert.Equal(t, "/home/user/b", s.Resolve("docs/../b"))
}

func TestSessionExit(t *testing.T) {
	s := newTestSession(t)

	_, quit := s.ExitRequested()
	assert.False(t, quit)

	s.Exit(3)
	s.Exit(5)
	code, quit := s.ExitRequested()
	assert.True(t, quit)
	assert.Equal(t, 3, code, "the first exit code wins")
}

func TestSessionHome(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "/home/user", s.Home())

	s.Env.Unsetenv("HOME")
	assert.Equal(t, "/", s.Home())
}
