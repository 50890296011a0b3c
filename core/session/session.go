// Package session holds the mutable state of one shell: its environment
// table, working directory, filesystem handle, standard streams, and the
// spawner used to launch external processes.
//
// Everything a shell component touches goes through the Session so tests
// can run against an in-memory filesystem and a scripted spawner.
package session

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

var errNotDir = errors.New("not a directory")

// Session is the context shared by the interactive loop, the executor,
// and the builtins. It is safe for use by concurrent pipeline stages.
type Session struct {
	// Env is the shell's environment table.
	Env *Env
	// FS backs redirections, cd validation, and completion listings.
	FS afero.Fs
	// IO is the shell's own standard streams. Pipeline stages receive
	// derived streams, never this value directly.
	IO *IO
	// Spawner launches external processes.
	Spawner Spawner

	mu   sync.RWMutex
	cwd  string
	quit bool
	code int
}

// Options configures a new Session. Zero fields get working defaults.
type Options struct {
	FS      afero.Fs
	Environ []string
	Dir     string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Spawner Spawner
}

// New creates a Session from opts.
func New(opts Options) *Session {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Spawner == nil {
		opts.Spawner = ExecSpawner{}
	}
	dir := opts.Dir
	if dir == "" {
		dir = "/"
	}

	return &Session{
		Env:     NewEnvFromList(opts.Environ),
		FS:      opts.FS,
		IO:      NewIO(opts.Stdin, opts.Stdout, opts.Stderr),
		Spawner: opts.Spawner,
		cwd:     dir,
	}
}

// Getwd returns the shell's working directory.
func (s *Session) Getwd() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cwd
}

// Resolve turns path into an absolute, cleaned path relative to the
// shell's working directory. Absolute paths are cleaned only.
func (s *Session) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.Getwd(), path)
}

// Chdir changes the shell's working directory after checking that the
// target exists and is a directory. On failure the directory is left
// unchanged.
func (s *Session) Chdir(dir string) error {
	resolved := s.Resolve(dir)

	stat, err := s.FS.Stat(resolved)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return &fs.PathError{Op: "chdir", Path: dir, Err: errNotDir}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cwd = resolved
	return nil
}

// Home returns the user's home directory, or "/" when HOME is unset.
func (s *Session) Home() string {
	if home, ok := s.Env.LookupEnv("HOME"); ok && home != "" {
		return home
	}
	return "/"
}

// Exit asks the interactive loop to terminate once the current pipeline
// drains. Later calls within the same pipeline keep the first code.
func (s *Session) Exit(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.quit {
		s.quit = true
		s.code = code
	}
}

// ExitRequested reports whether Exit was called and with which code.
func (s *Session) ExitRequested() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code, s.quit
}
