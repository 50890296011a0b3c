// Package sessiontest provides a hermetic shell session for tests: an
// in-memory filesystem, buffered output streams, and a spawner that
// runs scripted handlers instead of real processes.
package sessiontest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skiffsh/skiff/core/session"
	"github.com/spf13/afero"
)

// ProcessFunc is the behavior of one scripted executable. It runs in
// its own goroutine, reads and writes attr.Files, and returns the exit
// status.
type ProcessFunc func(argv []string, attr *session.ProcAttr) int

// SpawnCall records one Spawn invocation.
type SpawnCall struct {
	Path string
	Argv []string
	Dir  string
	Env  []string
}

// Spawner is a session.Spawner that dispatches to handlers registered
// by executable base name.
type Spawner struct {
	mu       sync.Mutex
	handlers map[string]ProcessFunc
	calls    []SpawnCall
}

var _ session.Spawner = (*Spawner)(nil)

func NewSpawner() *Spawner {
	return &Spawner{handlers: make(map[string]ProcessFunc)}
}

// Handle scripts the behavior of executables named name.
func (s *Spawner) Handle(name string, fn ProcessFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = fn
}

// Calls returns a copy of every recorded Spawn invocation in order.
func (s *Spawner) Calls() []SpawnCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpawnCall(nil), s.calls...)
}

// Spawn implements session.Spawner. Spawning a name with no registered
// handler fails, standing in for an exec failure.
func (s *Spawner) Spawn(path string, argv []string, attr *session.ProcAttr) (session.Process, error) {
	s.mu.Lock()
	s.calls = append(s.calls, SpawnCall{Path: path, Argv: argv, Dir: attr.Dir, Env: attr.Env})
	fn := s.handlers[filepath.Base(path)]
	s.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("exec format error: %q", path)
	}

	done := make(chan int, 1)
	go func() {
		done <- fn(argv, attr)
	}()
	return fakeProcess{done: done}, nil
}

type fakeProcess struct {
	done chan int
}

func (p fakeProcess) Wait() (int, error) {
	return <-p.done, nil
}

// Buffer is a goroutine-safe output buffer; concurrent pipeline stages
// may share one.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Harness bundles a hermetic session with the fakes behind it.
type Harness struct {
	Session *session.Session
	Spawner *Spawner
	Stdout  *Buffer
	Stderr  *Buffer
}

// New creates a Harness with an empty stdin, PATH=/bin, and the working
// directory set to the home directory.
func New() *Harness {
	return NewWithInput("")
}

// NewWithInput is New with the given stdin contents.
func NewWithInput(stdin string) *Harness {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/bin", 0755)
	fs.MkdirAll("/home/user", 0755)

	spawner := NewSpawner()
	stdout := &Buffer{}
	stderr := &Buffer{}

	sess := session.New(session.Options{
		FS:      fs,
		Environ: []string{"PATH=/bin", "HOME=/home/user", "USER=user"},
		Dir:     "/home/user",
		Stdin:   strings.NewReader(stdin),
		Stdout:  stdout,
		Stderr:  stderr,
		Spawner: spawner,
	})

	return &Harness{
		Session: sess,
		Spawner: spawner,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

// Install creates an executable file under /bin and scripts its
// behavior.
func (h *Harness) Install(name string, fn ProcessFunc) {
	afero.WriteFile(h.Session.FS, "/bin/"+name, []byte(name), 0755)
	h.Spawner.Handle(name, fn)
}
