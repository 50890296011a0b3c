// Package history implements the shell's command history: an ordered
// line buffer with 1-based numbering and file persistence.
package history

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Buffer is an in-memory command history backed by a filesystem for its
// load, write, and append operations.
type Buffer struct {
	mu      sync.Mutex
	fs      afero.Fs
	entries []string
	// mark is the count of entries already flushed by AppendFile.
	mark int
}

func New(fs afero.Fs) *Buffer {
	return &Buffer{fs: fs}
}

// Add appends one line to the history.
func (b *Buffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, line)
}

// Len returns the number of entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// All returns a copy of every entry in order.
func (b *Buffer) All() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.entries...)
}

// Last returns up to n trailing entries plus the 1-based history number
// of the first returned entry. n <= 0 returns nothing; n >= Len returns
// everything.
func (b *Buffer) Last(n int) ([]string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := len(b.entries)
	if n <= 0 {
		return nil, total + 1
	}
	start := total - n
	if start < 0 {
		start = 0
	}
	return append([]string(nil), b.entries[start:]...), start + 1
}

// Clear empties the buffer and resets the append mark.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	b.mark = 0
}

// LoadFile appends the file's non-empty lines to the buffer.
func (b *Buffer) LoadFile(path string) error {
	fd, err := b.fs.Open(path)
	if err != nil {
		return err
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			b.Add(line)
		}
	}
	return scanner.Err()
}

// WriteFile writes every entry to path, one per line, truncating any
// previous contents.
func (b *Buffer) WriteFile(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return afero.WriteFile(b.fs, path, joinLines(b.entries), 0666)
}

// AppendFile appends the entries added since the last AppendFile to
// path and advances the mark past them.
func (b *Buffer) AppendFile(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fd, err := b.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer fd.Close()

	if _, err := fd.Write(joinLines(b.entries[b.mark:])); err != nil {
		return err
	}
	b.mark = len(b.entries)
	return nil
}

func joinLines(entries []string) []byte {
	if len(entries) == 0 {
		return nil
	}
	return []byte(strings.Join(entries, "\n") + "\n")
}
