// Package complete implements tab completion for the interactive
// shell: command names (builtins plus PATH executables) for plain
// words, file paths for words containing a slash.
package complete

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/skiffsh/skiff/core/session"
	"github.com/spf13/afero"
)

// pathCacheTTL bounds how stale the cached PATH executable listing may
// get between completions.
const pathCacheTTL = 1 * time.Second

// Completer implements readline's AutoCompleter over a session.
type Completer struct {
	session *session.Session
	names   []string

	mu       sync.Mutex
	cached   []string
	cachedAt time.Time
}

// New returns a Completer that always offers names (builtins, aliases)
// in addition to the executables found on the session's PATH.
func New(sess *session.Session, names []string) *Completer {
	return &Completer{session: sess, names: names}
}

// Do reports the completion suffixes for the word ending at pos and
// the rune length of that word.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	word := currentWord(line, pos)

	var out [][]rune
	if strings.Contains(word, "/") {
		out = c.completePath(word)
	} else {
		for _, name := range c.commandCandidates() {
			if strings.HasPrefix(name, word) {
				out = append(out, []rune(name[len(word):]+" "))
			}
		}
	}
	return out, len([]rune(word))
}

// currentWord is the whitespace-delimited word ending at pos.
func currentWord(line []rune, pos int) string {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && !unicode.IsSpace(line[start-1]) {
		start--
	}
	return string(line[start:pos])
}

// completePath lists directory entries matching the word's base name.
// Directories complete with a trailing slash so completion can
// continue into them.
func (c *Completer) completePath(word string) [][]rune {
	dir, base := path.Split(word)
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
	}

	entries, err := afero.ReadDir(c.session.FS, c.session.Resolve(searchDir))
	if err != nil {
		return nil
	}

	var out [][]rune
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		suffix := name[len(base):]
		if entry.IsDir() {
			suffix += "/"
		}
		out = append(out, []rune(suffix))
	}
	return out
}

// commandCandidates returns the sorted union of the fixed names and
// every executable on PATH, rescanning at most once per TTL.
func (c *Completer) commandCandidates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cachedAt) < pathCacheTTL {
		return c.cached
	}

	set := make(map[string]bool)
	for _, name := range c.names {
		set[name] = true
	}

	pathEnv := c.session.Env.Getenv("PATH")
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			dir = "."
		}
		entries, err := afero.ReadDir(c.session.FS, c.session.Resolve(dir))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || entry.Mode()&0111 == 0 {
				continue
			}
			set[entry.Name()] = true
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)

	c.cached = out
	c.cachedAt = time.Now()
	return out
}
