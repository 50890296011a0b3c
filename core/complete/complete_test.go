package complete

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffsh/skiff/core/session"
	"github.com/skiffsh/skiff/core/session/sessiontest"
)

func suffixes(out [][]rune) []string {
	var s []string
	for _, r := range out {
		s = append(s, string(r))
	}
	return s
}

func newTestCompleter(t *testing.T) (*sessiontest.Harness, *Completer) {
	t.Helper()

	h := sessiontest.New()
	for _, name := range []string{"git", "go", "grep", "ls"} {
		h.Install(name, func(argv []string, attr *session.ProcAttr) int { return 0 })
	}
	// Non-executables and directories on PATH are not commands.
	require.NoError(t, afero.WriteFile(h.Session.FS, "/bin/notes.txt", []byte("x"), 0644))
	require.NoError(t, h.Session.FS.MkdirAll("/bin/subdir", 0755))

	return h, New(h.Session, []string{"cd", "echo", "exit"})
}

func TestDoCompletesCommands(t *testing.T) {
	_, c := newTestCompleter(t)

	out, length := c.Do([]rune("g"), 1)
	assert.Equal(t, 1, length)
	assert.Equal(t, []string{"it ", "o ", "rep "}, suffixes(out))
}

func TestDoCompletesBuiltins(t *testing.T) {
	_, c := newTestCompleter(t)

	out, length := c.Do([]rune("e"), 1)
	assert.Equal(t, 1, length)
	assert.Equal(t, []string{"cho ", "xit "}, suffixes(out))
}

func TestDoEmptyWordOffersEverything(t *testing.T) {
	_, c := newTestCompleter(t)

	out, length := c.Do([]rune(""), 0)
	assert.Equal(t, 0, length)
	assert.Equal(t,
		[]string{"cd ", "echo ", "exit ", "git ", "go ", "grep ", "ls "},
		suffixes(out))
}

func TestDoCompletesLastWord(t *testing.T) {
	_, c := newTestCompleter(t)

	line := []rune("echo hi g")
	out, length := c.Do(line, len(line))
	assert.Equal(t, 1, length)
	assert.Equal(t, []string{"it ", "o ", "rep "}, suffixes(out))
}

func TestDoHonorsCursorPosition(t *testing.T) {
	_, c := newTestCompleter(t)

	// Cursor sits right after "g" with trailing text beyond it.
	line := []rune("g --version")
	out, length := c.Do(line, 1)
	assert.Equal(t, 1, length)
	assert.Equal(t, []string{"it ", "o ", "rep "}, suffixes(out))
}

func TestDoCompletesPaths(t *testing.T) {
	h, c := newTestCompleter(t)
	require.NoError(t, h.Session.FS.MkdirAll("/home/user/docs/alpha2", 0755))
	require.NoError(t, afero.WriteFile(h.Session.FS, "/home/user/docs/alpha.txt", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(h.Session.FS, "/home/user/docs/beta.txt", []byte("x"), 0644))

	out, length := c.Do([]rune("cat docs/a"), len("cat docs/a"))
	assert.Equal(t, len("docs/a"), length)
	assert.Equal(t, []string{"lpha.txt", "lpha2/"}, suffixes(out))
}

func TestDoCompletesAbsolutePaths(t *testing.T) {
	_, c := newTestCompleter(t)

	out, length := c.Do([]rune("ls /bi"), len("ls /bi"))
	assert.Equal(t, len("/bi"), length)
	assert.Equal(t, []string{"n/"}, suffixes(out))
}

func TestDoPathRelativeToCwd(t *testing.T) {
	h, c := newTestCompleter(t)
	require.NoError(t, afero.WriteFile(h.Session.FS, "/home/user/report.txt", []byte("x"), 0644))

	out, _ := c.Do([]rune("cat ./re"), len("cat ./re"))
	assert.Equal(t, []string{"port.txt"}, suffixes(out))
}

func TestDoMissingDirectoryCompletesNothing(t *testing.T) {
	_, c := newTestCompleter(t)

	out, length := c.Do([]rune("cat nowhere/x"), len("cat nowhere/x"))
	assert.Empty(t, out)
	assert.Equal(t, len("nowhere/x"), length)
}

func TestCommandCacheExpires(t *testing.T) {
	h, c := newTestCompleter(t)

	out, _ := c.Do([]rune("g"), 1)
	require.Len(t, out, 3)

	h.Install("gzip", func(argv []string, attr *session.ProcAttr) int { return 0 })

	// Within the TTL the stale listing is reused.
	out, _ = c.Do([]rune("g"), 1)
	assert.Len(t, out, 3)

	c.mu.Lock()
	c.cachedAt = time.Now().Add(-2 * pathCacheTTL)
	c.mu.Unlock()

	out, _ = c.Do([]rune("g"), 1)
	assert.Equal(t, []string{"it ", "o ", "rep ", "zip "}, suffixes(out))
}
