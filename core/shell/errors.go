package shell

import (
	"errors"
	"fmt"
)

// ErrUnterminatedQuote is reported when a line ends inside a quoted
// string.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// SyntaxError reports a malformed pipeline.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Msg
}

// RedirectionError reports a redirection target that could not be
// opened. Stage is 1-based.
type RedirectionError struct {
	Stage int
	Path  string
	Err   error
}

func (e *RedirectionError) Error() string {
	return fmt.Sprintf("stage %d: cannot open %s: %v", e.Stage, e.Path, e.Err)
}

func (e *RedirectionError) Unwrap() error { return e.Err }

// CommandNotFoundError reports a name that matched neither a builtin
// nor an executable on PATH.
type CommandNotFoundError struct {
	Name string
}

func (e *CommandNotFoundError) Error() string {
	return e.Name + ": command not found"
}

// ExternalProcessError reports an executable that could not be spawned
// or waited on, distinct from not being found at all.
type ExternalProcessError struct {
	Name string
	Err  error
}

func (e *ExternalProcessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ExternalProcessError) Unwrap() error { return e.Err }

// DirectoryNotFoundError reports a cd target that does not exist or is
// not a directory.
type DirectoryNotFoundError struct {
	Dir string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("cd: %s: No such file or directory", e.Dir)
}
