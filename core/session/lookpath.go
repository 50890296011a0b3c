package session

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotFound is the error resulting if a path search failed to find an
// executable file.
var ErrNotFound = exec.ErrNotFound

func (s *Session) findExecutable(file string) error {
	d, err := s.FS.Stat(s.Resolve(file))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories
// named by the PATH environment variable. If file contains a slash, it
// is tried directly against the working directory and PATH is not
// consulted. The result may be an absolute path or a path relative to
// the working directory.
func (s *Session) LookPath(file string) (string, error) {
	if strings.Contains(file, "/") {
		err := s.findExecutable(file)
		if err == nil {
			return file, nil
		}
		return "", err
	}
	path := s.Env.Getenv("PATH")
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := s.findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}
