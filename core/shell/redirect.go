package shell

import (
	"io"
	"os"

	"github.com/skiffsh/skiff/core/session"
)

// openIntent is a resolved RedirectionSpec, ready to open.
type openIntent struct {
	path string
	flag int
}

// resolveRedirect maps a spec onto a concrete open intent against the
// session's working directory at the moment of the call.
func resolveRedirect(s *session.Session, spec RedirectionSpec) openIntent {
	flag := os.O_WRONLY | os.O_CREATE
	if spec.Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	return openIntent{path: s.Resolve(spec.Path), flag: flag}
}

// openRedirects opens the effective redirection targets of one stage.
// When a stream is redirected more than once the last spec wins and
// only that file is opened. stage is 1-based, used for error
// attribution.
func openRedirects(s *session.Session, cmd CommandStage, stage int) (stdout, stderr io.WriteCloser, err error) {
	var outSpec, errSpec *RedirectionSpec
	for i := range cmd.Redirects {
		spec := &cmd.Redirects[i]
		switch spec.Stream {
		case Stdout:
			outSpec = spec
		case Stderr:
			errSpec = spec
		}
	}

	open := func(spec *RedirectionSpec) (io.WriteCloser, error) {
		if spec == nil {
			return nil, nil
		}
		intent := resolveRedirect(s, *spec)
		fd, err := s.FS.OpenFile(intent.path, intent.flag, 0666)
		if err != nil {
			return nil, &RedirectionError{Stage: stage, Path: spec.Path, Err: err}
		}
		return fd, nil
	}

	if stdout, err = open(outSpec); err != nil {
		return nil, nil, err
	}
	if stderr, err = open(errSpec); err != nil {
		if stdout != nil {
			stdout.Close()
		}
		return nil, nil, err
	}
	return stdout, stderr, nil
}
