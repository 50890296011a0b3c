package session

import (
	"errors"
	"os/exec"
)

// ProcAttr holds the attributes applied to a new external process.
type ProcAttr struct {
	// Dir is the working directory of the new process.
	Dir string
	// Env gives the environment in "key=value" form.
	Env []string
	// Files are the standard streams wired to the process.
	Files *IO
}

// Process is a started external process.
type Process interface {
	// Wait blocks until the process finishes and returns its exit
	// status. A non-nil error means the wait itself failed, not that
	// the process exited non-zero.
	Wait() (int, error)
}

// Spawner starts external processes. The executor's orchestration is
// written against this interface so tests can substitute a scripted
// implementation.
type Spawner interface {
	Spawn(path string, argv []string, attr *ProcAttr) (Process, error)
}

// ExecSpawner runs commands on the host OS.
type ExecSpawner struct{}

var _ Spawner = ExecSpawner{}

// Spawn starts the executable at path with the given argv and
// attributes. A relative path is evaluated by the OS relative to
// attr.Dir.
func (ExecSpawner) Spawn(path string, argv []string, attr *ProcAttr) (Process, error) {
	cmd := &exec.Cmd{
		Path: path,
		Args: argv,
		Dir:  attr.Dir,
		Env:  attr.Env,
	}
	if attr.Files != nil {
		cmd.Stdin = attr.Files.In
		cmd.Stdout = attr.Files.Out
		cmd.Stderr = attr.Files.Err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, err
	}
}
