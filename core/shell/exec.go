package shell

import (
	"errors"
	"fmt"
	"io"
	"sync"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/skiffsh/skiff/core/history"
	"github.com/skiffsh/skiff/core/logger"
	"github.com/skiffsh/skiff/core/session"
)

// Exit statuses for stages that never ran, following shell convention.
const (
	exitNotFound   = 127
	exitCantInvoke = 126
)

// StageResult is the outcome of one pipeline stage.
type StageResult struct {
	Status int
	Err    error
}

// ExecutionResult aggregates every stage's outcome for one pipeline
// run.
type ExecutionResult struct {
	Stages []StageResult
}

// ExitStatus is the pipeline's overall status, that of the last stage.
func (r *ExecutionResult) ExitStatus() int {
	if len(r.Stages) == 0 {
		return 0
	}
	return r.Stages[len(r.Stages)-1].Status
}

// FirstErr returns the first per-stage error, if any.
func (r *ExecutionResult) FirstErr() error {
	for _, stage := range r.Stages {
		if stage.Err != nil {
			return stage.Err
		}
	}
	return nil
}

// Executor runs parsed pipelines against a session.
type Executor struct {
	Session  *session.Session
	Builtins map[string]BuiltinFunc
	History  *history.Buffer

	// Aliases maps a command name to its replacement words, spliced
	// into argv[0]'s place before dispatch. Builtins shadow aliases.
	Aliases map[string]string

	// SyncRecall, when set, resynchronizes the line editor's recall
	// list from History after the history builtin mutates it.
	SyncRecall func()

	// Events, when set, receives an audit event for every stage run
	// and every rejected input line.
	Events *logger.SessionLogger
}

// NewExecutor creates an Executor over the full builtin registry.
func NewExecutor(s *session.Session, hist *history.Buffer) *Executor {
	return &Executor{
		Session:  s,
		Builtins: AllBuiltins,
		History:  hist,
	}
}

// Execute interprets one raw input line. Lines with no tokens return an
// empty result and no error.
func (e *Executor) Execute(line string) (*ExecutionResult, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		e.logInvalid(line, err)
		return nil, err
	}
	if len(tokens) == 0 {
		return &ExecutionResult{}, nil
	}
	pipeline, err := Parse(tokens)
	if err != nil {
		e.logInvalid(line, err)
		return nil, err
	}
	return e.Run(pipeline)
}

// stagePlan is the dispatch decision for one stage, fixed before
// anything runs.
type stagePlan struct {
	argv    []string
	builtin BuiltinFunc
	path    string
	err     error
	stdout  io.WriteCloser
	stderr  io.WriteCloser
}

func (p *stagePlan) closeRedirects() {
	if p.stdout != nil {
		p.stdout.Close()
	}
	if p.stderr != nil {
		p.stderr.Close()
	}
}

// Run executes a parsed pipeline. The returned error is non-nil only
// when the run aborted with no stage started (a redirection target
// failed to open); per-stage failures live in the result.
func (e *Executor) Run(p *Pipeline) (*ExecutionResult, error) {
	n := len(p.Stages)
	plans := make([]stagePlan, n)

	// Plan dispatch per stage: aliases, then builtins, then PATH.
	for i, stage := range p.Stages {
		plan := &plans[i]
		plan.argv = e.expandAlias(stage.Argv)

		name := plan.argv[0]
		if builtin, ok := e.Builtins[name]; ok {
			plan.builtin = builtin
			continue
		}
		path, err := e.Session.LookPath(name)
		switch {
		case err == nil:
			plan.path = path
		case errors.Is(err, session.ErrNotFound):
			plan.err = &CommandNotFoundError{Name: name}
		default:
			plan.err = &ExternalProcessError{Name: name, Err: err}
		}
	}

	// Open every redirection before any stage starts so open failures
	// abort with no side effects beyond the files already opened.
	for i, stage := range p.Stages {
		stdout, stderr, err := openRedirects(e.Session, stage, i+1)
		if err != nil {
			for j := range plans[:i] {
				plans[j].closeRedirects()
			}
			return nil, err
		}
		plans[i].stdout, plans[i].stderr = stdout, stderr
	}

	// Stage i's stdout feeds stage i+1's stdin.
	type pipeEnd struct {
		r *io.PipeReader
		w *io.PipeWriter
	}
	pipes := make([]pipeEnd, n-1)
	for i := range pipes {
		pipes[i].r, pipes[i].w = io.Pipe()
	}

	// Every stage starts before any is waited on; a full pipe buffer
	// can otherwise deadlock the whole pipeline.
	results := make([]StageResult, n)
	var wg sync.WaitGroup
	for i := range plans {
		i := i
		plan := &plans[i]

		var stdin io.Reader = e.Session.IO.In
		if i > 0 {
			stdin = pipes[i-1].r
		}
		var stdout io.Writer = e.Session.IO.Out
		if i < n-1 {
			stdout = pipes[i].w
		}
		if plan.stdout != nil {
			stdout = plan.stdout
		}
		var stderr io.Writer = e.Session.IO.Err
		if plan.stderr != nil {
			stderr = plan.stderr
		}
		files := session.NewIO(stdin, stdout, stderr)

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.runStage(plan, files)

			// Release this stage's descriptors so neighbors observe
			// EOF and closed-pipe errors promptly.
			if i > 0 {
				pipes[i-1].r.Close()
			}
			if i < n-1 {
				pipes[i].w.Close()
			}
			plan.closeRedirects()
		}()
	}
	wg.Wait()

	e.logStages(plans, results)

	return &ExecutionResult{Stages: results}, nil
}

func (e *Executor) logInvalid(line string, err error) {
	if e.Events == nil {
		return
	}
	_ = e.Events.Record(&logger.InvalidInvocation{Input: line, Error: err.Error()})
}

func (e *Executor) logStages(plans []stagePlan, results []StageResult) {
	if e.Events == nil {
		return
	}
	for i := range plans {
		plan := &plans[i]
		switch {
		case plan.err != nil:
			status := logger.CommandNotExecutable
			var notFound *CommandNotFoundError
			if errors.As(plan.err, &notFound) {
				status = logger.CommandNotFound
			}
			_ = e.Events.Record(&logger.UnknownCommand{Command: plan.argv, Status: status})
		case plan.builtin != nil:
			_ = e.Events.Record(&logger.RunCommand{
				Command:    plan.argv,
				Builtin:    true,
				ExitStatus: results[i].Status,
			})
		default:
			_ = e.Events.Record(&logger.RunCommand{
				Command:             plan.argv,
				ResolvedCommandPath: plan.path,
				ExitStatus:          results[i].Status,
			})
		}
	}
}

// syncRecall tells the surrounding line editor that the history buffer
// changed out from under it.
func (e *Executor) syncRecall() {
	if e.SyncRecall != nil {
		e.SyncRecall()
	}
}

// expandAlias splices a configured alias into argv[0]'s place, once and
// non-recursively.
func (e *Executor) expandAlias(argv []string) []string {
	expansion, ok := e.Aliases[argv[0]]
	if !ok {
		return argv
	}
	if _, shadowed := e.Builtins[argv[0]]; shadowed {
		return argv
	}
	words, err := shlex.Split(expansion, true)
	if err != nil || len(words) == 0 {
		return argv
	}
	return append(words, argv[1:]...)
}

func (e *Executor) runStage(plan *stagePlan, files *session.IO) StageResult {
	switch {
	case plan.err != nil:
		// The stage reports its failure on its own stderr and yields;
		// sibling stages run regardless.
		fmt.Fprintln(files.Err, plan.err.Error())
		status := exitCantInvoke
		var notFound *CommandNotFoundError
		if errors.As(plan.err, &notFound) {
			status = exitNotFound
		}
		return StageResult{Status: status, Err: plan.err}

	case plan.builtin != nil:
		return StageResult{Status: plan.builtin(e, files, plan.argv)}

	default:
		proc, err := e.Session.Spawner.Spawn(plan.path, plan.argv, &session.ProcAttr{
			Dir:   e.Session.Getwd(),
			Env:   e.Session.Env.Environ(),
			Files: files,
		})
		if err != nil {
			procErr := &ExternalProcessError{Name: plan.argv[0], Err: err}
			fmt.Fprintln(files.Err, procErr.Error())
			return StageResult{Status: exitCantInvoke, Err: procErr}
		}
		status, err := proc.Wait()
		if err != nil {
			procErr := &ExternalProcessError{Name: plan.argv[0], Err: err}
			fmt.Fprintln(files.Err, procErr.Error())
			return StageResult{Status: exitCantInvoke, Err: procErr}
		}
		return StageResult{Status: status}
	}
}
