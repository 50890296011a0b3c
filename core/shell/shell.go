// Package shell implements the command interpreter: a whitespace
// tokenizer, a pipeline parser, an executor that runs builtins and
// external programs over a session, and an interactive readline loop.
package shell

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/skiffsh/skiff/core/history"
	"github.com/skiffsh/skiff/core/logger"
	"github.com/skiffsh/skiff/core/session"
)

const (
	EnvHome     = "HOME"
	EnvPath     = "PATH"
	EnvPrompt   = "PS1"
	EnvHostname = "HOSTNAME"
	EnvUser     = "USER"
	EnvHistFile = "HISTFILE"

	DefaultPrompt = `\$ `
)

// Options configure an interactive Shell beyond its session.
type Options struct {
	// Prompt is used when the environment doesn't set PS1.
	Prompt string

	// HistFile is loaded on startup and written back when the shell
	// exits. The HISTFILE environment variable takes precedence.
	HistFile string

	// Aliases maps command names onto replacement command lines.
	Aliases map[string]string

	// FuncGetWidth and FuncIsTerminal drive readline's renderer. Leave
	// nil to detect from the process's own terminal.
	FuncGetWidth   func() int
	FuncIsTerminal func() bool

	// AutoComplete handles tab presses.
	AutoComplete readline.AutoCompleter

	// Events receives audit events for executed and rejected lines.
	Events *logger.SessionLogger
}

// Shell is an interactive command interpreter over a session.
type Shell struct {
	Session  *session.Session
	Executor *Executor
	Readline *readline.Instance

	prompt     string
	histFile   string
	lastStatus int
}

// NewShell builds an interactive shell reading from and writing to the
// session's streams.
func NewShell(sess *session.Session, opts Options) (*Shell, error) {
	cfg := &readline.Config{
		Stdin:          readline.NewCancelableStdin(sess.IO.In),
		Stdout:         sess.IO.Out,
		Stderr:         sess.IO.Err,
		FuncGetWidth:   opts.FuncGetWidth,
		FuncIsTerminal: opts.FuncIsTerminal,
		AutoComplete:   opts.AutoComplete,
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}

	executor := NewExecutor(sess, history.New(sess.FS))
	executor.Aliases = opts.Aliases
	executor.Events = opts.Events

	shell := &Shell{
		Session:  sess,
		Executor: executor,
		Readline: rl,
		prompt:   opts.Prompt,
	}
	executor.SyncRecall = shell.syncRecall

	shell.histFile = sess.Env.Getenv(EnvHistFile)
	if shell.histFile == "" {
		shell.histFile = opts.HistFile
	}
	shell.loadHistory()

	return shell, nil
}

// Prompt renders the active prompt. PS1 style expansions are honored:
// \u user, \h hostname, \w working directory, \W its basename, \$ a
// dollar sign (hash for root) and \\ a literal backslash.
func (s *Shell) Prompt() string {
	prompt := s.Session.Env.Getenv(EnvPrompt)
	if prompt == "" {
		prompt = s.prompt
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}

	user := s.Session.Env.Getenv(EnvUser)
	host := s.Session.Env.Getenv(EnvHostname)
	if host == "" {
		host = "localhost"
	}

	prompt = strings.ReplaceAll(prompt, `\u`, user)
	prompt = strings.ReplaceAll(prompt, `\h`, host)

	pwd := s.Session.Getwd()
	home := s.Session.Home()
	if home != "/" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}

	prompt = strings.ReplaceAll(prompt, `\w`, pwd)
	prompt = strings.ReplaceAll(prompt, `\W`, lastPathSegment(pwd))

	if user == "root" {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return strings.ReplaceAll(prompt, `\\`, `\`)
}

func lastPathSegment(pwd string) string {
	if idx := strings.LastIndex(pwd, "/"); idx >= 0 && idx < len(pwd)-1 {
		return pwd[idx+1:]
	}
	return pwd
}

// Run reads and executes command lines until the input closes or a
// command asks the shell to exit. It returns the shell's exit code.
func (s *Shell) Run() int {
	for {
		if code, done := s.Session.ExitRequested(); done {
			s.saveHistory()
			return code
		}

		s.Readline.SetPrompt(s.Prompt())
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			// Input closed, quit.
			s.saveHistory()
			return 0

		case err == readline.ErrInterrupt:
			// Interrupt abandons the current line.
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			continue

		case strings.TrimSpace(line) == "":
			continue

		default:
			s.Executor.History.Add(line)
			s.runLine(line)
		}
	}
}

// Close releases the terminal.
func (s *Shell) Close() error {
	return s.Readline.Close()
}

// LastStatus reports the exit status of the most recent pipeline.
func (s *Shell) LastStatus() int {
	return s.lastStatus
}

func (s *Shell) runLine(line string) {
	result, err := s.Executor.Execute(line)
	if err != nil {
		fmt.Fprintf(s.Readline, "skiff: %v\n", err)
		s.lastStatus = 2
		return
	}
	s.lastStatus = result.ExitStatus()
}

// RunLine executes a single input line outside the interactive loop,
// for one-shot invocations. It returns the pipeline's exit status, the
// exit builtin's code if it ran, or 2 on a parse error.
func RunLine(e *Executor, line string) int {
	result, err := e.Execute(line)
	if err != nil {
		fmt.Fprintf(e.Session.IO.Err, "skiff: %v\n", err)
		return 2
	}
	if code, ok := e.Session.ExitRequested(); ok {
		return code
	}
	return result.ExitStatus()
}

// syncRecall replaces readline's up-arrow history with the history
// buffer's contents after a builtin rewrites it.
func (s *Shell) syncRecall() {
	s.Readline.Operation.ResetHistory()
	for _, entry := range s.Executor.History.All() {
		s.Readline.Operation.SaveHistory(entry)
	}
}

func (s *Shell) loadHistory() {
	if s.histFile == "" {
		return
	}
	if err := s.Executor.History.LoadFile(s.Session.Resolve(s.histFile)); err != nil {
		return
	}
	s.syncRecall()
}

func (s *Shell) saveHistory() {
	if s.histFile == "" {
		return
	}
	if err := s.Executor.History.WriteFile(s.Session.Resolve(s.histFile)); err != nil {
		fmt.Fprintf(s.Session.IO.Err, "skiff: save history: %v\n", err)
	}
}
