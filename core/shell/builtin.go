package shell

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pborman/getopt/v2"
	"github.com/skiffsh/skiff/core/session"
)

// BuiltinFunc implements one shell builtin. argv[0] is the command
// name. Builtins write to files but never close its streams; descriptor
// cleanup belongs to the executor.
type BuiltinFunc func(e *Executor, files *session.IO, argv []string) int

// AllBuiltins holds every registered shell builtin, keyed by name.
var AllBuiltins = make(map[string]BuiltinFunc)

func init() {
	AllBuiltins["echo"] = Echo
	AllBuiltins["pwd"] = Pwd
	AllBuiltins["cd"] = Cd
	AllBuiltins["type"] = Type
	AllBuiltins["history"] = History
	AllBuiltins["exit"] = Exit
}

// BuiltinNames returns the registry's names, unsorted.
func BuiltinNames() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	return names
}

// Echo writes its arguments joined by single spaces.
func Echo(e *Executor, files *session.IO, argv []string) int {
	fmt.Fprintln(files.Out, strings.Join(argv[1:], " "))
	return 0
}

// Pwd writes the session's working directory.
func Pwd(e *Executor, files *session.IO, argv []string) int {
	fmt.Fprintln(files.Out, e.Session.Getwd())
	return 0
}

// Cd changes the session's working directory. No argument or ~ targets
// the home directory.
func Cd(e *Executor, files *session.IO, argv []string) int {
	s := e.Session

	dir := ""
	if len(argv) > 1 {
		dir = argv[1]
	}

	target := dir
	switch {
	case dir == "" || dir == "~":
		target = s.Home()
	case strings.HasPrefix(dir, "~/"):
		target = filepath.Join(s.Home(), dir[2:])
	}

	if err := s.Chdir(target); err != nil {
		display := dir
		if display == "" {
			display = target
		}
		fmt.Fprintln(files.Err, (&DirectoryNotFoundError{Dir: display}).Error())
		return 1
	}
	return 0
}

// Type reports whether a name resolves to a builtin or an executable.
func Type(e *Executor, files *session.IO, argv []string) int {
	if len(argv) < 2 {
		return 0
	}

	name := argv[1]
	if _, ok := e.Builtins[name]; ok {
		fmt.Fprintf(files.Out, "%s is a shell builtin\n", name)
		return 0
	}
	if path, err := e.Session.LookPath(name); err == nil {
		fmt.Fprintf(files.Out, "%s is %s\n", name, path)
		return 0
	}
	fmt.Fprintf(files.Out, "%s: not found\n", name)
	return 1
}

// History lists the command history or moves it to and from files.
func History(e *Executor, files *session.IO, argv []string) int {
	opts := getopt.New()
	readFile := opts.String('r', "", "append lines from FILE to the history", "FILE")
	writeFile := opts.String('w', "", "write the full history to FILE", "FILE")
	appendFile := opts.String('a', "", "append entries added since the last -a to FILE", "FILE")
	clearHist := opts.Bool('c', "clear the history")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(argv, nil); err != nil || *helpOpt {
		w := files.Err
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "Display or manipulate the history list.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		if err != nil {
			return 1
		}
		return 0
	}

	ranSubOp := false
	if *clearHist {
		e.History.Clear()
		e.syncRecall()
		ranSubOp = true
	}
	if *readFile != "" {
		if err := e.History.LoadFile(e.Session.Resolve(*readFile)); err != nil {
			fmt.Fprintf(files.Err, "history -r: Cannot read %s: %v\n", *readFile, err)
			return 1
		}
		e.syncRecall()
		ranSubOp = true
	}
	if *writeFile != "" {
		if err := e.History.WriteFile(e.Session.Resolve(*writeFile)); err != nil {
			fmt.Fprintf(files.Err, "history -w: Cannot write %s: %v\n", *writeFile, err)
			return 1
		}
		ranSubOp = true
	}
	if *appendFile != "" {
		if err := e.History.AppendFile(e.Session.Resolve(*appendFile)); err != nil {
			fmt.Fprintf(files.Err, "history -a: Cannot append %s: %v\n", *appendFile, err)
			return 1
		}
		ranSubOp = true
	}
	if ranSubOp {
		return 0
	}

	entries := e.History.All()
	first := 1
	if rest := opts.Args(); len(rest) > 0 {
		// A non-numeric count is ignored and the full history prints.
		if n, err := strconv.Atoi(rest[0]); err == nil {
			entries, first = e.History.Last(n)
		}
	}
	for i, entry := range entries {
		fmt.Fprintf(files.Out, "    %d  %s\n", first+i, entry)
	}
	return 0
}

// Exit asks the interactive loop to stop once the current pipeline
// drains.
func Exit(e *Executor, files *session.IO, argv []string) int {
	code := 0
	if len(argv) > 1 {
		if n, err := strconv.Atoi(argv[1]); err == nil {
			code = n
		} else {
			fmt.Fprintf(files.Err, "exit: %s: numeric argument required\n", argv[1])
			code = 2
		}
	}
	e.Session.Exit(code)
	return code
}
