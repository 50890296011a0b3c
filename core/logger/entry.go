package logger

// LogEntry is one logged event. Exactly one of the event fields is
// populated.
type LogEntry struct {
	// TimestampMicros is the event time in microseconds since the Unix
	// epoch.
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	LoginAttempt      *LoginAttempt      `json:"login_attempt,omitempty"`
	TerminalUpdate    *TerminalUpdate    `json:"terminal_update,omitempty"`
	RunCommand        *RunCommand        `json:"run_command,omitempty"`
	UnknownCommand    *UnknownCommand    `json:"unknown_command,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
	OpenRecording     *OpenRecording     `json:"open_recording,omitempty"`
	SessionEnd        *SessionEnd        `json:"session_end,omitempty"`
	Panic             *Panic             `json:"panic,omitempty"`
}

// LogType is one event payload. Each payload knows which LogEntry
// field it populates.
type LogType interface {
	attach(le *LogEntry)
}

// LoginResult is the outcome of an authentication attempt.
type LoginResult string

const (
	LoginSuccess LoginResult = "SUCCESS"
	LoginFailure LoginResult = "FAILURE"
)

// LoginAttempt records one authentication attempt against the SSH
// listener.
type LoginAttempt struct {
	Result     LoginResult `json:"result,omitempty"`
	Username   string      `json:"username,omitempty"`
	Password   string      `json:"password,omitempty"`
	PublicKey  []byte      `json:"public_key,omitempty"`
	RemoteAddr string      `json:"remote_addr,omitempty"`
}

func (e *LoginAttempt) attach(le *LogEntry) { le.LoginAttempt = e }

// TerminalUpdate records the requested terminal and its dimensions,
// emitted on session start and again on every window change.
type TerminalUpdate struct {
	Rows  int    `json:"rows,omitempty"`
	Cols  int    `json:"cols,omitempty"`
	Term  string `json:"term,omitempty"`
	IsPTY bool   `json:"is_pty,omitempty"`
}

func (e *TerminalUpdate) attach(le *LogEntry) { le.TerminalUpdate = e }

// RunCommand records one executed pipeline stage.
type RunCommand struct {
	Command             []string `json:"command,omitempty"`
	ResolvedCommandPath string   `json:"resolved_command_path,omitempty"`
	Builtin             bool     `json:"builtin,omitempty"`
	ExitStatus          int      `json:"exit_status"`
}

func (e *RunCommand) attach(le *LogEntry) { le.RunCommand = e }

// UnknownCommandStatus classifies why a command failed to resolve.
type UnknownCommandStatus string

const (
	CommandNotFound      UnknownCommandStatus = "NOT_FOUND"
	CommandNotExecutable UnknownCommandStatus = "NOT_EXECUTABLE"
)

// UnknownCommand records a stage whose name did not resolve to a
// runnable program.
type UnknownCommand struct {
	Command []string             `json:"command,omitempty"`
	Status  UnknownCommandStatus `json:"status,omitempty"`
}

func (e *UnknownCommand) attach(le *LogEntry) { le.UnknownCommand = e }

// InvalidInvocation records an input line the parser rejected.
type InvalidInvocation struct {
	Input string `json:"input,omitempty"`
	Error string `json:"error,omitempty"`
}

func (e *InvalidInvocation) attach(le *LogEntry) { le.InvalidInvocation = e }

// OpenRecording records the name of the terminal recording captured
// for the session.
type OpenRecording struct {
	Name string `json:"name,omitempty"`
}

func (e *OpenRecording) attach(le *LogEntry) { le.OpenRecording = e }

// SessionEnd records a session closing normally.
type SessionEnd struct {
	ExitStatus     int   `json:"exit_status"`
	DurationMicros int64 `json:"duration_micros,omitempty"`
}

func (e *SessionEnd) attach(le *LogEntry) { le.SessionEnd = e }

// Panic records a recovered panic so crashes in session handling are
// auditable.
type Panic struct {
	Context    string `json:"context,omitempty"`
	Stacktrace string `json:"stacktrace,omitempty"`
}

func (e *Panic) attach(le *LogEntry) { le.Panic = e }

// Event returns the populated payload, or nil for an empty entry.
func (le *LogEntry) Event() LogType {
	switch {
	case le.LoginAttempt != nil:
		return le.LoginAttempt
	case le.TerminalUpdate != nil:
		return le.TerminalUpdate
	case le.RunCommand != nil:
		return le.RunCommand
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.InvalidInvocation != nil:
		return le.InvalidInvocation
	case le.OpenRecording != nil:
		return le.OpenRecording
	case le.SessionEnd != nil:
		return le.SessionEnd
	case le.Panic != nil:
		return le.Panic
	default:
		return nil
	}
}
