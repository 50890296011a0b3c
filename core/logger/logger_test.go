package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonLinesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewJsonLinesLogRecorder(&buf)

	sess := log.NewSession()
	require.NotEmpty(t, sess.SessionID())

	require.NoError(t, sess.Record(&LoginAttempt{
		Result:   LoginSuccess,
		Username: "user",
		Password: "hunter2",
	}))
	require.NoError(t, sess.Record(&RunCommand{
		Command:             []string{"ls", "-la"},
		ResolvedCommandPath: "/bin/ls",
	}))
	require.NoError(t, sess.Record(&SessionEnd{ExitStatus: 0}))

	assert.Equal(t, 3, strings.Count(buf.String(), "\n"), "one JSON object per line")

	var entries []*LogEntry
	require.NoError(t, ReadJSONLinesLog(&buf, func(le *LogEntry) {
		entries = append(entries, le)
	}))
	require.Len(t, entries, 3)

	for _, le := range entries {
		assert.Equal(t, sess.SessionID(), le.SessionID)
		assert.NotZero(t, le.TimestampMicros)
	}

	login, ok := entries[0].Event().(*LoginAttempt)
	require.True(t, ok)
	assert.Equal(t, "user", login.Username)
	assert.Equal(t, LoginSuccess, login.Result)

	run, ok := entries[1].Event().(*RunCommand)
	require.True(t, ok)
	assert.Equal(t, []string{"ls", "-la"}, run.Command)
}

func TestSessionlessEntriesHaveNoID(t *testing.T) {
	var buf bytes.Buffer
	log := NewJsonLinesLogRecorder(&buf)

	require.NoError(t, log.Sessionless().Record(&Panic{Context: "startup"}))

	var entries []*LogEntry
	require.NoError(t, ReadJSONLinesLog(&buf, func(le *LogEntry) {
		entries = append(entries, le)
	}))
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].SessionID)
	require.NotNil(t, entries[0].Panic)
	assert.Equal(t, "startup", entries[0].Panic.Context)
}

func TestReportAggregates(t *testing.T) {
	var report Report

	entries := []*LogEntry{
		{SessionID: "1", LoginAttempt: &LoginAttempt{Result: LoginFailure, Username: "root", Password: "toor"}},
		{SessionID: "1", RunCommand: &RunCommand{Command: []string{"echo", "hi"}, Builtin: true}},
		{SessionID: "1", RunCommand: &RunCommand{Command: []string{"ls"}, ResolvedCommandPath: "/bin/ls", ExitStatus: 2}},
		{SessionID: "1", UnknownCommand: &UnknownCommand{Command: []string{"nmap"}, Status: CommandNotFound}},
		{SessionID: "1", InvalidInvocation: &InvalidInvocation{Input: "echo 'x", Error: "unterminated quote"}},
		{SessionID: "1", Panic: &Panic{Context: "session handler"}},
		{SessionID: "1", TerminalUpdate: &TerminalUpdate{Term: "xterm"}},
	}
	for _, le := range entries {
		report.Update(le)
	}

	assert.Equal(t, 7, report.LogEntries)
	assert.Equal(t, map[string]int{"root": 1}, report.LoginAttempt.Usernames.internal)
	assert.Equal(t, map[string]int{string(LoginFailure): 1}, report.LoginAttempt.Results.internal)
	assert.Equal(t, map[string]int{"(builtin)": 1, "/bin/ls": 1}, report.RunCommand.ResolvedCommandPaths.internal)
	assert.Equal(t, map[string]int{"0": 1, "2": 1}, report.RunCommand.ExitStatuses.internal)
	assert.Equal(t, map[string]int{"nmap": 1}, report.UnknownCommand.CommandNames.internal)
	assert.Equal(t, map[string]int{string(CommandNotFound): 1}, report.UnknownCommand.CommandStatuses.internal)
	assert.Equal(t, map[string]int{"unterminated quote": 1}, report.InvalidInvocation.Errors.internal)
	assert.Equal(t, []string{"session handler"}, report.Panic.Contexts)
	assert.Nil(t, report.InvalidEntries.internal, "no unrecognized entries")
}

func TestInteractionReport(t *testing.T) {
	var report InteractionReport

	report.Update(&LogEntry{SessionID: "42", LoginAttempt: &LoginAttempt{Username: "user", Password: "pw", RemoteAddr: "10.0.0.1:2222"}})
	report.Update(&LogEntry{SessionID: "42", TerminalUpdate: &TerminalUpdate{Term: "xterm-256color", IsPTY: true}})
	report.Update(&LogEntry{SessionID: "42", RunCommand: &RunCommand{Command: []string{"echo", "hi"}}})
	report.Update(&LogEntry{SessionID: "42", OpenRecording: &OpenRecording{Name: "42.cast"}})
	report.Update(&LogEntry{SessionID: "42", SessionEnd: &SessionEnd{ExitStatus: 3}})
	report.Update(&LogEntry{RunCommand: &RunCommand{Command: []string{"ignored"}}})

	require.Len(t, report.interactions, 1, "sessionless entries are skipped")
	sess := report.interactions["42"]
	require.NotNil(t, sess)
	assert.Equal(t, "user", sess.Login.Username)
	assert.Equal(t, "10.0.0.1:2222", sess.Login.RemoteAddr)
	assert.Equal(t, "xterm-256color", sess.TerminalName)
	assert.True(t, sess.IsPty)
	assert.Equal(t, []string{"echo hi"}, sess.Commands)
	assert.Equal(t, "42.cast", sess.Recording)
	assert.Equal(t, 3, sess.ExitStatus)
	assert.Equal(t, 5, sess.LogEntries)
}

func TestBugReport(t *testing.T) {
	report := NewBugReport()
	report.Update(&LogEntry{InvalidInvocation: &InvalidInvocation{Input: "echo 'x", Error: "unterminated quote"}})
	report.Update(&LogEntry{InvalidInvocation: &InvalidInvocation{Input: "echo 'x", Error: "unterminated quote"}})
	report.Update(&LogEntry{Panic: &Panic{Context: "handler", Stacktrace: "stack"}})

	out, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"log_entries": 3,
		"invalid_invocations": [
			{"count": 2, "event": {"input": "echo 'x", "error": "unterminated quote"}}
		],
		"panics": [{"context": "handler", "stacktrace": "stack"}]
	}`, string(out))
}
