// Package sshd serves interactive shell sessions to remote SSH
// clients: authentication, PTY and window-change handling, bandwidth
// limiting, terminal recording, and per-session event logging.
package sshd

import (
	"bytes"
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/juju/ratelimit"
	"github.com/skiffsh/skiff/core/complete"
	"github.com/skiffsh/skiff/core/config"
	"github.com/skiffsh/skiff/core/history"
	"github.com/skiffsh/skiff/core/logger"
	"github.com/skiffsh/skiff/core/session"
	"github.com/skiffsh/skiff/core/shell"
	"github.com/skiffsh/skiff/core/ttylog"
	gossh "golang.org/x/crypto/ssh"
)

// defaultPath seeds PATH for clients that don't send one.
const defaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

type sshContextKey struct {
	name string
}

// contextKeyPassword holds the password the client authenticated with.
var contextKeyPassword = sshContextKey{"auth-password"}

// Server hosts shell sessions for remote SSH clients.
type Server struct {
	config         *config.Configuration
	events         *logger.Logger
	appLog         *log.Logger
	authorizedKeys []gossh.PublicKey
	sshServer      *ssh.Server
}

// New builds a Server from the configuration. The events logger
// receives one JSON entry per session event; appLog carries human
// facing diagnostics.
func New(cfg *config.Configuration, events *logger.Logger, appLog *log.Logger) (*Server, error) {
	srv := &Server{
		config: cfg,
		events: events,
		appLog: appLog,
	}

	keyData, err := cfg.ReadAuthorizedKeys()
	if err != nil {
		return nil, fmt.Errorf("reading authorized keys: %w", err)
	}
	if len(keyData) > 0 {
		srv.authorizedKeys, err = parseAuthorizedKeys(keyData)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", cfg.AuthorizedKeys, err)
		}
	}

	srv.sshServer = &ssh.Server{
		Addr: cfg.ListenAddr,
		Handler: func(s ssh.Session) {
			srv.handleSession(s)
		},
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			ctx.SetValue(contextKeyPassword, password)
			return srv.checkPassword(ctx.User(), password)
		},
	}
	if len(srv.authorizedKeys) > 0 {
		srv.sshServer.PublicKeyHandler = func(ctx ssh.Context, key ssh.PublicKey) bool {
			return srv.checkPublicKey(key)
		}
	}

	hostKey, err := cfg.PrivateKeyPem()
	if err != nil {
		return nil, fmt.Errorf("reading host key: %w", err)
	}
	if err := srv.sshServer.SetOption(ssh.HostKeyPEM(hostKey)); err != nil {
		return nil, fmt.Errorf("parsing host key: %w", err)
	}

	return srv, nil
}

// ListenAndServe accepts SSH sessions until Shutdown is called.
func (srv *Server) ListenAndServe() error {
	srv.appLog.Printf("Starting SSH server on %s", srv.sshServer.Addr)
	return srv.sshServer.ListenAndServe()
}

// Shutdown stops the listener and waits for open sessions to finish or
// ctx to expire.
func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.sshServer.Shutdown(ctx)
}

func (srv *Server) checkPassword(username, password string) bool {
	ok := false
	for _, allowed := range srv.config.GetPasswords(username) {
		if subtle.ConstantTimeCompare([]byte(password), []byte(allowed)) == 1 {
			ok = true
		}
	}
	return ok
}

func (srv *Server) checkPublicKey(key ssh.PublicKey) bool {
	for _, allowed := range srv.authorizedKeys {
		if ssh.KeysEqual(key, allowed) {
			return true
		}
	}
	return false
}

func parseAuthorizedKeys(data []byte) ([]gossh.PublicKey, error) {
	var keys []gossh.PublicKey
	for len(bytes.TrimSpace(data)) > 0 {
		key, _, _, rest, err := gossh.ParseAuthorizedKey(data)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		data = rest
	}
	return keys, nil
}

// handleSession runs one accepted SSH session to completion.
func (srv *Server) handleSession(s ssh.Session) {
	events := srv.events.NewSession()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			_ = events.Record(&logger.Panic{
				Context:    fmt.Sprintf("session from %s: %v", s.RemoteAddr(), r),
				Stacktrace: string(debug.Stack()),
			})
			srv.appLog.Printf("Session panic: %v", r)
			_ = s.Exit(255)
		}
	}()

	_ = events.Record(&logger.LoginAttempt{
		Result:     logger.LoginSuccess,
		Username:   s.User(),
		Password:   passwordFromContext(s.Context()),
		PublicKey:  marshalPublicKey(s.PublicKey()),
		RemoteAddr: s.RemoteAddr().String(),
	})

	ptyInfo, winch, isPTY := s.Pty()
	width := int64(ptyInfo.Window.Width)
	if isPTY {
		_ = events.Record(&logger.TerminalUpdate{
			Rows:  ptyInfo.Window.Height,
			Cols:  ptyInfo.Window.Width,
			Term:  ptyInfo.Term,
			IsPTY: isPTY,
		})

		// The window channel closes with the session.
		go func() {
			for window := range winch {
				atomic.StoreInt64(&width, int64(window.Width))
				_ = events.Record(&logger.TerminalUpdate{
					Rows:  window.Height,
					Cols:  window.Width,
					Term:  ptyInfo.Term,
					IsPTY: isPTY,
				})
			}
		}()
	}

	stdio := session.NewIO(s, s, s.Stderr())
	if limit := srv.config.BandwidthLimit; limit > 0 {
		bucket := ratelimit.NewBucketWithRate(float64(limit), limit)
		stdio = session.NewIO(
			ratelimit.Reader(stdio.In, bucket),
			ratelimit.Writer(stdio.Out, bucket),
			ratelimit.Writer(stdio.Err, bucket),
		)
	}

	if srv.config.RecordSessions {
		name := fmt.Sprintf("%s.%s", start.UTC().Format("2006-01-02T150405.000Z"), ttylog.AsciicastFileExt)
		fd, err := srv.config.CreateRecording(name)
		if err != nil {
			srv.appLog.Printf("Can't record session: %v", err)
		} else {
			defer fd.Close()
			_ = events.Record(&logger.OpenRecording{Name: name})

			sink := ttylog.NewAsciicastLogSink(fd, ttylog.Header{
				Width:  ptyInfo.Window.Width,
				Height: ptyInfo.Window.Height,
				Term:   ptyInfo.Term,
			})
			stdio = ttylog.NewRecorder(stdio, sink).IO
		}
	}

	sess := session.New(session.Options{
		Environ: s.Environ(),
		Stdin:   stdio.In,
		Stdout:  stdio.Out,
		Stderr:  stdio.Err,
	})
	srv.seedSession(sess, s.User(), ptyInfo.Term)

	// An exec request runs one line and reports its status, no loop.
	if raw := s.RawCommand(); raw != "" {
		executor := shell.NewExecutor(sess, history.New(sess.FS))
		executor.Aliases = srv.config.Aliases
		executor.Events = events

		code := shell.RunLine(executor, raw)
		srv.endSession(s, events, start, code)
		return
	}

	if srv.config.Banner != "" {
		banner := strings.ReplaceAll(strings.TrimRight(srv.config.Banner, "\n"), "\n", "\r\n")
		fmt.Fprintf(stdio.Out, "%s\r\n", banner)
	}

	opts := shell.Options{
		Prompt:   srv.config.Prompt,
		HistFile: srv.config.HistoryFile,
		Aliases:  srv.config.Aliases,
		Events:   events,
		FuncGetWidth: func() int {
			if w := atomic.LoadInt64(&width); w > 0 {
				return int(w)
			}
			return 80
		},
		FuncIsTerminal: func() bool {
			return isPTY
		},
	}
	opts.AutoComplete = complete.New(sess, shell.BuiltinNames())

	sh, err := shell.NewShell(sess, opts)
	if err != nil {
		srv.appLog.Printf("Can't start shell: %v", err)
		_ = s.Exit(1)
		return
	}

	code := sh.Run()
	sh.Close()
	srv.endSession(s, events, start, code)
}

func (srv *Server) endSession(s ssh.Session, events *logger.SessionLogger, start time.Time, code int) {
	_ = events.Record(&logger.SessionEnd{
		ExitStatus:     code,
		DurationMicros: time.Since(start).Microseconds(),
	})
	_ = s.Exit(code)
}

// seedSession fills in the environment a login shell expects. The
// authenticated username always wins over whatever the client sent.
func (srv *Server) seedSession(sess *session.Session, username, term string) {
	user, ok := srv.config.LookupUser(username)
	if !ok {
		user = config.User{Username: username}
	}

	env := sess.Env
	env.Setenv(shell.EnvUser, username)
	if hostname, err := os.Hostname(); err == nil {
		env.Setenv(shell.EnvHostname, hostname)
	}
	if _, set := env.LookupEnv(shell.EnvHome); !set {
		env.Setenv(shell.EnvHome, user.HomeDir())
	}
	if _, set := env.LookupEnv(shell.EnvPath); !set {
		env.Setenv(shell.EnvPath, defaultPath)
	}
	if term != "" {
		env.Setenv("TERM", term)
	}

	// Sessions start in the home directory when it exists.
	_ = sess.Chdir(sess.Home())
}

func passwordFromContext(ctx ssh.Context) string {
	password, _ := ctx.Value(contextKeyPassword).(string)
	return password
}

func marshalPublicKey(key ssh.PublicKey) []byte {
	if key == nil {
		return nil
	}
	return bytes.TrimSpace(gossh.MarshalAuthorizedKey(key))
}
