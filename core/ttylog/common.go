// Package ttylog records terminal sessions and replays them, using the
// asciicast v2 file format.
package ttylog

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/skiffsh/skiff/core/session"
)

// FD identifies the terminal stream an entry belongs to.
type FD int32

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

// Entry is one timestamped chunk of terminal I/O.
type Entry struct {
	TimestampMicros int64
	FD              FD
	Data            []byte
}

// LogSink receives recorded entries.
type LogSink func(e *Entry) error

// LogSource adapts recording readers.
type LogSource interface {
	// Next fetches the next available entry. It returns io.EOF if the
	// source has no more entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback delays entries to match their original pacing.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(e *Entry) error {
		once.Do(func() {
			prevTimeMicros = e.TimestampMicros
		})

		delta := e.TimestampMicros - prevTimeMicros
		prevTimeMicros = e.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(e)
	}
}

// NewClientOutput writes stdout and stderr entries to the given writer.
func NewClientOutput(w io.Writer) LogSink {
	return func(e *Entry) error {
		if e.FD == FDStdin {
			return nil
		}
		_, err := w.Write(e.Data)
		return err
	}
}

// Replay feeds every entry of a recording into a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		e, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(e); err != nil {
			return err
		}
	}
}

// Recorder tees a session's terminal streams into a LogSink.
type Recorder struct {
	// IO carries the wrapped streams; hand it to the session in place
	// of the originals.
	IO *session.IO

	mutex sync.Mutex
	sink  LogSink
}

func (r *Recorder) record(fd FD, data []byte) {
	eventTime := time.Now()
	r.mutex.Lock()
	err := r.sink(&Entry{
		TimestampMicros: eventTime.UnixMicro(),
		FD:              fd,
		Data:            data,
	})
	r.mutex.Unlock()
	if err != nil {
		log.Print(err)
	}
}

type recorderReadCloser struct {
	r       *Recorder
	fd      FD
	wrapped io.ReadCloser
}

var _ io.ReadCloser = (*recorderReadCloser)(nil)

func (rc *recorderReadCloser) Read(p []byte) (int, error) {
	n, err := rc.wrapped.Read(p)
	if err == nil && n > 0 {
		// The caller owns p and may reuse it before the sink flushes.
		data := make([]byte, n)
		copy(data, p[:n])
		rc.r.record(rc.fd, data)
	}
	return n, err
}

func (rc *recorderReadCloser) Close() error {
	return rc.wrapped.Close()
}

type recorderWriteCloser struct {
	r       *Recorder
	fd      FD
	wrapped io.WriteCloser
}

var _ io.WriteCloser = (*recorderWriteCloser)(nil)

func (rc *recorderWriteCloser) Write(p []byte) (int, error) {
	n, err := rc.wrapped.Write(p)
	if err == nil && n > 0 {
		data := make([]byte, n)
		copy(data, p[:n])
		rc.r.record(rc.fd, data)
	}
	return n, err
}

func (rc *recorderWriteCloser) Close() error {
	return rc.wrapped.Close()
}

// NewRecorder wraps stdio so all traffic is also written to sink.
func NewRecorder(stdio *session.IO, sink LogSink) *Recorder {
	recorder := &Recorder{sink: sink}

	recorder.IO = &session.IO{
		In:  &recorderReadCloser{fd: FDStdin, r: recorder, wrapped: stdio.In},
		Out: &recorderWriteCloser{fd: FDStdout, r: recorder, wrapped: stdio.Out},
		Err: &recorderWriteCloser{fd: FDStderr, r: recorder, wrapped: stdio.Err},
	}

	return recorder
}
