package session

import (
	"io"
	"os"
)

// IO bundles the three standard streams of a shell or of one pipeline
// stage. Nil readers behave like a closed descriptor, nil writers
// discard.
type IO struct {
	In  io.ReadCloser
	Out io.WriteCloser
	Err io.WriteCloser
}

// NewIO wraps plain readers and writers into an IO, adding no-op Close
// methods where the underlying values have none.
func NewIO(stdin io.Reader, stdout, stderr io.Writer) *IO {
	return &IO{
		In:  toReadCloser(stdin),
		Out: toWriteCloser(stdout),
		Err: toWriteCloser(stderr),
	}
}

// NullIO creates /dev/null style streams: reads fail, writes are
// discarded.
func NullIO() *IO {
	return NewIO(nil, nil, nil)
}

// WithIn returns a copy of the IO reading from in.
func (v *IO) WithIn(in io.Reader) *IO {
	out := *v
	out.In = toReadCloser(in)
	return &out
}

// WithOut returns a copy of the IO writing standard output to w.
func (v *IO) WithOut(w io.Writer) *IO {
	out := *v
	out.Out = toWriteCloser(w)
	return &out
}

// WithErr returns a copy of the IO writing standard error to w.
func (v *IO) WithErr(w io.Writer) *IO {
	out := *v
	out.Err = toWriteCloser(w)
	return &out
}

func toWriteCloser(w io.Writer) io.WriteCloser {
	if w == nil {
		return &devNull{}
	}
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}

	return nopWriteCloser{w}
}

func toReadCloser(r io.Reader) io.ReadCloser {
	if r == nil {
		return &devNull{}
	}
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}

	return io.NopCloser(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// devNull implements io.Reader and io.Writer, always closed for reads
// and discarding writes.
type devNull struct{}

var _ io.ReadCloser = (*devNull)(nil)
var _ io.WriteCloser = (*devNull)(nil)

func (*devNull) Read([]byte) (int, error) {
	return 0, os.ErrClosed
}

func (*devNull) Close() error {
	return nil
}

func (*devNull) Write(b []byte) (int, error) {
	return len(b), nil
}
