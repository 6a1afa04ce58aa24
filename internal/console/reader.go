package console

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/x/term"

	"github.com/cjeanneret/RoboGo/internal/debug"
)

// Reader turns a byte stream (usually a raw-mode terminal) into keys.
// A single goroutine reads the stream; ReadKey blocks on it and
// StopRequested peeks at it without blocking.
type Reader struct {
	keys chan Key
	done chan struct{}
	err  error // set before done is closed

	onInterrupt func()
}

// NewReader starts reading in. onInterrupt, if set, is called for
// ctrl+c, which raw mode delivers as a key instead of a signal.
func NewReader(in io.Reader, onInterrupt func()) *Reader {
	r := &Reader{
		keys:        make(chan Key, 16),
		done:        make(chan struct{}),
		onInterrupt: onInterrupt,
	}
	go r.loop(bufio.NewReader(in))
	return r
}

func (r *Reader) loop(in *bufio.Reader) {
	defer close(r.done)
	for {
		c, _, err := in.ReadRune()
		if err != nil {
			r.err = err
			return
		}
		k := Key(c)
		debug.Trace("console: key %q", k.String())
		if key.Matches(k, Keys.Interrupt) {
			if r.onInterrupt != nil {
				r.onInterrupt()
			}
			continue
		}
		r.keys <- k
	}
}

// ReadKey blocks until a key is available, the input ends or ctx is done.
func (r *Reader) ReadKey(ctx context.Context) (rune, error) {
	select {
	case k := <-r.keys:
		return rune(k), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-r.done:
		// keys read before the end of input still count
		select {
		case k := <-r.keys:
			return rune(k), nil
		default:
		}
		return 0, r.err
	}
}

// StopRequested consumes every pending key and reports whether one of
// them was the stop key.
func (r *Reader) StopRequested() bool {
	stop := false
	for {
		select {
		case k := <-r.keys:
			if key.Matches(k, Keys.Stop) {
				stop = true
			}
		default:
			return stop
		}
	}
}

// RawMode puts f in raw mode if it is a terminal and returns the restore
// function. For anything else (pipes, files) it is a no-op.
func RawMode(f *os.File) (restore func(), err error) {
	fd := f.Fd()
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := term.Restore(fd, state); err != nil {
			debug.Error(err)
		}
	}, nil
}
