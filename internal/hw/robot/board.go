package robot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	serial "go.bug.st/serial"

	"github.com/cjeanneret/RoboGo/internal/debug"
)

// Board drives an MRPiZ control board over a newline-delimited text link.
// Every command is one line and gets exactly one reply line:
//
//	I            init            -> OK
//	M <l> <r>    set speeds      -> OK
//	E <wheel>    read encoder    -> <int>
//	Z            reset encoders  -> OK
//	P <id>       read proximity  -> <int> (-1 on sensor fault)
//	B            battery percent -> <int>
//	L <color>    set LED         -> OK
//
// Any command may instead be answered with "ERR <message>".
type Board struct {
	link    io.ReadWriteCloser
	timeout time.Duration

	mu      sync.Mutex
	lines   chan lineResult
	ready   bool
	closed  bool
	pending int // commands that timed out and may still get a reply
}

type lineResult struct {
	line string
	err  error
}

// MRPiZ sensor and LED numbering.
var (
	boardSensorID = map[Sensor]int{SensorLeft: 1, SensorCenter: 3, SensorRight: 5}
	boardColor    = map[Signal]int{SignalOK: 0, SignalObstacle: 1, SignalProblem: 2, SignalIdle: 3}
)

// ErrBoard wraps an "ERR" reply from the board.
var ErrBoard = errors.New("board error")

// NewBoard wraps an open link. timeout bounds the wait for each reply.
func NewBoard(link io.ReadWriteCloser, timeout time.Duration) *Board {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	b := &Board{
		link:    link,
		timeout: timeout,
		lines:   make(chan lineResult, 8),
	}
	go b.readLoop(bufio.NewReader(link))
	return b
}

// OpenSerial opens the board UART (e.g. /dev/serial0 on a Raspberry Pi Zero).
func OpenSerial(device string, baud int, timeout time.Duration) (*Board, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", device, err)
	}
	debug.Info("Opened robot board on %s (baud %d)", device, baud)
	return NewBoard(port, timeout), nil
}

// DialIntox connects to an Intox robot simulator at addr (host:port).
func DialIntox(addr string, timeout time.Duration) (*Board, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to intox %s: %w", addr, err)
	}
	debug.Info("Connected to Intox simulator at %s", addr)
	return NewBoard(conn, timeout), nil
}

// readLoop owns the reader; command matches lines to commands in order.
func (b *Board) readLoop(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			b.lines <- lineResult{err: err}
			close(b.lines)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		debug.UART("rx", line)
		b.lines <- lineResult{line: line}
	}
}

// command sends one line and waits for its reply.
func (b *Board) command(format string, args ...interface{}) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", errors.New("board link closed")
	}

	// The protocol has no sequence numbers: a late reply to a timed-out
	// command is consumed here before anything else is sent. After a
	// full timeout without it the reply is taken as lost.
	for b.pending > 0 {
		select {
		case res, ok := <-b.lines:
			if !ok {
				return "", errors.New("board link closed")
			}
			if res.err != nil {
				return "", fmt.Errorf("board link: %w", res.err)
			}
			debug.Trace("board: dropping late reply %q", res.line)
			b.pending--
		case <-time.After(b.timeout):
			debug.Trace("board: %d late replies lost", b.pending)
			b.pending = 0
		}
	}

	// unsolicited lines
	for drained := false; !drained; {
		select {
		case res, ok := <-b.lines:
			if !ok {
				return "", errors.New("board link closed")
			}
			if res.err != nil {
				return "", fmt.Errorf("board link: %w", res.err)
			}
			debug.Trace("board: dropping stale reply %q", res.line)
		default:
			drained = true
		}
	}

	cmd := fmt.Sprintf(format, args...)
	debug.UART("tx", cmd)
	if _, err := b.link.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}

	select {
	case res, ok := <-b.lines:
		if !ok {
			return "", errors.New("board link closed")
		}
		if res.err != nil {
			return "", fmt.Errorf("board link: %w", res.err)
		}
		if msg, isErr := strings.CutPrefix(res.line, "ERR"); isErr {
			return "", fmt.Errorf("%w: %s: %s", ErrBoard, cmd, strings.TrimSpace(msg))
		}
		return res.line, nil
	case <-time.After(b.timeout):
		b.pending++
		return "", fmt.Errorf("reply to %q: read timeout", cmd)
	}
}

func (b *Board) expectOK(format string, args ...interface{}) error {
	reply, err := b.command(format, args...)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("unexpected reply %q", reply)
	}
	return nil
}

func (b *Board) readInt(format string, args ...interface{}) (int, error) {
	reply, err := b.command(format, args...)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(reply)
	if err != nil {
		return 0, fmt.Errorf("invalid integer reply %q", reply)
	}
	return v, nil
}

func (b *Board) checkReady() error {
	if !b.ready {
		return ErrNotInitialized
	}
	return nil
}

func (b *Board) Init() error {
	if err := b.expectOK("I"); err != nil {
		return fmt.Errorf("board init: %w", err)
	}
	b.ready = true
	return nil
}

func (b *Board) SetSpeed(left, right int) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	return b.expectOK("M %d %d", left, right)
}

func (b *Board) Encoder(w Wheel) (int, error) {
	if err := b.checkReady(); err != nil {
		return 0, err
	}
	if w != LeftWheel && w != RightWheel {
		return 0, fmt.Errorf("invalid wheel: %s", w)
	}
	return b.readInt("E %d", int(w))
}

func (b *Board) ResetEncoders() error {
	if err := b.checkReady(); err != nil {
		return err
	}
	return b.expectOK("Z")
}

func (b *Board) Proximity(s Sensor) (int, error) {
	if err := b.checkReady(); err != nil {
		return 0, err
	}
	id, ok := boardSensorID[s]
	if !ok {
		return SensorFault, fmt.Errorf("invalid sensor: %s", s)
	}
	v, err := b.readInt("P %d", id)
	if err != nil {
		return SensorFault, err
	}
	if v == SensorFault {
		return SensorFault, ErrSensorFault
	}
	return v, nil
}

func (b *Board) Battery() (int, error) {
	if err := b.checkReady(); err != nil {
		return 0, err
	}
	return b.readInt("B")
}

func (b *Board) SetIndicator(s Signal) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	color, ok := boardColor[s]
	if !ok {
		color = 0
	}
	return b.expectOK("L %d", color)
}

// Close stops the wheels (best effort) and closes the link.
func (b *Board) Close() error {
	if b.ready {
		if err := b.SetSpeed(0, 0); err != nil {
			debug.Error(fmt.Errorf("board close: stop wheels: %w", err))
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.ready = false
	return b.link.Close()
}
