package robot

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeFirmware answers board commands on the far end of a pipe.
type fakeFirmware struct {
	mu       sync.Mutex
	received []string
	replies  map[string]string // exact command -> reply; default "OK"
	silent   map[string]bool   // commands that never get a reply
	delays   map[string]time.Duration
}

func (f *fakeFirmware) serve(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		f.mu.Lock()
		f.received = append(f.received, cmd)
		reply, ok := f.replies[cmd]
		silent := f.silent[cmd]
		delay := f.delays[cmd]
		f.mu.Unlock()
		if silent {
			continue
		}
		time.Sleep(delay)
		if !ok {
			reply = "OK"
		}
		if _, err := fmt.Fprintf(conn, "%s\n", reply); err != nil {
			return
		}
	}
}

func (f *fakeFirmware) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func newTestBoard(t *testing.T, fw *fakeFirmware) *Board {
	t.Helper()
	host, dev := net.Pipe()
	go fw.serve(dev)
	b := NewBoard(host, 200*time.Millisecond)
	t.Cleanup(func() {
		_ = b.Close()
		_ = dev.Close()
	})
	return b
}

func TestBoard_InitAndCommands(t *testing.T) {
	fw := &fakeFirmware{replies: map[string]string{
		"E 0": "120",
		"E 1": "-118",
		"P 1": "80",
		"P 3": "200",
		"P 5": "255",
		"B":   "64",
	}}
	b := newTestBoard(t, fw)

	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := b.SetSpeed(30, -30); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	st, err := ReadStatus(b)
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	want := Status{LeftEncoder: 120, RightEncoder: -118, Left: 80, Center: 200, Right: 255, Battery: 64}
	if st != want {
		t.Errorf("status = %+v, want %+v", st, want)
	}
	if err := b.ResetEncoders(); err != nil {
		t.Fatalf("ResetEncoders: %v", err)
	}
	if err := b.SetIndicator(SignalObstacle); err != nil {
		t.Fatalf("SetIndicator: %v", err)
	}

	got := fw.commands()
	wantCmds := []string{"I", "M 30 -30", "P 1", "P 3", "P 5", "E 0", "E 1", "B", "Z", "L 1"}
	if strings.Join(got, "|") != strings.Join(wantCmds, "|") {
		t.Errorf("commands = %v, want %v", got, wantCmds)
	}
}

func TestBoard_RequiresInit(t *testing.T) {
	b := newTestBoard(t, &fakeFirmware{})
	if err := b.SetSpeed(1, 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetSpeed before Init = %v, want ErrNotInitialized", err)
	}
}

func TestBoard_InitFailure(t *testing.T) {
	fw := &fakeFirmware{replies: map[string]string{"I": "ERR uart"}}
	b := newTestBoard(t, fw)
	err := b.Init()
	if !errors.Is(err, ErrBoard) {
		t.Fatalf("Init error = %v, want ErrBoard", err)
	}
}

func TestBoard_SensorFaultSentinel(t *testing.T) {
	fw := &fakeFirmware{replies: map[string]string{"P 3": "-1"}}
	b := newTestBoard(t, fw)
	_ = b.Init()
	v, err := b.Proximity(SensorCenter)
	if !errors.Is(err, ErrSensorFault) {
		t.Fatalf("Proximity error = %v, want ErrSensorFault", err)
	}
	if v != SensorFault {
		t.Errorf("Proximity = %d, want %d", v, SensorFault)
	}
}

func TestBoard_Timeout(t *testing.T) {
	fw := &fakeFirmware{silent: map[string]bool{"B": true}, replies: map[string]string{"E 0": "7"}}
	b := newTestBoard(t, fw)
	_ = b.Init()
	if _, err := b.Battery(); err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("Battery error = %v, want timeout", err)
	}
	// The link keeps working after a timeout.
	v, err := b.Encoder(LeftWheel)
	if err != nil || v != 7 {
		t.Errorf("Encoder after timeout = %d, %v; want 7, nil", v, err)
	}
}

func TestBoard_InvalidReply(t *testing.T) {
	fw := &fakeFirmware{replies: map[string]string{"B": "lots"}}
	b := newTestBoard(t, fw)
	_ = b.Init()
	if _, err := b.Battery(); err == nil {
		t.Error("expected error for non-integer reply")
	}
}

func TestBoard_CloseStopsWheels(t *testing.T) {
	fw := &fakeFirmware{}
	b := newTestBoard(t, fw)
	_ = b.Init()
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	cmds := fw.commands()
	if len(cmds) == 0 || cmds[len(cmds)-1] != "M 0 0" {
		t.Errorf("last command = %v, want M 0 0", cmds)
	}
	if err := b.SetSpeed(1, 1); err == nil {
		t.Error("SetSpeed after Close should fail")
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestBoard_ImplementsRobot(t *testing.T) {
	var _ Robot = &Board{}
	var _ Robot = &Simulator{}
}

func TestBoard_LateReplyNotTakenForNext(t *testing.T) {
	fw := &fakeFirmware{
		replies: map[string]string{"B": "64", "E 0": "120"},
		delays:  map[string]time.Duration{"B": 300 * time.Millisecond}, // timeout is 200ms
	}
	b := newTestBoard(t, fw)
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Battery(); err == nil {
		t.Fatal("expected timeout on the slow battery reply")
	}
	// the battery reply arrives while this command is pending
	v, err := b.Encoder(LeftWheel)
	if err != nil {
		t.Fatalf("Encoder: %v", err)
	}
	if v != 120 {
		t.Errorf("encoder = %d, want 120 (got the late battery reply?)", v)
	}
}
