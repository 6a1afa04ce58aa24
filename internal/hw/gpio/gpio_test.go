package gpio

import "testing"

func TestMockDriver_ReadReturnsLastWrite(t *testing.T) {
	drv := NewMockDriver()
	if err := drv.SetupPin(17, Output); err != nil {
		t.Fatalf("SetupPin: %v", err)
	}

	lvl, err := drv.ReadPin(17)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if lvl != Low {
		t.Errorf("unwritten pin should read Low, got %v", lvl)
	}

	_ = drv.WritePin(17, High)
	if lvl, _ := drv.ReadPin(17); lvl != High {
		t.Errorf("after write High, ReadPin = %v", lvl)
	}
	_ = drv.WritePin(17, Low)
	if lvl, _ := drv.ReadPin(17); lvl != Low {
		t.Errorf("after write Low, ReadPin = %v", lvl)
	}
}

func TestMockDriver_Mode(t *testing.T) {
	drv := NewMockDriver()
	if _, ok := drv.Mode(4); ok {
		t.Error("pin 4 should not be set up yet")
	}
	_ = drv.SetupPin(4, Input)
	mode, ok := drv.Mode(4)
	if !ok || mode != Input {
		t.Errorf("Mode(4) = %v, %v; want Input, true", mode, ok)
	}
}

func TestMockDriver_CloseDrivesLow(t *testing.T) {
	drv := NewMockDriver()
	_ = drv.WritePin(22, High)
	if err := drv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if lvl, _ := drv.ReadPin(22); lvl != Low {
		t.Errorf("pin should be Low after Close, got %v", lvl)
	}
}

func TestNewDriver_Mock(t *testing.T) {
	drv, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(true): %v", err)
	}
	if _, ok := drv.(*MockDriver); !ok {
		t.Errorf("NewDriver(true) returned %T, want *MockDriver", drv)
	}
}
