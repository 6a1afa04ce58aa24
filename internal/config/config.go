package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// maxConfigSize bounds the config file read.
const maxConfigSize = 1 << 20

// Robot driver kinds.
const (
	DriverMock   = "mock"   // in-memory simulator
	DriverSerial = "serial" // MRPiZ board over UART
	DriverIntox  = "intox"  // Intox simulator over TCP
)

// RobotConfig selects and configures the hardware driver.
type RobotConfig struct {
	Driver        string `yaml:"driver" toml:"driver"`                   // mock, serial or intox
	SerialDevice  string `yaml:"serial_device" toml:"serial_device"`     // e.g. /dev/serial0
	SerialBaud    int    `yaml:"serial_baud" toml:"serial_baud"`         // e.g. 115200
	IntoxAddress  string `yaml:"intox_address" toml:"intox_address"`     // host:port of the Intox simulator
	ReadTimeoutMs int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"` // per-reply timeout on the board link
	SimulatorGain int    `yaml:"simulator_gain" toml:"simulator_gain"`   // mock only: encoder ticks per read for each 10% of speed
}

// IndicatorConfig describes the optional RGB status LED wired to GPIO.
type IndicatorConfig struct {
	Type     string `yaml:"type" toml:"type"` // "none" or "gpio"
	RedPin   int    `yaml:"red_pin" toml:"red_pin"`
	GreenPin int    `yaml:"green_pin" toml:"green_pin"`
	BluePin  int    `yaml:"blue_pin" toml:"blue_pin"`
	MockGPIO bool   `yaml:"mock_gpio" toml:"mock_gpio"` // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// NavigationConfig holds Pilot/Copilot thresholds and the completion-check schedule.
type NavigationConfig struct {
	DefaultTarget     int `yaml:"default_target" toml:"default_target"`         // encoder ticks for forward/rotate moves
	UTurnTarget       int `yaml:"uturn_target" toml:"uturn_target"`             // encoder ticks for a U-turn
	ObstacleThreshold int `yaml:"obstacle_threshold" toml:"obstacle_threshold"` // proximity below this is an obstacle
	PathSteps         int `yaml:"path_steps" toml:"path_steps"`                 // length of the zigzag paths
	PollIntervalMs    int `yaml:"poll_interval_ms" toml:"poll_interval_ms"`     // delay between completion polls
	PollRetries       int `yaml:"poll_retries" toml:"poll_retries"`             // polls per completion check
	SpeedScale        int `yaml:"speed_scale" toml:"speed_scale"`               // menu speed digit multiplier
}

// WallFollowConfig holds the reactive controller speeds and timings.
type WallFollowConfig struct {
	CruiseSpeed  int `yaml:"cruise_speed" toml:"cruise_speed"`   // wheel speed percentage
	PivotMs      int `yaml:"pivot_ms" toml:"pivot_ms"`           // pivot before straightening
	PacingMs     int `yaml:"pacing_ms" toml:"pacing_ms"`         // sleep between controller steps
	ProbeMs      int `yaml:"probe_ms" toml:"probe_ms"`           // recovery: forced left pivot
	ReverseMs    int `yaml:"reverse_ms" toml:"reverse_ms"`       // recovery: reverse
	TurnaroundMs int `yaml:"turnaround_ms" toml:"turnaround_ms"` // recovery: pivot right
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level" toml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// WebConfig configures the optional status server.
type WebConfig struct {
	Port int `yaml:"port" toml:"port"` // 0 = disabled
}

// JournalConfig configures the sqlite mission journal.
type JournalConfig struct {
	Path string `yaml:"path" toml:"path"` // empty = disabled
}

// Config aggregates all application configuration.
type Config struct {
	Robot      RobotConfig      `yaml:"robot" toml:"robot"`
	Indicator  IndicatorConfig  `yaml:"indicator" toml:"indicator"`
	Navigation NavigationConfig `yaml:"navigation" toml:"navigation"`
	WallFollow WallFollowConfig `yaml:"wall_follow" toml:"wall_follow"`
	Defaults   DefaultsConfig   `yaml:"defaults" toml:"defaults"`
	Web        WebConfig        `yaml:"web" toml:"web"`
	Journal    JournalConfig    `yaml:"journal" toml:"journal"`
}

// Default returns a configuration with every default applied
// (mock robot, no indicator, web and journal disabled).
func Default() *Config {
	cfg := &Config{}
	if err := cfg.applyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file and returns the configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("unmarshal toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown toml keys: %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q (want .yaml, .yml or .toml)", ext)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero values and validates ranges.
func (c *Config) applyDefaults() error {
	// Robot driver
	if c.Robot.Driver == "" {
		c.Robot.Driver = DriverMock
	}
	switch c.Robot.Driver {
	case DriverMock:
	case DriverSerial:
		if c.Robot.SerialDevice == "" {
			return fmt.Errorf("robot.serial_device is required for the serial driver")
		}
	case DriverIntox:
		if c.Robot.IntoxAddress == "" {
			return fmt.Errorf("robot.intox_address is required for the intox driver")
		}
	default:
		return fmt.Errorf("unsupported robot.driver: %s", c.Robot.Driver)
	}
	if c.Robot.SerialBaud <= 0 {
		c.Robot.SerialBaud = 115200
	}
	if c.Robot.ReadTimeoutMs <= 0 {
		c.Robot.ReadTimeoutMs = 500
	}
	if c.Robot.SimulatorGain <= 0 {
		c.Robot.SimulatorGain = 1
	}

	// Indicator
	if c.Indicator.Type == "" {
		c.Indicator.Type = "none"
	}
	switch c.Indicator.Type {
	case "none":
	case "gpio":
		if c.Indicator.RedPin <= 0 || c.Indicator.GreenPin <= 0 || c.Indicator.BluePin <= 0 {
			return fmt.Errorf("indicator red_pin, green_pin and blue_pin must be > 0 for gpio")
		}
	default:
		return fmt.Errorf("unsupported indicator.type: %s", c.Indicator.Type)
	}

	// Navigation (defaults match the MRPiZ firmware tuning)
	n := &c.Navigation
	if n.DefaultTarget <= 0 {
		n.DefaultTarget = 200
	}
	if n.UTurnTarget <= 0 {
		n.UTurnTarget = 456
	}
	if n.UTurnTarget <= n.DefaultTarget {
		return fmt.Errorf("navigation.uturn_target (%d) must be greater than default_target (%d)", n.UTurnTarget, n.DefaultTarget)
	}
	if n.ObstacleThreshold <= 0 {
		n.ObstacleThreshold = 150
	}
	if n.ObstacleThreshold > 255 {
		return fmt.Errorf("navigation.obstacle_threshold must be <= 255, got %d", n.ObstacleThreshold)
	}
	if n.PathSteps <= 0 {
		n.PathSteps = 12
	}
	if n.PollIntervalMs <= 0 {
		n.PollIntervalMs = 100
	}
	if n.PollRetries <= 0 {
		n.PollRetries = 1000
	}
	if n.SpeedScale <= 0 {
		n.SpeedScale = 10
	}
	if n.SpeedScale > 10 {
		return fmt.Errorf("navigation.speed_scale must be <= 10, got %d", n.SpeedScale)
	}

	// Wall follow
	w := &c.WallFollow
	if w.CruiseSpeed <= 0 {
		w.CruiseSpeed = 30
	}
	if w.CruiseSpeed > 100 {
		return fmt.Errorf("wall_follow.cruise_speed must be <= 100, got %d", w.CruiseSpeed)
	}
	if w.PivotMs <= 0 {
		w.PivotMs = 500
	}
	if w.PacingMs <= 0 {
		w.PacingMs = 100
	}
	if w.ProbeMs <= 0 {
		w.ProbeMs = 500
	}
	if w.ReverseMs <= 0 {
		w.ReverseMs = 500
	}
	if w.TurnaroundMs <= 0 {
		w.TurnaroundMs = 1000
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be 0-65535, got %d", c.Web.Port)
	}
	return nil
}

// ReadTimeout returns the per-reply timeout on the board link.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Robot.ReadTimeoutMs) * time.Millisecond
}

// PollInterval returns the delay between two completion polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Navigation.PollIntervalMs) * time.Millisecond
}

// Pacing returns the sleep between two wall-follow steps.
func (c *Config) Pacing() time.Duration {
	return time.Duration(c.WallFollow.PacingMs) * time.Millisecond
}

// Pivot returns how long the wall follower pivots before straightening.
func (c *Config) Pivot() time.Duration {
	return time.Duration(c.WallFollow.PivotMs) * time.Millisecond
}

// Probe returns the forced left pivot duration of the dead-angle recovery.
func (c *Config) Probe() time.Duration {
	return time.Duration(c.WallFollow.ProbeMs) * time.Millisecond
}

// Reverse returns the reverse duration of the dead-angle recovery.
func (c *Config) Reverse() time.Duration {
	return time.Duration(c.WallFollow.ReverseMs) * time.Millisecond
}

// Turnaround returns the pivot duration of the dead-angle recovery.
func (c *Config) Turnaround() time.Duration {
	return time.Duration(c.WallFollow.TurnaroundMs) * time.Millisecond
}
