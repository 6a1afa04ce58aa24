package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cjeanneret/RoboGo/internal/config"
	"github.com/cjeanneret/RoboGo/internal/console"
	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/gpio"
	"github.com/cjeanneret/RoboGo/internal/hw/indicator"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
	"github.com/cjeanneret/RoboGo/internal/journal"
	"github.com/cjeanneret/RoboGo/internal/logic/mission"
	"github.com/cjeanneret/RoboGo/internal/logic/nav"
	"github.com/cjeanneret/RoboGo/internal/logic/paths"
	"github.com/cjeanneret/RoboGo/internal/logic/wallfollow"
	"github.com/cjeanneret/RoboGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	debugLevel := flag.Int("debug", -1, "override debug level (0-4)")
	driver := flag.String("driver", "", "override robot driver (mock, serial, intox)")
	history := flag.Int("history", 0, "print the N most recent journaled runs and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := applyOverrides(cfg, overrides{
		DebugLevel: *debugLevel,
		Driver:     *driver,
		WebPort:    webPort.port(),
	}); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}

	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	if *history > 0 {
		if err := printHistory(os.Stdout, cfg.Journal.Path, *history); err != nil {
			log.Fatalf("history: %v", err)
		}
		return
	}

	if err := run(ctx, cancel, cfg); err != nil {
		log.Fatalf("robogo: %v", err)
	}
}

// run wires the robot, the navigation core and the operator surfaces,
// then drives the mission until quit, input EOF or cancellation.
func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) error {
	debug.Step(1, "Opening robot driver")
	debug.Value("Driver", cfg.Robot.Driver)
	bot, err := openRobot(cfg)
	if err != nil {
		return fmt.Errorf("open robot: %w", err)
	}

	debug.Step(2, "Initializing status indicator")
	debug.Value("Indicator type", cfg.Indicator.Type)
	bot, closeIndicator, err := withIndicator(bot, cfg)
	if err != nil {
		_ = bot.Close()
		return fmt.Errorf("init indicator: %w", err)
	}
	defer closeIndicator()

	if err := bot.Init(); err != nil {
		_ = bot.Close()
		return fmt.Errorf("init robot: %w", err)
	}
	defer func() {
		robot.Stop(bot)
		if err := bot.Close(); err != nil {
			log.Printf("closing robot failed: %v", err)
		}
	}()

	debug.Step(3, "Building navigation core")
	debug.PrintStruct("Navigation config", cfg.Navigation)
	debug.PrintStruct("Wall follow config", cfg.WallFollow)
	copilot := nav.NewCopilot(nav.NewPilot(bot, pilotLimits(cfg)))
	registry := paths.NewRegistry(cfg.Navigation.PathSteps, cfg.Navigation.ObstacleThreshold)
	follower := wallfollow.New(bot, followerSettings(cfg))

	opts := mission.Options{
		Robot:        bot,
		Copilot:      copilot,
		Registry:     registry,
		Follower:     follower,
		PollInterval: cfg.PollInterval(),
		PollRetries:  cfg.Navigation.PollRetries,
		SpeedScale:   cfg.Navigation.SpeedScale,
		Pacing:       cfg.Pacing(),
	}

	if cfg.Journal.Path != "" {
		debug.Step(4, "Opening mission journal")
		debug.Value("Journal path", cfg.Journal.Path)
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			// the robot still runs without a journal
			debug.Error(fmt.Errorf("journal disabled: %w", err))
		} else {
			defer j.Close()
			opts.Journal = j
		}
	}

	var logs *web.Broadcaster
	var hub *web.Hub
	if cfg.Web.Port > 0 {
		logs = web.NewBroadcaster()
		hub = web.NewHub()
		opts.Publisher = hub
	}

	restore, err := console.RawMode(os.Stdin)
	if err != nil {
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer restore()

	stdout := console.CRLF(os.Stdout)
	if logs != nil {
		debug.SetOutput(io.MultiWriter(stdout, web.LogWriter(logs)))
	} else {
		debug.SetOutput(stdout)
	}
	defer debug.SetOutput(os.Stdout)

	// ctrl+c arrives as a key in raw mode
	opts.Input = console.NewReader(os.Stdin, cancel)
	opts.Display = console.NewDisplay(os.Stdout, cfg.Navigation.ObstacleThreshold)
	m := mission.New(opts)

	g, gctx := errgroup.WithContext(ctx)
	gctx, stop := context.WithCancel(gctx)
	defer stop()

	if logs != nil {
		srv, err := web.NewServer(fmt.Sprintf(":%d", cfg.Web.Port), logs, hub, m)
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		debug.Value("Web port", cfg.Web.Port)
		g.Go(func() error { return srv.Run(gctx) })
	}
	g.Go(func() error {
		// quitting the mission shuts the web server down too
		defer stop()
		return m.Run(gctx)
	})

	debug.Summary(fmt.Sprintf("RoboGo ready (%s driver, web port %d)", cfg.Robot.Driver, cfg.Web.Port))
	debug.Section("Mission")
	if err := g.Wait(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// openRobot selects the hardware driver from the configuration.
func openRobot(cfg *config.Config) (robot.Robot, error) {
	switch cfg.Robot.Driver {
	case config.DriverMock:
		return robot.NewSimulator(cfg.Robot.SimulatorGain), nil
	case config.DriverSerial:
		debug.Value("Serial device", cfg.Robot.SerialDevice)
		debug.Value("Serial baud", cfg.Robot.SerialBaud)
		return robot.OpenSerial(cfg.Robot.SerialDevice, cfg.Robot.SerialBaud, cfg.ReadTimeout())
	case config.DriverIntox:
		debug.Value("Intox address", cfg.Robot.IntoxAddress)
		return robot.DialIntox(cfg.Robot.IntoxAddress, cfg.ReadTimeout())
	default:
		return nil, fmt.Errorf("unsupported robot driver: %s", cfg.Robot.Driver)
	}
}

// withIndicator routes the status signal to a GPIO RGB LED when one is
// configured. The returned func turns the LED off and releases GPIO.
func withIndicator(r robot.Robot, cfg *config.Config) (robot.Robot, func(), error) {
	if cfg.Indicator.Type != "gpio" {
		return r, func() {}, nil
	}
	debug.Value("Mock GPIO", cfg.Indicator.MockGPIO)
	g, err := gpio.NewDriver(cfg.Indicator.MockGPIO)
	if err != nil {
		return r, nil, err
	}
	led, err := indicator.NewRGB(g, cfg.Indicator.RedPin, cfg.Indicator.GreenPin, cfg.Indicator.BluePin)
	if err != nil {
		_ = g.Close()
		return r, nil, err
	}
	closeFn := func() {
		if err := led.Close(); err != nil {
			log.Printf("turning LED off failed: %v", err)
		}
		if err := g.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}
	return robot.WithIndicator(r, led), closeFn, nil
}

func pilotLimits(cfg *config.Config) nav.Limits {
	return nav.Limits{
		DefaultTarget:     cfg.Navigation.DefaultTarget,
		UTurnTarget:       cfg.Navigation.UTurnTarget,
		ObstacleThreshold: cfg.Navigation.ObstacleThreshold,
	}
}

func followerSettings(cfg *config.Config) wallfollow.Settings {
	return wallfollow.Settings{
		Speed:      cfg.WallFollow.CruiseSpeed,
		Threshold:  cfg.Navigation.ObstacleThreshold,
		Pivot:      cfg.Pivot(),
		Probe:      cfg.Probe(),
		Reverse:    cfg.Reverse(),
		Turnaround: cfg.Turnaround(),
	}
}

// printHistory writes the n most recent journaled runs.
func printHistory(w io.Writer, path string, n int) error {
	if path == "" {
		return errors.New("journal.path is not configured")
	}
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()
	runs, err := j.Recent(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, console.History(runs))
	return err
}

// overrides holds CLI values; the zero value of each (or -1 for
// DebugLevel) means "use config".
type overrides struct {
	DebugLevel int
	Driver     string
	WebPort    int
}

// applyOverrides mutates cfg with the CLI values that are set.
func applyOverrides(cfg *config.Config, o overrides) error {
	if o.DebugLevel >= 0 {
		if o.DebugLevel > debug.LevelTrace {
			return fmt.Errorf("debug must be between 0 and 4, got %d", o.DebugLevel)
		}
		cfg.Defaults.DebugLevel = o.DebugLevel
	}
	if o.Driver != "" {
		switch o.Driver {
		case config.DriverMock:
		case config.DriverSerial:
			if cfg.Robot.SerialDevice == "" {
				return errors.New("driver serial needs robot.serial_device in the config")
			}
		case config.DriverIntox:
			if cfg.Robot.IntoxAddress == "" {
				return errors.New("driver intox needs robot.intox_address in the config")
			}
		default:
			return fmt.Errorf("unsupported driver: %s", o.Driver)
		}
		cfg.Robot.Driver = o.Driver
	}
	if o.WebPort > 0 {
		cfg.Web.Port = o.WebPort
	}
	return nil
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
