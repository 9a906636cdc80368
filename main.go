package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/euclid/bank"
	"github.com/robmorgan/euclid/config"
	"github.com/robmorgan/euclid/control"
	"github.com/robmorgan/euclid/engine"
	"github.com/robmorgan/euclid/logger"
	"k8s.io/utils/clock"
)

// defaultTUILogFile keeps log lines off the terminal while the UI is drawn.
const defaultTUILogFile = "euclid.log"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	headless := flag.Bool("headless", false, "run without the terminal UI, driven by OSC")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if *headless {
		err = RunHeadless(ctx, cfg)
	} else {
		err = RunTUI(ctx, cfg)
	}
	if err != nil {
		fmt.Println("Error running euclid:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.EuclidConfig, error) {
	if path == "" {
		cfg := config.NewEuclidConfig()
		return cfg, cfg.Validate()
	}
	return config.LoadFile(path)
}

// setupLogging applies the configured log level and file. fallback is used when no file is set.
func setupLogging(cfg config.EuclidConfig, fallback string) (io.Closer, error) {
	path := cfg.LogFile
	if path == "" {
		path = fallback
	}
	if path == "" {
		return nil, logger.Configure(cfg.LogLevel, nil)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// start builds the system, opens its outputs and starts the poll loop in the background.
func start(ctx context.Context, cfg config.EuclidConfig, wg *sync.WaitGroup) (*system, error) {
	log := cfg.Logger
	clk := clock.RealClock{}

	log.WithField("store", cfg.StorePath).Info("Initializing sequencer...")
	sys, err := newSystem(cfg, clk, bank.NewFileStore(cfg.StorePath))
	if err != nil {
		return nil, err
	}

	log.Info("Attaching outputs...")
	if err := sys.attachOutputs(ctx, wg); err != nil {
		sys.Close()
		return nil, err
	}

	loop := engine.New(clk, cfg.PollInterval, func(time.Time) { sys.Poll() })
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()
	return sys, nil
}

// RunHeadless plays straight away and runs until interrupted.
func RunHeadless(ctx context.Context, cfg config.EuclidConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	closer, err := setupLogging(cfg, "")
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	log := logger.GetProjectLogger()

	wg := sync.WaitGroup{}
	sys, err := start(ctx, cfg, &wg)
	if err != nil {
		return err
	}
	defer sys.Close()
	sys.Enqueue(control.Event{Kind: control.PlayPause})

	// handle CTRL+C interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("shutting down euclid")
	cancel()
	wg.Wait()
	return nil
}

// RunTUI runs the sequencer behind the terminal UI until the user quits.
func RunTUI(ctx context.Context, cfg config.EuclidConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	closer, err := setupLogging(cfg, defaultTUILogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	wg := sync.WaitGroup{}
	sys, err := start(ctx, cfg, &wg)
	if err != nil {
		return err
	}
	defer sys.Close()

	_, err = tea.NewProgram(newModel(sys, cfg.Channels)).Run()

	cancel()
	wg.Wait()
	return err
}
