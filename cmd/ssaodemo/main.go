package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"

	"github.com/pkg/profile"

	"occlusion/internal/logger"
	"occlusion/internal/util"
	"occlusion/pkg/config"
	"occlusion/pkg/engine"
)

func init() {
	// GLFW requires the program to be running on the main thread
	runtime.LockOSThread()
}

// options are the command line settings
type options struct {
	configPath  string
	headless    bool
	out         string
	profileMode string
	profileDir  string
	saveConfig  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&opts.headless, "headless", false, "Render one frame on the CPU and write it to -out")
	flag.StringVar(&opts.out, "out", "", "Output image for -headless (.png, .bmp or .tiff), overrides the config")
	flag.StringVar(&opts.profileMode, "profile", "", "Write a cpu or mem profile to the working directory")
	flag.BoolVar(&opts.saveConfig, "save-config", false, "Write the effective configuration to -config and exit")
	flag.Parse()
	opts.profileDir = "."

	// run returns only after its deferred cleanup, so the profile and the
	// log file are flushed before exiting
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	cfg := config.DefaultConfig()
	var cfgErr error
	if util.FileExists(opts.configPath) {
		cfg, cfgErr = config.LoadConfig(opts.configPath)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	if cfgErr != nil {
		logger.Warnf("%v", cfgErr)
	}

	if opts.saveConfig {
		if err := config.SaveConfig(cfg, opts.configPath); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		logger.Infof("Configuration written to %s", opts.configPath)
		return nil
	}

	switch opts.profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.profileDir), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(opts.profileDir), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q, want cpu or mem", opts.profileMode)
	}

	if opts.headless {
		if opts.out != "" {
			cfg.Offline.Output = opts.out
		}

		logger.Infof("Rendering %s headless...", cfg.Offline.Output)
		img, err := engine.RenderOffline(cfg, logger)
		if err != nil {
			logger.Errorf("Offline render failed: %v", err)
			return err
		}
		if err := engine.WriteImage(cfg.Offline.Output, img); err != nil {
			logger.Errorf("Failed to write image: %v", err)
			return err
		}
		return nil
	}

	logger.Info("Starting SSAO demo...")

	demo, err := engine.NewEngine(cfg, logger)
	if err != nil {
		logger.Errorf("Failed to initialize engine: %v", err)
		return err
	}

	logger.Info("Engine initialized, starting main loop...")
	demo.Run()

	return nil
}

func newLogger(cfg config.LogConfig) (*logger.Logger, error) {
	if cfg.File == "" {
		return logger.NewLogger(cfg.Level), nil
	}
	return logger.NewMultiLogger(cfg.Level, cfg.File)
}
