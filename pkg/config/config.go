package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"occlusion/internal/util"
)

// Config represents the main configuration
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	SSAO     SSAOConfig     `yaml:"ssao"`
	Log      LogConfig      `yaml:"log"`
	Offline  OfflineConfig  `yaml:"offline"`
}

// GraphicsConfig contains window and frame loop configuration
type GraphicsConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	FrameRate  int    `yaml:"framerate"` // 0 means uncapped
	Title      string `yaml:"title"`
}

// CameraConfig contains the projection of the demo camera
type CameraConfig struct {
	FOV  float32 `yaml:"fov"` // vertical, in degrees
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
}

// SSAOConfig contains ambient occlusion configuration
type SSAOConfig struct {
	Enabled bool   `yaml:"enabled"`
	Seed    int64  `yaml:"seed"`  // Optional: 0 means random
	Label   string `yaml:"label"` // resource name prefix
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Optional: also log to this file
}

// OfflineConfig contains the headless render configuration
type OfflineConfig struct {
	Output string `yaml:"output"` // png, bmp or tiff by extension
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FrameRate:  60,
			Title:      "SSAO",
		},
		Camera: CameraConfig{
			FOV:  60,
			Near: 0.1,
			Far:  100,
		},
		SSAO: SSAOConfig{
			Enabled: true,
			Seed:    0, // Random seed
			Label:   "postprocess_ssao",
		},
		Log: LogConfig{
			Level: "info",
		},
		Offline: OfflineConfig{
			Output: "ssao.png",
			Width:  320,
			Height: 240,
		},
	}
}

// LoadConfig loads the configuration from a file. On error the defaults are
// returned along with the error.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, fmt.Errorf("config file not found, using defaults: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("error parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics size %dx%d must be positive", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.FrameRate < 0 {
		errs = append(errs, fmt.Errorf("graphics framerate %d must not be negative", c.Graphics.FrameRate))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera fov %v must be in (0, 180)", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera planes near %v far %v must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Offline.Width <= 0 || c.Offline.Height <= 0 {
		errs = append(errs, fmt.Errorf("offline size %dx%d must be positive", c.Offline.Width, c.Offline.Height))
	}
	switch util.FileExt(c.Offline.Output) {
	case "png", "bmp", "tif", "tiff":
	default:
		errs = append(errs, fmt.Errorf("offline output %q must be .png, .bmp or .tiff", c.Offline.Output))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("log level %q is unknown", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}
