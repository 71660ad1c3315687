package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"

	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/viewmatrix"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	BaseDir        string `json:"base_dir" env:"MOCAP_BASE_DIR"`
	ASF            string `json:"asf" env:"MOCAP_ASF"`
	AMC            string `json:"amc" env:"MOCAP_AMC"`
	TargetSkeleton string `json:"target_skeleton" env:"MOCAP_TARGET_SKELETON"`
	Mapping        string `json:"mapping" env:"MOCAP_MAPPING"`
	OutputDir      string `json:"output_dir" env:"MOCAP_OUTPUT_DIR"`

	// Source units: ASF lengths and root translations are multiplied by this.
	LengthScale float64 `json:"length_scale" env:"MOCAP_LENGTH_SCALE"`

	// Render settings
	Width       int    `json:"width" env:"MOCAP_WIDTH"`
	Height      int    `json:"height" env:"MOCAP_HEIGHT"`
	Supersample int    `json:"supersample" env:"MOCAP_SUPERSAMPLE"`
	Format      string `json:"format" env:"MOCAP_FORMAT"`
	Workers     int    `json:"workers" env:"MOCAP_WORKERS"`
	Caption     *bool  `json:"caption"`

	// View, degrees and scene units
	ViewRotX        float64     `json:"view_rot_x" env:"MOCAP_VIEW_ROT_X"`
	ViewRotY        float64     `json:"view_rot_y" env:"MOCAP_VIEW_ROT_Y"`
	Translate       *[3]float64 `json:"translate"`
	TargetPlacement *[3]float64 `json:"target_placement"`

	// Playback / streaming
	FPS    int    `json:"fps" env:"MOCAP_FPS"`
	Listen string `json:"listen" env:"MOCAP_LISTEN"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from MOCAP_* environment variables.
// Variables that are not set leave the field unchanged.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir   string
	ASF       string
	AMC       string
	Target    string
	Mapping   string
	OutputDir string
	Format    string
	Workers   int
	FPS       int
	Listen    string
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file and environment
	if flags.DataDir != "" {
		c.BaseDir = flags.DataDir
	}
	if flags.ASF != "" {
		c.ASF = flags.ASF
	}
	if flags.AMC != "" {
		c.AMC = flags.AMC
	}
	if flags.Target != "" {
		c.TargetSkeleton = flags.Target
	}
	if flags.Mapping != "" {
		c.Mapping = flags.Mapping
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Listen != "" {
		c.Listen = flags.Listen
	}

	// Auto-detect base dir if still empty
	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	// Resolve relative paths against base dir
	if c.BaseDir != "" {
		c.ASF = resolvePath(c.BaseDir, c.ASF)
		c.AMC = resolvePath(c.BaseDir, c.AMC)
		c.TargetSkeleton = resolvePath(c.BaseDir, c.TargetSkeleton)
		c.Mapping = resolvePath(c.BaseDir, c.Mapping)

		if c.OutputDir == "" {
			c.OutputDir = filepath.Join(c.BaseDir, "renders")
		} else {
			c.OutputDir = resolvePath(c.BaseDir, c.OutputDir)
		}
	}

	// Defaults
	if c.LengthScale <= 0 {
		c.LengthScale = 1
	}
	if c.Width <= 0 {
		c.Width = 1024
	}
	if c.Height <= 0 {
		c.Height = 768
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Format == "" {
		c.Format = "webp"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.FPS <= 0 {
		c.FPS = 120
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Caption == nil {
		on := true
		c.Caption = &on
	}
}

// Camera returns the render camera described by the view settings.
func (c *Config) Camera() viewmatrix.Camera {
	cam := viewmatrix.Default()
	cam.RotX = mathutil.Deg2Rad(c.ViewRotX)
	cam.RotY = mathutil.Deg2Rad(c.ViewRotY)
	if c.Translate != nil {
		cam.Translate = mathutil.Vec3(*c.Translate)
	}
	return cam
}

// Placement returns the render-time offset of the target skeleton.
func (c *Config) Placement() mathutil.Vec3 {
	if c.TargetPlacement != nil {
		return mathutil.Vec3(*c.TargetPlacement)
	}
	return viewmatrix.DefaultTargetPlacement
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func detectBaseDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if _, err := os.Stat(filepath.Join(base, "data")); err == nil {
				return base
			}
		}
	}

	// Try current working directory
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, "data")); err == nil {
		return cwd
	}

	return ""
}
