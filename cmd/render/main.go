package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mocap-retarget/internal/batch"
	"mocap-retarget/internal/config"
	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/scene"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	first := flag.Int("first", 0, "First frame to render")
	last := flag.Int("last", -1, "Last frame to render (default: final frame)")
	testN := flag.Int("test", 0, "Render only N frames starting at -first")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	dataDir := flag.String("data", "", "Path to base directory (default: auto-detect)")
	asfPath := flag.String("asf", "", "ASF skeleton file")
	amcPath := flag.String("amc", "", "AMC motion file")
	target := flag.String("target", "", "Target body-model skeleton JSON")
	mapping := flag.String("mapping", "", "Joint mapping JSON (default: built-in ASF to SMPL)")
	outputDir := flag.String("output", "", "Output directory (default: <data>/renders)")
	format := flag.String("format", "", "Output format: webp or tga (default: webp)")
	verbose := flag.Bool("v", false, "Verbose logging to stderr")

	flag.Parse()

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config file and environment
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		ASF:       *asfPath,
		AMC:       *amcPath,
		Target:    *target,
		Mapping:   *mapping,
		OutputDir: *outputDir,
		Format:    *format,
		Workers:   *workers,
	})

	if cfg.ASF == "" || cfg.AMC == "" || cfg.TargetSkeleton == "" {
		fmt.Fprintln(os.Stderr, "Error: -asf, -amc and -target are required (flags, config.json or MOCAP_* env).")
		os.Exit(1)
	}
	if cfg.Format != batch.FormatWebP && cfg.Format != batch.FormatTGA {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", cfg.Format)
		os.Exit(1)
	}

	// Load skeletons, motion and calibration
	sc, err := scene.Load(scene.Paths{
		ASF:            cfg.ASF,
		AMC:            cfg.AMC,
		TargetSkeleton: cfg.TargetSkeleton,
		Mapping:        cfg.Mapping,
		LengthScale:    cfg.LengthScale,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scene: %v\n", err)
		os.Exit(1)
	}
	cal := sc.Mapper.Calibration()
	fmt.Printf("Source: %s, %d joints, %d frames\n", filepath.Base(cfg.ASF), sc.Source.Len(), sc.Motion.Len())
	fmt.Printf("Target: %s, %d joints\n", filepath.Base(cfg.TargetSkeleton), sc.Target.Len())
	fmt.Printf("Calibration: scale %.4f, rms %.4f\n", cal.Scale, cal.RMSError)

	frames := batch.FrameRange(*first, *last, sc.Motion.Len())
	if *testN > 0 && *testN < len(frames) {
		frames = frames[:*testN]
	}

	if len(frames) == 0 {
		fmt.Println("No frames to render.")
		os.Exit(0)
	}

	// Print summary
	mode := ""
	if *testN > 0 {
		mode = fmt.Sprintf(" (TEST: %d frames)", *testN)
	}

	fmt.Printf("Mocap retarget renderer → %s%s\n", cfg.Format, mode)
	fmt.Printf("Frames: %d, Workers: %d, Size: %dx%d\n", len(frames), cfg.Workers, cfg.Width, cfg.Height)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		Scene:           sc,
		OutputDir:       cfg.OutputDir,
		Format:          cfg.Format,
		Width:           cfg.Width,
		Height:          cfg.Height,
		Supersample:     cfg.Supersample,
		Camera:          cfg.Camera(),
		TargetPlacement: cfg.Placement(),
		Caption:         *cfg.Caption,
		Workers:         cfg.Workers,
	}

	results := batch.Run(batchCfg, frames)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(frames))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  frame %d: %s\n", e.Frame, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	manifest := batch.Manifest{
		Source: filepath.Base(cfg.AMC),
		Target: filepath.Base(cfg.TargetSkeleton),
		Frames: sc.Motion.Len(),
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: cfg.Format,
	}
	if err := batch.WriteManifest(manifestPath, manifest, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
