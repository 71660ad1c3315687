package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"mocap-retarget/internal/config"
	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/scene"
	"mocap-retarget/internal/stream"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	dataDir := flag.String("data", "", "Path to base directory (default: auto-detect)")
	asfPath := flag.String("asf", "", "ASF skeleton file")
	amcPath := flag.String("amc", "", "AMC motion file")
	target := flag.String("target", "", "Target body-model skeleton JSON")
	mapping := flag.String("mapping", "", "Joint mapping JSON (default: built-in ASF to SMPL)")
	fps := flag.Int("fps", 0, "Ticks per second (default: 120)")
	listen := flag.String("listen", "", "Listen address (default: :8080)")
	autoplay := flag.Bool("autoplay", false, "Start sessions playing instead of in rest pose")
	verbose := flag.Bool("v", false, "Verbose logging to stderr")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

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
	cfg.Resolve(config.Flags{
		DataDir: *dataDir,
		ASF:     *asfPath,
		AMC:     *amcPath,
		Target:  *target,
		Mapping: *mapping,
		FPS:     *fps,
		Listen:  *listen,
	})

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

	srv := stream.NewServer(sc, cfg.FPS)
	srv.AutoPlay = *autoplay

	fmt.Printf("Frames: %d, FPS: %d\n", sc.Motion.Len(), cfg.FPS)
	fmt.Printf("Listening on %s (ws://%s/ws)\n", cfg.Listen, cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, srv.Handler()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
