package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/viewmatrix"
)

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{DataDir: "/data"})

	if cfg.Width != 1024 || cfg.Height != 768 || cfg.Supersample != 2 {
		t.Fatalf("size = %dx%d ss %d", cfg.Width, cfg.Height, cfg.Supersample)
	}
	if cfg.Format != "webp" || cfg.FPS != 120 || cfg.Listen != ":8080" {
		t.Fatalf("format %q fps %d listen %q", cfg.Format, cfg.FPS, cfg.Listen)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Fatalf("workers = %d", cfg.Workers)
	}
	if cfg.LengthScale != 1 {
		t.Fatalf("length scale = %v", cfg.LengthScale)
	}
	if cfg.Caption == nil || !*cfg.Caption {
		t.Fatal("caption should default to on")
	}
	if cfg.OutputDir != filepath.Join("/data", "renders") {
		t.Fatalf("output = %q", cfg.OutputDir)
	}
}

func TestResolveFlagsOverride(t *testing.T) {
	cfg := Config{ASF: "a.asf", Format: "webp", Workers: 2}
	cfg.Resolve(Flags{
		DataDir: "/base",
		AMC:     "/abs/walk.amc",
		Format:  "tga",
		Workers: 7,
		Target:  "smpl.json",
	})

	if cfg.ASF != filepath.Join("/base", "a.asf") {
		t.Fatalf("ASF = %q, want resolved against base", cfg.ASF)
	}
	if cfg.AMC != "/abs/walk.amc" {
		t.Fatalf("AMC = %q, absolute paths stay", cfg.AMC)
	}
	if cfg.TargetSkeleton != filepath.Join("/base", "smpl.json") {
		t.Fatalf("target = %q", cfg.TargetSkeleton)
	}
	if cfg.Format != "tga" || cfg.Workers != 7 {
		t.Fatalf("format %q workers %d", cfg.Format, cfg.Workers)
	}
}

func TestLoadAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"asf": "x.asf", "width": 640, "caption": false, "translate": [0, -10, -150]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t.Setenv("MOCAP_WIDTH", "800")
	t.Setenv("MOCAP_AMC", "run.amc")
	t.Setenv("MOCAP_VIEW_ROT_Y", "90")
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	cfg.Resolve(Flags{DataDir: "/d"})

	if cfg.Width != 800 {
		t.Fatalf("width = %d, env should override the file", cfg.Width)
	}
	if cfg.ASF != filepath.Join("/d", "x.asf") || cfg.AMC != filepath.Join("/d", "run.amc") {
		t.Fatalf("paths = %q %q", cfg.ASF, cfg.AMC)
	}
	if *cfg.Caption {
		t.Fatal("caption false in file should survive Resolve")
	}

	cam := cfg.Camera()
	if cam.Translate != (mathutil.Vec3{0, -10, -150}) {
		t.Fatalf("camera translate = %v", cam.Translate)
	}
	if cam.RotY != mathutil.Deg2Rad(90) {
		t.Fatalf("camera rotY = %v", cam.RotY)
	}
	if cfg.Placement() != viewmatrix.DefaultTargetPlacement {
		t.Fatalf("placement = %v", cfg.Placement())
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("MOCAP_FPS", "fast")
	var cfg Config
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("want error for non-numeric MOCAP_FPS")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("want error")
	}
}
