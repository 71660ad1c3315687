package batch

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/playback"
	"mocap-retarget/internal/postprocess"
	"mocap-retarget/internal/raster"
	"mocap-retarget/internal/scene"
	"mocap-retarget/internal/viewmatrix"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// Output formats.
const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Scene           *scene.Scene
	OutputDir       string
	Format          string
	Width, Height   int
	Supersample     int
	Camera          viewmatrix.Camera
	TargetPlacement mathutil.Vec3
	Caption         bool
	Workers         int
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Frame   int
	Image   string // relative to OutputDir
	Success bool
	Error   string
}

// Run renders the given frames using a worker pool. Each worker drives its own
// player over private tree clones, so frames evaluate independently.
func Run(cfg Config, frames []int) []Result {
	total := len(frames)
	results := make([]Result, total)
	var processed atomic.Int64

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		for i, f := range frames {
			results[i] = Result{Frame: f, Error: err.Error()}
		}
		return results
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f frames/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	frameChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := newRenderer(cfg)
			for idx := range frameChan {
				results[idx] = r.processFrame(frames[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range frames {
		frameChan <- i
	}
	close(frameChan)

	wg.Wait()
	close(done)

	return results
}

// renderer is one worker's private state.
type renderer struct {
	cfg    Config
	opts   raster.Options
	player *playback.Player
	err    error
}

func newRenderer(cfg Config) *renderer {
	r := &renderer{
		cfg: cfg,
		opts: raster.Options{
			Width:           cfg.Width,
			Height:          cfg.Height,
			Supersample:     cfg.Supersample,
			Camera:          cfg.Camera,
			TargetPlacement: cfg.TargetPlacement,
			Source:          raster.DefaultSourceStyle,
			Target:          raster.DefaultTargetStyle,
		},
	}
	r.player, r.err = cfg.Scene.NewPlayer()
	if r.err == nil {
		r.err = r.player.Pause()
	}
	return r
}

func (r *renderer) processFrame(frame int) Result {
	name := fmt.Sprintf("%05d.%s", frame, r.cfg.Format)
	if r.err != nil {
		return Result{Frame: frame, Image: name, Error: r.err.Error()}
	}

	if err := r.player.Seek(frame); err != nil {
		return Result{Frame: frame, Image: name, Error: err.Error()}
	}
	snap, err := r.player.Tick()
	if err != nil {
		return Result{Frame: frame, Image: name, Error: err.Error()}
	}

	img := raster.RenderSnapshot(snap, r.opts)

	// Post-processing: supersample downsample
	if r.cfg.Supersample > 1 {
		img = postprocess.Downsample(img, r.cfg.Width, r.cfg.Height)
	}
	if r.cfg.Caption {
		raster.DrawCaption(img, fmt.Sprintf("frame %d / %d", snap.Frame+1, snap.Frames), raster.RGBA{R: 255, G: 255, B: 255, A: 255})
	}

	if err := writeImage(filepath.Join(r.cfg.OutputDir, name), img, r.cfg.Format); err != nil {
		logging.Logger().Warn("batch: write failed", "frame", frame, "err", err)
		return Result{Frame: frame, Image: name, Error: err.Error()}
	}
	return Result{Frame: frame, Image: name, Success: true}
}

func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch format {
	case FormatTGA:
		err = tga.Encode(f, img)
	case FormatWebP:
		err = nativewebp.Encode(f, img, nil)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("%s encode: %w", format, err)
	}
	return f.Close()
}

// FrameRange returns the frame indices first..last inclusive, clamped to n frames.
// A negative last selects the final frame.
func FrameRange(first, last, n int) []int {
	if first < 0 {
		first = 0
	}
	if last < 0 || last >= n {
		last = n - 1
	}
	if first > last {
		return nil
	}
	frames := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		frames = append(frames, i)
	}
	return frames
}
