package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/scene"
	"mocap-retarget/internal/skeleton"
)

func main() {
	asfPath := flag.String("asf", "", "ASF skeleton file")
	amcPath := flag.String("amc", "", "AMC motion file")
	target := flag.String("target", "", "Target body-model skeleton JSON")
	mapping := flag.String("mapping", "", "Joint mapping JSON (default: built-in ASF to SMPL)")
	scale := flag.Float64("scale", 1, "ASF length scale")
	frame := flag.Int("frame", -1, "Also evaluate this frame and print the retargeted target")
	verbose := flag.Bool("v", false, "Verbose logging to stderr")
	flag.Parse()

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *asfPath == "" || *amcPath == "" || *target == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -asf file.asf -amc file.amc -target body.json [-frame N]")
		os.Exit(1)
	}

	sc, err := scene.Load(scene.Paths{
		ASF:            *asfPath,
		AMC:            *amcPath,
		TargetSkeleton: *target,
		Mapping:        *mapping,
		LengthScale:    *scale,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Source: %d joints (%s), %d frames\n", sc.Source.Len(), sc.Source.Convention(), sc.Motion.Len())
	printTree(sc.Source)
	fmt.Printf("\nTarget: %d joints (%s)\n", sc.Target.Len(), sc.Target.Convention())
	printTree(sc.Target)

	cal := sc.Mapper.Calibration()
	fmt.Println("\nCalibration:")
	for r := 0; r < 3; r++ {
		row := cal.Correction.Row(r)
		fmt.Printf("  [% .4f % .4f % .4f]\n", row[0], row[1], row[2])
	}
	fmt.Printf("  angle: %.2f deg\n", mathutil.Rad2Deg(cal.Correction.RotationAngle()))
	fmt.Printf("  scale: %.4f\n", cal.Scale)
	fmt.Printf("  translation: (%.3f, %.3f, %.3f)\n", cal.Translation[0], cal.Translation[1], cal.Translation[2])
	fmt.Printf("  rms: %.4f\n", cal.RMSError)

	if *frame < 0 {
		return
	}
	p, err := sc.NewPlayer()
	if err == nil {
		err = p.Pause()
	}
	if err == nil {
		err = p.Seek(*frame)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	snap, err := p.Tick()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	al := snap.Alignment
	fmt.Printf("\nFrame %d / %d:\n", snap.Frame, snap.Frames)
	fmt.Printf("  root rotation: %.2f deg\n", mathutil.Rad2Deg(al.Rotation.RotationAngle()))
	fmt.Printf("  root offset: (%.3f, %.3f, %.3f)\n", al.Offset[0], al.Offset[1], al.Offset[2])
	for i, name := range snap.Target.Names {
		c := snap.Target.Coordinates[i]
		fmt.Printf("  %-16s (%8.3f, %8.3f, %8.3f)\n", name, c[0], c[1], c[2])
	}
}

func printTree(t *skeleton.Tree) {
	depth := make([]int, t.Len())
	for _, j := range t.Joints() {
		if !j.IsRoot() {
			depth[j.Index] = depth[j.Parent] + 1
		}
		c := j.Coordinate
		fmt.Printf("  %s%-*s dof=%d  rest (%8.3f, %8.3f, %8.3f)\n",
			strings.Repeat("  ", depth[j.Index]), 20-2*depth[j.Index], j.Name, j.DOF.Count(), c[0], c[1], c[2])
	}
}
