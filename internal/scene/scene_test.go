package scene

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mocap-retarget/internal/retarget"
	"mocap-retarget/internal/skeleton"
)

const legASF = `:name leg
:units
  length 1.0
  angle deg
:root
   order TX TY TZ RX RY RZ
   axis XYZ
   position 0 0 0
   orientation 0 0 0
:bonedata
  begin
     id 1
     name lhip
     direction 1 0 0
     length 2
     axis 0 0 0 XYZ
     dof rx ry rz
  end
  begin
     id 2
     name lknee
     direction 0 -1 0
     length 3
     axis 0 0 0 XYZ
     dof rx
  end
  begin
     id 3
     name lfoot
     direction 0 0 1
     length 1
     axis 0 0 0 XYZ
  end
:hierarchy
  begin
    root lhip
    lhip lknee
    lknee lfoot
  end
`

const legAMC = `:FULLY-SPECIFIED
:DEGREES
1
root 0 0 0 0 0 0
lhip 0 0 0
lknee 0
2
root 0 0 0 0 90 0
lhip 0 0 0
lknee 45
`

// legBody matches the leg's rest pose at twice the size.
const legBody = `{"joints": [
  {"name": "pelvis", "position": [0, 0, 0]},
  {"name": "hip", "parent": "pelvis", "position": [4, 0, 0]},
  {"name": "knee", "parent": "hip", "position": [4, -6, 0]},
  {"name": "foot", "parent": "knee", "position": [4, -6, 2]}
]}`

const legMapping = `{"reference": "root", "pairs": [
  {"source": "lhip", "target": "hip"},
  {"source": "lknee", "target": "knee"},
  {"source": "lfoot", "target": "foot"}
]}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func legPaths(dir string) Paths {
	return Paths{
		ASF:            filepath.Join(dir, "leg.asf"),
		AMC:            filepath.Join(dir, "leg.amc"),
		TargetSkeleton: filepath.Join(dir, "body.json"),
		Mapping:        filepath.Join(dir, "mapping.json"),
	}
}

func TestLoad(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"leg.asf":      legASF,
		"leg.amc":      legAMC,
		"body.json":    legBody,
		"mapping.json": legMapping,
	})
	sc, err := Load(legPaths(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.Motion.Len() != 2 || sc.Source.Len() != 4 || sc.Target.Len() != 4 {
		t.Fatalf("scene: %d frames, %d/%d joints", sc.Motion.Len(), sc.Source.Len(), sc.Target.Len())
	}
	if cal := sc.Mapper.Calibration(); cal.Scale < 1.999 || cal.Scale > 2.001 {
		t.Fatalf("calibrated scale = %v, want 2", cal.Scale)
	}
}

func TestPlayersAreIndependent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"leg.asf":      legASF,
		"leg.amc":      legAMC,
		"body.json":    legBody,
		"mapping.json": legMapping,
	})
	sc, err := Load(legPaths(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	a, err := sc.NewPlayer()
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	b, err := sc.NewPlayer()
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	a.Pause()
	a.Seek(1)
	snapA, err := a.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	snapB, err := b.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if snapA.Source.Coordinates[1] == snapB.Source.Coordinates[1] {
		t.Fatal("player b sees player a's pose")
	}
	// The scene's template trees stay in rest pose.
	if got := sc.Source.Joint(1).Coordinate; got != snapB.Source.Coordinates[1] {
		t.Fatalf("template tree moved: %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	base := map[string]string{
		"leg.asf":      legASF,
		"leg.amc":      legAMC,
		"body.json":    legBody,
		"mapping.json": legMapping,
	}
	tests := []struct {
		name    string
		replace map[string]string
		want    error
	}{
		{"missing knee sample", map[string]string{"leg.amc": strings.Replace(legAMC, "lknee 45\n", "", 1)}, skeleton.ErrMissingSample},
		{"unknown mapped joint", map[string]string{"mapping.json": strings.Replace(legMapping, `"foot"`, `"toe"`, 1)}, retarget.ErrAlignmentUnavailable},
		{"bad hierarchy", map[string]string{"leg.asf": strings.Replace(legASF, "lknee lfoot", "lknee ghost", 1)}, skeleton.ErrMalformedSkeleton},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			for k, v := range base {
				files[k] = v
			}
			for k, v := range tt.replace {
				files[k] = v
			}
			_, err := Load(legPaths(writeFiles(t, files)))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
