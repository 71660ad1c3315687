package asf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/motion"
	"mocap-retarget/internal/skeleton"
)

// LoadMotion reads an AMC file and converts it into a motion store for tree,
// which must have been built from s.
func LoadMotion(path string, s *Skeleton, tree *skeleton.Tree, scale float64) (*motion.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("amc: open %s: %w", path, err)
	}
	defer f.Close()

	frames, err := ParseAMC(f, s, tree, scale)
	if err != nil {
		return nil, fmt.Errorf("amc: %s: %w", path, err)
	}
	store, err := motion.NewStore(frames)
	if err != nil {
		return nil, fmt.Errorf("amc: %s: %w", path, err)
	}
	return store, nil
}

// ParseAMC reads AMC frames. Each frame starts from identity for joints without
// rotational DOF; joints with DOF that a frame does not mention are left out, so
// motion.Store.Validate reports them. Root translations are multiplied by scale.
func ParseAMC(r io.Reader, s *Skeleton, tree *skeleton.Tree, scale float64) ([]motion.Sample, error) {
	channels := make(map[string][]string, len(s.Bones))
	for _, b := range s.Bones {
		channels[b.Name] = b.Channels
	}
	var fixed []string
	for _, j := range tree.Joints() {
		if j.DOF == skeleton.DOFNone && !j.IsRoot() {
			fixed = append(fixed, j.Name)
		}
	}

	degrees := s.Units.Degrees
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		frames  []motion.Sample
		cur     motion.Sample
		started bool
		line    int
		outside int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.HasPrefix(text, ":") {
			switch strings.ToUpper(text) {
			case ":DEGREES":
				degrees = true
			case ":RADIANS":
				degrees = false
			}
			continue
		}

		f := strings.Fields(text)
		if len(f) == 1 {
			if _, err := strconv.Atoi(f[0]); err == nil {
				if started {
					frames = append(frames, cur)
				}
				cur = motion.NewSample(tree.Len())
				for _, name := range fixed {
					cur.Set(name, mathutil.Mat3Identity())
				}
				started = true
				continue
			}
		}
		if !started {
			return nil, fmt.Errorf("line %d: joint data before first frame number", line)
		}

		name := f[0]
		j, ok := tree.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("line %d: unknown joint %q", line, name)
		}
		chans := channels[name]
		if len(f)-1 != len(chans) {
			return nil, fmt.Errorf("line %d: joint %q has %d values, expected %d", line, name, len(f)-1, len(chans))
		}

		var deg, trans mathutil.Vec3
		for i, c := range chans {
			v, err := strconv.ParseFloat(f[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: joint %q: %v", line, name, err)
			}
			if a := rotationAxis(c); a >= 0 {
				deg[a] = v
			} else if a := translationAxis(c); a >= 0 {
				trans[a] = v * scale
			}
		}
		rad := deg
		if degrees {
			rad = mathutil.Vec3{mathutil.Deg2Rad(deg[0]), mathutil.Deg2Rad(deg[1]), mathutil.Deg2Rad(deg[2])}
		} else {
			deg = mathutil.Vec3{mathutil.Rad2Deg(rad[0]), mathutil.Rad2Deg(rad[1]), mathutil.Rad2Deg(rad[2])}
		}
		if !j.InLimits(deg) {
			outside++
		}
		cur.Set(name, j.LocalFromEuler(rad))
		if j.IsRoot() {
			cur.RootTranslation = trans
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if started {
		frames = append(frames, cur)
	}
	if outside > 0 {
		logging.Logger().Debug("amc: rotations outside ASF limits", "count", outside)
	}
	return frames, nil
}
