package asf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/skeleton"
)

// RootName is the fixed name of the ASF root segment.
const RootName = "root"

// Units holds the :units section. Length is the ASF length multiplier
// (CMU files use 0.45); Degrees is false when angles are in radians.
type Units struct {
	Mass    float64
	Length  float64
	Degrees bool
}

// Bone is one parsed ASF segment. Channels lists the AMC value order,
// e.g. ["rx", "ry", "rz"] or for the root ["tx", "ty", "tz", "rx", "ry", "rz"].
type Bone struct {
	ID        int
	Name      string
	Parent    string
	Direction mathutil.Vec3
	Length    float64
	Axis      mathutil.Vec3 // degrees or radians, per Units
	AxisOrder string
	Channels  []string
	Limits    []skeleton.Limit
}

// Skeleton is a parsed ASF file.
type Skeleton struct {
	Name  string
	Units Units
	Bones []Bone // root first, then :bonedata order
}

// Load reads and parses an ASF file.
func Load(path string) (*Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asf: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("asf: %s: %w", path, err)
	}
	return s, nil
}

// Parse reads an ASF skeleton.
func Parse(r io.Reader) (*Skeleton, error) {
	p := &parser{
		sc: bufio.NewScanner(r),
		s: &Skeleton{
			Units: Units{Mass: 1, Length: 1, Degrees: true},
			Bones: []Bone{{Name: RootName, AxisOrder: "XYZ", Channels: []string{"tx", "ty", "tz", "rx", "ry", "rz"}}},
		},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.s, nil
}

type parser struct {
	sc      *bufio.Scanner
	line    int
	s       *Skeleton
	pending []string // pushed-back line
}

func (p *parser) next() ([]string, bool) {
	if p.pending != nil {
		f := p.pending
		p.pending = nil
		return f, true
	}
	for p.sc.Scan() {
		p.line++
		text := strings.TrimSpace(p.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		return strings.Fields(text), true
	}
	return nil, false
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: "+format, append([]any{p.line}, args...)...)
}

func (p *parser) parse() error {
	for {
		f, ok := p.next()
		if !ok {
			break
		}
		if !strings.HasPrefix(f[0], ":") {
			continue // body of a section we skip (e.g. :documentation)
		}
		var err error
		switch f[0] {
		case ":name":
			if len(f) > 1 {
				p.s.Name = f[1]
			}
		case ":units":
			err = p.parseUnits()
		case ":root":
			err = p.parseRoot()
		case ":bonedata":
			err = p.parseBoneData()
		case ":hierarchy":
			err = p.parseHierarchy()
		}
		if err != nil {
			return err
		}
	}
	if err := p.sc.Err(); err != nil {
		return err
	}
	for _, b := range p.s.Bones[1:] {
		if b.Parent == "" {
			return fmt.Errorf("bone %q missing from :hierarchy: %w", b.Name, skeleton.ErrMalformedSkeleton)
		}
	}
	return nil
}

func (p *parser) parseUnits() error {
	for {
		f, ok := p.next()
		if !ok {
			return nil
		}
		if strings.HasPrefix(f[0], ":") {
			p.pending = f
			return nil
		}
		if len(f) < 2 {
			continue
		}
		switch f[0] {
		case "mass":
			v, err := strconv.ParseFloat(f[1], 64)
			if err != nil {
				return p.errorf("mass: %v", err)
			}
			p.s.Units.Mass = v
		case "length":
			v, err := strconv.ParseFloat(f[1], 64)
			if err != nil {
				return p.errorf("length: %v", err)
			}
			p.s.Units.Length = v
		case "angle":
			p.s.Units.Degrees = !strings.HasPrefix(strings.ToLower(f[1]), "rad")
		}
	}
}

func (p *parser) parseRoot() error {
	root := &p.s.Bones[0]
	for {
		f, ok := p.next()
		if !ok {
			return nil
		}
		if strings.HasPrefix(f[0], ":") {
			p.pending = f
			return nil
		}
		switch f[0] {
		case "order":
			root.Channels = root.Channels[:0]
			for _, c := range f[1:] {
				root.Channels = append(root.Channels, strings.ToLower(c))
			}
		case "axis":
			if len(f) > 1 {
				root.AxisOrder = strings.ToUpper(f[1])
			}
		case "position":
			v, err := p.vec3(f[1:])
			if err != nil {
				return err
			}
			root.Direction = v.Normalize()
			root.Length = v.Len()
		case "orientation":
			v, err := p.vec3(f[1:])
			if err != nil {
				return err
			}
			root.Axis = v
		}
	}
}

func (p *parser) parseBoneData() error {
	for {
		f, ok := p.next()
		if !ok {
			return nil
		}
		if strings.HasPrefix(f[0], ":") {
			p.pending = f
			return nil
		}
		if f[0] != "begin" {
			return p.errorf("expected begin, got %q", f[0])
		}
		b, err := p.parseBone()
		if err != nil {
			return err
		}
		p.s.Bones = append(p.s.Bones, b)
	}
}

func (p *parser) parseBone() (Bone, error) {
	b := Bone{AxisOrder: "XYZ"}
	inLimits := false
	for {
		f, ok := p.next()
		if !ok {
			return b, p.errorf("unterminated bone %q", b.Name)
		}
		if f[0] == "end" {
			if b.Name == "" {
				return b, p.errorf("bone without name")
			}
			if len(b.Limits) > 0 && len(b.Limits) != len(b.Channels) {
				return b, p.errorf("bone %q: %d limits for %d dof", b.Name, len(b.Limits), len(b.Channels))
			}
			return b, nil
		}
		if inLimits && strings.HasPrefix(f[0], "(") {
			lm, err := p.limit(f)
			if err != nil {
				return b, err
			}
			b.Limits = append(b.Limits, lm)
			continue
		}
		inLimits = false

		switch f[0] {
		case "id":
			if len(f) > 1 {
				b.ID, _ = strconv.Atoi(f[1])
			}
		case "name":
			if len(f) < 2 {
				return b, p.errorf("name without value")
			}
			b.Name = f[1]
		case "direction":
			v, err := p.vec3(f[1:])
			if err != nil {
				return b, err
			}
			b.Direction = v
		case "length":
			if len(f) < 2 {
				return b, p.errorf("length without value")
			}
			v, err := strconv.ParseFloat(f[1], 64)
			if err != nil {
				return b, p.errorf("length: %v", err)
			}
			b.Length = v
		case "axis":
			v, err := p.vec3(f[1:])
			if err != nil {
				return b, err
			}
			b.Axis = v
			if len(f) > 4 {
				b.AxisOrder = strings.ToUpper(f[4])
			}
		case "dof":
			for _, c := range f[1:] {
				b.Channels = append(b.Channels, strings.ToLower(c))
			}
		case "limits":
			inLimits = true
			lm, err := p.limit(f[1:])
			if err != nil {
				return b, err
			}
			b.Limits = append(b.Limits, lm)
		}
	}
}

func (p *parser) parseHierarchy() error {
	index := make(map[string]int, len(p.s.Bones))
	for i, b := range p.s.Bones {
		index[b.Name] = i
	}
	for {
		f, ok := p.next()
		if !ok {
			return nil
		}
		switch f[0] {
		case "begin":
			continue
		case "end":
			return nil
		}
		if strings.HasPrefix(f[0], ":") {
			p.pending = f
			return nil
		}
		parent := f[0]
		if _, ok := index[parent]; !ok {
			return p.errorf("hierarchy: unknown bone %q: %w", parent, skeleton.ErrMalformedSkeleton)
		}
		for _, child := range f[1:] {
			ci, ok := index[child]
			if !ok {
				return p.errorf("hierarchy: unknown bone %q: %w", child, skeleton.ErrMalformedSkeleton)
			}
			if p.s.Bones[ci].Parent != "" {
				return p.errorf("hierarchy: bone %q has two parents: %w", child, skeleton.ErrMalformedSkeleton)
			}
			p.s.Bones[ci].Parent = parent
		}
	}
}

func (p *parser) vec3(f []string) (mathutil.Vec3, error) {
	var v mathutil.Vec3
	if len(f) < 3 {
		return v, p.errorf("expected 3 values, got %d", len(f))
	}
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return v, p.errorf("%v", err)
		}
		v[i] = x
	}
	return v, nil
}

// limit parses "(-160.0 , 20.0)" split into any number of fields.
func (p *parser) limit(f []string) (skeleton.Limit, error) {
	s := strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(strings.Join(f, " "))
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return skeleton.Limit{}, p.errorf("bad limit %q", strings.Join(f, " "))
	}
	var lm skeleton.Limit
	for i, s := range parts {
		v, err := parseLimitValue(s)
		if err != nil {
			return lm, p.errorf("limit: %v", err)
		}
		lm[i] = v
	}
	return lm, nil
}

func parseLimitValue(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "-inf":
		return -1e9, nil
	case "inf", "+inf":
		return 1e9, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Definitions converts the skeleton into joint records for skeleton.Build with the
// BoneEnd convention. scale multiplies every bone length and the root position.
func (s *Skeleton) Definitions(scale float64) []skeleton.Definition {
	defs := make([]skeleton.Definition, 0, len(s.Bones))
	for _, b := range s.Bones {
		axis := b.Axis
		if s.Units.Degrees {
			axis = mathutil.Vec3{mathutil.Deg2Rad(axis[0]), mathutil.Deg2Rad(axis[1]), mathutil.Deg2Rad(axis[2])}
		}
		d := skeleton.Definition{
			Name:   b.Name,
			Parent: b.Parent,
			Offset: b.Direction.Normalize().Scale(b.Length * scale),
			Axis:   mathutil.EulerOrder(b.AxisOrder, axis),
		}
		li := 0
		for _, c := range b.Channels {
			a := rotationAxis(c)
			if a < 0 {
				li++
				continue
			}
			d.DOF |= 1 << a
			if li < len(b.Limits) {
				d.Limits[a] = b.Limits[li]
			}
			li++
		}
		defs = append(defs, d)
	}
	return defs
}

// Build turns the skeleton into a BoneEnd tree.
func (s *Skeleton) Build(scale float64) (*skeleton.Tree, error) {
	t, err := skeleton.Build(s.Definitions(scale), skeleton.BoneEnd)
	if err != nil {
		return nil, fmt.Errorf("asf: %w", err)
	}
	return t, nil
}

// Bone returns the bone with the given name.
func (s *Skeleton) Bone(name string) (*Bone, bool) {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return &s.Bones[i], true
		}
	}
	return nil, false
}

// rotationAxis maps "rx"/"ry"/"rz" to 0/1/2 and anything else to -1.
func rotationAxis(channel string) int {
	switch channel {
	case "rx":
		return 0
	case "ry":
		return 1
	case "rz":
		return 2
	}
	return -1
}

// translationAxis maps "tx"/"ty"/"tz" to 0/1/2 and anything else to -1.
func translationAxis(channel string) int {
	switch channel {
	case "tx":
		return 0
	case "ty":
		return 1
	case "tz":
		return 2
	}
	return -1
}
