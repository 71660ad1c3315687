package retarget

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/mathutil"
	"mocap-retarget/internal/skeleton"
)

// Alignment is the per-frame root transform for the target skeleton, in the same
// form as a pose sample's root entry: a local rotation and a root translation.
type Alignment struct {
	Rotation mathutil.Mat3
	Offset   mathutil.Vec3
}

// Calibration is the static source-to-target similarity transform fitted once
// from both rest poses: target ≈ Scale × Correction × source + Translation.
type Calibration struct {
	Correction  mathutil.Mat3
	Scale       float64
	Translation mathutil.Vec3

	// RMSError is the residual of the fit over the mapped pairs, in target units.
	RMSError float64
}

// Mapper turns the current source pose into a target root transform.
// It keeps no per-frame state: every call re-derives the alignment from the
// source tree's world transforms.
type Mapper struct {
	cal Calibration

	refIndex   int
	refName    string
	sourceLen  int
	targetLen  int
	refRestRot mathutil.Mat3

	// Precomputed from the rest poses, see ComputeAlignment.
	restCenter mathutil.Vec3 // reference joint mapped into target space at rest
	targetRoot mathutil.Vec3 // target root coordinate at rest
}

// Calibrate fits the static alignment between source and target from their rest
// poses. Neither tree is modified.
func Calibrate(source, target *skeleton.Tree, m Mapping) (*Mapper, error) {
	ref, ok := source.Lookup(m.Reference)
	if !ok {
		return nil, fmt.Errorf("retarget: reference joint %q not in source: %w",
			m.Reference, ErrAlignmentUnavailable)
	}
	if len(m.Pairs) < 3 {
		return nil, fmt.Errorf("retarget: %d joint pairs, need at least 3: %w",
			len(m.Pairs), ErrAlignmentUnavailable)
	}

	src := source.Clone()
	src.ResetPose()
	tgt := target.Clone()
	tgt.ResetPose()

	pre := mathutil.Mat3Identity()
	switch m.UpAxis {
	case "", "y", "Y":
	case "z", "Z":
		pre = mathutil.ZUpToYUp
	default:
		return nil, fmt.Errorf("retarget: unknown up axis %q: %w", m.UpAxis, ErrAlignmentUnavailable)
	}

	a := make([]mathutil.Vec3, len(m.Pairs))
	b := make([]mathutil.Vec3, len(m.Pairs))
	for i, p := range m.Pairs {
		sj, ok := src.Lookup(p.Source)
		if !ok {
			return nil, fmt.Errorf("retarget: pair joint %q not in source: %w", p.Source, ErrAlignmentUnavailable)
		}
		tj, ok := tgt.Lookup(p.Target)
		if !ok {
			return nil, fmt.Errorf("retarget: pair joint %q not in target: %w", p.Target, ErrAlignmentUnavailable)
		}
		a[i] = pre.MulVec3(sj.Coordinate)
		b[i] = tj.Coordinate
	}

	rot, scale, trans, rms, err := fitSimilarity(a, b, m.Scale)
	if err != nil {
		return nil, err
	}
	cal := Calibration{
		Correction:  mathutil.Mat3Mul(rot, pre),
		Scale:       scale,
		Translation: trans,
		RMSError:    rms,
	}

	refRest := src.Joint(ref.Index)
	mp := &Mapper{
		cal:        cal,
		refIndex:   ref.Index,
		refName:    ref.Name,
		sourceLen:  src.Len(),
		targetLen:  tgt.Len(),
		refRestRot: refRest.World,
		restCenter: cal.apply(refRest.Coordinate),
		targetRoot: tgt.Root().Coordinate,
	}

	logging.Logger().Debug("retarget: calibrated",
		"reference", ref.Name,
		"pairs", len(m.Pairs),
		"scale", scale,
		"correction_deg", mathutil.Rad2Deg(cal.Correction.RotationAngle()),
		"rms", rms,
	)
	return mp, nil
}

// Calibration returns the fitted static alignment.
func (mp *Mapper) Calibration() Calibration { return mp.cal }

// ComputeAlignment derives the target root transform from the source tree's
// current world state. With D the reference joint's rotation relative to rest,
// the target root rotation is R = C·D·Cᵀ and the offset places the target so that
// it coincides with the source mapped through the calibration.
func (mp *Mapper) ComputeAlignment(source *skeleton.Tree) (Alignment, error) {
	if source.Len() != mp.sourceLen || source.Joint(mp.refIndex).Name != mp.refName {
		return Alignment{}, fmt.Errorf("retarget: source tree does not match calibration (reference %q): %w",
			mp.refName, ErrAlignmentUnavailable)
	}
	ref := source.Joint(mp.refIndex)

	c := mp.cal.Correction
	delta := mathutil.Mat3Mul(ref.World, mp.refRestRot.Transpose())
	r := mathutil.Mat3Mul(mathutil.Mat3Mul(c, delta), c.Transpose())

	// Target joints rotate about the target root; shift so they rotate about the
	// mapped reference joint instead.
	lever := r.MulVec3(mp.targetRoot.Sub(mp.restCenter))
	offset := mp.cal.apply(ref.Coordinate).Add(lever).Sub(mp.targetRoot)

	return Alignment{Rotation: r, Offset: offset}, nil
}

// Apply computes the alignment from source and steers target's root with it.
func (mp *Mapper) Apply(source, target *skeleton.Tree) (Alignment, error) {
	if target.Len() != mp.targetLen {
		return Alignment{}, fmt.Errorf("retarget: target tree has %d joints, calibrated with %d: %w",
			target.Len(), mp.targetLen, ErrAlignmentUnavailable)
	}
	al, err := mp.ComputeAlignment(source)
	if err != nil {
		return Alignment{}, err
	}
	target.SetRoot(al.Rotation, al.Offset)
	return al, nil
}

func (c Calibration) apply(p mathutil.Vec3) mathutil.Vec3 {
	return c.Correction.MulVec3(p).Scale(c.Scale).Add(c.Translation)
}

// fitSimilarity finds the proper rotation R, scale s and translation t minimising
// Σ|s·R·aᵢ + t − bᵢ|² (Kabsch with an RMS-spread scale). A positive fixedScale
// replaces the fitted scale.
func fitSimilarity(a, b []mathutil.Vec3, fixedScale float64) (mathutil.Mat3, float64, mathutil.Vec3, float64, error) {
	n := float64(len(a))
	var ca, cb mathutil.Vec3
	for i := range a {
		ca = ca.Add(a[i])
		cb = cb.Add(b[i])
	}
	ca = ca.Scale(1 / n)
	cb = cb.Scale(1 / n)

	h := mat.NewDense(3, 3, nil)
	var spreadA, spreadB float64
	for i := range a {
		da := a[i].Sub(ca)
		db := b[i].Sub(cb)
		spreadA += da.Dot(da)
		spreadB += db.Dot(db)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+da[r]*db[c])
			}
		}
	}
	if spreadA < 1e-12 || spreadB < 1e-12 {
		return mathutil.Mat3{}, 0, mathutil.Vec3{}, 0,
			fmt.Errorf("retarget: mapped joints are coincident: %w", ErrAlignmentUnavailable)
	}

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return mathutil.Mat3{}, 0, mathutil.Vec3{}, 0,
			fmt.Errorf("retarget: SVD did not converge: %w", ErrAlignmentUnavailable)
	}
	vals := svd.Values(nil)
	if vals[1] < 1e-9*vals[0] {
		return mathutil.Mat3{}, 0, mathutil.Vec3{}, 0,
			fmt.Errorf("retarget: mapped joints are collinear: %w", ErrAlignmentUnavailable)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := 1.0
	if mat.Det(&vut) < 0 {
		d = -1
	}
	var rd mat.Dense
	rd.Product(&v, mat.NewDiagDense(3, []float64{1, 1, d}), u.T())

	var rot mathutil.Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rot[r*3+c] = rd.At(r, c)
		}
	}

	scale := math.Sqrt(spreadB / spreadA)
	if fixedScale > 0 {
		scale = fixedScale
	}
	trans := cb.Sub(rot.MulVec3(ca).Scale(scale))

	var sq float64
	for i := range a {
		e := rot.MulVec3(a[i]).Scale(scale).Add(trans).Sub(b[i])
		sq += e.Dot(e)
	}
	return rot, scale, trans, math.Sqrt(sq / n), nil
}
