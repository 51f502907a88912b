package spatialmath

import "github.com/go-gl/mathgl/mgl64"

// AffineMatrix returns the 4x4 homogeneous transform equivalent to the pose. The upper left 3x3 block is the
// rotation and the last column holds the translation, in the layout a renderer expects for a model matrix.
func AffineMatrix(p Pose) mgl64.Mat4 {
	q := normalizeQuat(p.Orientation().Quaternion())
	m := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Mat4()
	pt := p.Point()
	m.Set(0, 3, pt.X)
	m.Set(1, 3, pt.Y)
	m.Set(2, 3, pt.Z)
	return m
}
