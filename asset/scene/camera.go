package scene

import (
	"math"

	"github.com/achilleasa/spheretrace/types"
)

// Size of the encoded camera record.
const CameraRecordSize = 64

// Pitch is clamped so the view direction never becomes parallel to Up.
const maxPitch = 0.49 * math.Pi

// A pinhole camera looking at a target point.
//
// Encoded layout (std140):
//
//	 0 vec3 position     12 f32 vertical fov (degrees)
//	16 vec3 look at      28 f32 aspect ratio
//	32 vec3 up
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Viewport width / height.
	Aspect float32
}

// Create a camera with a 45 degree fov and +Y as the up vector.
func NewCamera(position, lookAt types.Vec3) *Camera {
	return &Camera{
		Position: position,
		LookAt:   lookAt,
		Up:       types.Vec3{0, 1, 0},
		FOV:      45,
		Aspect:   1,
	}
}

// Rotate the camera position around the look at point. Yaw rotates around
// the up vector and pitch around the camera right vector; both are in radians.
func (c *Camera) Orbit(yaw, pitch float32) {
	up := c.Up.Normalize()
	offset := c.Position.Sub(c.LookAt)
	dist := offset.Len()
	if dist == 0 {
		return
	}

	// Clamp pitch so we never flip over the poles
	cur := float32(math.Asin(float64(offset.Normalize().Dot(up))))
	if cur+pitch > maxPitch {
		pitch = maxPitch - cur
	} else if cur+pitch < -maxPitch {
		pitch = -maxPitch - cur
	}

	right := up.Cross(offset).Normalize()
	rot := types.QuatFromAxisAngle(up, yaw).Mul(types.QuatFromAxisAngle(right, -pitch))
	c.Position = c.LookAt.Add(rot.Rotate(offset))
}

// Move the camera towards (positive delta) or away from the look at point.
// The camera never moves past the look at point.
func (c *Camera) Dolly(delta float32) {
	offset := c.Position.Sub(c.LookAt)
	dist := offset.Len()
	if dist == 0 {
		return
	}
	newDist := dist - delta
	if newDist < 1e-3 {
		newDist = 1e-3
	}
	c.Position = c.LookAt.Add(offset.Mul(newDist / dist))
}

// Write the camera record into buf which must hold at least CameraRecordSize bytes.
func (c *Camera) Encode(buf []byte) {
	clear(buf[:CameraRecordSize])
	putVec3(buf, 0, c.Position)
	putFloat32(buf, 12, c.FOV)
	putVec3(buf, 16, c.LookAt)
	putFloat32(buf, 28, c.Aspect)
	putVec3(buf, 32, c.Up)
}
