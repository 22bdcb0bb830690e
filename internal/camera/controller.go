// SPDX-License-Identifier: MIT

// Package camera owns the viewport camera pose. All writes happen on the main
// domain; reads take a snapshot under the lock.
package camera

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/log"
)

// DefaultFrameFactor scales an object's largest extent into a framing
// distance.
const DefaultFrameFactor = 2.0

const minFrameDistance = 1.0

// ObjectTransform is what the controller needs to know about a scene object.
type ObjectTransform struct {
	Center cinematic.Vec3
	Size   cinematic.Vec3
}

// AssetSource resolves scene objects for framing and orbit shots.
type AssetSource interface {
	ObjectTransform(name string) (ObjectTransform, error)
}

// Pose is the camera position and look-at target.
type Pose struct {
	Position cinematic.Vec3 `json:"position"`
	Target   cinematic.Vec3 `json:"target"`
}

// Controller tracks the current pose and applies cinematic keyframes.
type Controller struct {
	mu      sync.Mutex
	pose    Pose
	applied uint64
	assets  AssetSource
	lg      zerolog.Logger
}

func NewController(assets AssetSource) *Controller {
	return &Controller{
		pose: Pose{
			Position: cinematic.Vec3{10, 10, 6},
			Target:   cinematic.Vec3{0, 0, 0},
		},
		assets: assets,
		lg:     log.WithComponent("camera"),
	}
}

// Apply sets the pose from a cinematic keyframe. Matches cinematic.ApplyFunc.
func (c *Controller) Apply(position, target cinematic.Vec3) {
	c.mu.Lock()
	c.pose = Pose{Position: position, Target: target}
	c.applied++
	c.mu.Unlock()
}

// SetPose sets the pose directly.
func (c *Controller) SetPose(position, target cinematic.Vec3) {
	c.Apply(position, target)
}

// Pose returns the current pose.
func (c *Controller) Pose() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// AppliedFrames counts keyframe applications since start.
func (c *Controller) AppliedFrames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}

// FrameObject positions the camera to frame a named object: distance scales
// with the object's largest extent, viewed from an elevated three-quarter
// angle.
func (c *Controller) FrameObject(name string, factor float64) (Pose, error) {
	if c.assets == nil {
		return Pose{}, fmt.Errorf("no asset source configured")
	}
	tf, err := c.assets.ObjectTransform(name)
	if err != nil {
		return Pose{}, fmt.Errorf("frame object %q: %w", name, err)
	}
	if factor <= 0 {
		factor = DefaultFrameFactor
	}

	extent := math.Max(tf.Size[0], math.Max(tf.Size[1], tf.Size[2]))
	distance := extent * factor
	if distance < minFrameDistance {
		distance = minFrameDistance
	}

	dir := cinematic.Vec3{1, 1, 0.6}.Normalized()
	pose := Pose{
		Position: tf.Center.Add(dir.Scale(distance)),
		Target:   tf.Center,
	}
	c.Apply(pose.Position, pose.Target)
	c.lg.Debug().Str("object", name).Float64("distance", distance).Msg("framed object")
	return pose, nil
}

// Orbit places the camera at a spherical offset around a center and looks at
// it. Azimuth and elevation are degrees, Z-up.
func (c *Controller) Orbit(center cinematic.Vec3, azimuthDeg, elevationDeg, distance float64) Pose {
	az := azimuthDeg * math.Pi / 180
	el := elevationDeg * math.Pi / 180
	pose := Pose{
		Position: cinematic.Vec3{
			center[0] + distance*math.Cos(el)*math.Cos(az),
			center[1] + distance*math.Cos(el)*math.Sin(az),
			center[2] + distance*math.Sin(el),
		},
		Target: center,
	}
	c.Apply(pose.Position, pose.Target)
	return pose
}

// AssetCenter adapts the asset source for cinematic orbit generation.
func (c *Controller) AssetCenter(name string) (cinematic.Vec3, error) {
	if c.assets == nil {
		return cinematic.Vec3{}, fmt.Errorf("no asset source configured")
	}
	tf, err := c.assets.ObjectTransform(name)
	if err != nil {
		return cinematic.Vec3{}, err
	}
	return tf.Center, nil
}
