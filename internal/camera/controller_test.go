// SPDX-License-Identifier: MIT

package camera

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworld/simbridge/internal/cache"
	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/scene"
)

// staticAssets serves a fixed transform table.
type staticAssets map[string]ObjectTransform

func (a staticAssets) ObjectTransform(name string) (ObjectTransform, error) {
	tf, ok := a[name]
	if !ok {
		return ObjectTransform{}, errors.New("unknown object")
	}
	return tf, nil
}

func TestControllerDefaultPose(t *testing.T) {
	c := NewController(nil)
	pose := c.Pose()
	assert.Equal(t, cinematic.Vec3{10, 10, 6}, pose.Position)
	assert.Equal(t, cinematic.Vec3{0, 0, 0}, pose.Target)
	assert.Zero(t, c.AppliedFrames())
}

func TestControllerApplyTracksFrames(t *testing.T) {
	c := NewController(nil)
	c.Apply(cinematic.Vec3{1, 2, 3}, cinematic.Vec3{0, 0, 0})
	c.Apply(cinematic.Vec3{4, 5, 6}, cinematic.Vec3{1, 1, 1})

	pose := c.Pose()
	assert.Equal(t, cinematic.Vec3{4, 5, 6}, pose.Position)
	assert.Equal(t, cinematic.Vec3{1, 1, 1}, pose.Target)
	assert.Equal(t, uint64(2), c.AppliedFrames())
}

func TestFrameObjectDistanceScalesWithExtent(t *testing.T) {
	c := NewController(staticAssets{
		"crate": {Center: cinematic.Vec3{0, 0, 0}, Size: cinematic.Vec3{2, 4, 1}},
	})

	pose, err := c.FrameObject("crate", 0)
	require.NoError(t, err)
	// largest extent 4 at the default factor 2 puts the camera 8 units out
	assert.InDelta(t, 8, cinematic.Distance(pose.Position, pose.Target), 1e-9)
	assert.Equal(t, cinematic.Vec3{0, 0, 0}, pose.Target)
	assert.Equal(t, pose, c.Pose(), "framing applies the pose")
}

func TestFrameObjectMinimumDistance(t *testing.T) {
	c := NewController(staticAssets{
		"pebble": {Center: cinematic.Vec3{1, 1, 0}, Size: cinematic.Vec3{0.1, 0.1, 0.1}},
	})
	pose, err := c.FrameObject("pebble", 2)
	require.NoError(t, err)
	assert.InDelta(t, 1, cinematic.Distance(pose.Position, pose.Target), 1e-9)
}

func TestFrameObjectErrors(t *testing.T) {
	c := NewController(nil)
	_, err := c.FrameObject("anything", 2)
	require.Error(t, err)

	c = NewController(staticAssets{})
	_, err = c.FrameObject("ghost", 2)
	require.Error(t, err)
}

func TestOrbitPlacesCameraOnSphere(t *testing.T) {
	c := NewController(nil)
	center := cinematic.Vec3{5, 5, 0}

	pose := c.Orbit(center, 0, 0, 10)
	assert.InDelta(t, 15, pose.Position[0], 1e-9)
	assert.InDelta(t, 5, pose.Position[1], 1e-9)
	assert.Equal(t, center, pose.Target)

	pose = c.Orbit(center, 90, 30, 10)
	assert.InDelta(t, 10, cinematic.Distance(pose.Position, center), 1e-9)
	assert.InDelta(t, 5, pose.Position[2], 1e-9, "30 degree elevation lifts by distance/2")
}

func TestAssetCenter(t *testing.T) {
	c := NewController(staticAssets{
		"crate": {Center: cinematic.Vec3{1, 2, 3}, Size: cinematic.Vec3{1, 1, 1}},
	})
	center, err := c.AssetCenter("crate")
	require.NoError(t, err)
	assert.Equal(t, cinematic.Vec3{1, 2, 3}, center)

	_, err = c.AssetCenter("ghost")
	require.Error(t, err)
}

func TestSceneAssetsResolvesByPathIDAndName(t *testing.T) {
	st := scene.NewMemoryStore()
	require.NoError(t, st.AddElement(scene.Element{
		ID:       "e1",
		Name:     "crate",
		Path:     "/World/crate",
		Type:     "cube",
		Position: cinematic.Vec3{1, 2, 3},
		Scale:    cinematic.Vec3{2, 2, 2},
	}))
	assets := NewSceneAssets(st, nil)

	for _, key := range []string{"/World/crate", "e1", "crate"} {
		tf, err := assets.ObjectTransform(key)
		require.NoError(t, err, "lookup by %q", key)
		assert.Equal(t, cinematic.Vec3{1, 2, 3}, tf.Center)
		assert.Equal(t, cinematic.Vec3{2, 2, 2}, tf.Size)
	}

	_, err := assets.ObjectTransform("ghost")
	assert.ErrorIs(t, err, scene.ErrElementNotFound)
}

func TestSceneAssetsUsesCache(t *testing.T) {
	st := scene.NewMemoryStore()
	require.NoError(t, st.AddElement(scene.Element{
		ID:       "e1",
		Name:     "crate",
		Path:     "/World/crate",
		Position: cinematic.Vec3{1, 2, 3},
		Scale:    cinematic.Vec3{1, 1, 1},
	}))
	mem := cache.NewMemory(0)
	defer mem.Close()
	assets := NewSceneAssets(st, mem)

	tf, err := assets.ObjectTransform("crate")
	require.NoError(t, err)
	assert.Equal(t, int64(1), mem.Stats().Sets)

	// a second lookup is served from the cache even after the store changes
	require.NoError(t, st.RemoveElement("e1"))
	again, err := assets.ObjectTransform("crate")
	require.NoError(t, err)
	assert.Equal(t, tf, again)
	assert.Equal(t, int64(1), mem.Stats().Hits)
}
