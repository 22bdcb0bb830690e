// SPDX-License-Identifier: MIT

package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworld/simbridge/internal/cinematic"
)

func queryStore(t *testing.T) Store {
	t.Helper()
	st := NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	elements := []Element{
		{ID: "c1", Type: "cube", Path: "/World/c1", Position: cinematic.Vec3{0, 0, 0}, CreatedAt: base},
		{ID: "c2", Type: "cube", Path: "/World/c2", Position: cinematic.Vec3{5, 0, 0}, CreatedAt: base.Add(time.Second)},
		{ID: "s1", Type: "sphere", Path: "/World/s1", Position: cinematic.Vec3{2, 2, 0}, CreatedAt: base.Add(2 * time.Second)},
		{ID: "s2", Type: "sphere", Path: "/World/s2", Position: cinematic.Vec3{50, 50, 50}, CreatedAt: base.Add(3 * time.Second)},
	}
	for _, el := range elements {
		require.NoError(t, st.AddElement(el))
	}
	return st
}

func TestObjectsByType(t *testing.T) {
	st := queryStore(t)

	cubes, err := ObjectsByType(st, "cube")
	require.NoError(t, err)
	assert.Len(t, cubes, 2)

	none, err := ObjectsByType(st, "cone")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestObjectsInBounds(t *testing.T) {
	st := queryStore(t)

	in, err := ObjectsInBounds(st, cinematic.Vec3{-1, -1, -1}, cinematic.Vec3{6, 6, 1})
	require.NoError(t, err)
	ids := make([]string, 0, len(in))
	for _, el := range in {
		ids = append(ids, el.ID)
	}
	assert.ElementsMatch(t, []string{"c1", "c2", "s1"}, ids)

	// bounds are inclusive
	exact, err := ObjectsInBounds(st, cinematic.Vec3{5, 0, 0}, cinematic.Vec3{5, 0, 0})
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "c2", exact[0].ID)
}

func TestObjectsNearPointSortedByDistance(t *testing.T) {
	st := queryStore(t)

	near, err := ObjectsNearPoint(st, cinematic.Vec3{0, 0, 0}, 6)
	require.NoError(t, err)
	require.Len(t, near, 3)
	assert.Equal(t, "c1", near[0].Element.ID)
	assert.InDelta(t, 0, near[0].Distance, 1e-9)
	for i := 1; i < len(near); i++ {
		assert.GreaterOrEqual(t, near[i].Distance, near[i-1].Distance)
	}
}

func TestCalculateBounds(t *testing.T) {
	elements := []Element{
		{ID: "a", Position: cinematic.Vec3{0, 0, 0}, Scale: cinematic.Vec3{1, 1, 1}},
		{ID: "b", Position: cinematic.Vec3{10, 0, 0}, Scale: cinematic.Vec3{2, 1, 1}},
	}
	b, err := CalculateBounds(elements)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, b.Min[0], 1e-9)
	assert.InDelta(t, 11, b.Max[0], 1e-9)
	assert.InDelta(t, 5.25, b.Center[0], 1e-9)
	assert.InDelta(t, 11.5, b.Size[0], 1e-9)

	_, err = CalculateBounds(nil)
	assert.Error(t, err)
}

func TestFindGroundLevel(t *testing.T) {
	assert.Zero(t, FindGroundLevel(nil), "empty scene grounds at zero")

	elements := []Element{
		{ID: "a", Position: cinematic.Vec3{0, 0, 2}, Scale: cinematic.Vec3{1, 1, 1}},
		{ID: "b", Position: cinematic.Vec3{0, 0, 5}, Scale: cinematic.Vec3{1, 1, 4}},
	}
	// b's bottom: 5 - 0.5*4 = 3; a's bottom: 2 - 0.5 = 1.5
	assert.InDelta(t, 1.5, FindGroundLevel(elements), 1e-9)
}

func TestParseAxis(t *testing.T) {
	for in, want := range map[string]Axis{"x": AxisX, "Y": AxisY, "z": AxisZ} {
		got, err := ParseAxis(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAxis("w")
	assert.Error(t, err)
}

func TestAlignObjects(t *testing.T) {
	st := queryStore(t)
	elements, err := ObjectsByType(st, "cube")
	require.NoError(t, err)

	mean, err := AlignObjects(st, elements, AxisX)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, mean, 1e-9)

	for _, id := range []string{"c1", "c2"} {
		el, err := st.GetElement(id)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, el.Position[0], 1e-9)
	}

	_, err = AlignObjects(st, nil, AxisX)
	assert.Error(t, err)
}
