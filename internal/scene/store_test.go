// SPDX-License-Identifier: MIT

package scene

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworld/simbridge/internal/cinematic"
)

// storeFactories returns one constructor per backend so every backend passes
// the same conformance suite.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			st, err := Open("sqlite", filepath.Join(t.TempDir(), "scene.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			return st
		},
	}
}

func testElement(id, path string, at time.Time) Element {
	return Element{
		ID:        id,
		Type:      "cube",
		Name:      "cube_" + id,
		Path:      path,
		Position:  cinematic.Vec3{1, 2, 3},
		Rotation:  cinematic.Vec3{0, 0, 90},
		Scale:     cinematic.Vec3{1, 1, 1},
		Color:     []float64{0.5, 0.5, 0.5},
		AssetPath: "",
		CreatedAt: at.UTC(),
	}
}

func TestStoreConformance(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			st := factory(t)
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			t.Run("add and get", func(t *testing.T) {
				el := testElement("e1", "/World/cube_e1", base)
				require.NoError(t, st.AddElement(el))

				got, err := st.GetElement("e1")
				require.NoError(t, err)
				if diff := cmp.Diff(el, got); diff != "" {
					t.Errorf("element mismatch (-want +got):\n%s", diff)
				}

				byPath, err := st.GetElementByPath("/World/cube_e1")
				require.NoError(t, err)
				assert.Equal(t, "e1", byPath.ID)

				_, err = st.GetElement("nope")
				assert.ErrorIs(t, err, ErrElementNotFound)
				_, err = st.GetElementByPath("/World/nope")
				assert.ErrorIs(t, err, ErrElementNotFound)
			})

			t.Run("update moves the path index", func(t *testing.T) {
				el := testElement("e2", "/World/old", base.Add(time.Second))
				require.NoError(t, st.AddElement(el))

				el.Path = "/World/new"
				el.Position = cinematic.Vec3{9, 9, 9}
				require.NoError(t, st.UpdateElement(el))

				got, err := st.GetElementByPath("/World/new")
				require.NoError(t, err)
				assert.Equal(t, cinematic.Vec3{9, 9, 9}, got.Position)
				_, err = st.GetElementByPath("/World/old")
				assert.ErrorIs(t, err, ErrElementNotFound)

				missing := testElement("ghost", "/World/ghost", base)
				assert.ErrorIs(t, st.UpdateElement(missing), ErrElementNotFound)
			})

			t.Run("list sorts by creation time", func(t *testing.T) {
				all, err := st.ListElements()
				require.NoError(t, err)
				require.Len(t, all, 2)
				assert.Equal(t, "e1", all[0].ID)
				assert.Equal(t, "e2", all[1].ID)
			})

			t.Run("remove", func(t *testing.T) {
				require.NoError(t, st.RemoveElement("e2"))
				assert.ErrorIs(t, st.RemoveElement("e2"), ErrElementNotFound)
				n, err := st.Count()
				require.NoError(t, err)
				assert.Equal(t, 1, n)
			})

			t.Run("remove by path prefix", func(t *testing.T) {
				require.NoError(t, st.AddElement(testElement("p1", "/World/group/a", base)))
				require.NoError(t, st.AddElement(testElement("p2", "/World/group/b", base)))
				require.NoError(t, st.AddElement(testElement("p3", "/World/other", base)))

				removed, err := st.RemoveByPathPrefix("/World/group")
				require.NoError(t, err)
				assert.Equal(t, 2, removed)
				_, err = st.GetElement("p3")
				assert.NoError(t, err)
			})

			t.Run("batches", func(t *testing.T) {
				require.NoError(t, st.AddElement(testElement("b1", "/World/batch/a", base)))
				require.NoError(t, st.AddElement(testElement("b2", "/World/batch/b", base)))
				require.NoError(t, st.AddBatch(Batch{
					ID:        "batch-1",
					Name:      "props",
					Elements:  []string{"b1", "b2"},
					CreatedAt: base,
				}))

				b, err := st.GetBatch("batch-1")
				require.NoError(t, err)
				assert.Equal(t, "props", b.Name)
				assert.Equal(t, []string{"b1", "b2"}, b.Elements)

				removed, err := st.RemoveBatch("batch-1")
				require.NoError(t, err)
				assert.Equal(t, 2, removed)
				_, err = st.GetBatch("batch-1")
				assert.ErrorIs(t, err, ErrBatchNotFound)
				_, err = st.GetElement("b1")
				assert.ErrorIs(t, err, ErrElementNotFound)

				_, err = st.RemoveBatch("batch-1")
				assert.ErrorIs(t, err, ErrBatchNotFound)
			})
		})
	}
}

func TestOpenBackendSelection(t *testing.T) {
	st, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	st, err = Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	_, err = Open("cassandra", "")
	assert.Error(t, err)
}
