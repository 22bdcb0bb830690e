// SPDX-License-Identifier: MIT

// Package scene stores the objects the scene-builder extension manages and
// answers spatial queries over them.
package scene

import (
	"time"

	"github.com/agentworld/simbridge/internal/cinematic"
)

// Element is one placed scene object. Position, rotation and scale follow the
// stage convention: Z-up, rotation in degrees [pitch, yaw, roll].
type Element struct {
	ID        string         `json:"element_id"`
	Type      string         `json:"element_type"`
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Position  cinematic.Vec3 `json:"position"`
	Rotation  cinematic.Vec3 `json:"rotation"`
	Scale     cinematic.Vec3 `json:"scale"`
	Color     []float64      `json:"color,omitempty"`
	AssetPath string         `json:"asset_path,omitempty"`
	BatchID   string         `json:"batch_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Bounds is an axis-aligned box around one or more elements.
type Bounds struct {
	Min    cinematic.Vec3 `json:"min"`
	Max    cinematic.Vec3 `json:"max"`
	Center cinematic.Vec3 `json:"center"`
	Size   cinematic.Vec3 `json:"size"`
}

// Batch groups elements created by one create_batch call.
type Batch struct {
	ID        string    `json:"batch_id"`
	Name      string    `json:"name,omitempty"`
	Elements  []string  `json:"element_ids"`
	CreatedAt time.Time `json:"created_at"`
}
