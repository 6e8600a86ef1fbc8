// Package scene holds the container document that fragments are attached to.
//
// A Container stands in for the editor blueprint: attaches go into a scratch
// copy, Persist writes the scratch copy to disk and DestroyScratch throws it
// away.
package scene

import (
	"fmt"

	"github.com/Faultbox/boulderkit/pkg/math"
)

// DefaultRoot is the root component name of a new document.
const DefaultRoot = "Root"

// Document is the persisted form of a container.
type Document struct {
	Name       string      `yaml:"name"`
	Root       string      `yaml:"root"`
	Components []Component `yaml:"components"`
}

// Component is one attached mesh instance.
type Component struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Parent    string       `yaml:"parent"`
	Fragment  int          `yaml:"fragment"`
	Mesh      string       `yaml:"mesh"`
	Location  math.Vec3    `yaml:"location,flow"`
	Rotation  math.Rotator `yaml:"rotation,flow"`
	Scale     math.Vec3    `yaml:"scale,flow"`
	Matrix    math.Mat4    `yaml:"matrix,flow"`
	Collision Collision    `yaml:"collision"`
	Materials []Material   `yaml:"materials,omitempty"`
}

// Collision holds the physics settings of a component.
type Collision struct {
	Profile               string `yaml:"profile"`
	GenerateOverlapEvents bool   `yaml:"generate_overlap_events"`
	GenerateHitEvents     bool   `yaml:"generate_hit_events"`
}

// Material is a per-slot material override.
type Material struct {
	Slot      string     `yaml:"slot"`
	BaseColor [4]float64 `yaml:"base_color,flow"`
	Roughness float64    `yaml:"roughness"`
	Metallic  float64    `yaml:"metallic"`
}

// MaterialSettings describe the overrides applied to every attached mesh.
type MaterialSettings struct {
	BaseColor        [4]float64
	Roughness        float64
	Metallic         float64
	Slots            int
	CollisionProfile string
}

// DefaultMaterial returns a grey rock material with physics collision.
func DefaultMaterial() MaterialSettings {
	return MaterialSettings{
		BaseColor:        [4]float64{0.38, 0.38, 0.38, 1.0},
		Roughness:        0.8,
		Metallic:         0.2,
		Slots:            1,
		CollisionProfile: "PhysicsActor",
	}
}

func (m MaterialSettings) materials() []Material {
	out := make([]Material, 0, m.Slots)
	for j := range m.Slots {
		out = append(out, Material{
			Slot:      fmt.Sprintf("Material_%d", j),
			BaseColor: m.BaseColor,
			Roughness: m.Roughness,
			Metallic:  m.Metallic,
		})
	}
	return out
}

// Instance is a request to attach a positioned mesh to the container.
type Instance struct {
	Name     string
	Fragment int
	Mesh     string
	// Parent names the component to attach under. Empty means the root.
	Parent   string
	Location math.Vec3
	Rotation math.Rotator
	Scale    math.Vec3
}

// Find returns the component with the given name.
func (d *Document) Find(name string) (*Component, bool) {
	for i := range d.Components {
		if d.Components[i].Name == name {
			return &d.Components[i], true
		}
	}
	return nil, false
}

func (d *Document) clone() *Document {
	c := *d
	c.Components = make([]Component, len(d.Components))
	for i, comp := range d.Components {
		comp.Materials = append([]Material(nil), comp.Materials...)
		c.Components[i] = comp
	}
	return &c
}
