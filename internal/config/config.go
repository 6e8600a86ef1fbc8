// Package config handles boulder configuration loading and management.
package config

import (
	"github.com/Faultbox/boulderkit/internal/assets"
	"github.com/Faultbox/boulderkit/internal/scene"
	"github.com/Faultbox/boulderkit/pkg/layout"
	"github.com/Faultbox/boulderkit/pkg/math"
)

// Config holds all settings.
type Config struct {
	Layout    LayoutConfig    `yaml:"layout"`
	Assets    AssetsConfig    `yaml:"assets"`
	Container ContainerConfig `yaml:"container"`
	Material  MaterialConfig  `yaml:"material"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LayoutConfig holds the fragment range and boulder shape.
type LayoutConfig struct {
	StartIndex int       `yaml:"start_index"`
	EndIndex   int       `yaml:"end_index"` // inclusive
	Center     math.Vec3 `yaml:"center,flow"`
	BaseRadius float64   `yaml:"base_radius"`
	Scale      float64   `yaml:"scale"`
	GapSize    float64   `yaml:"gap_size"`
	Seed       uint64    `yaml:"seed"`
	Workers    int       `yaml:"workers"`
}

// AssetsConfig holds where fragment meshes are found.
type AssetsConfig struct {
	Roots       []string `yaml:"roots"` // later roots take priority
	NamePattern string   `yaml:"name_pattern"`
	Extensions  []string `yaml:"extensions"`
}

// ContainerConfig holds the output container settings.
type ContainerConfig struct {
	Path            string `yaml:"path"`
	Backend         string `yaml:"backend"` // document or dry-run
	ComponentPrefix string `yaml:"component_prefix"`
	Parent          string `yaml:"parent"`
	Replace         bool   `yaml:"replace"`
}

// MaterialConfig holds material overrides applied to each fragment.
type MaterialConfig struct {
	BaseColor        [4]float64 `yaml:"base_color,flow"`
	Roughness        float64    `yaml:"roughness"`
	Metallic         float64    `yaml:"metallic"`
	Slots            int        `yaml:"slots"`
	CollisionProfile string     `yaml:"collision_profile"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Backend names.
const (
	BackendDocument = "document"
	BackendDryRun   = "dry-run"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	mat := scene.DefaultMaterial()
	return &Config{
		Layout: LayoutConfig{
			StartIndex: 121,
			EndIndex:   387,
			Center:     math.Vec3{},
			BaseRadius: 100,
			Scale:      0.25,
			GapSize:    0.5,
			Seed:       1,
			Workers:    1,
		},
		Assets: AssetsConfig{
			Roots:       []string{"Content/BlankDefault"},
			NamePattern: assets.DefaultPattern,
			Extensions:  append([]string(nil), assets.DefaultExtensions...),
		},
		Container: ContainerConfig{
			Path:            "BP_ExplodedGeometry.yaml",
			Backend:         BackendDocument,
			ComponentPrefix: "FragmentMesh_",
			Replace:         true,
		},
		Material: MaterialConfig{
			BaseColor:        mat.BaseColor,
			Roughness:        mat.Roughness,
			Metallic:         mat.Metallic,
			Slots:            mat.Slots,
			CollisionProfile: mat.CollisionProfile,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Request returns the layout request described by the config.
func (l LayoutConfig) Request() layout.Request {
	return layout.Request{
		StartIndex: l.StartIndex,
		EndIndex:   l.EndIndex,
		Center:     l.Center,
		BaseRadius: l.BaseRadius,
		Scale:      l.Scale,
		GapSize:    l.GapSize,
	}
}

// Settings returns the scene material settings.
func (m MaterialConfig) Settings() scene.MaterialSettings {
	return scene.MaterialSettings{
		BaseColor:        m.BaseColor,
		Roughness:        m.Roughness,
		Metallic:         m.Metallic,
		Slots:            m.Slots,
		CollisionProfile: m.CollisionProfile,
	}
}
