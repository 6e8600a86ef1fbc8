package scene

import (
	"errors"
	"fmt"
	gomath "math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/boulderkit/pkg/math"
)

var (
	ErrNoScratch          = errors.New("no scratch instance")
	ErrScratchExists      = errors.New("scratch instance already exists")
	ErrDuplicateComponent = errors.New("component already exists")
	ErrUnknownParent      = errors.New("unknown parent component")
	ErrInvalidTransform   = errors.New("invalid transform")
)

// Container is a YAML-backed container document.
type Container struct {
	path     string
	doc      *Document
	scratch  *Document
	material MaterialSettings
	replace  bool
	log      *zap.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithMaterial sets the material overrides applied on attach.
func WithMaterial(m MaterialSettings) Option {
	return func(c *Container) { c.material = m }
}

// WithReplace lets Attach overwrite a component of the same name instead of
// failing.
func WithReplace(replace bool) Option {
	return func(c *Container) { c.replace = replace }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

// Open loads the document at path, or starts an empty one named after the
// file if it does not exist yet.
func Open(path string, opts ...Option) (*Container, error) {
	c := &Container{
		path:     path,
		material: DefaultMaterial(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		base := filepath.Base(path)
		c.doc = &Document{
			Name: strings.TrimSuffix(base, filepath.Ext(base)),
			Root: DefaultRoot,
		}
		c.log.Debug("starting new container", zap.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("reading container %s: %w", path, err)
	default:
		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing container %s: %w", path, err)
		}
		if doc.Root == "" {
			doc.Root = DefaultRoot
		}
		for i := range doc.Components {
			comp := &doc.Components[i]
			if staleMatrix(*comp) {
				c.log.Warn("component matrix does not match its transform, rebuilding",
					zap.String("name", comp.Name))
				comp.Matrix = componentMatrix(comp.Location, comp.Rotation, comp.Scale)
			}
		}
		c.doc = &doc
		c.log.Debug("loaded container",
			zap.String("path", path),
			zap.Int("components", len(doc.Components)))
	}

	return c, nil
}

// Path returns the file the container persists to.
func (c *Container) Path() string {
	return c.path
}

// Document returns a copy of the last persisted (or loaded) document.
func (c *Container) Document() Document {
	return *c.doc.clone()
}

// CreateScratch starts a working copy of the document.
func (c *Container) CreateScratch() error {
	if c.scratch != nil {
		return ErrScratchExists
	}
	c.scratch = c.doc.clone()
	c.log.Debug("scratch instance created", zap.String("container", c.doc.Name))
	return nil
}

// DestroyScratch discards the working copy. Destroying twice is an error.
func (c *Container) DestroyScratch() error {
	if c.scratch == nil {
		return ErrNoScratch
	}
	c.scratch = nil
	c.log.Debug("scratch instance destroyed", zap.String("container", c.doc.Name))
	return nil
}

// Attach adds a mesh component to the scratch instance and returns its id.
func (c *Container) Attach(inst Instance) (string, error) {
	if c.scratch == nil {
		return "", ErrNoScratch
	}
	if inst.Name == "" {
		return "", fmt.Errorf("%w: component has no name", ErrInvalidTransform)
	}
	if !inst.Location.IsFinite() || !inst.Scale.IsFinite() || !finiteRotator(inst.Rotation) {
		return "", fmt.Errorf("%w: %s", ErrInvalidTransform, inst.Name)
	}

	parent := inst.Parent
	if parent == "" {
		parent = c.scratch.Root
	}
	if parent != c.scratch.Root {
		if _, ok := c.scratch.Find(parent); !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownParent, parent)
		}
	}

	collision := Collision{
		Profile:               c.material.CollisionProfile,
		GenerateOverlapEvents: true,
		GenerateHitEvents:     true,
	}
	comp := Component{
		ID:        uuid.NewString(),
		Name:      inst.Name,
		Parent:    parent,
		Fragment:  inst.Fragment,
		Mesh:      inst.Mesh,
		Location:  inst.Location,
		Rotation:  inst.Rotation,
		Scale:     inst.Scale,
		Matrix:    componentMatrix(inst.Location, inst.Rotation, inst.Scale),
		Collision: collision,
		Materials: c.material.materials(),
	}

	if existing, ok := c.scratch.Find(inst.Name); ok {
		if !c.replace {
			return "", fmt.Errorf("%w: %s", ErrDuplicateComponent, inst.Name)
		}
		*existing = comp
	} else {
		c.scratch.Components = append(c.scratch.Components, comp)
	}

	c.log.Debug("component attached",
		zap.String("name", comp.Name),
		zap.String("id", comp.ID),
		zap.String("mesh", comp.Mesh))
	return comp.ID, nil
}

// Persist writes the scratch instance to disk. The file is replaced
// atomically.
func (c *Container) Persist() error {
	if c.scratch == nil {
		return ErrNoScratch
	}

	data, err := yaml.Marshal(c.scratch)
	if err != nil {
		return fmt.Errorf("encoding container: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating container directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".container-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing container: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing container: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replacing container %s: %w", c.path, err)
	}

	c.doc = c.scratch.clone()
	c.log.Info("container saved",
		zap.String("path", c.path),
		zap.Int("components", len(c.doc.Components)))
	return nil
}

func componentMatrix(location math.Vec3, rotation math.Rotator, scale math.Vec3) math.Mat4 {
	return math.Compose(location, rotation.Quat(), scale)
}

// matrixTolerance absorbs the rounding of a matrix written to YAML and read
// back.
const matrixTolerance = 1e-6

// staleMatrix reports whether the stored matrix no longer matches the
// location, rotation and X scale of the component, as after a hand edit.
func staleMatrix(comp Component) bool {
	if !comp.Matrix.Translation().ApproxEqual(comp.Location, matrixTolerance) {
		return true
	}
	forward := comp.Matrix.TransformDirection(math.Vec3{X: 1})
	if gomath.Abs(forward.Length()-gomath.Abs(comp.Scale.X)) > matrixTolerance {
		return true
	}
	return !forward.Normalize().ApproxEqual(comp.Rotation.Forward(), matrixTolerance)
}

func finiteRotator(r math.Rotator) bool {
	for _, v := range [3]float64{r.Roll, r.Pitch, r.Yaw} {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return false
		}
	}
	return true
}
