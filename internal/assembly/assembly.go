// Package assembly attaches laid-out fragments to a container.
//
// Run walks a fragment range strictly in index order: it looks up each mesh,
// places the fragment, attaches it, and finally persists the container once.
// Per-fragment problems are recorded in the Report and never stop the run.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/boulderkit/internal/assets"
	"github.com/Faultbox/boulderkit/internal/scene"
	"github.com/Faultbox/boulderkit/pkg/layout"
)

// DefaultNamePrefix names attached components: FragmentMesh_<index>.
const DefaultNamePrefix = "FragmentMesh_"

// progressEvery is how often (in attached components) progress is logged.
const progressEvery = 10

// Assets fetches the mesh for a global fragment index.
type Assets interface {
	Mesh(index int) (assets.Mesh, error)
}

// Backend creates components in the container. One implementation is chosen
// at startup.
type Backend interface {
	CreateScratch() error
	Attach(inst scene.Instance) (string, error)
	Persist() error
	DestroyScratch() error
}

// Options configure a Run.
type Options struct {
	Assets  Assets
	Backend Backend

	// Seed drives all random jitter. Runs with the same seed, request and
	// missing assets produce the same placements.
	Seed uint64

	// Workers > 1 precomputes placements in parallel with one random stream
	// per fragment. Attaching is always sequential.
	Workers int

	// NamePrefix is prepended to the global index to name components.
	NamePrefix string

	// Parent is the component fragments attach under; empty means root.
	Parent string

	Logger *zap.Logger
}

// Run lays out and attaches every fragment of req.
//
// The returned error is non-nil only for an invalid request, a backend that
// cannot create its scratch instance, cancellation, or a failed persist. In
// the last two cases the report still describes the work done.
func Run(ctx context.Context, req layout.Request, opts Options) (Report, error) {
	if err := req.Validate(); err != nil {
		return Report{}, err
	}
	if opts.Assets == nil || opts.Backend == nil {
		return Report{}, errors.New("assembly: assets and backend are required")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prefix := opts.NamePrefix
	if prefix == "" {
		prefix = DefaultNamePrefix
	}

	total := req.Total()
	report := Report{Total: total}
	log.Info("processing fragments",
		zap.Int("total", total),
		zap.Int("start", req.StartIndex),
		zap.Int("end", req.EndIndex))

	placements, err := newPlacer(ctx, req, opts)
	if err != nil {
		return report, err
	}

	if err := opts.Backend.CreateScratch(); err != nil {
		return report, fmt.Errorf("creating scratch instance: %w", err)
	}
	defer func() {
		if derr := opts.Backend.DestroyScratch(); derr != nil {
			log.Error("destroying scratch instance", zap.Error(derr))
		}
	}()

	for index := req.StartIndex; index <= req.EndIndex; index++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		mesh, err := opts.Assets.Mesh(index)
		if err != nil {
			log.Warn("mesh not found, skipping fragment", zap.Int("index", index), zap.Error(err))
			report.record(index, MissingAsset, err)
			continue
		}

		pl, err := placements.place(index - req.StartIndex)
		if err != nil {
			log.Warn("cannot place fragment", zap.Int("index", index), zap.Error(err))
			report.record(index, classify(err), err)
			continue
		}

		name := fmt.Sprintf("%s%d", prefix, index)
		id, err := opts.Backend.Attach(scene.Instance{
			Name:     name,
			Fragment: index,
			Mesh:     mesh.Path,
			Parent:   opts.Parent,
			Location: pl.Position,
			Rotation: pl.Rotation,
			Scale:    pl.Scale,
		})
		if err != nil {
			log.Error("attach failed", zap.String("name", name), zap.Error(err))
			report.record(index, AttachFailure, err)
			continue
		}

		report.Processed++
		log.Debug("fragment attached", zap.String("name", name), zap.String("id", id))
		if report.Processed%progressEvery == 0 {
			log.Info("progress", zap.Int("attached", report.Processed))
		}
	}

	log.Info("saving container", zap.Int("attached", report.Processed))
	if err := opts.Backend.Persist(); err != nil {
		log.Error("failed to save container", zap.Error(err))
		return report, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	report.Persisted = true

	if report.Processed == 0 {
		log.Error("no components were attached")
	} else {
		log.Info("assembly complete",
			zap.Int("attached", report.Processed),
			zap.Int("skipped_missing", report.SkippedMissing),
			zap.Int("skipped_other", report.SkippedOther()))
	}
	return report, nil
}

// placer hands out placements by local index, either computed on demand
// from one shared stream or looked up from a parallel plan.
type placer struct {
	total   int
	params  layout.Params
	rng     *rand.Rand
	planned []layout.Result
}

func newPlacer(ctx context.Context, req layout.Request, opts Options) (*placer, error) {
	p := &placer{total: req.Total(), params: req.Params()}
	if opts.Workers > 1 {
		planned, err := layout.PlanParallel(ctx, req, opts.Seed, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("planning layout: %w", err)
		}
		p.planned = planned
		return p, nil
	}
	p.rng = layout.NewSource(opts.Seed)
	return p, nil
}

func (p *placer) place(localIndex int) (layout.Placement, error) {
	if p.planned != nil {
		r := p.planned[localIndex]
		return r.Placement, r.Err
	}
	return layout.Compute(localIndex, p.total, p.params, p.rng)
}
