package scene

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DryRun accepts attaches without writing anything.
type DryRun struct {
	attached []Instance
	scratch  bool
	persists int
	log      *zap.Logger
}

// NewDryRun creates a DryRun backend. A nil logger discards output.
func NewDryRun(l *zap.Logger) *DryRun {
	if l == nil {
		l = zap.NewNop()
	}
	return &DryRun{log: l}
}

func (d *DryRun) CreateScratch() error {
	if d.scratch {
		return ErrScratchExists
	}
	d.scratch = true
	d.attached = nil
	return nil
}

func (d *DryRun) DestroyScratch() error {
	if !d.scratch {
		return ErrNoScratch
	}
	d.scratch = false
	return nil
}

func (d *DryRun) Attach(inst Instance) (string, error) {
	if !d.scratch {
		return "", ErrNoScratch
	}
	d.attached = append(d.attached, inst)
	return uuid.NewString(), nil
}

func (d *DryRun) Persist() error {
	if !d.scratch {
		return ErrNoScratch
	}
	d.persists++
	d.log.Info("dry run: container not written", zap.Int("components", len(d.attached)))
	return nil
}

// Attached returns the instances attached since the last CreateScratch.
func (d *DryRun) Attached() []Instance {
	return d.attached
}

// Persists returns how many times Persist succeeded.
func (d *DryRun) Persists() int {
	return d.persists
}
