package assembly

import (
	"errors"
	"fmt"

	"github.com/Faultbox/boulderkit/pkg/layout"
)

// ErrPersist is returned when the container could not be saved.
var ErrPersist = errors.New("persisting container")

// FailureKind classifies a fragment that was not attached.
type FailureKind string

const (
	MissingAsset     FailureKind = "missing-asset"
	DegenerateNormal FailureKind = "degenerate-normal"
	AttachFailure    FailureKind = "attach-failure"
)

// FragmentFailure records why one fragment was skipped.
type FragmentFailure struct {
	Index int
	Kind  FailureKind
	Err   error
}

func (f FragmentFailure) Error() string {
	return fmt.Sprintf("fragment %d: %s: %v", f.Index, f.Kind, f.Err)
}

func (f FragmentFailure) Unwrap() error {
	return f.Err
}

// Report summarises a run.
type Report struct {
	Total             int
	Processed         int
	SkippedMissing    int
	SkippedDegenerate int
	SkippedAttach     int
	Persisted         bool
	Failures          []FragmentFailure
}

// SkippedOther counts fragments skipped for reasons other than a missing
// asset.
func (r Report) SkippedOther() int {
	return r.SkippedDegenerate + r.SkippedAttach
}

// Skipped counts every fragment that was not attached.
func (r Report) Skipped() int {
	return r.SkippedMissing + r.SkippedOther()
}

func (r *Report) record(index int, kind FailureKind, err error) {
	switch kind {
	case MissingAsset:
		r.SkippedMissing++
	case DegenerateNormal:
		r.SkippedDegenerate++
	case AttachFailure:
		r.SkippedAttach++
	}
	r.Failures = append(r.Failures, FragmentFailure{Index: index, Kind: kind, Err: err})
}

// classify maps a placement error to its failure kind.
func classify(err error) FailureKind {
	if errors.Is(err, layout.ErrDegenerateNormal) {
		return DegenerateNormal
	}
	return AttachFailure
}
