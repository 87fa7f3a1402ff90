// Package source talks to upstream imagery services. One family is
// implemented (WMS); new upstream kinds add another Source
// implementation, not coordinator changes.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	// ErrUpstreamUnavailable marks transient network failures. The
	// client retries these with backoff before giving up.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUnsupportedProjection is returned when the requested SRS is
	// not in the source's supported set.
	ErrUnsupportedProjection = errors.New("projection not supported by source")
	// ErrNoFeatureInfo is returned for info queries against sources
	// that do not declare the featureinfo capability.
	ErrNoFeatureInfo = errors.New("source does not support feature info")
)

// UpstreamError is a non-success upstream response. Not retried;
// surfaced to the caller.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// Request describes one image fetch: geographic box, output pixel size,
// target SRS and raster format.
type Request struct {
	BBox   orb.Bound
	Width  int
	Height int
	SRS    string
	Format string
}

// InfoRequest is the feature-info variant: the image request plus the
// queried pixel position and desired info format.
type InfoRequest struct {
	Request
	I          int
	J          int
	InfoFormat string
}

type Source interface {
	Name() string
	// Fetch retrieves raster bytes for the request. Transient
	// failures are retried internally with bounded backoff.
	Fetch(ctx context.Context, req Request) ([]byte, error)
	// FetchInfo issues the info-query variant.
	FetchInfo(ctx context.Context, req InfoRequest) ([]byte, error)
	// ResolutionRange reports the resolutions this source is valid
	// for; requests outside it must not be routed here.
	ResolutionRange() ResRange
	SupportsFeatureInfo() bool
}

// ResRange is a source's valid resolution interval. Resolutions are
// ground distance per pixel, so Min is the coarsest (largest) bound and
// Max the finest (smallest). Zero values are unbounded.
type ResRange struct {
	Min float64
	Max float64
}

func (r ResRange) Validate() error {
	if r.Min > 0 && r.Max > 0 && r.Min < r.Max {
		return fmt.Errorf("min_res %g must be coarser (larger) than max_res %g", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether a resolution falls inside the range.
func (r ResRange) Contains(res float64) bool {
	if r.Min > 0 && res > r.Min {
		return false
	}
	if r.Max > 0 && res < r.Max {
		return false
	}
	return true
}
