package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/marcjansen/mapproxy/internal/cache"
	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/internal/imaging"
	"github.com/marcjansen/mapproxy/internal/source"
)

// statusFor maps the core error taxonomy to HTTP statuses. Retryable
// upstream classes map to gateway statuses so clients can distinguish
// them from permanent configuration mismatches.
func statusFor(err error) int {
	var upstreamErr *source.UpstreamError

	switch {
	case errors.Is(err, cache.ErrUnknownLayer),
		errors.Is(err, cache.ErrUnknownGrid):
		return http.StatusNotFound
	case errors.Is(err, geo.ErrInvalidLevel),
		errors.Is(err, geo.ErrOutOfBounds),
		errors.Is(err, cache.ErrNoEligibleSource),
		errors.Is(err, imaging.ErrUnsupportedFormat),
		errors.Is(err, source.ErrUnsupportedProjection),
		errors.Is(err, source.ErrNoFeatureInfo):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrUpstreamUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
