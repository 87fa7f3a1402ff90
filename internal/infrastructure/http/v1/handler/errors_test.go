package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcjansen/mapproxy/internal/cache"
	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/internal/imaging"
	"github.com/marcjansen/mapproxy/internal/source"
)

func TestStatusForErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown layer", cache.ErrUnknownLayer, http.StatusNotFound},
		{"unknown grid", fmt.Errorf("lookup: %w", cache.ErrUnknownGrid), http.StatusNotFound},
		{"invalid level", geo.ErrInvalidLevel, http.StatusBadRequest},
		{"out of bounds", geo.ErrOutOfBounds, http.StatusBadRequest},
		{"no eligible source", cache.ErrNoEligibleSource, http.StatusBadRequest},
		{"unsupported format", imaging.ErrUnsupportedFormat, http.StatusBadRequest},
		{"unsupported projection", source.ErrUnsupportedProjection, http.StatusBadRequest},
		{"no feature info", source.ErrNoFeatureInfo, http.StatusBadRequest},
		{"upstream unavailable", fmt.Errorf("%w: refused", source.ErrUpstreamUnavailable), http.StatusGatewayTimeout},
		{"upstream error", &source.UpstreamError{Status: 500}, http.StatusBadGateway},
		{"wrapped upstream error", fmt.Errorf("fetch: %w", &source.UpstreamError{Status: 400}), http.StatusBadGateway},
		{"geometry mismatch", imaging.ErrGeometryMismatch, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}
