package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/marcjansen/mapproxy/pkg/logger"
	"github.com/marcjansen/mapproxy/pkg/metrics"
)

const userAgent = "mapproxy/1.0"

type WMSConfig struct {
	Name          string
	URL           string
	Layers        []string
	Version       string
	FeatureInfo   bool
	SupportedSRS  []string
	Range         ResRange
	Timeout       time.Duration
	RetryAttempts uint64
	RetryBackoff  time.Duration
}

// WMS issues GetMap and GetFeatureInfo requests against one endpoint.
// Stateless per call; safe for concurrent use.
type WMS struct {
	name          string
	endpoint      string
	layers        []string
	version       string
	featureInfo   bool
	supportedSRS  map[string]struct{}
	resRange      ResRange
	client        *http.Client
	retryAttempts uint64
	retryBackoff  time.Duration
	logger        logger.Logger
}

var _ Source = (*WMS)(nil)

func NewWMS(cfg WMSConfig, l logger.Logger) (*WMS, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("source %s: endpoint url is required", cfg.Name)
	}
	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("source %s: at least one layer is required", cfg.Name)
	}
	if err := cfg.Range.Validate(); err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
	}

	version := cfg.Version
	if version == "" {
		version = "1.1.1"
	}
	if version != "1.1.1" && version != "1.3.0" {
		return nil, fmt.Errorf("source %s: unsupported wms version %s", cfg.Name, version)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff == 0 {
		backoff = 250 * time.Millisecond
	}

	var srs map[string]struct{}
	if len(cfg.SupportedSRS) > 0 {
		srs = make(map[string]struct{}, len(cfg.SupportedSRS))
		for _, s := range cfg.SupportedSRS {
			srs[strings.ToUpper(s)] = struct{}{}
		}
	}

	return &WMS{
		name:          cfg.Name,
		endpoint:      cfg.URL,
		layers:        cfg.Layers,
		version:       version,
		featureInfo:   cfg.FeatureInfo,
		supportedSRS:  srs,
		resRange:      cfg.Range,
		client:        &http.Client{Timeout: timeout},
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  backoff,
		logger:        l,
	}, nil
}

func (w *WMS) Name() string              { return w.name }
func (w *WMS) ResolutionRange() ResRange { return w.resRange }
func (w *WMS) SupportsFeatureInfo() bool { return w.featureInfo }

func (w *WMS) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if err := w.checkSRS(req.SRS); err != nil {
		return nil, err
	}
	return w.do(ctx, w.requestURL("GetMap", req, nil))
}

func (w *WMS) FetchInfo(ctx context.Context, req InfoRequest) ([]byte, error) {
	if !w.featureInfo {
		return nil, fmt.Errorf("%w: %s", ErrNoFeatureInfo, w.name)
	}
	if err := w.checkSRS(req.SRS); err != nil {
		return nil, err
	}
	return w.do(ctx, w.requestURL("GetFeatureInfo", req.Request, &req))
}

func (w *WMS) checkSRS(srs string) error {
	if w.supportedSRS == nil {
		return nil
	}
	if _, ok := w.supportedSRS[strings.ToUpper(srs)]; !ok {
		return fmt.Errorf("%w: %s does not serve %s", ErrUnsupportedProjection, w.name, srs)
	}
	return nil
}

// requestURL builds the query per WMS version. 1.3.0 uses CRS instead
// of SRS and flips the bbox axis order for geographic coordinate
// systems.
func (w *WMS) requestURL(op string, req Request, info *InfoRequest) string {
	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("REQUEST", op)
	q.Set("VERSION", w.version)
	q.Set("LAYERS", strings.Join(w.layers, ","))
	q.Set("STYLES", "")
	q.Set("WIDTH", strconv.Itoa(req.Width))
	q.Set("HEIGHT", strconv.Itoa(req.Height))
	q.Set("FORMAT", req.Format)
	q.Set("TRANSPARENT", "TRUE")

	b := req.BBox
	axisFlip := false
	if w.version == "1.3.0" {
		q.Set("CRS", req.SRS)
		axisFlip = geographicSRS(req.SRS)
	} else {
		q.Set("SRS", req.SRS)
	}
	if axisFlip {
		q.Set("BBOX", fmt.Sprintf("%g,%g,%g,%g", b.Min[1], b.Min[0], b.Max[1], b.Max[0]))
	} else {
		q.Set("BBOX", fmt.Sprintf("%g,%g,%g,%g", b.Min[0], b.Min[1], b.Max[0], b.Max[1]))
	}

	if info != nil {
		q.Set("QUERY_LAYERS", strings.Join(w.layers, ","))
		infoFormat := info.InfoFormat
		if infoFormat == "" {
			infoFormat = "text/plain"
		}
		q.Set("INFO_FORMAT", infoFormat)
		if w.version == "1.3.0" {
			q.Set("I", strconv.Itoa(info.I))
			q.Set("J", strconv.Itoa(info.J))
		} else {
			q.Set("X", strconv.Itoa(info.I))
			q.Set("Y", strconv.Itoa(info.J))
		}
	}

	sep := "?"
	if strings.Contains(w.endpoint, "?") {
		sep = "&"
	}
	return w.endpoint + sep + q.Encode()
}

// do performs the request, retrying transient failures with bounded
// exponential backoff. Non-success responses are permanent.
func (w *WMS) do(ctx context.Context, requestURL string) ([]byte, error) {
	var body []byte

	backoff := retry.WithMaxRetries(w.retryAttempts, retry.NewExponential(w.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("build upstream request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		metrics.UpstreamRequests.Inc()
		start := time.Now()

		resp, err := w.client.Do(req)
		if err != nil {
			metrics.UpstreamErrors.Inc()
			w.logger.Warn("upstream request failed", "source", w.name, "error", err)
			return retry.RetryableError(fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, w.name, err))
		}
		defer resp.Body.Close()

		metrics.UpstreamLatency.Observe(time.Since(start).Seconds())

		if resp.StatusCode != http.StatusOK {
			metrics.UpstreamErrors.Inc()
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return &UpstreamError{Status: resp.StatusCode, Body: string(snippet)}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			metrics.UpstreamErrors.Inc()
			return retry.RetryableError(fmt.Errorf("%w: %s: read body: %v", ErrUpstreamUnavailable, w.name, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// geographicSRS reports whether a CRS uses latitude-first axis order
// under WMS 1.3.0.
func geographicSRS(srs string) bool {
	switch strings.ToUpper(srs) {
	case "EPSG:4326", "EPSG:4258":
		return true
	default:
		return false
	}
}
