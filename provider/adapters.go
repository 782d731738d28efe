package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/hashutil"
)

// Kind is the closed set of upstream source variants spec.md §4.3
// observed in the repository. Dispatch is by tag, not inheritance: the
// HTTP-based variants share one httpAdapter and differ only in their
// queryShape/decode closures; static files are served by the separate
// StaticFileAdapter.
type Kind string

const (
	KindArcGISREST Kind = "arcgis-rest"
	KindWFS        Kind = "wfs"
	KindRESTJSON   Kind = "rest-json"
	KindStaticFile Kind = "static-file"
	KindCensusAPI  Kind = "census-api"
)

// httpAdapter is the shared plumbing every HTTP-based variant reduces
// to: a client, a base URL, and a decode function for turning the raw
// response body into a FeatureCollection. The ArcGIS/WFS/REST-JSON/
// census-API variants differ in how the request URL is shaped per layer
// and in the decode function the caller supplies.
type httpAdapter struct {
	kind       Kind
	client     *http.Client
	baseURL    string
	decode     func([]byte) (normalize.FeatureCollection, error)
	queryShape func(layer LayerConfig) string // returns the full request URL for layer
	layers     []LayerConfig
}

// NewHTTPAdapter constructs a Provider for one of the HTTP-reducible
// source variants (spec.md §4.3).
func NewHTTPAdapter(kind Kind, baseURL string, layers []LayerConfig, decode func([]byte) (normalize.FeatureCollection, error), queryShape func(LayerConfig) string) Provider {
	return &httpAdapter{
		kind:       kind,
		client:     &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		decode:     decode,
		queryShape: queryShape,
		layers:     layers,
	}
}

func (a *httpAdapter) ListLayers(ctx context.Context) ([]LayerConfig, error) {
	return a.layers, nil
}

func (a *httpAdapter) Extract(ctx context.Context, layer LayerConfig) (normalize.FeatureCollection, SourceMetadata, error) {
	const op = "provider.httpAdapter.Extract"
	url := a.queryShape(layer)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return normalize.FeatureCollection{}, SourceMetadata{}, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "building request", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return normalize.FeatureCollection{}, SourceMetadata{}, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "http request failed for "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return normalize.FeatureCollection{}, SourceMetadata{}, atlaserr.New(atlaserr.KindUpstreamUnavailable, op, fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return normalize.FeatureCollection{}, SourceMetadata{}, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "reading response body", err)
	}

	fc, err := a.decode(body)
	if err != nil {
		return normalize.FeatureCollection{}, SourceMetadata{}, atlaserr.Wrap(atlaserr.KindInvalidInput, op, "decoding response payload", err)
	}

	meta := SourceMetadata{
		EndpointURL: url,
		RetrievedAt: time.Now(),
		ContentHash: hashutil.Hash(body),
	}
	return fc, meta, nil
}

func (a *httpAdapter) HasChangedSince(ctx context.Context, since time.Time) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, a.baseURL, nil)
	if err != nil {
		return true, nil // best-effort per spec.md §4.3; unknown defaults to true
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return true, nil
	}
	defer resp.Body.Close()

	lastModified := resp.Header.Get("Last-Modified")
	if lastModified == "" {
		return true, nil
	}
	t, err := http.ParseTime(lastModified)
	if err != nil {
		return true, nil
	}
	return t.After(since), nil
}

func (a *httpAdapter) HealthCheck(ctx context.Context) (HealthStatus, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, a.baseURL, nil)
	if err != nil {
		return HealthStatus{Available: false, Issues: []string{err.Error()}}, nil
	}
	resp, err := a.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthStatus{Available: false, LatencyMs: latency, Issues: []string{err.Error()}}, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return HealthStatus{Available: false, LatencyMs: latency, Issues: []string{fmt.Sprintf("status %d", resp.StatusCode)}}, nil
	}
	return HealthStatus{Available: true, LatencyMs: latency}, nil
}

// ArcGISQueryShape builds the query_shape a standard ArcGIS FeatureServer
// query endpoint expects: a /query suffix returning GeoJSON.
func ArcGISQueryShape(baseURL string) func(LayerConfig) string {
	return func(layer LayerConfig) string {
		return fmt.Sprintf("%s/query?where=1%%3D1&outFields=*&f=geojson&layer=%s", baseURL, layer.Endpoint)
	}
}

// WFSQueryShape builds an OGC WFS GetFeature request URL.
func WFSQueryShape(baseURL string) func(LayerConfig) string {
	return func(layer LayerConfig) string {
		return fmt.Sprintf("%s?service=WFS&version=2.0.0&request=GetFeature&typeNames=%s&outputFormat=application/json", baseURL, layer.Endpoint)
	}
}

// RESTJSONQueryShape builds a plain REST JSON request URL from the
// layer's endpoint descriptor verbatim.
func RESTJSONQueryShape(baseURL string) func(LayerConfig) string {
	return func(layer LayerConfig) string {
		return baseURL + layer.Endpoint
	}
}

// CensusAPIQueryShape builds a US Census Bureau API request URL with the
// layer's get/for clause already embedded in the endpoint descriptor.
func CensusAPIQueryShape(baseURL string) func(LayerConfig) string {
	return func(layer LayerConfig) string {
		return fmt.Sprintf("%s?%s", baseURL, layer.Endpoint)
	}
}

// StaticFileAdapter serves a fixed, pre-fetched FeatureCollection per
// layer — the degenerate provider variant for sources with no live
// endpoint (spec.md §4.3's "static file" variant).
type StaticFileAdapter struct {
	layers       []LayerConfig
	collections  map[boundarytype.LayerType]normalize.FeatureCollection
	contentHash  map[boundarytype.LayerType][32]byte
	originLabel  string
}

// NewStaticFileAdapter builds a Provider backed by in-memory fixtures.
func NewStaticFileAdapter(originLabel string, layers []LayerConfig, collections map[boundarytype.LayerType]normalize.FeatureCollection) *StaticFileAdapter {
	hashes := make(map[boundarytype.LayerType][32]byte, len(collections))
	for lt, fc := range collections {
		raw, _ := json.Marshal(fc)
		hashes[lt] = hashutil.Hash(raw)
	}
	return &StaticFileAdapter{layers: layers, collections: collections, contentHash: hashes, originLabel: originLabel}
}

func (s *StaticFileAdapter) ListLayers(ctx context.Context) ([]LayerConfig, error) {
	return s.layers, nil
}

func (s *StaticFileAdapter) Extract(ctx context.Context, layer LayerConfig) (normalize.FeatureCollection, SourceMetadata, error) {
	fc, ok := s.collections[layer.LayerType]
	if !ok {
		return normalize.FeatureCollection{}, SourceMetadata{}, atlaserr.New(atlaserr.KindInvalidInput, "provider.StaticFileAdapter.Extract", "no fixture registered for layer "+string(layer.LayerType))
	}
	return fc, SourceMetadata{EndpointURL: s.originLabel, RetrievedAt: time.Now(), ContentHash: s.contentHash[layer.LayerType]}, nil
}

func (s *StaticFileAdapter) HasChangedSince(ctx context.Context, since time.Time) (bool, error) {
	return false, nil // a static fixture never changes underneath a build
}

func (s *StaticFileAdapter) HealthCheck(ctx context.Context) (HealthStatus, error) {
	return HealthStatus{Available: true, LatencyMs: 0}, nil
}
