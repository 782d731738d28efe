// Package provider implements spec.md §4.3's upstream source capability:
// a single polymorphic interface that every observed source variant
// (ArcGIS REST, OGC WFS, REST JSON, static file, census API) reduces to.
package provider

import (
	"context"
	"time"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/normalize"
)

// LayerConfig names one logical layer an upstream source exposes.
type LayerConfig struct {
	LayerType     boundarytype.LayerType
	ExpectedCount int
	Vintage       int
	AuthorityLevel int
	Endpoint      string
}

// SourceMetadata carries per-extraction provenance (spec.md §4.3:
// "endpoint URL, a retrieval timestamp, and a content hash").
type SourceMetadata struct {
	EndpointURL string
	RetrievedAt time.Time
	ContentHash [32]byte
}

// HealthStatus is the result of a health_check call.
type HealthStatus struct {
	Available bool
	LatencyMs int64
	Issues    []string
}

// Provider is the capability every upstream source adapter implements
// (spec.md §4.3). Every method takes a context so callers can enforce
// the suspension-point cancellation spec.md §5 requires.
type Provider interface {
	ListLayers(ctx context.Context) ([]LayerConfig, error)
	Extract(ctx context.Context, layer LayerConfig) (normalize.FeatureCollection, SourceMetadata, error)
	HasChangedSince(ctx context.Context, since time.Time) (bool, error)
	HealthCheck(ctx context.Context) (HealthStatus, error)
}
