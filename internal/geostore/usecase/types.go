package usecase

import (
	"context"

	"theia-geo/internal/geostore/domain/model"

	"github.com/paulmach/orb/geojson"
)

// GeoJSONValidator is the structural-validity collaborator. Payloads that fail
// the verdict never reach the store.
type GeoJSONValidator interface {
	Valid(raw []byte) bool
}

// GeoUsecaseInterface defines the operations the routing layer adapts. Every
// method reports failures through the shared error taxonomy so the adapter
// can map them onto the uniform status contract.
type GeoUsecaseInterface interface {
	IngestGeoJSON(ctx context.Context, raw []byte) (*model.FeatureCollection, error)
	IngestKML(ctx context.Context, raw []byte) (*model.FeatureCollection, error)

	GetCollection(ctx context.Context, id string, includeFeatures bool) (*model.FeatureCollection, error)
	ListCollections(ctx context.Context, includeFeatures bool) ([]*model.FeatureCollection, error)
	ExportCollectionKML(ctx context.Context, id string) ([]byte, error)
	DeleteCollection(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error

	GetFeature(ctx context.Context, id string) (*model.Feature, error)
	ListFeatures(ctx context.Context) (*model.FeatureCollection, error)
	CreateFeature(ctx context.Context, req CreateFeatureRequest) (*model.Feature, error)
	DeleteFeature(ctx context.Context, id string) error

	WithinCircle(ctx context.Context, req WithinCircleRequest) (*model.FeatureCollection, error)
	WithinPolygon(ctx context.Context, req WithinPolygonRequest) (*model.FeatureCollection, error)
}

// Request DTOs

// CreateFeatureRequest carries a single feature for the direct (debug)
// creation path
type CreateFeatureRequest struct {
	Geometry   *geojson.Geometry  `json:"geometry"`
	Properties geojson.Properties `json:"properties"`
}

// WithinCircleRequest selects features inside a spherical cap. The caller
// supplies the radius in kilometers; the engine performs the conversion to
// radians.
type WithinCircleRequest struct {
	Center   []float64 `json:"center"`
	RadiusKm float64   `json:"radiusKm"`
}

// WithinPolygonRequest selects features inside a single closed ring
type WithinPolygonRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// ingestPayload is the wire shape of an inbound GeoJSON feature collection
type ingestPayload struct {
	Type     string           `json:"type"`
	Name     string           `json:"name"`
	CRS      *model.CRS       `json:"crs"`
	Features []*model.Feature `json:"features"`
}
