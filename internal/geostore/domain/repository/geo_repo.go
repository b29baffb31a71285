package repository

import (
	"context"

	"theia-geo/internal/geostore/domain/model"

	"github.com/paulmach/orb"
)

// GeoRepository owns create/read/delete operations for features and feature
// collections and enforces the reference invariants between them: collections
// hold ordered feature ids, resolution is an explicit join, and collection
// deletion cascades to the referenced features before the record itself.
//
// The multi-write sequences (ingest fan-out, cascade delete) are not wrapped in
// a transaction; each entity write is individually atomic and the documented
// partial-failure windows apply.
type GeoRepository interface {
	// CreateFeature persists one feature and returns its assigned id.
	// Invalid geometry is a validation error.
	CreateFeature(ctx context.Context, feature *model.Feature) (string, error)

	// GetFeature returns the feature for a valid id. A malformed id is an
	// invalid-id error, distinct from not-found.
	GetFeature(ctx context.Context, id string) (*model.Feature, error)

	// ListFeatures returns every stored feature
	ListFeatures(ctx context.Context) ([]*model.Feature, error)

	// DeleteFeature removes a single feature without touching its owning
	// collection. Debug path only; normal deletion cascades from the collection.
	DeleteFeature(ctx context.Context, id string) error

	// CreateCollection persists the collection record (ids only, features are
	// never embedded) and returns its assigned id
	CreateCollection(ctx context.Context, collection *model.FeatureCollection) (string, error)

	// GetCollection returns a collection record. With resolveFeatures the
	// referenced features are fetched in FeatureIDs order and attached; a
	// dangling reference is a storage error, never silently skipped.
	GetCollection(ctx context.Context, id string, resolveFeatures bool) (*model.FeatureCollection, error)

	// ListCollections returns every collection record, optionally resolved
	ListCollections(ctx context.Context, resolveFeatures bool) ([]*model.FeatureCollection, error)

	// DeleteCollection deletes every referenced feature first and the record
	// last, so a crash mid-operation leaves at most an orphaned record rather
	// than a record referencing nothing.
	DeleteCollection(ctx context.Context, id string) error

	// DeleteAll clears both stores. Debug/reset only.
	DeleteAll(ctx context.Context) error

	// FeaturesWithinRadius returns features contained in the spherical cap
	// centered at center ([lon, lat]) with the given angular radius in radians
	FeaturesWithinRadius(ctx context.Context, center orb.Point, radians float64) ([]*model.Feature, error)

	// FeaturesWithinPolygon returns features contained in the closed ring
	FeaturesWithinPolygon(ctx context.Context, ring orb.Ring) ([]*model.Feature, error)
}
