// Package memory provides a map-backed GeoRepository. It serves as the unit
// test double and as a standalone driver for local development
// (STORAGE_DRIVER=memory). Spatial predicates are evaluated with s2 spherical
// caps and planar ring containment over geometry vertices.
package memory

import (
	"context"
	"sync"

	"theia-geo/internal/geostore/domain/model"
	"theia-geo/internal/geostore/domain/repository"
	"theia-geo/internal/geostore/validation"
	apperrors "theia-geo/internal/shared/errors"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoRepository implements repository.GeoRepository over in-process maps
type GeoRepository struct {
	mu          sync.RWMutex
	features    map[string]*model.Feature
	collections map[string]*model.FeatureCollection
}

var _ repository.GeoRepository = (*GeoRepository)(nil)

// NewGeoRepository creates an empty in-memory repository
func NewGeoRepository() *GeoRepository {
	return &GeoRepository{
		features:    make(map[string]*model.Feature),
		collections: make(map[string]*model.FeatureCollection),
	}
}

// Ids follow the same ObjectID hex format as the MongoDB adapter so the
// invalid-id semantics match across drivers.
func parseID(resource, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return apperrors.NewInvalidIDError(resource).WithCause(err)
	}
	return nil
}

// CreateFeature persists one feature and returns its assigned id
func (r *GeoRepository) CreateFeature(ctx context.Context, feature *model.Feature) (string, error) {
	if err := validation.CheckGeometry(feature.Geometry); err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}

	stored := feature.Clone()
	stored.ID = primitive.NewObjectID().Hex()
	stored.Type = model.TypeFeature

	r.mu.Lock()
	r.features[stored.ID] = stored
	r.mu.Unlock()
	return stored.ID, nil
}

// GetFeature returns the feature for a valid id
func (r *GeoRepository) GetFeature(ctx context.Context, id string) (*model.Feature, error) {
	if err := parseID("feature", id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	feature, ok := r.features[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("feature")
	}
	return feature.Clone(), nil
}

// ListFeatures returns every stored feature
func (r *GeoRepository) ListFeatures(ctx context.Context) ([]*model.Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Feature, 0, len(r.features))
	for _, f := range r.features {
		out = append(out, f.Clone())
	}
	return out, nil
}

// DeleteFeature removes one feature. Debug path only.
func (r *GeoRepository) DeleteFeature(ctx context.Context, id string) error {
	if err := parseID("feature", id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.features[id]; !ok {
		return apperrors.NewNotFoundError("feature")
	}
	delete(r.features, id)
	return nil
}

// CreateCollection persists the collection record
func (r *GeoRepository) CreateCollection(ctx context.Context, collection *model.FeatureCollection) (string, error) {
	if err := validation.CheckCRS(collection.CRS); err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}

	stored := &model.FeatureCollection{
		ID:         primitive.NewObjectID().Hex(),
		Type:       model.TypeFeatureCollection,
		Name:       collection.Name,
		CRS:        collection.CRS,
		FeatureIDs: append([]string(nil), collection.FeatureIDs...),
	}

	r.mu.Lock()
	r.collections[stored.ID] = stored
	r.mu.Unlock()
	return stored.ID, nil
}

// GetCollection returns a collection record, optionally with features resolved
func (r *GeoRepository) GetCollection(ctx context.Context, id string, resolveFeatures bool) (*model.FeatureCollection, error) {
	if err := parseID("feature collection", id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.collections[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("feature collection")
	}
	return r.exportCollection(stored, resolveFeatures)
}

// ListCollections returns every collection record
func (r *GeoRepository) ListCollections(ctx context.Context, resolveFeatures bool) ([]*model.FeatureCollection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.FeatureCollection, 0, len(r.collections))
	for _, stored := range r.collections {
		collection, err := r.exportCollection(stored, resolveFeatures)
		if err != nil {
			return nil, err
		}
		out = append(out, collection)
	}
	return out, nil
}

// exportCollection copies a stored record and resolves features in FeatureIDs
// order. Callers hold at least the read lock.
func (r *GeoRepository) exportCollection(stored *model.FeatureCollection, resolveFeatures bool) (*model.FeatureCollection, error) {
	out := &model.FeatureCollection{
		ID:         stored.ID,
		Type:       stored.Type,
		Name:       stored.Name,
		CRS:        stored.CRS,
		FeatureIDs: append([]string(nil), stored.FeatureIDs...),
	}
	if !resolveFeatures {
		return out, nil
	}

	out.Features = make([]*model.Feature, 0, len(stored.FeatureIDs))
	for _, fid := range stored.FeatureIDs {
		feature, ok := r.features[fid]
		if !ok {
			// a dangling reference is an internal-consistency fault
			return nil, apperrors.NewStorageError("collection references a missing feature").
				WithDetail("collectionId", stored.ID).
				WithDetail("featureId", fid)
		}
		out.Features = append(out.Features, feature.Clone())
	}
	return out, nil
}

// DeleteCollection cascades: referenced features first, the record last
func (r *GeoRepository) DeleteCollection(ctx context.Context, id string) error {
	if err := parseID("feature collection", id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.collections[id]
	if !ok {
		return apperrors.NewNotFoundError("feature collection")
	}
	for _, fid := range stored.FeatureIDs {
		delete(r.features, fid)
	}
	delete(r.collections, id)
	return nil
}

// DeleteAll clears both stores
func (r *GeoRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features = make(map[string]*model.Feature)
	r.collections = make(map[string]*model.FeatureCollection)
	return nil
}

// FeaturesWithinRadius selects features whose geometry lies in the spherical
// cap centered at center with the given angular radius. Containment is
// evaluated over geometry vertices.
func (r *GeoRepository) FeaturesWithinRadius(ctx context.Context, center orb.Point, radians float64) ([]*model.Feature, error) {
	region := s2.CapFromCenterAngle(s2Point(center), s1.Angle(radians))

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Feature, 0)
	for _, f := range r.features {
		if geometryWithin(f.Geometry, func(p orb.Point) bool {
			return region.ContainsPoint(s2Point(p))
		}) {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

// FeaturesWithinPolygon selects features whose geometry lies inside the ring
func (r *GeoRepository) FeaturesWithinPolygon(ctx context.Context, ring orb.Ring) ([]*model.Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Feature, 0)
	for _, f := range r.features {
		if geometryWithin(f.Geometry, func(p orb.Point) bool {
			return planar.RingContains(ring, p)
		}) {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

func s2Point(p orb.Point) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p[1], p[0]))
}

// geometryWithin reports whether every vertex of g satisfies the predicate.
// Empty geometries never match.
func geometryWithin(g orb.Geometry, contains func(orb.Point) bool) bool {
	vertices := geometryVertices(g)
	if len(vertices) == 0 {
		return false
	}
	for _, v := range vertices {
		if !contains(v) {
			return false
		}
	}
	return true
}

func geometryVertices(g orb.Geometry) []orb.Point {
	switch geom := g.(type) {
	case orb.Point:
		return []orb.Point{geom}
	case orb.MultiPoint:
		return geom
	case orb.LineString:
		return geom
	case orb.MultiLineString:
		var out []orb.Point
		for _, line := range geom {
			out = append(out, line...)
		}
		return out
	case orb.Polygon:
		var out []orb.Point
		for _, ring := range geom {
			out = append(out, ring...)
		}
		return out
	case orb.MultiPolygon:
		var out []orb.Point
		for _, poly := range geom {
			out = append(out, geometryVertices(poly)...)
		}
		return out
	default:
		return nil
	}
}
