package usecase

import (
	"context"
	"fmt"
	"math"

	"theia-geo/internal/geostore/domain/model"
	apperrors "theia-geo/internal/shared/errors"

	"github.com/paulmach/orb"
)

// earthRadiusKm is Earth's mean radius used to convert kilometers to an
// angular radius in radians. The contract is fixed: callers pass kilometers
// and this layer divides.
const earthRadiusKm = 6378.1

// WithinCircle selects every feature contained in the spherical cap centered
// at req.Center with radius req.RadiusKm. Zero matches is a success with an
// empty feature list. The result is an ephemeral collection, never persisted.
func (uc *GeoUsecase) WithinCircle(ctx context.Context, req WithinCircleRequest) (*model.FeatureCollection, error) {
	center, err := positionFromCoords(req.Center)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid circle center: %v", err))
	}
	if math.IsNaN(req.RadiusKm) || math.IsInf(req.RadiusKm, 0) || req.RadiusKm < 0 {
		return nil, apperrors.NewValidationError("circle radius must be a non-negative number of kilometers")
	}

	features, err := uc.repo.FeaturesWithinRadius(ctx, center, req.RadiusKm/earthRadiusKm)
	if err != nil {
		return nil, err
	}
	return queryResult("Within Circle", features), nil
}

// WithinPolygon selects every feature contained in the closed ring described
// by req.Coordinates
func (uc *GeoUsecase) WithinPolygon(ctx context.Context, req WithinPolygonRequest) (*model.FeatureCollection, error) {
	ring, err := ringFromCoords(req.Coordinates)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid polygon: %v", err))
	}

	features, err := uc.repo.FeaturesWithinPolygon(ctx, ring)
	if err != nil {
		return nil, err
	}
	return queryResult("Within Polygon", features), nil
}

// queryResult wraps matches in a synthesized collection: fixed EPSG:4326 crs,
// no id
func queryResult(name string, features []*model.Feature) *model.FeatureCollection {
	collection := model.NewFeatureCollection(name, model.DefaultCRS())
	collection.Features = features
	return collection
}

func positionFromCoords(coords []float64) (orb.Point, error) {
	if len(coords) < 2 || len(coords) > 3 {
		return orb.Point{}, fmt.Errorf("position must hold 2 or 3 numbers, got %d", len(coords))
	}
	for _, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return orb.Point{}, fmt.Errorf("position coordinates must be finite numbers")
		}
	}
	return orb.Point{coords[0], coords[1]}, nil
}

func ringFromCoords(coords [][]float64) (orb.Ring, error) {
	if len(coords) < 4 {
		return nil, fmt.Errorf("ring must hold at least 4 positions, got %d", len(coords))
	}

	ring := make(orb.Ring, len(coords))
	for i, pos := range coords {
		p, err := positionFromCoords(pos)
		if err != nil {
			return nil, err
		}
		ring[i] = p
	}
	if !ring.Closed() {
		return nil, fmt.Errorf("ring first and last positions must match")
	}
	return ring, nil
}
