// Package usecase implements the geo store's business operations: the ingest
// pipeline, reads with reference resolution, cascade deletes, spatial queries
// and KML import/export. Handlers stay thin; everything with semantics lives
// here or below.
package usecase

import (
	"context"

	"theia-geo/internal/geostore/domain/model"
	"theia-geo/internal/geostore/domain/repository"
	"theia-geo/internal/shared/logger"
)

// GeoUsecase implements GeoUsecaseInterface on top of a GeoRepository and the
// structural validator
type GeoUsecase struct {
	repo      repository.GeoRepository
	validator GeoJSONValidator
	log       logger.Logger
}

var _ GeoUsecaseInterface = (*GeoUsecase)(nil)

// NewGeoUsecase creates the usecase with its collaborators
func NewGeoUsecase(repo repository.GeoRepository, validator GeoJSONValidator, log logger.Logger) *GeoUsecase {
	return &GeoUsecase{
		repo:      repo,
		validator: validator,
		log:       log.WithComponent("geo-usecase"),
	}
}

// GetCollection loads one collection record, optionally resolving its
// features in reference order
func (uc *GeoUsecase) GetCollection(ctx context.Context, id string, includeFeatures bool) (*model.FeatureCollection, error) {
	return uc.repo.GetCollection(ctx, id, includeFeatures)
}

// ListCollections loads every collection record
func (uc *GeoUsecase) ListCollections(ctx context.Context, includeFeatures bool) ([]*model.FeatureCollection, error) {
	return uc.repo.ListCollections(ctx, includeFeatures)
}

// DeleteCollection deletes a collection and cascades to every feature it
// references
func (uc *GeoUsecase) DeleteCollection(ctx context.Context, id string) error {
	if err := uc.repo.DeleteCollection(ctx, id); err != nil {
		return err
	}
	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"collectionId": id,
	}).Info("Feature collection deleted")
	return nil
}

// DeleteAll clears both stores. Debug/reset only.
func (uc *GeoUsecase) DeleteAll(ctx context.Context) error {
	if err := uc.repo.DeleteAll(ctx); err != nil {
		return err
	}
	uc.log.WithContext(ctx).Warn("All features and collections deleted")
	return nil
}

// GetFeature loads one feature by id
func (uc *GeoUsecase) GetFeature(ctx context.Context, id string) (*model.Feature, error) {
	return uc.repo.GetFeature(ctx, id)
}

// ListFeatures returns every stored feature wrapped in a synthesized
// "All Features" collection
func (uc *GeoUsecase) ListFeatures(ctx context.Context) (*model.FeatureCollection, error) {
	features, err := uc.repo.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}

	collection := model.NewFeatureCollection("All Features", nil)
	collection.Features = features
	return collection, nil
}

// CreateFeature persists a single standalone feature. Debug path: features
// created this way belong to no collection and are reclaimed only by
// DeleteAll or the debug delete.
func (uc *GeoUsecase) CreateFeature(ctx context.Context, req CreateFeatureRequest) (*model.Feature, error) {
	feature := model.NewFeature(nil, req.Properties)
	if req.Geometry != nil {
		feature.Geometry = req.Geometry.Geometry()
	}

	id, err := uc.repo.CreateFeature(ctx, feature)
	if err != nil {
		return nil, err
	}
	feature.ID = id
	return feature, nil
}

// DeleteFeature removes one feature without consulting its owning collection.
// Debug path: this can leave the owning collection with a dangling reference.
func (uc *GeoUsecase) DeleteFeature(ctx context.Context, id string) error {
	if err := uc.repo.DeleteFeature(ctx, id); err != nil {
		return err
	}
	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"featureId": id,
	}).Warn("Feature deleted outside collection cascade")
	return nil
}
