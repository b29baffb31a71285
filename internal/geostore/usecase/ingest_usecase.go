package usecase

import (
	"context"
	"encoding/json"

	"theia-geo/internal/geostore/domain/model"
	"theia-geo/internal/geostore/kml"
	apperrors "theia-geo/internal/shared/errors"

	"golang.org/x/sync/errgroup"
)

// IngestGeoJSON validates a raw GeoJSON feature collection, persists each
// feature, then persists a collection record referencing the new ids
func (uc *GeoUsecase) IngestGeoJSON(ctx context.Context, raw []byte) (*model.FeatureCollection, error) {
	if !uc.validator.Valid(raw) {
		return nil, apperrors.NewValidationError("invalid geoJSON")
	}

	var payload ingestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.NewValidationError("invalid geoJSON").WithCause(err)
	}
	return uc.persistCollection(ctx, payload.Name, payload.CRS, payload.Features)
}

// IngestKML converts KML markup to GeoJSON and runs the same persistence path
func (uc *GeoUsecase) IngestKML(ctx context.Context, raw []byte) (*model.FeatureCollection, error) {
	converted, err := kml.Decode(raw)
	if err != nil {
		return nil, err
	}
	return uc.persistCollection(ctx, converted.Name, converted.CRS, converted.Features)
}

// persistCollection fans the per-feature writes out concurrently and joins
// them before the collection record is written. Ids are collected in input
// order, not completion order, so the stored reference sequence mirrors the
// payload.
func (uc *GeoUsecase) persistCollection(ctx context.Context, name string, crs *model.CRS, features []*model.Feature) (*model.FeatureCollection, error) {
	ids := make([]string, len(features))

	g, gctx := errgroup.WithContext(ctx)
	for i, feature := range features {
		i, feature := i, feature
		g.Go(func() error {
			id, err := uc.repo.CreateFeature(gctx, feature)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// features persisted before the failure are orphans now; there is no
		// rollback, an external repair pass reclaims them
		uc.log.WithContext(ctx).WithFields(map[string]interface{}{
			"featureCount": len(features),
		}).Errorf("Feature persistence failed during ingest: %v", err)
		return nil, err
	}

	collection := model.NewFeatureCollection(name, crs)
	collection.FeatureIDs = ids

	collectionID, err := uc.repo.CreateCollection(ctx, collection)
	if err != nil {
		uc.log.WithContext(ctx).WithFields(map[string]interface{}{
			"orphanedFeatureIds": ids,
		}).Errorf("Collection save failed after features were persisted: %v", err)
		return nil, err
	}
	collection.ID = collectionID

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"collectionId": collectionID,
		"featureCount": len(ids),
	}).Info("Feature collection ingested")
	return collection, nil
}

// ExportCollectionKML resolves a collection and renders it as KML
func (uc *GeoUsecase) ExportCollectionKML(ctx context.Context, id string) ([]byte, error) {
	collection, err := uc.repo.GetCollection(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return kml.Encode(collection)
}
