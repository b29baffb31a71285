package usecase

import (
	"context"
	"testing"

	apperrors "theia-geo/internal/shared/errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCollectionCascades(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	created, err := uc.IngestGeoJSON(ctx, []byte(pointCollectionJSON))
	require.NoError(t, err)

	require.NoError(t, uc.DeleteCollection(ctx, created.ID))

	_, err = uc.GetCollection(ctx, created.ID, false)
	assert.True(t, apperrors.IsNotFound(err))

	for _, featureID := range created.FeatureIDs {
		_, err := uc.GetFeature(ctx, featureID)
		assert.True(t, apperrors.IsNotFound(err), "feature %s should be gone", featureID)
	}
}

func TestCollectionIDValidation(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	_, err := uc.GetCollection(ctx, "not-an-id", false)
	assert.True(t, apperrors.IsInvalidID(err))

	err = uc.DeleteCollection(ctx, "not-an-id")
	assert.True(t, apperrors.IsInvalidID(err))

	// well-formed but absent
	_, err = uc.GetCollection(ctx, "64b0c55f2f8fb814c8f1a000", false)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListFeaturesSynthesizesCollection(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	got, err := uc.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, "All Features", got.Name)
	assert.Empty(t, got.Features)
	assert.Nil(t, got.CRS)

	_, err = uc.IngestGeoJSON(ctx, []byte(pointCollectionJSON))
	require.NoError(t, err)

	got, err = uc.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Features, 3)
}

func TestCreateAndDeleteFeatureDirectly(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	geom := geojson.NewGeometry(orb.Point{-116.9, 33.0})
	created, err := uc.CreateFeature(ctx, CreateFeatureRequest{
		Geometry:   geom,
		Properties: geojson.Properties{"name": "standalone"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := uc.GetFeature(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "standalone", got.Properties["name"])

	require.NoError(t, uc.DeleteFeature(ctx, created.ID))
	_, err = uc.GetFeature(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateFeatureRejectsMissingGeometry(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	_, err := uc.CreateFeature(ctx, CreateFeatureRequest{Properties: geojson.Properties{"name": "x"}})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t)

	_, err := uc.IngestGeoJSON(ctx, []byte(pointCollectionJSON))
	require.NoError(t, err)

	require.NoError(t, uc.DeleteAll(ctx))

	features, err := uc.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Empty(t, features.Features)

	collections, err := uc.ListCollections(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, collections)
}
