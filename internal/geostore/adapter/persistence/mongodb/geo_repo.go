// Package mongodb implements the GeoRepository over MongoDB. Features and
// feature collections live in two independent collections; geometries keep
// their GeoJSON shape under a 2dsphere index, so the spatial predicates run
// as native $geoWithin queries.
package mongodb

import (
	"context"

	"theia-geo/internal/geostore/domain/model"
	"theia-geo/internal/geostore/domain/repository"
	"theia-geo/internal/geostore/validation"
	apperrors "theia-geo/internal/shared/errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ repository.GeoRepository = (*MongoGeoRepository)(nil)

// MongoGeoRepository implements repository.GeoRepository using MongoDB
type MongoGeoRepository struct {
	db                    *mongo.Database
	featuresCollection    *mongo.Collection
	collectionsCollection *mongo.Collection
}

// NewMongoGeoRepository creates a MongoDB geo repository and ensures the
// 2dsphere index the spatial queries depend on
func NewMongoGeoRepository(ctx context.Context, db *mongo.Database) (*MongoGeoRepository, error) {
	repo := &MongoGeoRepository{
		db:                    db,
		featuresCollection:    db.Collection("features"),
		collectionsCollection: db.Collection("featureCollections"),
	}

	geometryIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
	}
	if _, err := repo.featuresCollection.Indexes().CreateOne(ctx, geometryIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// mongoFeature is the stored document shape of a feature
type mongoFeature struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty"`
	Type       string                 `bson:"type"`
	Geometry   bson.M                 `bson:"geometry"`
	Properties map[string]interface{} `bson:"properties"`
}

// mongoFeatureCollection is the stored document shape of a collection record.
// Only feature ids are embedded, never the features themselves.
type mongoFeatureCollection struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Type       string             `bson:"type"`
	Name       string             `bson:"name,omitempty"`
	CRS        *model.CRS         `bson:"crs,omitempty"`
	FeatureIDs []string           `bson:"featureIds"`
}

func featureToDocument(f *model.Feature) (*mongoFeature, error) {
	geometry, err := geometryToBSON(f.Geometry)
	if err != nil {
		return nil, err
	}
	props := map[string]interface{}(f.Properties)
	if props == nil {
		props = map[string]interface{}{}
	}
	return &mongoFeature{
		Type:       model.TypeFeature,
		Geometry:   geometry,
		Properties: props,
	}, nil
}

func featureFromDocument(doc *mongoFeature) (*model.Feature, error) {
	geometry, err := geometryFromBSON(doc.Geometry)
	if err != nil {
		return nil, err
	}
	return &model.Feature{
		ID:         doc.ID.Hex(),
		Type:       doc.Type,
		Geometry:   geometry,
		Properties: geojson.Properties(doc.Properties),
	}, nil
}

func collectionFromDocument(doc *mongoFeatureCollection) *model.FeatureCollection {
	return &model.FeatureCollection{
		ID:         doc.ID.Hex(),
		Type:       doc.Type,
		Name:       doc.Name,
		CRS:        doc.CRS,
		FeatureIDs: doc.FeatureIDs,
	}
}

func parseObjectID(resource, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.NewInvalidIDError(resource).WithCause(err)
	}
	return oid, nil
}

// CreateFeature persists one feature and returns its assigned id
func (r *MongoGeoRepository) CreateFeature(ctx context.Context, feature *model.Feature) (string, error) {
	if err := validation.CheckGeometry(feature.Geometry); err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}
	doc, err := featureToDocument(feature)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}

	result, err := r.featuresCollection.InsertOne(ctx, doc)
	if err != nil {
		return "", apperrors.NewStorageError("failed to save feature").WithCause(err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetFeature returns the feature for a valid id
func (r *MongoGeoRepository) GetFeature(ctx context.Context, id string) (*model.Feature, error) {
	oid, err := parseObjectID("feature", id)
	if err != nil {
		return nil, err
	}

	var doc mongoFeature
	if err := r.featuresCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NewNotFoundError("feature")
		}
		return nil, apperrors.NewStorageError("failed to load feature").WithCause(err)
	}
	return featureFromDocument(&doc)
}

// ListFeatures returns every stored feature
func (r *MongoGeoRepository) ListFeatures(ctx context.Context) ([]*model.Feature, error) {
	cursor, err := r.featuresCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list features").WithCause(err)
	}
	return decodeFeatures(ctx, cursor)
}

func decodeFeatures(ctx context.Context, cursor *mongo.Cursor) ([]*model.Feature, error) {
	defer cursor.Close(ctx)

	out := make([]*model.Feature, 0)
	for cursor.Next(ctx) {
		var doc mongoFeature
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.NewStorageError("failed to decode feature").WithCause(err)
		}
		feature, err := featureFromDocument(&doc)
		if err != nil {
			return nil, apperrors.NewStorageError("stored feature is corrupt").WithCause(err)
		}
		out = append(out, feature)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewStorageError("feature cursor failed").WithCause(err)
	}
	return out, nil
}

// DeleteFeature removes one feature. Debug path only; normal deletion
// cascades from the owning collection.
func (r *MongoGeoRepository) DeleteFeature(ctx context.Context, id string) error {
	oid, err := parseObjectID("feature", id)
	if err != nil {
		return err
	}

	result, err := r.featuresCollection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperrors.NewStorageError("failed to delete feature").WithCause(err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NewNotFoundError("feature")
	}
	return nil
}

// CreateCollection persists the collection record
func (r *MongoGeoRepository) CreateCollection(ctx context.Context, collection *model.FeatureCollection) (string, error) {
	if err := validation.CheckCRS(collection.CRS); err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}

	doc := &mongoFeatureCollection{
		Type:       model.TypeFeatureCollection,
		Name:       collection.Name,
		CRS:        collection.CRS,
		FeatureIDs: collection.FeatureIDs,
	}
	if doc.FeatureIDs == nil {
		doc.FeatureIDs = []string{}
	}

	result, err := r.collectionsCollection.InsertOne(ctx, doc)
	if err != nil {
		return "", apperrors.NewStorageError("failed to save feature collection").WithCause(err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetCollection returns a collection record, optionally with its features
// resolved in FeatureIDs order
func (r *MongoGeoRepository) GetCollection(ctx context.Context, id string, resolveFeatures bool) (*model.FeatureCollection, error) {
	oid, err := parseObjectID("feature collection", id)
	if err != nil {
		return nil, err
	}

	var doc mongoFeatureCollection
	if err := r.collectionsCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NewNotFoundError("feature collection")
		}
		return nil, apperrors.NewStorageError("failed to load feature collection").WithCause(err)
	}

	collection := collectionFromDocument(&doc)
	if resolveFeatures {
		if err := r.resolveFeatures(ctx, collection); err != nil {
			return nil, err
		}
	}
	return collection, nil
}

// ListCollections returns every collection record
func (r *MongoGeoRepository) ListCollections(ctx context.Context, resolveFeatures bool) ([]*model.FeatureCollection, error) {
	cursor, err := r.collectionsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list feature collections").WithCause(err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.FeatureCollection, 0)
	for cursor.Next(ctx) {
		var doc mongoFeatureCollection
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.NewStorageError("failed to decode feature collection").WithCause(err)
		}
		out = append(out, collectionFromDocument(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewStorageError("feature collection cursor failed").WithCause(err)
	}

	if resolveFeatures {
		for _, collection := range out {
			if err := r.resolveFeatures(ctx, collection); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// resolveFeatures attaches the referenced features in id order. A missing
// feature means the store lost part of a cascade and is surfaced as a storage
// fault rather than skipped.
func (r *MongoGeoRepository) resolveFeatures(ctx context.Context, collection *model.FeatureCollection) error {
	collection.Features = make([]*model.Feature, 0, len(collection.FeatureIDs))
	for _, fid := range collection.FeatureIDs {
		feature, err := r.GetFeature(ctx, fid)
		if err != nil {
			if apperrors.IsNotFound(err) || apperrors.IsInvalidID(err) {
				return apperrors.NewStorageError("collection references a missing feature").
					WithDetail("collectionId", collection.ID).
					WithDetail("featureId", fid)
			}
			return err
		}
		collection.Features = append(collection.Features, feature)
	}
	return nil
}

// DeleteCollection cascades: referenced features first, the record last, so a
// crash mid-operation leaves at most an orphaned record
func (r *MongoGeoRepository) DeleteCollection(ctx context.Context, id string) error {
	oid, err := parseObjectID("feature collection", id)
	if err != nil {
		return err
	}

	var doc mongoFeatureCollection
	if err := r.collectionsCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperrors.NewNotFoundError("feature collection")
		}
		return apperrors.NewStorageError("failed to load feature collection").WithCause(err)
	}

	featureOIDs := make([]primitive.ObjectID, 0, len(doc.FeatureIDs))
	for _, fid := range doc.FeatureIDs {
		if foid, err := primitive.ObjectIDFromHex(fid); err == nil {
			featureOIDs = append(featureOIDs, foid)
		}
	}
	if len(featureOIDs) > 0 {
		filter := bson.M{"_id": bson.M{"$in": featureOIDs}}
		if _, err := r.featuresCollection.DeleteMany(ctx, filter); err != nil {
			return apperrors.NewStorageError("failed to delete referenced features").WithCause(err)
		}
	}

	if _, err := r.collectionsCollection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return apperrors.NewStorageError("failed to delete feature collection").WithCause(err)
	}
	return nil
}

// DeleteAll clears both stores. Debug/reset only.
func (r *MongoGeoRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.collectionsCollection.DeleteMany(ctx, bson.M{}); err != nil {
		return apperrors.NewStorageError("failed to clear feature collections").WithCause(err)
	}
	if _, err := r.featuresCollection.DeleteMany(ctx, bson.M{}); err != nil {
		return apperrors.NewStorageError("failed to clear features").WithCause(err)
	}
	return nil
}

// FeaturesWithinRadius runs a $centerSphere containment query. The angular
// radius is already in radians; the kilometer conversion happens upstream.
func (r *MongoGeoRepository) FeaturesWithinRadius(ctx context.Context, center orb.Point, radians float64) ([]*model.Feature, error) {
	filter := bson.M{
		"geometry": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{center[0], center[1]},
					radians,
				},
			},
		},
	}

	cursor, err := r.featuresCollection.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStorageError("within-circle query failed").WithCause(err)
	}
	return decodeFeatures(ctx, cursor)
}

// FeaturesWithinPolygon runs a $geoWithin/$geometry containment query
func (r *MongoGeoRepository) FeaturesWithinPolygon(ctx context.Context, ring orb.Ring) ([]*model.Feature, error) {
	filter := bson.M{
		"geometry": bson.M{
			"$geoWithin": bson.M{
				"$geometry": bson.M{
					"type":        "Polygon",
					"coordinates": []interface{}{lineCoords(ring)},
				},
			},
		},
	}

	cursor, err := r.featuresCollection.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStorageError("within-polygon query failed").WithCause(err)
	}
	return decodeFeatures(ctx, cursor)
}
