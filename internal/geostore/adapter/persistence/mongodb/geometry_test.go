package mongodb

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestGeometryBSON_RoundTrip(t *testing.T) {
	ring := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
	cases := []struct {
		name string
		geom orb.Geometry
	}{
		{"point", orb.Point{-116.9, 33.0}},
		{"multi point", orb.MultiPoint{{1, 2}, {3, 4}}},
		{"line string", orb.LineString{{0, 0}, {1, 1}, {2, 0}}},
		{"multi line string", orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}},
		{"polygon", orb.Polygon{ring}},
		{"multi polygon", orb.MultiPolygon{{ring}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := geometryToBSON(tc.geom)
			require.NoError(t, err)
			assert.Equal(t, tc.geom.GeoJSONType(), doc["type"])

			back, err := geometryFromBSON(doc)
			require.NoError(t, err)
			assert.Equal(t, tc.geom, back)
		})
	}
}

func TestGeometryBSON_SurvivesDriverEncoding(t *testing.T) {
	// values come back from the driver as bson.A/bson.M, not native slices
	doc, err := geometryToBSON(orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}})
	require.NoError(t, err)

	raw, err := bson.Marshal(bson.M{"geometry": doc})
	require.NoError(t, err)

	var decoded struct {
		Geometry bson.M `bson:"geometry"`
	}
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	back, err := geometryFromBSON(decoded.Geometry)
	require.NoError(t, err)
	assert.Equal(t, orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}, back)
}

func TestGeometryToBSON_Rejects(t *testing.T) {
	_, err := geometryToBSON(nil)
	assert.Error(t, err)

	_, err = geometryToBSON(orb.Collection{orb.Point{0, 0}})
	assert.Error(t, err)
}

func TestGeometryFromBSON_Rejects(t *testing.T) {
	_, err := geometryFromBSON(bson.M{"type": "Point"})
	assert.Error(t, err)

	_, err = geometryFromBSON(bson.M{"type": "Blob", "coordinates": bson.A{}})
	assert.Error(t, err)

	_, err = geometryFromBSON(bson.M{"type": "Point", "coordinates": bson.A{1.0}})
	assert.Error(t, err)

	_, err = geometryFromBSON(bson.M{"type": "Point", "coordinates": bson.A{"a", "b"}})
	assert.Error(t, err)
}
