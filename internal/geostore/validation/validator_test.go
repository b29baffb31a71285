package validation

import (
	"testing"

	"theia-geo/internal/geostore/domain/model"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestValidate_AcceptsWellFormedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{
			"single point",
			`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[-116.9,33.0]},"properties":{"name":"A"}}]}`,
		},
		{
			"empty features",
			`{"type":"FeatureCollection","features":[]}`,
		},
		{
			"named with crs",
			`{"type":"FeatureCollection","name":"Survey","crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::4326"}},"features":[]}`,
		},
		{
			"polygon with closed ring",
			`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]},"properties":{}}]}`,
		},
		{
			"multi line string",
			`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[0,0],[1,1]],[[2,2],[3,3]]]},"properties":{}}]}`,
		},
		{
			"point with altitude",
			`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[-116.9,33.0,120.5]},"properties":{}}]}`,
		},
	}
	v := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, v.Valid([]byte(tc.payload)), "expected valid: %v", v.Validate([]byte(tc.payload)))
		})
	}
}

func TestValidate_RejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `not json at all`},
		{"wrong root type", `{"type":"Feature","features":[]}`},
		{"missing features", `{"type":"FeatureCollection"}`},
		{"feature wrong type", `{"type":"FeatureCollection","features":[{"type":"Point","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}]}`},
		{"missing geometry", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{}}]}`},
		{"unknown geometry kind", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Circle","coordinates":[0,0]},"properties":{}}]}`},
		{"point arity", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1]},"properties":{}}]}`},
		{"point non numeric", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":["a","b"]},"properties":{}}]}`},
		{"line single position", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0]]},"properties":{}}]}`},
		{"open ring", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4]]]},"properties":{}}]}`},
		{"short ring", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[0,0]]]},"properties":{}}]}`},
		{"bad crs type", `{"type":"FeatureCollection","crs":{"type":"link","properties":{"name":"x"}},"features":[]}`},
		{"empty crs name", `{"type":"FeatureCollection","crs":{"type":"name","properties":{"name":""}},"features":[]}`},
	}
	v := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, v.Valid([]byte(tc.payload)))
		})
	}
}

func TestCheckGeometry(t *testing.T) {
	closed := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
	open := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}

	assert.NoError(t, CheckGeometry(orb.Point{-116.9, 33.0}))
	assert.NoError(t, CheckGeometry(orb.LineString{{0, 0}, {1, 1}}))
	assert.NoError(t, CheckGeometry(orb.Polygon{closed}))
	assert.NoError(t, CheckGeometry(orb.MultiPolygon{{closed}}))
	assert.NoError(t, CheckGeometry(orb.MultiPoint{{0, 0}}))
	assert.NoError(t, CheckGeometry(orb.MultiLineString{{{0, 0}, {1, 1}}}))

	assert.Error(t, CheckGeometry(nil))
	assert.Error(t, CheckGeometry(orb.LineString{{0, 0}}))
	assert.Error(t, CheckGeometry(orb.Polygon{open}))
	assert.Error(t, CheckGeometry(orb.Polygon{}))
	assert.Error(t, CheckGeometry(orb.MultiPoint{}))
	assert.Error(t, CheckGeometry(orb.Collection{orb.Point{0, 0}}))
}

func TestCheckCRS(t *testing.T) {
	assert.NoError(t, CheckCRS(nil))
	assert.NoError(t, CheckCRS(model.DefaultCRS()))

	assert.Error(t, CheckCRS(&model.CRS{Type: "link"}))
	assert.Error(t, CheckCRS(&model.CRS{Type: "name"}))
}
