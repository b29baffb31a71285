package model

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TypeFeature is the fixed type tag carried by every feature
const TypeFeature = "Feature"

// GeometryTypes enumerates the geometry kinds the store accepts
var GeometryTypes = []string{
	"Point",
	"LineString",
	"Polygon",
	"MultiPoint",
	"MultiLineString",
	"MultiPolygon",
}

// Feature is one geographic entity: a geometry plus an open property bag.
// Features are owned by exactly one collection at a time and are only deleted
// by cascading from that collection, except for the debug delete path.
type Feature struct {
	ID         string
	Type       string
	Geometry   orb.Geometry
	Properties geojson.Properties
}

// NewFeature creates a feature with the fixed type tag applied
func NewFeature(geometry orb.Geometry, properties geojson.Properties) *Feature {
	if properties == nil {
		properties = geojson.Properties{}
	}
	return &Feature{
		Type:       TypeFeature,
		Geometry:   geometry,
		Properties: properties,
	}
}

// featureJSON is the wire shape of a feature
type featureJSON struct {
	ID         string             `json:"id,omitempty"`
	Type       string             `json:"type"`
	Geometry   *geojson.Geometry  `json:"geometry"`
	Properties geojson.Properties `json:"properties"`
}

// MarshalJSON renders the feature as a GeoJSON Feature object
func (f *Feature) MarshalJSON() ([]byte, error) {
	out := featureJSON{
		ID:         f.ID,
		Type:       TypeFeature,
		Properties: f.Properties,
	}
	if out.Properties == nil {
		out.Properties = geojson.Properties{}
	}
	if f.Geometry != nil {
		out.Geometry = geojson.NewGeometry(f.Geometry)
	}
	return json.Marshal(&out)
}

// UnmarshalJSON parses a GeoJSON Feature object
func (f *Feature) UnmarshalJSON(data []byte) error {
	var in featureJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f.ID = in.ID
	f.Type = in.Type
	f.Properties = in.Properties
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	if in.Geometry != nil {
		f.Geometry = in.Geometry.Geometry()
	} else {
		f.Geometry = nil
	}
	return nil
}

// Clone returns a deep copy so stored features never alias caller memory
func (f *Feature) Clone() *Feature {
	out := &Feature{
		ID:   f.ID,
		Type: f.Type,
	}
	if f.Geometry != nil {
		out.Geometry = orb.Clone(f.Geometry)
	}
	if f.Properties != nil {
		out.Properties = f.Properties.Clone()
	}
	return out
}
