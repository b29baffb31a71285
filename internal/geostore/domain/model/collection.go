package model

// TypeFeatureCollection is the fixed type tag carried by every collection
const TypeFeatureCollection = "FeatureCollection"

// DefaultCRSName is the CRS URN stamped onto synthesized query results
const DefaultCRSName = "urn:ogc:def:crs:EPSG::4326"

// CRS is an opaque coordinate-reference-system tag. It is stored and echoed
// verbatim; coordinates are never transformed.
type CRS struct {
	Type       string        `json:"type" bson:"type"`
	Properties CRSProperties `json:"properties" bson:"properties"`
}

// CRSProperties carries the CRS URN
type CRSProperties struct {
	Name string `json:"name" bson:"name"`
}

// DefaultCRS returns the EPSG:4326 name tag
func DefaultCRS() *CRS {
	return &CRS{
		Type:       "name",
		Properties: CRSProperties{Name: DefaultCRSName},
	}
}

// FeatureCollection is a named, ordered group of feature references. The
// persisted record holds only FeatureIDs; Features is resolved on read and
// never stored, so geometry lives in exactly one place.
type FeatureCollection struct {
	ID         string     `json:"id,omitempty"`
	Type       string     `json:"type"`
	Name       string     `json:"name,omitempty"`
	CRS        *CRS       `json:"crs,omitempty"`
	FeatureIDs []string   `json:"featureIds,omitempty"`
	Features   []*Feature `json:"features,omitempty"`
}

// NewFeatureCollection creates an empty collection with the fixed type tag
func NewFeatureCollection(name string, crs *CRS) *FeatureCollection {
	return &FeatureCollection{
		Type: TypeFeatureCollection,
		Name: name,
		CRS:  crs,
	}
}
