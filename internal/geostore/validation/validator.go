// Package validation implements the structural GeoJSON checks that gate every
// payload before it reaches the store. Data only enters the database after
// passing these checks; format conversion happens before them.
package validation

import (
	"encoding/json"
	"fmt"

	"theia-geo/internal/geostore/domain/model"

	"github.com/paulmach/orb"
)

// Validator verifies the structural validity of GeoJSON payloads
type Validator struct{}

// New creates a Validator
func New() *Validator {
	return &Validator{}
}

// Valid reports whether raw is a structurally valid GeoJSON FeatureCollection
func (v *Validator) Valid(raw []byte) bool {
	return v.Validate(raw) == nil
}

// Validate checks raw against the FeatureCollection structure: root and
// feature type tags, geometry kind enumeration, coordinate nesting per kind,
// and polygon ring closure.
func (v *Validator) Validate(raw []byte) error {
	var payload rawCollection
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("not a JSON object: %w", err)
	}
	if payload.Type != model.TypeFeatureCollection {
		return fmt.Errorf("type must be %q, got %q", model.TypeFeatureCollection, payload.Type)
	}
	if payload.Features == nil {
		return fmt.Errorf("features member is required")
	}
	if payload.CRS != nil {
		if err := validateCRS(payload.CRS); err != nil {
			return err
		}
	}
	for i, f := range payload.Features {
		if f.Type != model.TypeFeature {
			return fmt.Errorf("features[%d]: type must be %q, got %q", i, model.TypeFeature, f.Type)
		}
		if f.Geometry == nil {
			return fmt.Errorf("features[%d]: geometry is required", i)
		}
		if err := validateRawGeometry(f.Geometry); err != nil {
			return fmt.Errorf("features[%d]: %w", i, err)
		}
	}
	return nil
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
	CRS      *model.CRS   `json:"crs"`
}

type rawFeature struct {
	Type     string       `json:"type"`
	Geometry *rawGeometry `json:"geometry"`
}

type rawGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// CheckCRS validates an already parsed CRS tag. Nil is allowed, absent CRS
// falls back to the model default.
func CheckCRS(crs *model.CRS) error {
	if crs == nil {
		return nil
	}
	return validateCRS(crs)
}

func validateCRS(crs *model.CRS) error {
	if crs.Type != "name" {
		return fmt.Errorf("crs type must be %q, got %q", "name", crs.Type)
	}
	if crs.Properties.Name == "" {
		return fmt.Errorf("crs properties.name is required")
	}
	return nil
}

func validateRawGeometry(g *rawGeometry) error {
	if g.Coordinates == nil {
		return fmt.Errorf("geometry coordinates are required")
	}
	switch g.Type {
	case "Point":
		return checkPosition(g.Coordinates)
	case "MultiPoint":
		return checkPositionList(g.Coordinates, 1)
	case "LineString":
		return checkPositionList(g.Coordinates, 2)
	case "MultiLineString":
		return forEach(g.Coordinates, func(line interface{}) error {
			return checkPositionList(line, 2)
		})
	case "Polygon":
		return checkRingList(g.Coordinates)
	case "MultiPolygon":
		return forEach(g.Coordinates, checkRingList)
	default:
		return fmt.Errorf("unknown geometry type %q", g.Type)
	}
}

func forEach(v interface{}, check func(interface{}) error) error {
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return fmt.Errorf("expected a non-empty array")
	}
	for _, item := range list {
		if err := check(item); err != nil {
			return err
		}
	}
	return nil
}

// checkPosition verifies a [longitude, latitude(, altitude)] pair
func checkPosition(v interface{}) error {
	pos, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("position must be an array")
	}
	if len(pos) < 2 || len(pos) > 3 {
		return fmt.Errorf("position must hold 2 or 3 numbers, got %d", len(pos))
	}
	for _, c := range pos {
		if _, ok := c.(float64); !ok {
			return fmt.Errorf("position coordinates must be numbers")
		}
	}
	return nil
}

func checkPositionList(v interface{}, min int) error {
	list, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("expected an array of positions")
	}
	if len(list) < min {
		return fmt.Errorf("expected at least %d positions, got %d", min, len(list))
	}
	for _, p := range list {
		if err := checkPosition(p); err != nil {
			return err
		}
	}
	return nil
}

// checkRingList verifies polygon coordinates: a list of linear rings, each a
// closed list of at least 4 positions
func checkRingList(v interface{}) error {
	rings, ok := v.([]interface{})
	if !ok || len(rings) == 0 {
		return fmt.Errorf("polygon must hold at least one ring")
	}
	for _, r := range rings {
		if err := checkPositionList(r, 4); err != nil {
			return err
		}
		ring := r.([]interface{})
		if !samePosition(ring[0], ring[len(ring)-1]) {
			return fmt.Errorf("ring first and last positions must match")
		}
	}
	return nil
}

func samePosition(a, b interface{}) bool {
	pa := a.([]interface{})
	pb := b.([]interface{})
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i].(float64) != pb[i].(float64) {
			return false
		}
	}
	return true
}

// CheckGeometry applies the same structural invariants to an already parsed
// geometry. Used on the direct feature-creation path where no raw payload
// exists.
func CheckGeometry(g orb.Geometry) error {
	switch geom := g.(type) {
	case orb.Point:
		return nil
	case orb.MultiPoint:
		if len(geom) == 0 {
			return fmt.Errorf("MultiPoint must hold at least one point")
		}
		return nil
	case orb.LineString:
		if len(geom) < 2 {
			return fmt.Errorf("LineString must hold at least 2 positions")
		}
		return nil
	case orb.MultiLineString:
		if len(geom) == 0 {
			return fmt.Errorf("MultiLineString must hold at least one line")
		}
		for _, line := range geom {
			if err := CheckGeometry(line); err != nil {
				return err
			}
		}
		return nil
	case orb.Polygon:
		if len(geom) == 0 {
			return fmt.Errorf("Polygon must hold at least one ring")
		}
		for _, ring := range geom {
			if len(ring) < 4 {
				return fmt.Errorf("ring must hold at least 4 positions")
			}
			if !ring.Closed() {
				return fmt.Errorf("ring first and last positions must match")
			}
		}
		return nil
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return fmt.Errorf("MultiPolygon must hold at least one polygon")
		}
		for _, poly := range geom {
			if err := CheckGeometry(poly); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return fmt.Errorf("geometry is required")
	default:
		return fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
}
