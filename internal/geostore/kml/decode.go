package kml

import (
	"encoding/xml"
	"strconv"

	"theia-geo/internal/geostore/domain/model"
	apperrors "theia-geo/internal/shared/errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Decode parses KML markup into a feature collection. Placemark name,
// description and ExtendedData fields become feature properties; Document and
// Folder nesting is flattened in document order. Malformed XML is a parse
// error; KML constructs without a GeoJSON analogue are dropped.
func Decode(data []byte) (*model.FeatureCollection, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, apperrors.NewParseError("malformed KML document").WithCause(err)
	}

	fc := model.NewFeatureCollection(root.Document.Name, model.DefaultCRS())
	for _, pm := range root.Placemarks {
		fc.Features = append(fc.Features, placemarkFeatures(pm)...)
	}
	for _, folder := range root.Folders {
		fc.Features = append(fc.Features, folderFeatures(folder)...)
	}
	fc.Features = append(fc.Features, documentFeatures(root.Document)...)
	return fc, nil
}

func documentFeatures(doc kmlDocument) []*model.Feature {
	var features []*model.Feature
	for _, pm := range doc.Placemarks {
		features = append(features, placemarkFeatures(pm)...)
	}
	for _, folder := range doc.Folders {
		features = append(features, folderFeatures(folder)...)
	}
	return features
}

func folderFeatures(folder kmlFolder) []*model.Feature {
	var features []*model.Feature
	for _, pm := range folder.Placemarks {
		features = append(features, placemarkFeatures(pm)...)
	}
	for _, nested := range folder.Folders {
		features = append(features, folderFeatures(nested)...)
	}
	return features
}

// placemarkFeatures maps one Placemark to features. A homogeneous
// MultiGeometry becomes a single Multi* feature; a mixed one splits into one
// feature per member, each carrying the placemark's properties.
func placemarkFeatures(pm kmlPlacemark) []*model.Feature {
	geometries := placemarkGeometries(pm)
	if len(geometries) == 0 {
		return nil
	}

	features := make([]*model.Feature, 0, len(geometries))
	for _, g := range geometries {
		features = append(features, model.NewFeature(g, placemarkProperties(pm)))
	}
	return features
}

func placemarkProperties(pm kmlPlacemark) geojson.Properties {
	props := geojson.Properties{}
	if pm.Name != "" {
		props["name"] = pm.Name
	}
	if pm.Description != "" {
		props["description"] = pm.Description
	}
	if pm.ExtendedData != nil {
		for _, d := range pm.ExtendedData.Data {
			if d.Name != "" {
				props[d.Name] = sniffValue(d.Value)
			}
		}
	}
	return props
}

func placemarkGeometries(pm kmlPlacemark) []orb.Geometry {
	switch {
	case pm.Point != nil:
		if points := parseCoords(pm.Point.Coordinates); len(points) > 0 {
			return []orb.Geometry{points[0]}
		}
	case pm.LineString != nil:
		if points := parseCoords(pm.LineString.Coordinates); len(points) > 0 {
			return []orb.Geometry{orb.LineString(points)}
		}
	case pm.Polygon != nil:
		if poly := polygonGeometry(*pm.Polygon); poly != nil {
			return []orb.Geometry{poly}
		}
	case pm.MultiGeometry != nil:
		return multiGeometry(*pm.MultiGeometry)
	}
	return nil
}

func polygonGeometry(kp kmlPolygon) orb.Geometry {
	outer := parseCoords(kp.Outer)
	if len(outer) == 0 {
		return nil
	}
	poly := orb.Polygon{orb.Ring(outer)}
	for _, inner := range kp.Inner {
		if ring := parseCoords(inner); len(ring) > 0 {
			poly = append(poly, orb.Ring(ring))
		}
	}
	return poly
}

func multiGeometry(mg kmlMultiGeometry) []orb.Geometry {
	var points []orb.Geometry
	for _, p := range mg.Points {
		if parsed := parseCoords(p.Coordinates); len(parsed) > 0 {
			points = append(points, parsed[0])
		}
	}
	var lines []orb.Geometry
	for _, l := range mg.LineStrings {
		if parsed := parseCoords(l.Coordinates); len(parsed) > 0 {
			lines = append(lines, orb.LineString(parsed))
		}
	}
	var polygons []orb.Geometry
	for _, kp := range mg.Polygons {
		if poly := polygonGeometry(kp); poly != nil {
			polygons = append(polygons, poly)
		}
	}

	// Homogeneous members collapse back into the matching Multi* kind
	switch {
	case len(points) > 0 && len(lines) == 0 && len(polygons) == 0:
		mp := make(orb.MultiPoint, len(points))
		for i, g := range points {
			mp[i] = g.(orb.Point)
		}
		return []orb.Geometry{mp}
	case len(lines) > 0 && len(points) == 0 && len(polygons) == 0:
		mls := make(orb.MultiLineString, len(lines))
		for i, g := range lines {
			mls[i] = g.(orb.LineString)
		}
		return []orb.Geometry{mls}
	case len(polygons) > 0 && len(points) == 0 && len(lines) == 0:
		mp := make(orb.MultiPolygon, len(polygons))
		for i, g := range polygons {
			mp[i] = g.(orb.Polygon)
		}
		return []orb.Geometry{mp}
	}

	var mixed []orb.Geometry
	mixed = append(mixed, points...)
	mixed = append(mixed, lines...)
	mixed = append(mixed, polygons...)
	return mixed
}

// sniffValue recovers typed property values from KML extended-data text so
// number and bool properties survive a GeoJSON -> KML -> GeoJSON round trip
func sniffValue(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
