package kml

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"theia-geo/internal/geostore/domain/model"
	apperrors "theia-geo/internal/shared/errors"

	"github.com/paulmach/orb"
)

// Encode renders a feature collection as KML markup. Each feature becomes one
// Placemark; the "name" and "description" properties map to the elements of
// the same name and every other scalar property becomes an ExtendedData field.
// Non-scalar property values have no KML extended-data representation and are
// dropped. Multi* geometries wrap their members in a single MultiGeometry.
func Encode(fc *model.FeatureCollection) ([]byte, error) {
	doc := kmlDocument{Name: fc.Name}
	for _, f := range fc.Features {
		pm, err := placemarkFromFeature(f)
		if err != nil {
			return nil, err
		}
		doc.Placemarks = append(doc.Placemarks, pm)
	}

	root := kmlRoot{XMLNS: namespace, Document: doc}
	out, err := xml.MarshalIndent(&root, "", "  ")
	if err != nil {
		return nil, apperrors.NewConversionError("failed to render KML document").WithCause(err)
	}
	return append([]byte(xml.Header), out...), nil
}

func placemarkFromFeature(f *model.Feature) (kmlPlacemark, error) {
	pm := kmlPlacemark{}

	keys := make([]string, 0, len(f.Properties))
	for k := range f.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data []kmlData
	for _, k := range keys {
		text, ok := formatScalar(f.Properties[k])
		if !ok {
			continue
		}
		switch k {
		case "name":
			pm.Name = text
		case "description":
			pm.Description = text
		default:
			data = append(data, kmlData{Name: k, Value: text})
		}
	}
	if len(data) > 0 {
		pm.ExtendedData = &kmlExtendedData{Data: data}
	}

	if err := setPlacemarkGeometry(&pm, f.Geometry); err != nil {
		return kmlPlacemark{}, err
	}
	return pm, nil
}

func setPlacemarkGeometry(pm *kmlPlacemark, g orb.Geometry) error {
	switch geom := g.(type) {
	case orb.Point:
		pm.Point = &kmlPoint{Coordinates: formatCoords([]orb.Point{geom})}
	case orb.LineString:
		pm.LineString = &kmlLineString{Coordinates: formatCoords(geom)}
	case orb.Polygon:
		pm.Polygon = polygonElement(geom)
	case orb.MultiPoint:
		mg := &kmlMultiGeometry{}
		for _, p := range geom {
			mg.Points = append(mg.Points, kmlPoint{Coordinates: formatCoords([]orb.Point{p})})
		}
		pm.MultiGeometry = mg
	case orb.MultiLineString:
		mg := &kmlMultiGeometry{}
		for _, line := range geom {
			mg.LineStrings = append(mg.LineStrings, kmlLineString{Coordinates: formatCoords(line)})
		}
		pm.MultiGeometry = mg
	case orb.MultiPolygon:
		mg := &kmlMultiGeometry{}
		for _, poly := range geom {
			mg.Polygons = append(mg.Polygons, *polygonElement(poly))
		}
		pm.MultiGeometry = mg
	case nil:
		return apperrors.NewConversionError("feature has no geometry to convert")
	default:
		return apperrors.NewConversionError(fmt.Sprintf("geometry type %q has no KML analogue", g.GeoJSONType()))
	}
	return nil
}

func polygonElement(poly orb.Polygon) *kmlPolygon {
	kp := &kmlPolygon{}
	if len(poly) > 0 {
		kp.Outer = formatCoords(poly[0])
		for _, inner := range poly[1:] {
			kp.Inner = append(kp.Inner, formatCoords(inner))
		}
	}
	return kp
}

// formatScalar renders a property value as extended-data text. The second
// return reports whether the value is representable at all.
func formatScalar(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
