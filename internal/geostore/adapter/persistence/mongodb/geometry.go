package mongodb

import (
	"fmt"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
)

// Geometries are stored in their GeoJSON shape ({type, coordinates}) so the
// 2dsphere index and the $geoWithin operators apply to them directly.

// geometryToBSON converts an orb.Geometry to its stored document form
func geometryToBSON(g orb.Geometry) (bson.M, error) {
	switch geom := g.(type) {
	case orb.Point:
		return bson.M{"type": "Point", "coordinates": pointCoords(geom)}, nil
	case orb.MultiPoint:
		coords := make([]interface{}, len(geom))
		for i, p := range geom {
			coords[i] = pointCoords(p)
		}
		return bson.M{"type": "MultiPoint", "coordinates": coords}, nil
	case orb.LineString:
		return bson.M{"type": "LineString", "coordinates": lineCoords(geom)}, nil
	case orb.MultiLineString:
		coords := make([]interface{}, len(geom))
		for i, line := range geom {
			coords[i] = lineCoords(line)
		}
		return bson.M{"type": "MultiLineString", "coordinates": coords}, nil
	case orb.Polygon:
		return bson.M{"type": "Polygon", "coordinates": polygonCoords(geom)}, nil
	case orb.MultiPolygon:
		coords := make([]interface{}, len(geom))
		for i, poly := range geom {
			coords[i] = polygonCoords(poly)
		}
		return bson.M{"type": "MultiPolygon", "coordinates": coords}, nil
	case nil:
		return nil, fmt.Errorf("geometry is required")
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
}

func pointCoords(p orb.Point) []float64 {
	return []float64{p[0], p[1]}
}

func lineCoords(points []orb.Point) []interface{} {
	out := make([]interface{}, len(points))
	for i, p := range points {
		out[i] = pointCoords(p)
	}
	return out
}

func polygonCoords(poly orb.Polygon) []interface{} {
	out := make([]interface{}, len(poly))
	for i, ring := range poly {
		out[i] = lineCoords(ring)
	}
	return out
}

// geometryFromBSON rebuilds an orb.Geometry from its stored document form
func geometryFromBSON(doc bson.M) (orb.Geometry, error) {
	kind, _ := doc["type"].(string)
	coords := doc["coordinates"]
	if coords == nil {
		return nil, fmt.Errorf("stored geometry has no coordinates")
	}

	switch kind {
	case "Point":
		return decodePoint(coords)
	case "MultiPoint":
		points, err := decodePointList(coords)
		if err != nil {
			return nil, err
		}
		return orb.MultiPoint(points), nil
	case "LineString":
		points, err := decodePointList(coords)
		if err != nil {
			return nil, err
		}
		return orb.LineString(points), nil
	case "MultiLineString":
		list, err := decodeList(coords)
		if err != nil {
			return nil, err
		}
		out := make(orb.MultiLineString, len(list))
		for i, item := range list {
			points, err := decodePointList(item)
			if err != nil {
				return nil, err
			}
			out[i] = orb.LineString(points)
		}
		return out, nil
	case "Polygon":
		return decodePolygon(coords)
	case "MultiPolygon":
		list, err := decodeList(coords)
		if err != nil {
			return nil, err
		}
		out := make(orb.MultiPolygon, len(list))
		for i, item := range list {
			poly, err := decodePolygon(item)
			if err != nil {
				return nil, err
			}
			out[i] = poly
		}
		return out, nil
	default:
		return nil, fmt.Errorf("stored geometry has unknown type %q", kind)
	}
}

func decodeList(v interface{}) ([]interface{}, error) {
	switch list := v.(type) {
	case bson.A:
		return list, nil
	case []interface{}:
		return list, nil
	default:
		return nil, fmt.Errorf("stored coordinates have unexpected shape %T", v)
	}
}

func decodePoint(v interface{}) (orb.Point, error) {
	list, err := decodeList(v)
	if err != nil {
		return orb.Point{}, err
	}
	if len(list) < 2 {
		return orb.Point{}, fmt.Errorf("stored position holds %d values", len(list))
	}
	lon, err := toFloat(list[0])
	if err != nil {
		return orb.Point{}, err
	}
	lat, err := toFloat(list[1])
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{lon, lat}, nil
}

func decodePointList(v interface{}) ([]orb.Point, error) {
	list, err := decodeList(v)
	if err != nil {
		return nil, err
	}
	out := make([]orb.Point, len(list))
	for i, item := range list {
		p, err := decodePoint(item)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func decodePolygon(v interface{}) (orb.Polygon, error) {
	list, err := decodeList(v)
	if err != nil {
		return nil, err
	}
	out := make(orb.Polygon, len(list))
	for i, item := range list {
		points, err := decodePointList(item)
		if err != nil {
			return nil, err
		}
		out[i] = orb.Ring(points)
	}
	return out, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("stored coordinate has unexpected type %T", v)
	}
}
