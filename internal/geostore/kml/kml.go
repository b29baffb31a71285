// Package kml converts between feature collections and KML markup. Conversion
// is best effort in the KML-to-GeoJSON direction: unsupported KML constructs
// are dropped, not erred. Multi geometries map to a single Placemark holding a
// MultiGeometry element, applied consistently both ways.
package kml

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

const namespace = "http://www.opengis.net/kml/2.2"

type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	XMLNS      string         `xml:"xmlns,attr"`
	Document   kmlDocument    `xml:"Document"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlDocument struct {
	Name       string         `xml:"name,omitempty"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlFolder struct {
	Name       string         `xml:"name,omitempty"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string            `xml:"name,omitempty"`
	Description   string            `xml:"description,omitempty"`
	ExtendedData  *kmlExtendedData  `xml:"ExtendedData"`
	Point         *kmlPoint         `xml:"Point"`
	LineString    *kmlLineString    `xml:"LineString"`
	Polygon       *kmlPolygon       `xml:"Polygon"`
	MultiGeometry *kmlMultiGeometry `xml:"MultiGeometry"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer string   `xml:"outerBoundaryIs>LinearRing>coordinates"`
	Inner []string `xml:"innerBoundaryIs>LinearRing>coordinates"`
}

type kmlMultiGeometry struct {
	Points      []kmlPoint      `xml:"Point"`
	LineStrings []kmlLineString `xml:"LineString"`
	Polygons    []kmlPolygon    `xml:"Polygon"`
}

type kmlExtendedData struct {
	Data []kmlData `xml:"Data"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

// formatCoords renders points as the KML coordinates text: whitespace
// separated "lon,lat" tuples. FormatFloat with precision -1 emits the shortest
// decimal that parses back to the identical float64, so coordinate sequences
// survive the round trip exactly.
func formatCoords(points []orb.Point) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(p[0], 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p[1], 'f', -1, 64))
	}
	return b.String()
}

// parseCoords reads KML coordinates text. Malformed tuples are skipped;
// altitude values beyond the lon,lat pair are ignored.
func parseCoords(s string) []orb.Point {
	var points []orb.Point
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		points = append(points, orb.Point{lon, lat})
	}
	return points
}
