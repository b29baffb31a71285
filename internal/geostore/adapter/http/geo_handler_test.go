package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"theia-geo/internal/geostore/adapter/persistence/memory"
	"theia-geo/internal/geostore/usecase"
	"theia-geo/internal/geostore/validation"
	"theia-geo/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := logger.NewLoggerWithConfig("fatal", "json")
	uc := usecase.NewGeoUsecase(memory.NewGeoRepository(), validation.New(), log)
	h := NewGeoHTTPHandler(uc, log)

	app := fiber.New()
	app.Use(RequestIDMiddleware())
	h.RegisterRoutes(app)
	return app
}

const ingestBody = `{
	"type": "FeatureCollection",
	"name": "Sites",
	"crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::4326"}},
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [-116.9, 33.0]}, "properties": {"name": "A"}}
	]
}`

func postJSON(t *testing.T, app *fiber.App, path, body string) (map[string]interface{}, int) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded, resp.StatusCode
}

func TestIngestGeoJSONEndpoint(t *testing.T) {
	app := newTestApp(t)

	created, status := postJSON(t, app, "/api/collections", ingestBody)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Sites", created["name"])
	assert.NotEmpty(t, created["id"])

	ids, ok := created["featureIds"].([]interface{})
	require.True(t, ok)
	assert.Len(t, ids, 1)
	// the record references features, it never embeds them
	assert.NotContains(t, created, "features")
}

func TestIngestGeoJSONEndpointRejectsInvalidPayload(t *testing.T) {
	app := newTestApp(t)

	body, status := postJSON(t, app, "/api/collections", `{"type": "Feature"}`)
	assert.Equal(t, 400, status)
	assert.Contains(t, body["message"], "invalid geoJSON")
}

func TestGetCollectionEndpoint(t *testing.T) {
	app := newTestApp(t)
	created, _ := postJSON(t, app, "/api/collections", ingestBody)
	id := created["id"].(string)

	req := httptest.NewRequest("GET", "/api/collections/"+id+"?includeFeatures=true", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var resolved map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&resolved))
	features := resolved["features"].([]interface{})
	require.Len(t, features, 1)
	props := features[0].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, "A", props["name"])
}

func TestGetCollectionEndpointStatusMapping(t *testing.T) {
	app := newTestApp(t)

	// malformed id is a client error, not a miss
	resp, err := app.Test(httptest.NewRequest("GET", "/api/collections/not-an-id", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/collections/64b0c55f2f8fb814c8f1a000", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestKMLEndpoints(t *testing.T) {
	app := newTestApp(t)
	created, _ := postJSON(t, app, "/api/collections", ingestBody)
	id := created["id"].(string)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/collections/"+id+"/kml", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, KMLContentType, resp.Header.Get("Content-Type"))

	rendered, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "<Placemark>")

	// the export round-trips through the KML ingest endpoint
	req := httptest.NewRequest("POST", "/api/collections/kml", bytes.NewReader(rendered))
	req.Header.Set("Content-Type", KMLContentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestDeleteCollectionEndpointCascades(t *testing.T) {
	app := newTestApp(t)
	created, _ := postJSON(t, app, "/api/collections", ingestBody)
	id := created["id"].(string)
	featureID := created["featureIds"].([]interface{})[0].(string)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/collections/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/collections/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/features/"+featureID, nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestFeatureEndpoints(t *testing.T) {
	app := newTestApp(t)

	created, status := postJSON(t, app, "/api/features", `{
		"geometry": {"type": "Point", "coordinates": [-116.9, 33.0]},
		"properties": {"name": "standalone"}
	}`)
	require.Equal(t, 200, status)
	id := created["id"].(string)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/features", nil))
	require.NoError(t, err)
	var all map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	assert.Equal(t, "All Features", all["name"])
	assert.Len(t, all["features"], 1)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/features/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/features/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestWithinCircleEndpoint(t *testing.T) {
	app := newTestApp(t)
	postJSON(t, app, "/api/collections", ingestBody)

	result, status := postJSON(t, app, "/api/query/within-circle",
		`{"center": [-116.9, 33.0], "radiusKm": 1}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Within Circle", result["name"])
	assert.NotContains(t, result, "id")
	assert.Len(t, result["features"], 1)

	result, status = postJSON(t, app, "/api/query/within-circle",
		`{"center": [-116.9, 33.0], "radiusKm": -1}`)
	assert.Equal(t, 400, status)
	assert.Contains(t, result["message"], "radius")
}

func TestWithinPolygonEndpoint(t *testing.T) {
	app := newTestApp(t)
	postJSON(t, app, "/api/collections", ingestBody)

	result, status := postJSON(t, app, "/api/query/within-polygon",
		`{"coordinates": [[-117,32.9],[-116.8,32.9],[-116.8,33.1],[-117,33.1],[-117,32.9]]}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Within Polygon", result["name"])
	assert.Len(t, result["features"], 1)

	result, status = postJSON(t, app, "/api/query/within-polygon",
		`{"coordinates": [[0,0],[1,1]]}`)
	assert.Equal(t, 400, status)
	assert.Contains(t, result["message"], "polygon")
}

func TestDeleteAllEndpoint(t *testing.T) {
	app := newTestApp(t)
	postJSON(t, app, "/api/collections", ingestBody)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/collections", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/collections", nil))
	require.NoError(t, err)
	var collections []interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&collections))
	assert.Empty(t, collections)
}

func TestRequestIDMiddleware(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/features", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	req := httptest.NewRequest("GET", "/api/features", nil)
	req.Header.Set(HeaderRequestID, "trace-me")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "trace-me", resp.Header.Get(HeaderRequestID))
}
