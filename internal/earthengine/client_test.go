package earthengine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	eeapi "google.golang.org/api/earthengine/v1"
	"google.golang.org/api/googleapi"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(context.Background(), server.Client(), "test-project", WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestComputeValue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/test-project/value:compute", r.URL.Path)
		assert.Equal(t, "test-project", r.Header.Get("X-Goog-User-Project"))

		var req eeapi.ComputeValueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Expression)
		root := req.Expression.Values[req.Expression.Result].FunctionInvocationValue
		require.NotNil(t, root)
		assert.Equal(t, "Collection.size", root.FunctionName)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": 12}`))
	})

	var size int
	err := client.ComputeValue(context.Background(), LoadImageCollection("A").Size(), &size)
	require.NoError(t, err)
	assert.Equal(t, 12, size)
}

func TestComputeValueStructuredResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": ["January 2024", "February 2024"]}`))
	})

	var labels []string
	require.NoError(t, client.ComputeValue(context.Background(), LoadImageCollection("A").AggregateArray("month_name"), &labels))
	assert.Equal(t, []string{"January 2024", "February 2024"}, labels)
}

func TestComputeValueRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "Collection.load: ImageCollection asset 'X' not found.", "status": "INVALID_ARGUMENT"}}`))
	})

	var out any
	err := client.ComputeValue(context.Background(), LoadImageCollection("X").Size(), &out)
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Contains(t, apiErr.Message, "not found")
}

func TestNonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})

	err := client.ComputeValue(context.Background(), Constant(1), nil)
	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Code)
	assert.Contains(t, apiErr.Body, "upstream unavailable")
}

func TestCreateMap(t *testing.T) {
	vis := VisParams{Min: 0, Max: 70, Palette: []string{"000080", "800000"}}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/test-project/maps", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "PNG", req["fileFormat"])
		options := req["visualizationOptions"].(map[string]any)
		assert.Equal(t, []any{map[string]any{"min": 0.0, "max": 70.0}}, options["ranges"])
		assert.Equal(t, []any{"000080", "800000"}, options["paletteColors"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name": "projects/test-project/maps/abc123"}`))
	})

	mapID, err := client.CreateMap(context.Background(), ImageConstant(1), vis)
	require.NoError(t, err)
	assert.Equal(t, "projects/test-project/maps/abc123", mapID.Name)
	assert.Contains(t, mapID.TileURL, "/v1/projects/test-project/maps/abc123/tiles/{z}/{x}/{y}")
}

func TestThumbnail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/projects/test-project/thumbnails":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name": "projects/test-project/thumbnails/t1"}`))
		case "/v1/projects/test-project/thumbnails/t1:getPixels":
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("PNGDATA"))
		default:
			http.NotFound(w, r)
		}
	})

	name, err := client.CreateThumbnail(context.Background(), ImageConstant(1), VisParams{Max: 1})
	require.NoError(t, err)
	assert.Equal(t, "projects/test-project/thumbnails/t1", name)

	pixels, err := client.ThumbnailPixels(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, []byte("PNGDATA"), pixels)

	_, err = client.ThumbnailPixels(context.Background(), "projects/test-project/thumbnails/missing")
	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}
