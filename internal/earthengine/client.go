package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	eeapi "google.golang.org/api/earthengine/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const DefaultBaseURL = "https://earthengine.googleapis.com/"

// Client talks to the Earth Engine REST API on behalf of one cloud project.
// The http.Client is expected to carry the OAuth2 credentials.
type Client struct {
	service    *eeapi.Service
	httpClient *http.Client
	project    string
}

// NewClient builds the API service on top of httpClient. Further options,
// typically option.WithEndpoint, are passed to the service.
func NewClient(ctx context.Context, httpClient *http.Client, project string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := eeapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create earth engine service: %w", err)
	}
	return &Client{service: service, httpClient: httpClient, project: project}, nil
}

// WithBaseURL points the client to another API root, mostly for tests.
func WithBaseURL(baseURL string) option.ClientOption {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return option.WithEndpoint(baseURL)
}

func (c *Client) Project() string {
	return c.project
}

func (c *Client) parent() string {
	return "projects/" + c.project
}

// bill sends usage to the client's project rather than the OAuth client's.
func (c *Client) bill(header http.Header) {
	if c.project != "" {
		header.Set("X-Goog-User-Project", c.project)
	}
}

func (c *Client) baseURL() string {
	return strings.TrimSuffix(c.service.BasePath, "/")
}

// VisParams are the display settings of a single-band layer.
type VisParams struct {
	Min     float64
	Max     float64
	Palette []string
	Bands   []string
}

func (v VisParams) options() *eeapi.VisualizationOptions {
	return &eeapi.VisualizationOptions{
		Ranges: []*eeapi.DoubleRange{{
			Min:             v.Min,
			Max:             v.Max,
			ForceSendFields: []string{"Min", "Max"},
		}},
		PaletteColors: v.Palette,
	}
}

// MapID identifies a tile set rendered by the service.
type MapID struct {
	Name    string
	TileURL string
}

// ComputeValue evaluates obj on the server and decodes the result into out.
func (c *Client) ComputeValue(ctx context.Context, obj Computed, out any) error {
	expr, err := Serialize(obj)
	if err != nil {
		return err
	}
	call := c.service.Projects.Value.Compute(c.parent(), &eeapi.ComputeValueRequest{Expression: expr})
	c.bill(call.Header())
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to compute value: %w", err)
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("failed to encode computed value: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode computed value: %w", err)
	}
	return nil
}

// CreateMap registers img for tiled display with the given visualization.
func (c *Client) CreateMap(ctx context.Context, img Image, vis VisParams) (*MapID, error) {
	expr, err := Serialize(img)
	if err != nil {
		return nil, err
	}
	call := c.service.Projects.Maps.Create(c.parent(), &eeapi.EarthEngineMap{
		Expression:           expr,
		FileFormat:           "PNG",
		BandIds:              vis.Bands,
		VisualizationOptions: vis.options(),
	})
	c.bill(call.Header())
	m, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create map: %w", err)
	}
	return &MapID{
		Name:    m.Name,
		TileURL: fmt.Sprintf("%s/v1/%s/tiles/{z}/{x}/{y}", c.baseURL(), m.Name),
	}, nil
}

// CreateThumbnail registers a PNG rendering of img and returns its resource
// name. Size and extent must already be baked into img, see
// Image.ClipToBoundsAndScale.
func (c *Client) CreateThumbnail(ctx context.Context, img Image, vis VisParams) (string, error) {
	expr, err := Serialize(img)
	if err != nil {
		return "", err
	}
	call := c.service.Projects.Thumbnails.Create(c.parent(), &eeapi.Thumbnail{
		Expression:           expr,
		FileFormat:           "PNG",
		BandIds:              vis.Bands,
		VisualizationOptions: vis.options(),
	})
	c.bill(call.Header())
	thumbnail, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail: %w", err)
	}
	return thumbnail.Name, nil
}

// ThumbnailPixels downloads the encoded image of a thumbnail. The endpoint
// answers with raw image bytes, which the generated call would try to decode
// as JSON, so the request goes through the authorized client directly.
func (c *Client) ThumbnailPixels(ctx context.Context, name string) ([]byte, error) {
	url := fmt.Sprintf("%s/v1/%s:getPixels", c.baseURL(), name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.bill(req.Header)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download thumbnail: %w", err)
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to download thumbnail: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail: %w", err)
	}
	return body, nil
}
