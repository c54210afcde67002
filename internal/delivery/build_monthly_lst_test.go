package delivery

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/lst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var january = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// fakeSession answers the queries the pipeline sends. January has no
// scenes; every other month has three.
type fakeSession struct {
	mu             sync.Mutex
	sizeErr        error
	thumbnailErr   error
	mapVis         []earthengine.VisParams
	thumbnailVis   []earthengine.VisParams
	thumbnailCalls int
	statsRequests  int
}

func (f *fakeSession) ComputeValue(ctx context.Context, obj earthengine.Computed, out any) error {
	n := obj.Node()
	var answer any
	switch {
	case n.FunctionName() == "Collection.size":
		if f.sizeErr != nil {
			return f.sizeErr
		}
		answer = 11 * 3
	case n.FunctionName() == "AggregateFeatureCollection.array":
		answer = lst.Labels(lst.MonthlyWindows(2024))
	case len(n.Items()) == 2:
		f.mu.Lock()
		f.statsRequests++
		f.mu.Unlock()
		if monthStart(n) == january.UnixMilli() {
			answer = []any{0, map[string]any{"LST_mean": nil, "LST_min": nil, "LST_max": nil}}
		} else {
			answer = []any{3, map[string]any{"LST_mean": 35.5, "LST_min": 20.0, "LST_max": 50.25}}
		}
	default:
		return fmt.Errorf("unexpected query %q", n.FunctionName())
	}

	raw, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeSession) CreateMap(ctx context.Context, img earthengine.Image, vis earthengine.VisParams) (*earthengine.MapID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapVis = append(f.mapVis, vis)
	name := fmt.Sprintf("projects/p/maps/%d", len(f.mapVis))
	return &earthengine.MapID{Name: name, TileURL: "https://tiles.test/" + name + "/{z}/{x}/{y}"}, nil
}

func (f *fakeSession) CreateThumbnail(ctx context.Context, img earthengine.Image, vis earthengine.VisParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thumbnailCalls++
	if f.thumbnailErr != nil {
		return "", f.thumbnailErr
	}
	f.thumbnailVis = append(f.thumbnailVis, vis)
	return fmt.Sprintf("projects/p/thumbnails/%d", len(f.thumbnailVis)), nil
}

func (f *fakeSession) ThumbnailPixels(ctx context.Context, name string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 20))
	for x := 0; x < 32; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func monthStart(n *earthengine.Node) any {
	var start any
	var walk func(*earthengine.Node)
	walk = func(n *earthengine.Node) {
		if n == nil || start != nil {
			return
		}
		if n.FunctionName() == "Filter.dateRangeContains" {
			start, _ = n.Arg("leftValue").Arg("start").Arg("value").Constant()
			return
		}
		for _, arg := range n.Args() {
			walk(arg)
		}
		for _, item := range n.Items() {
			walk(item)
		}
		walk(n.Body())
	}
	walk(n)
	return start
}

func testOptions(t *testing.T) Options {
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(t.TempDir(), "result")
	opts.CacheDir = filepath.Join(t.TempDir(), "cache")
	opts.Concurrency = 3
	opts.ThumbnailSize = 32
	return opts
}

func TestBuildMonthlyLST(t *testing.T) {
	session := &fakeSession{}
	opts := testOptions(t)

	result, err := BuildMonthlyLST(context.Background(), session, opts)
	require.NoError(t, err)

	assert.Equal(t, 33, result.ImageCount)
	assert.Equal(t, lst.Labels(lst.MonthlyWindows(2024)), result.Labels)
	assert.Equal(t, filepath.Join(opts.OutputDir, "lst_2024.html"), result.MapPath)
	assert.Empty(t, result.StatisticsPath)
	assert.Empty(t, result.TimelapsePath)

	// One mosaic layer plus one tile set per month.
	require.Len(t, session.mapVis, 13)
	for _, vis := range session.mapVis {
		assert.Equal(t, lst.Visualization, vis)
	}

	page, err := os.ReadFile(result.MapPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Isfahan AOI")
	assert.Contains(t, string(page), "Monthly LST")
	assert.Contains(t, string(page), "December 2024")
	assert.Contains(t, string(page), "Max Monthly LST (°C)")
}

func TestBuildMonthlyLSTPropagatesServiceErrors(t *testing.T) {
	session := &fakeSession{sizeErr: errors.New("quota exceeded")}
	opts := testOptions(t)

	_, err := BuildMonthlyLST(context.Background(), session, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "lst_2024.html"))
}

func TestBuildMonthlyLSTWithStatisticsAndTimelapse(t *testing.T) {
	session := &fakeSession{}
	opts := testOptions(t)
	opts.Statistics = true
	opts.Timelapse = true

	result, err := BuildMonthlyLST(context.Background(), session, opts)
	require.NoError(t, err)

	require.Len(t, result.Statistics, 12)
	assert.False(t, result.Statistics[0].HasData)
	assert.Equal(t, 0, result.Statistics[0].Scenes)
	assert.True(t, result.Statistics[5].HasData)
	assert.Equal(t, 3, result.Statistics[5].Scenes)
	assert.Equal(t, 35.5, result.Statistics[5].Mean)

	csv, err := os.ReadFile(result.StatisticsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "month,start,end,scenes,mean_lst_c,min_lst_c,max_lst_c", lines[0])
	assert.Equal(t, "January 2024,2024-01-01,2024-02-01,0,,,", lines[1])
	assert.Equal(t, "February 2024,2024-02-01,2024-03-01,3,35.50,20.00,50.25", lines[2])

	require.Len(t, session.thumbnailVis, 12)
	for _, vis := range session.thumbnailVis {
		assert.Equal(t, lst.Visualization, vis)
	}

	assert.Equal(t, filepath.Join(opts.OutputDir, "lst_2024.avi"), result.TimelapsePath)
	video, err := os.ReadFile(result.TimelapsePath)
	require.NoError(t, err)
	require.Greater(t, len(video), 64)
	assert.Equal(t, "RIFF", string(video[0:4]))
	assert.Equal(t, "AVI ", string(video[8:12]))
	// 2 s per month at one frame per second.
	assert.Equal(t, uint32(24), binary.LittleEndian.Uint32(video[48:52]))
	assert.FileExists(t, filepath.Join(opts.OutputDir, "lst_2024_frames", "2024-03.png"))
}

func TestMonthlyStatisticsUsesCache(t *testing.T) {
	session := &fakeSession{}
	cacheDir := t.TempDir()
	products, _ := lst.BuildCollection(lst.Isfahan, lst.MonthlyWindows(2024), lst.DefaultMaxCloudCover)

	first, err := MonthlyStatistics(context.Background(), session, lst.Isfahan, products, cacheDir, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, session.statsRequests)

	second, err := MonthlyStatistics(context.Background(), session, lst.Isfahan, products, cacheDir, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, session.statsRequests)
	assert.Equal(t, first, second)
}

func TestThumbnailDimensions(t *testing.T) {
	w, h := thumbnailDimensions(lst.Isfahan, 500)
	assert.Equal(t, 500, w)
	assert.Equal(t, 300, h)

	w, h = thumbnailDimensions(lst.Region{West: 0, South: 0, East: 1, North: 2}, 100)
	assert.Equal(t, 50, w)
	assert.Equal(t, 100, h)

	w, h = thumbnailDimensions(lst.Region{}, 64)
	assert.Equal(t, 64, w)
	assert.Equal(t, 64, h)
}

func TestDownloadThumbnailsStopsAfterFirstFailure(t *testing.T) {
	session := &fakeSession{thumbnailErr: errors.New("quota exceeded")}
	products, _ := lst.BuildCollection(lst.Isfahan, lst.MonthlyWindows(2024), lst.DefaultMaxCloudCover)

	paths, err := DownloadThumbnails(context.Background(), session, lst.Isfahan, products, lst.Visualization, t.TempDir(), 32, 1)
	require.Error(t, err)
	assert.Nil(t, paths)
	assert.Contains(t, err.Error(), "January 2024: quota exceeded")

	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, 1, session.thumbnailCalls)
}
