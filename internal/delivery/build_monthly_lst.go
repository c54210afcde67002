package delivery

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/lst"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/mapview"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/ui"
	"github.com/paulmach/orb"
)

// Session is the part of an Earth Engine client the pipeline needs.
type Session interface {
	ComputeValue(ctx context.Context, obj earthengine.Computed, out any) error
	CreateMap(ctx context.Context, img earthengine.Image, vis earthengine.VisParams) (*earthengine.MapID, error)
	CreateThumbnail(ctx context.Context, img earthengine.Image, vis earthengine.VisParams) (string, error)
	ThumbnailPixels(ctx context.Context, name string) ([]byte, error)
}

type Options struct {
	Year          int
	Region        lst.Region
	RegionName    string
	Center        orb.Point
	Zoom          int
	MaxCloudCover float64
	// Interval is how long the time slider shows each month.
	Interval      time.Duration
	OutputDir     string
	CacheDir      string
	Concurrency   int
	Statistics    bool
	Timelapse     bool
	ThumbnailSize int
}

func DefaultOptions() Options {
	return Options{
		Year:          2024,
		Region:        lst.Isfahan,
		RegionName:    "Isfahan AOI",
		Center:        lst.IsfahanCenter,
		Zoom:          11,
		MaxCloudCover: lst.DefaultMaxCloudCover,
		Interval:      2 * time.Second,
		OutputDir:     "data/result",
		CacheDir:      "data/cache",
		Concurrency:   4,
		ThumbnailSize: 512,
	}
}

type Result struct {
	ImageCount     int
	Labels         []string
	MapPath        string
	StatisticsPath string
	TimelapsePath  string
	Statistics     []MonthStatistics
}

// BuildMonthlyLST composes the twelve monthly maximum LST products of
// opts.Year, confirms the collection size with the service and writes the
// interactive map. Statistics and the time-lapse are produced on request.
func BuildMonthlyLST(ctx context.Context, session Session, opts Options) (*Result, error) {
	region := opts.Region

	vis := lst.Visualization
	lstMap := mapview.New(fmt.Sprintf("Monthly LST %d", opts.Year), opts.Center, opts.Zoom)
	if err := lstMap.AddFeature(opts.RegionName, region.Feature(opts.RegionName)); err != nil {
		return nil, err
	}

	windows := lst.MonthlyWindows(opts.Year)
	for _, w := range windows {
		ui.PrintInfo(fmt.Sprintf("Composing %s (%s to %s)\n", w.Label, w.StartDate(), w.EndDate()))
	}
	products, collection := lst.BuildCollection(region, windows, opts.MaxCloudCover)

	var size int
	if err := session.ComputeValue(ctx, collection.Size(), &size); err != nil {
		return nil, fmt.Errorf("failed to get collection size: %w", err)
	}
	fmt.Printf("\nThere are %d images in the collection\n", size)

	if err := lstMap.AddLayer(ctx, session, collection.Mosaic(), vis, "Monthly LST"); err != nil {
		return nil, err
	}
	if err := lstMap.AddColorbar(vis, "Max Monthly LST (°C)"); err != nil {
		return nil, err
	}
	lstMap.AddLayerControl()

	var labels []string
	if err := session.ComputeValue(ctx, collection.AggregateArray(lst.MonthNameProp), &labels); err != nil {
		return nil, fmt.Errorf("failed to get month labels: %w", err)
	}
	images := make([]earthengine.Image, 0, len(products))
	for _, p := range products {
		images = append(images, p.Image)
	}
	if err := lstMap.AddTimeSlider(ctx, session, images, vis, opts.Interval, labels, opts.Concurrency); err != nil {
		return nil, err
	}

	result := &Result{
		ImageCount: size,
		Labels:     labels,
		MapPath:    filepath.Join(opts.OutputDir, fmt.Sprintf("lst_%d.html", opts.Year)),
	}
	if err := lstMap.Save(result.MapPath); err != nil {
		return nil, err
	}
	ui.PrintSuccess("Map saved to " + result.MapPath)

	if opts.Statistics {
		stats, err := MonthlyStatistics(ctx, session, region, products, opts.CacheDir, opts.Concurrency)
		if err != nil {
			return nil, err
		}
		result.Statistics = stats
		result.StatisticsPath = filepath.Join(opts.OutputDir, fmt.Sprintf("lst_%d_statistics.csv", opts.Year))
		if err := WriteStatisticsCSV(result.StatisticsPath, stats); err != nil {
			return nil, err
		}
		ui.PrintSuccess("Statistics saved to " + result.StatisticsPath)
	}

	if opts.Timelapse {
		path, err := BuildTimelapse(ctx, session, region, products, vis, opts)
		if err != nil {
			return nil, err
		}
		result.TimelapsePath = path
		ui.PrintSuccess("Time-lapse saved to " + result.TimelapsePath)
	}

	return result, nil
}
