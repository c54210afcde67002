package delivery

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/lst"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/output"
	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
)

// thumbnailDimensions keeps the region's lon/lat aspect ratio with the
// longer side at size pixels.
func thumbnailDimensions(region lst.Region, size int) (int, int) {
	w := region.East - region.West
	h := region.North - region.South
	if w <= 0 || h <= 0 {
		return size, size
	}
	if w >= h {
		return size, max(1, int(math.Round(float64(size)*h/w)))
	}
	return max(1, int(math.Round(float64(size)*w/h))), size
}

// DownloadThumbnails renders each monthly product as a PNG into dir and
// returns the file paths in product order.
func DownloadThumbnails(ctx context.Context, session Session, region lst.Region, products []lst.MonthlyProduct, vis earthengine.VisParams, dir string, size, workers int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	width, height := thumbnailDimensions(region, size)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		paths          = make([]string, len(products))
		mu             sync.Mutex
		progressBar    = progressbar.Default(int64(len(products)), "Downloading thumbnails")
		errChan        = make(chan error, 1)
		stopProcessing sync.Once
	)
	// The first failure is kept and cancels the tasks still queued.
	fail := func(err error) {
		stopProcessing.Do(func() {
			errChan <- err
			cancel()
		})
	}

	wp := workerpool.New(workers)
	for i, p := range products {
		i, p := i, p
		wp.Submit(func() {
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			img := p.Image.ClipToBoundsAndScale(region.Geometry(), width, height)
			name, err := session.CreateThumbnail(ctx, img, vis)
			if err != nil {
				fail(fmt.Errorf("%s: %w", p.Window.Label, err))
				return
			}
			pixels, err := session.ThumbnailPixels(ctx, name)
			if err != nil {
				fail(fmt.Errorf("%s: %w", p.Window.Label, err))
				return
			}
			path := filepath.Join(dir, p.Window.Start.Format("2006-01")+".png")
			if err := os.WriteFile(path, pixels, 0644); err != nil {
				fail(err)
				return
			}

			mu.Lock()
			paths[i] = path
			progressBar.Add(1)
			mu.Unlock()
		})
	}

	wp.StopWait()
	close(errChan)
	if err := <-errChan; err != nil {
		return nil, fmt.Errorf("failed to download thumbnails: %w", err)
	}
	return paths, nil
}

// BuildTimelapse downloads the monthly thumbnails and assembles them into an
// MJPEG video advancing at the slider interval.
func BuildTimelapse(ctx context.Context, session Session, region lst.Region, products []lst.MonthlyProduct, vis earthengine.VisParams, opts Options) (string, error) {
	thumbDir := filepath.Join(opts.OutputDir, fmt.Sprintf("lst_%d_frames", opts.Year))
	paths, err := DownloadThumbnails(ctx, session, region, products, vis, thumbDir, opts.ThumbnailSize, opts.Concurrency)
	if err != nil {
		return "", err
	}
	labels := make([]string, 0, len(products))
	for _, p := range products {
		labels = append(labels, p.Window.Label)
	}
	outputPath := filepath.Join(opts.OutputDir, fmt.Sprintf("lst_%d.avi", opts.Year))
	if err := output.CreateTimelapse(paths, labels, outputPath, opts.Interval); err != nil {
		return "", err
	}
	return outputPath, nil
}
