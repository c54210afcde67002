package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/cache"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/earthengine"
	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/lst"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// StatisticsScale is the pixel size in meters of the Landsat thermal
// products.
const StatisticsScale = 30.0

// Archives still grow for recent months, so cached answers expire.
const statisticsMaxAge = 7 * 24 * time.Hour

// MonthStatistics summarizes one monthly product over the region.
type MonthStatistics struct {
	Window  lst.MonthWindow
	Scenes  int
	HasData bool
	Mean    float64
	Min     float64
	Max     float64
}

type statisticsRow struct {
	Month  string `csv:"month"`
	Start  string `csv:"start"`
	End    string `csv:"end"`
	Scenes int    `csv:"scenes"`
	Mean   string `csv:"mean_lst_c"`
	Min    string `csv:"min_lst_c"`
	Max    string `csv:"max_lst_c"`
}

// computedStatistics is the cached server answer for one month.
type computedStatistics struct {
	Scenes int                 `json:"scenes"`
	Values map[string]*float64 `json:"values"`
}

// statisticsQuery asks for the scene count and the mean, min and max LST of
// the product in one round trip.
func statisticsQuery(region lst.Region, p lst.MonthlyProduct) earthengine.Object {
	reducer := earthengine.MeanReducer().Combine(earthengine.MinMaxReducer())
	return earthengine.List(
		p.Scenes.Size(),
		p.Image.ReduceRegion(reducer, region.Geometry(), StatisticsScale),
	)
}

// MonthlyStatistics computes per month statistics, reusing answers cached
// under cacheDir for identical queries.
func MonthlyStatistics(ctx context.Context, session Session, region lst.Region, products []lst.MonthlyProduct, cacheDir string, concurrency int) ([]MonthStatistics, error) {
	store := cache.NewFileCache[computedStatistics](filepath.Join(cacheDir, "statistics"), statisticsMaxAge)
	stats := make([]MonthStatistics, len(products))
	progressBar := progressbar.Default(int64(len(products)), "Computing monthly statistics")

	if concurrency < 1 {
		concurrency = 1
	}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			computed, err := computeStatistics(ctx, session, store, statisticsQuery(region, p))
			if err != nil {
				return fmt.Errorf("failed to compute statistics for %s: %w", p.Window.Label, err)
			}
			stats[i] = toMonthStatistics(p.Window, computed)
			mu.Lock()
			progressBar.Add(1)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func computeStatistics(ctx context.Context, session Session, store *cache.FileCache[computedStatistics], query earthengine.Object) (computedStatistics, error) {
	expr, err := earthengine.Serialize(query)
	if err != nil {
		return computedStatistics{}, err
	}
	key, err := store.Key(expr)
	if err != nil {
		return computedStatistics{}, err
	}
	if cached, ok := store.Get(key); ok {
		return cached, nil
	}

	var raw []json.RawMessage
	if err := session.ComputeValue(ctx, query, &raw); err != nil {
		return computedStatistics{}, err
	}
	if len(raw) != 2 {
		return computedStatistics{}, fmt.Errorf("unexpected statistics answer with %d elements", len(raw))
	}
	var computed computedStatistics
	if err := json.Unmarshal(raw[0], &computed.Scenes); err != nil {
		return computedStatistics{}, fmt.Errorf("failed to decode scene count: %w", err)
	}
	if err := json.Unmarshal(raw[1], &computed.Values); err != nil {
		return computedStatistics{}, fmt.Errorf("failed to decode region statistics: %w", err)
	}

	if err := store.Set(key, computed); err != nil {
		fmt.Printf("Failed to cache statistics: %v\n", err)
	}
	return computed, nil
}

func toMonthStatistics(window lst.MonthWindow, computed computedStatistics) MonthStatistics {
	s := MonthStatistics{Window: window, Scenes: computed.Scenes}
	mean := computed.Values[lst.LSTBand+"_mean"]
	lo := computed.Values[lst.LSTBand+"_min"]
	hi := computed.Values[lst.LSTBand+"_max"]
	if mean == nil || lo == nil || hi == nil {
		return s
	}
	s.HasData = true
	s.Mean, s.Min, s.Max = *mean, *lo, *hi
	return s
}

// WriteStatisticsCSV writes one row per month; months without data leave
// the temperature columns empty.
func WriteStatisticsCSV(path string, stats []MonthStatistics) error {
	rows := make([]*statisticsRow, 0, len(stats))
	for _, s := range stats {
		row := &statisticsRow{
			Month:  s.Window.Label,
			Start:  s.Window.StartDate(),
			End:    s.Window.EndDate(),
			Scenes: s.Scenes,
		}
		if s.HasData {
			row.Mean = formatCelsius(s.Mean)
			row.Min = formatCelsius(s.Min)
			row.Max = formatCelsius(s.Max)
		}
		rows = append(rows, row)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create statistics file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}

func formatCelsius(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
