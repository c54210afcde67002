package lst

import "time"

const (
	dateLayout  = "2006-01-02"
	labelLayout = "January 2006"
)

// MonthWindow is the half-open interval [Start, End) of one calendar month.
type MonthWindow struct {
	Start time.Time
	End   time.Time
	Label string
}

// MonthlyWindows lists the twelve months of year in chronological order.
func MonthlyWindows(year int) []MonthWindow {
	windows := make([]MonthWindow, 0, 12)
	for month := time.January; month <= time.December; month++ {
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		windows = append(windows, NewMonthWindow(start))
	}
	return windows
}

// NewMonthWindow starts a window at the first day of start's month.
func NewMonthWindow(start time.Time) MonthWindow {
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthWindow{
		Start: start,
		End:   start.AddDate(0, 1, 0),
		Label: start.Format(labelLayout),
	}
}

func (w MonthWindow) StartDate() string {
	return w.Start.Format(dateLayout)
}

func (w MonthWindow) EndDate() string {
	return w.End.Format(dateLayout)
}

// Labels returns the window labels in order.
func Labels(windows []MonthWindow) []string {
	labels := make([]string, 0, len(windows))
	for _, w := range windows {
		labels = append(labels, w.Label)
	}
	return labels
}
