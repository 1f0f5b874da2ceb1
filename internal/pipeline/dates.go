package pipeline

import (
	"time"

	"github.com/metalake/ads-core/internal/meta"
)

const defaultDaysBack = 90

// RunDates carries the date anchors for one extraction run. Yesterday is
// the extraction date: it names the table suffix and bounds the insights
// window, since today's metrics are still moving.
type RunDates struct {
	RunTime      time.Time
	Since        string // YYYY-MM-DD, daysBack before the run
	Yesterday    string // YYYYMMDD, table suffix
	YesterdayISO string // YYYY-MM-DD
	DaysBack     int
}

// NewRunDates derives run dates from a clock instant. A non-positive
// daysBack falls back to the 90 day default.
func NewRunDates(now time.Time, daysBack int) RunDates {
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	now = now.UTC()
	yesterday := now.AddDate(0, 0, -1)
	return RunDates{
		RunTime:      now,
		Since:        now.AddDate(0, 0, -daysBack).Format("2006-01-02"),
		Yesterday:    yesterday.Format("20060102"),
		YesterdayISO: yesterday.Format("2006-01-02"),
		DaysBack:     daysBack,
	}
}

// Window returns the insights time range: daysBack ago through yesterday,
// inclusive.
func (d RunDates) Window() meta.DateWindow {
	return meta.DateWindow{Since: d.Since, Until: d.YesterdayISO}
}
