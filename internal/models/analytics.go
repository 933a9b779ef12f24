package models

import "time"

// DailyStat holds one day's aggregated traffic counters.
type DailyStat struct {
	Day               time.Time `json:"day"`
	Visits            int       `json:"visits"`
	PageViews         int       `json:"page_views"`
	ReviewSubmissions int       `json:"review_submissions"`
}
