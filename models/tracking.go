package models

// SiteStats holds the counters for one domain on one day.
type SiteStats struct {
	Visits    int   `json:"visits"`
	TimeSpent int64 `json:"timeSpent"` // seconds
}

// TrackingDay maps a domain to its counters.
type TrackingDay map[string]SiteStats

// TrackingData maps a calendar day (2006-01-02) to that day's counters.
type TrackingData map[string]TrackingDay

type SiteSummary struct {
	Domain    string `json:"domain"`
	Visits    int    `json:"visits"`
	TimeSpent int64  `json:"timeSpent"`
	Minutes   int    `json:"minutes"`
}

type ChartPoint struct {
	Date    string `json:"date"`
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
}

type Insight struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

type Analytics struct {
	Day           string        `json:"day"`
	FocusMinutes  int           `json:"focus_minutes"`
	Blocks        int           `json:"blocks"`
	Score         int           `json:"score"`
	Rating        string        `json:"rating"`
	Streak        int           `json:"streak"`
	WeeklyAverage int           `json:"weekly_average"`
	Chart         []ChartPoint  `json:"chart"`
	TopSites      []SiteSummary `json:"top_sites"`
	Insights      []Insight     `json:"insights"`
}

type RecordActiveTimeRequest struct {
	Domain  string `json:"domain"`
	Seconds int64  `json:"seconds"`
}
