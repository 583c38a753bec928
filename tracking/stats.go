package tracking

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"focus-server/models"

	"github.com/samber/lo"
)

// ProductiveSites are domain fragments that count toward the quality score.
var ProductiveSites = []string{"github.com", "stackoverflow.com", "docs", "learn", "edu"}

// StreakThreshold is the minimum focus minutes for a day to extend a streak.
const StreakThreshold = 30

func IsProductive(domain string) bool {
	return lo.SomeBy(ProductiveSites, func(p string) bool { return strings.Contains(domain, p) })
}

func TotalSeconds(day models.TrackingDay) int64 {
	return lo.SumBy(lo.Values(map[string]models.SiteStats(day)), func(s models.SiteStats) int64 { return s.TimeSpent })
}

func FocusMinutes(day models.TrackingDay) int {
	return int(math.Round(float64(TotalSeconds(day)) / 60))
}

// Quality is the fraction of the day's time spent on productive domains.
func Quality(day models.TrackingDay) float64 {
	total := TotalSeconds(day)
	if total <= 0 {
		return 0
	}
	var productive int64
	for domain, s := range day {
		if IsProductive(domain) {
			productive += s.TimeSpent
		}
	}
	return float64(productive) / float64(total)
}

// ProductivityScore is min(round(min(focus*1.5,60) + min(blocks*2,20) + quality*20), 100).
func ProductivityScore(focusMinutes, blocks int, day models.TrackingDay) int {
	focusScore := math.Min(float64(focusMinutes)*1.5, 60)
	blockScore := math.Min(float64(blocks)*2, 20)
	qualityScore := Quality(day) * 20
	return int(math.Min(math.Round(focusScore+blockScore+qualityScore), 100))
}

func Rating(score int) string {
	switch {
	case score >= 80:
		return "Exceptional"
	case score >= 60:
		return "Great"
	case score >= 40:
		return "Good"
	default:
		return "Getting started"
	}
}

// Streak counts consecutive days ending today with at least StreakThreshold minutes.
func Streak(focusStats map[string]int, now time.Time) int {
	streak := 0
	for i := 0; ; i++ {
		key := DayKey(now.AddDate(0, 0, -i))
		minutes, ok := focusStats[key]
		if !ok || minutes < StreakThreshold {
			return streak
		}
		streak++
	}
}

func WeeklyAverage(focusStats map[string]int, now time.Time) int {
	sum := 0
	for i := 0; i < 7; i++ {
		sum += focusStats[DayKey(now.AddDate(0, 0, -i))]
	}
	return int(math.Round(float64(sum) / 7))
}

// Last7Days returns chart points, oldest first, ending today.
func Last7Days(focusStats map[string]int, now time.Time) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		key := DayKey(d)
		points = append(points, models.ChartPoint{
			Date:    key,
			Label:   d.Weekday().String()[:3],
			Minutes: focusStats[key],
		})
	}
	return points
}

// TopSites returns up to n domains ordered by time spent, then visits, then name.
func TopSites(day models.TrackingDay, n int) []models.SiteSummary {
	sites := make([]models.SiteSummary, 0, len(day))
	for domain, s := range day {
		sites = append(sites, models.SiteSummary{
			Domain:    domain,
			Visits:    s.Visits,
			TimeSpent: s.TimeSpent,
			Minutes:   int(math.Round(float64(s.TimeSpent) / 60)),
		})
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].TimeSpent != sites[j].TimeSpent {
			return sites[i].TimeSpent > sites[j].TimeSpent
		}
		if sites[i].Visits != sites[j].Visits {
			return sites[i].Visits > sites[j].Visits
		}
		return sites[i].Domain < sites[j].Domain
	})
	if n > 0 && len(sites) > n {
		sites = sites[:n]
	}
	return sites
}

func Insights(focusMinutes, blocks int, day models.TrackingDay, score, hour int) []models.Insight {
	var insights []models.Insight
	add := func(icon, text string) {
		insights = append(insights, models.Insight{Icon: icon, Text: text})
	}

	if score >= 80 {
		add("🎉", "You're in the top productivity zone! Amazing work ethic.")
	} else if score < 40 {
		add("💪", "Try setting a goal of 60 minutes focused work today.")
	}
	if focusMinutes < 30 {
		add("⏰", "Aim for at least 2 hours of focused work for optimal productivity.")
	} else if focusMinutes >= 120 {
		add("🔥", "Over 2 hours focused! Don't forget to take short breaks.")
	}
	if blocks == 0 {
		add("🚫", "Enable website blocking to prevent distractions automatically.")
	} else if blocks >= 5 {
		add("🛡️", fmt.Sprintf("Blocked %d distractions today. Your focus is improving!", blocks))
	}
	if len(day) > 15 {
		add("🎯", "You're switching between many sites. Try focusing on fewer tasks.")
	}
	if hour >= 9 && hour < 12 && focusMinutes < 30 {
		add("☀️", "Morning is prime focus time. Use it wisely!")
	}
	if len(insights) == 0 {
		add("📊", "Keep tracking your activity to receive personalized insights.")
	}
	return insights
}
