package powertimer

import "time"

// StatsSessionLimit caps how many sessions are read to compute Stats.
const StatsSessionLimit = 10000

type Stats struct {
	TotalSessions          int            `json:"total_sessions"`
	TotalTimeSeconds       int            `json:"total_time_seconds"`
	Categories             map[string]int `json:"categories"`
	TodaySessions          int            `json:"today_sessions"`
	TodayTimeSeconds       int            `json:"today_time_seconds"`
	AverageSessionDuration float64        `json:"average_session_duration"`
}

// ComputeStats aggregates completed seconds over sessions. "Today" is the UTC
// calendar date of now.
func ComputeStats(sessions []SessionRecord, now time.Time) Stats {
	stats := Stats{
		Categories: make(map[string]int),
	}
	if len(sessions) == 0 {
		return stats
	}

	ty, tm, td := now.UTC().Date()
	for _, s := range sessions {
		stats.TotalSessions++
		stats.TotalTimeSeconds += s.CompletedSeconds

		category := s.Category
		if category == "" {
			category = DefaultCategory
		}
		stats.Categories[category] += s.CompletedSeconds

		if y, m, d := s.SessionDate.UTC().Date(); y == ty && m == tm && d == td {
			stats.TodaySessions++
			stats.TodayTimeSeconds += s.CompletedSeconds
		}
	}
	stats.AverageSessionDuration = float64(stats.TotalTimeSeconds) / float64(stats.TotalSessions)

	return stats
}
