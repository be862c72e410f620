package attendance

import (
	"context"
	"time"
)

// TrendPoint is one day of the rolling attendance trend.
type TrendPoint struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Total   int    `json:"total"`
}

// Breakdown splits today's ledger entries by origin.
type Breakdown struct {
	Manual        int `json:"manual"`
	PhotoVerified int `json:"photoVerified"`
}

// Stats is the admin dashboard payload. Every quantity is recomputed from
// storage on each call so the numbers can never lag the verification
// engine's writes.
type Stats struct {
	TotalStudents        int          `json:"totalStudents"`
	PresentToday         int          `json:"presentToday"`
	AbsentToday          int          `json:"absentToday"`
	PendingAttendance    int          `json:"pendingAttendance"`
	PendingLeaveRequests int          `json:"pendingLeaveRequests"`
	AttendanceTrends     []TrendPoint `json:"attendanceTrends"`
	AttendanceBreakdown  Breakdown    `json:"attendanceBreakdown"`
	TodayDate            string       `json:"todayDate"`
	LastUpdated          time.Time    `json:"lastUpdated"`
}

// DashboardStats computes the read-side rollups for the calendar day of
// now. PendingLeaveRequests is filled in by the caller; leave requests
// live outside the attendance store.
func (s *Service) DashboardStats(ctx context.Context, now time.Time) (Stats, error) {
	today := DateKey(now)

	students, err := s.adapter.ListStudents(ctx)
	if err != nil {
		return Stats{}, err
	}
	todayEntries, err := s.adapter.ListDaily(ctx, today)
	if err != nil {
		return Stats{}, err
	}
	submissions, err := s.adapter.ListSubmissions(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalStudents: len(students),
		TodayDate:     today,
		LastUpdated:   time.Now().UTC(),
	}
	for _, e := range todayEntries {
		switch e.Status {
		case StatusPresent:
			stats.PresentToday++
		case StatusAbsent:
			stats.AbsentToday++
		}
		switch e.Type {
		case TypeManual:
			stats.AttendanceBreakdown.Manual++
		case TypePhotoVerified:
			stats.AttendanceBreakdown.PhotoVerified++
		}
	}
	for _, sub := range submissions {
		if sub.Status == StatusPending {
			stats.PendingAttendance++
		}
	}

	// Seven calendar days ending today, oldest first.
	for i := 6; i >= 0; i-- {
		key := DateKey(now.AddDate(0, 0, -i))
		day, err := s.adapter.ListDaily(ctx, key)
		if err != nil {
			return Stats{}, err
		}
		point := TrendPoint{Date: key, Total: len(day)}
		for _, e := range day {
			switch e.Status {
			case StatusPresent:
				point.Present++
			case StatusAbsent:
				point.Absent++
			}
		}
		stats.AttendanceTrends = append(stats.AttendanceTrends, point)
	}

	return stats, nil
}

// PresentToday returns today's Present ledger entries.
func (s *Service) PresentToday(ctx context.Context, now time.Time) ([]DailyEntry, error) {
	entries, err := s.adapter.ListDaily(ctx, DateKey(now))
	if err != nil {
		return nil, err
	}
	var present []DailyEntry
	for _, e := range entries {
		if e.Status == StatusPresent {
			present = append(present, e)
		}
	}
	return present, nil
}
