package dto

import "time"

type StatsResponse struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
}

type DashboardSummary struct {
	StatsResponse
	TodayCapacityUsed       int64   `json:"today_capacity_used"`
	TodayCapacityTotal      int     `json:"today_capacity_total"`
	TodayCapacityPercentage float64 `json:"today_capacity_percentage"`
}

type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DailyCountResponse struct {
	ScheduledDate string `json:"scheduled_date"`
	Count         int64  `json:"count"`
}

type DashboardResponse struct {
	Summary            DashboardSummary      `json:"summary"`
	RecentAppointments []AppointmentResponse `json:"recent_appointments"`
	TodayAppointments  []AppointmentResponse `json:"today_appointments"`
	StatusCounts       []StatusCountResponse `json:"status_counts"`
	DailyCounts        []DailyCountResponse  `json:"daily_counts"`
	CapacityRules      []CapacityDayResponse `json:"capacity_rules"`
	LastUpdated        time.Time             `json:"last_updated"`
}
