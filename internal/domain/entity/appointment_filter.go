package entity

// AppointmentFilter is a domain-level filter for the staff appointment list.
// Used by repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	Query         string // matches name, ticket number or phone (LIKE)
	Status        string // empty or "all" disables the filter
	ScheduledDate string // Format: YYYY-MM-DD
	SortField     string // created_at, scheduled_date, status, name
	SortDesc      bool
	Limit         int // 0 means no limit
	Offset        int
}

// AppointmentStats is the quick counter block shown on the dashboard
type AppointmentStats struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
}

// StatusCount groups appointments by status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DailyCount groups appointments by scheduled date
type DailyCount struct {
	ScheduledDate string `json:"scheduled_date"`
	Count         int64  `json:"count"`
}
