package dto

// Request DTOs

type UpdateCapacityRequest struct {
	Capacity *int `json:"capacity" validate:"required,gte=0"`
}

// Response DTOs

type CapacityDayResponse struct {
	DayName   string `json:"day_name"`
	Capacity  int    `json:"capacity"`
	IsDefault bool   `json:"is_default"`
}

type CapacityListResponse struct {
	Days            []CapacityDayResponse `json:"days"`
	DefaultCapacity int                   `json:"default_capacity"`
}
