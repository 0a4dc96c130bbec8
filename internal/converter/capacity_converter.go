package converter

import (
	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/scheduler"
)

// CapacityTableToResponses lists the seven weekdays Monday first with their effective limit
func CapacityTableToResponses(table *scheduler.CapacityTable) []dto.CapacityDayResponse {
	days := make([]dto.CapacityDayResponse, 0, len(scheduler.WeekDays))
	for _, day := range scheduler.WeekDays {
		limit, explicit := table.For(day)
		days = append(days, dto.CapacityDayResponse{
			DayName:   day.String(),
			Capacity:  limit,
			IsDefault: !explicit,
		})
	}
	return days
}
