package converter

import (
	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/domain/entity"
)

func StatsToResponse(stats *entity.AppointmentStats) dto.StatsResponse {
	if stats == nil {
		return dto.StatsResponse{}
	}
	return dto.StatsResponse{
		Total:     stats.Total,
		Today:     stats.Today,
		Pending:   stats.Pending,
		Completed: stats.Completed,
	}
}

func StatusCountsToResponses(rows []entity.StatusCount) []dto.StatusCountResponse {
	responses := make([]dto.StatusCountResponse, len(rows))
	for i, row := range rows {
		responses[i] = dto.StatusCountResponse{Status: row.Status, Count: row.Count}
	}
	return responses
}

func DailyCountsToResponses(rows []entity.DailyCount) []dto.DailyCountResponse {
	responses := make([]dto.DailyCountResponse, len(rows))
	for i, row := range rows {
		responses[i] = dto.DailyCountResponse{ScheduledDate: row.ScheduledDate, Count: row.Count}
	}
	return responses
}
