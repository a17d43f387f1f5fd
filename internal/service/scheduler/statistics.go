package scheduler

import (
	"github.com/bodyworks/scheduler-api/internal/model"
)

// Compute derives aggregate counts, rates and revenue from an
// already-materialized appointment set. Revenue sums completed, paid
// appointments with a recorded price. Pure; safe for concurrent
// readers.
func Compute(appointments []*model.Appointment) *model.Statistics {
	stats := &model.Statistics{Total: len(appointments)}

	for _, apt := range appointments {
		switch apt.Status {
		case model.AppointmentStatusCompleted:
			stats.Completed++
			if apt.Paid && apt.Price != nil {
				stats.TotalRevenue += *apt.Price
			}
		case model.AppointmentStatusCancelled:
			stats.Cancelled++
		case model.AppointmentStatusNoShow:
			stats.NoShow++
		default:
			stats.Upcoming++
		}
	}

	if stats.Total > 0 {
		total := float64(stats.Total)
		stats.CompletionRate = float64(stats.Completed) / total * 100
		stats.CancellationRate = float64(stats.Cancelled) / total * 100
		stats.NoShowRate = float64(stats.NoShow) / total * 100
	}
	return stats
}
