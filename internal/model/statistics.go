package model

// Statistics aggregates a date-bounded appointment set. Rates are
// percentages in [0, 100], zero when the set is empty.
type Statistics struct {
	Total            int     `json:"total"`
	Completed        int     `json:"completed"`
	Cancelled        int     `json:"cancelled"`
	NoShow           int     `json:"no_show"`
	Upcoming         int     `json:"upcoming"`
	CompletionRate   float64 `json:"completion_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
	NoShowRate       float64 `json:"no_show_rate"`
	TotalRevenue     float64 `json:"total_revenue"`
}
