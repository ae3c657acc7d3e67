package reporting

// KPIs is the derived scalar summary of one aggregation.
//
// Calls come from events; bookings come from records. Every field is zero for empty input.
type KPIs struct {
	CallsHandled int `json:"calls_handled"`
	Bookings     int `json:"bookings"`
	Escalations  int `json:"escalations"`

	AvgHandleTimeSeconds float64 `json:"avg_handle_time_seconds"`
	ConversionRate       float64 `json:"conversion_rate"`

	TimeSavedSeconds      int    `json:"time_saved_seconds"`
	EstimatedSavingsMinor int64  `json:"estimated_savings_minor"`
	TotalCostMinor        int64  `json:"total_cost_minor"`
	Currency              string `json:"currency"`
}

// SavingsRate converts saved agent time into money. It is configuration, not derived.
type SavingsRate struct {
	MinorPerHour int64  `json:"minor_per_hour"`
	Currency     string `json:"currency"`
}
