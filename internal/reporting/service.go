package reporting

import "calldata-platform/internal/calls"

// Derive computes KPIs from already-filtered records and events.
// It is a pure function: same input, same output, no NaN on empty input.
func Derive(records []calls.CallRecord, events []calls.CallEvent, rate SavingsRate) KPIs {
	out := KPIs{Currency: rate.Currency}

	for _, r := range records {
		if r.Status.IsBooking() {
			out.Bookings++
		}
	}

	var totalDuration int
	for _, e := range events {
		totalDuration += e.DurationSeconds
		out.TimeSavedSeconds += e.EstimatedTimeSavedSeconds
		out.TotalCostMinor += e.CostMinor
		if e.Status.Handled() {
			out.CallsHandled++
		}
		if e.Status.Escalated() {
			out.Escalations++
		}
	}

	if len(events) > 0 {
		out.AvgHandleTimeSeconds = float64(totalDuration) / float64(len(events))
	}
	if out.CallsHandled > 0 {
		out.ConversionRate = float64(out.Bookings) / float64(out.CallsHandled)
	}
	out.EstimatedSavingsMinor = savingsMinor(out.TimeSavedSeconds, rate.MinorPerHour)
	return out
}

// savingsMinor rounds half up to the nearest minor unit.
func savingsMinor(seconds int, minorPerHour int64) int64 {
	if seconds <= 0 || minorPerHour <= 0 {
		return 0
	}
	return (int64(seconds)*minorPerHour + 1800) / 3600
}
